package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"shop-backend/internal/auth"
	"shop-backend/internal/events"
	"shop-backend/internal/models"
	"shop-backend/internal/query"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testLogger = zap.NewNop()

type mockProductStore struct{ mock.Mock }

func (m *mockProductStore) Create(ctx context.Context, p *models.Product) (*models.ProductDetail, error) {
	args := m.Called(ctx, p)
	d, _ := args.Get(0).(*models.ProductDetail)
	return d, args.Error(1)
}

func (m *mockProductStore) FindByID(ctx context.Context, id string) (*models.ProductDetail, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*models.ProductDetail)
	return d, args.Error(1)
}

func (m *mockProductStore) List(ctx context.Context, filter bson.M, page query.Pagination) ([]models.ProductDetail, int64, error) {
	args := m.Called(ctx, filter, page)
	d, _ := args.Get(0).([]models.ProductDetail)
	return d, args.Get(1).(int64), args.Error(2)
}

func (m *mockProductStore) Update(ctx context.Context, id string, in models.ProductInput) (*models.ProductDetail, error) {
	args := m.Called(ctx, id, in)
	d, _ := args.Get(0).(*models.ProductDetail)
	return d, args.Error(1)
}

func (m *mockProductStore) Delete(ctx context.Context, id string) (*models.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

type mockOrderStore struct{ mock.Mock }

func (m *mockOrderStore) Create(ctx context.Context, o *models.Order) (*models.OrderDetail, error) {
	args := m.Called(ctx, o)
	d, _ := args.Get(0).(*models.OrderDetail)
	return d, args.Error(1)
}

func (m *mockOrderStore) FindByID(ctx context.Context, id string) (*models.OrderDetail, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*models.OrderDetail)
	return d, args.Error(1)
}

func (m *mockOrderStore) List(ctx context.Context, filter bson.M, page query.Pagination) ([]models.OrderDetail, int64, error) {
	args := m.Called(ctx, filter, page)
	d, _ := args.Get(0).([]models.OrderDetail)
	return d, args.Get(1).(int64), args.Error(2)
}

func (m *mockOrderStore) Update(ctx context.Context, id string, upd models.OrderUpdate) (*models.OrderDetail, error) {
	args := m.Called(ctx, id, upd)
	d, _ := args.Get(0).(*models.OrderDetail)
	return d, args.Error(1)
}

func (m *mockOrderStore) Delete(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Create(ctx context.Context, u *models.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

// recordingPublisher keeps every published subject.
type recordingPublisher struct {
	subjects []string
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, _ any) error {
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *recordingPublisher) Close() {}

var _ events.Publisher = (*recordingPublisher)(nil)

// staticIdentities resolves fixed bearer tokens.
type staticIdentities map[string]*auth.Identity

func (s staticIdentities) Resolve(_ context.Context, credential string) (*auth.Identity, error) {
	if id, ok := s[credential]; ok {
		return id, nil
	}
	return nil, auth.ErrUnauthenticated
}

type fixedTokens struct{}

func (fixedTokens) Issue(userID, role string) (string, time.Time, error) {
	return "token-" + userID, time.Now().Add(time.Hour), nil
}

func perform(t *testing.T, r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Error      string          `json:"error"`
	Data       json.RawMessage `json:"data"`
	Pagination *query.Meta     `json:"pagination"`
	Token      string          `json:"token"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}
