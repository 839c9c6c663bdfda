package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"shop-backend/internal/auth"
	"shop-backend/internal/config"
	"shop-backend/internal/events"
	"shop-backend/internal/metrics"
	"shop-backend/internal/middleware"
	"shop-backend/internal/models"
	"shop-backend/internal/query"
	"shop-backend/internal/repository"
)

var (
	adminIdentity    = &auth.Identity{UserID: primitive.NewObjectID(), Email: "admin@example.com", Role: models.RoleAdmin}
	retailerIdentity = &auth.Identity{UserID: primitive.NewObjectID(), Email: "shop@example.com", Role: models.RoleRetailer}
	identities       = staticIdentities{"admin": adminIdentity, "retailer": retailerIdentity}
)

type productFixture struct {
	store   *mockProductStore
	events  *recordingPublisher
	metrics *metrics.Metrics
	router  *gin.Engine
}

func newProductFixture() *productFixture {
	f := &productFixture{
		store:   new(mockProductStore),
		events:  &recordingPublisher{},
		metrics: metrics.New("test"),
	}

	guard := middleware.NewGuard(identities, f.metrics)
	h := NewProductHandler(f.store, f.events, f.metrics, testLogger)

	r := gin.New()
	r.POST("/products", append(guard.Policy(config.AccessAdmin), h.CreateProduct)...)
	r.GET("/products", h.GetProducts)
	r.GET("/products/:id", h.GetProductByID)
	r.PATCH("/products/:id", append(guard.Policy(config.AccessAdmin), h.UpdateProduct)...)
	r.DELETE("/products/:id", append(guard.Policy(config.AccessAdmin), h.DeleteProduct)...)
	f.router = r
	return f
}

func TestCreateProduct(t *testing.T) {
	f := newProductFixture()

	isRice := mock.MatchedBy(func(p *models.Product) bool {
		return p.Name == "Basmati Rice" &&
			p.Category == "grocery" &&
			p.CreatedBy == adminIdentity.UserID &&
			p.Price == 0 &&
			p.MOQ == 1 &&
			len(p.Variants) == 2 && p.Variants[0] == "1kg"
	})
	f.store.On("Create", mock.Anything, isRice).
		Return(&models.ProductDetail{Product: models.Product{Name: "Basmati Rice"}}, nil)

	body := `{"name":" Basmati Rice ","description":"Long grain","category":" Grocery ","brand":"Tilda","images":"rice.png","price":0,"variants":[" 1kg","5kg "]}`
	rec := perform(t, f.router, http.MethodPost, "/products", body, "admin")

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "Product created successfully", env.Message)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ProductsCreated))
	assert.Equal(t, []string{events.ProductCreated}, f.events.subjects)
	f.store.AssertExpectations(t)
}

func TestCreateProduct_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		token  string
		status int
	}{
		{"missing fields", `{"name":"Rice"}`, "admin", http.StatusBadRequest},
		{"unknown category", `{"name":"Rice","description":"d","category":"toys","brand":"b","images":"i","price":1}`, "admin", http.StatusBadRequest},
		{"negative price", `{"name":"Rice","description":"d","category":"grocery","brand":"b","images":"i","price":-1}`, "admin", http.StatusBadRequest},
		{"malformed json", `{"name":`, "admin", http.StatusBadRequest},
		{"retailer", `{"name":"Rice"}`, "retailer", http.StatusForbidden},
		{"anonymous", `{"name":"Rice"}`, "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newProductFixture()
			rec := perform(t, f.router, http.MethodPost, "/products", tt.body, tt.token)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.False(t, decode(t, rec).Success)
			f.store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestGetProducts(t *testing.T) {
	f := newProductFixture()

	wantFilter := bson.M{
		"category": bson.M{"$in": []string{"grocery", "beauty"}},
		"price":    bson.M{"$gte": 10.0},
	}
	f.store.On("List", mock.Anything, wantFilter, query.Pagination{Page: 2, Limit: 5}).
		Return([]models.ProductDetail{{}, {}}, int64(12), nil)

	rec := perform(t, f.router, http.MethodGet, "/products?page=2&limit=5&categories=Grocery,%20beauty&minPrice=10", "", "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	env := decode(t, rec)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, query.Meta{Page: 2, Limit: 5, Total: 12, TotalPages: 3}, *env.Pagination)
	f.store.AssertExpectations(t)
}

func TestGetProducts_StoreError(t *testing.T) {
	f := newProductFixture()
	f.store.On("List", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, int64(0), assert.AnError)

	rec := perform(t, f.router, http.MethodGet, "/products", "", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Error fetching products", decode(t, rec).Message)
}

func TestGetProductByID(t *testing.T) {
	f := newProductFixture()
	absent := primitive.NewObjectID().Hex()
	f.store.On("FindByID", mock.Anything, absent).Return(nil, repository.ErrNotFound)

	rec := perform(t, f.router, http.MethodGet, "/products/12345", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid product ID", decode(t, rec).Message)
	f.store.AssertNotCalled(t, "FindByID", mock.Anything, "12345")

	rec = perform(t, f.router, http.MethodGet, "/products/"+absent, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Product not found", decode(t, rec).Message)
}

func TestUpdateProduct_NonAdminForbidden(t *testing.T) {
	f := newProductFixture()
	id := primitive.NewObjectID().Hex()

	rec := perform(t, f.router, http.MethodPatch, "/products/"+id, `{"price":1}`, "retailer")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	f.store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AuthFailures.WithLabelValues("forbidden")))
}

func TestUpdateProduct(t *testing.T) {
	f := newProductFixture()
	id := primitive.NewObjectID().Hex()

	hasPrice := mock.MatchedBy(func(in models.ProductInput) bool {
		return in.Price != nil && *in.Price == 12.5 && in.Name == nil
	})
	f.store.On("Update", mock.Anything, id, hasPrice).
		Return(&models.ProductDetail{Product: models.Product{Price: 12.5}}, nil)

	rec := perform(t, f.router, http.MethodPatch, "/products/"+id, `{"price":12.5}`, "admin")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Product updated successfully", decode(t, rec).Message)
	assert.Equal(t, []string{events.ProductUpdated}, f.events.subjects)
}

func TestUpdateProduct_NotFound(t *testing.T) {
	f := newProductFixture()
	id := primitive.NewObjectID().Hex()
	f.store.On("Update", mock.Anything, id, mock.Anything).
		Return(nil, repository.ErrNotFound)

	rec := perform(t, f.router, http.MethodPatch, "/products/"+id, `{"stock":3}`, "admin")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, f.events.subjects)
}

func TestDeleteProduct(t *testing.T) {
	f := newProductFixture()
	id := primitive.NewObjectID().Hex()
	f.store.On("Delete", mock.Anything, id).Return(&models.Product{Name: "Rice"}, nil).Once()
	f.store.On("FindByID", mock.Anything, id).Return(nil, repository.ErrNotFound)

	rec := perform(t, f.router, http.MethodDelete, "/products/"+id, "", "admin")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Product deleted successfully", decode(t, rec).Message)
	assert.Equal(t, []string{events.ProductDeleted}, f.events.subjects)

	rec = perform(t, f.router, http.MethodGet, "/products/"+id, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
