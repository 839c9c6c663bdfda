package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New("shop")

	m.OrdersCreated.Inc()
	m.OrdersCreated.Inc()
	m.AuthFailures.WithLabelValues("forbidden").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OrdersCreated))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ProductsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthFailures.WithLabelValues("forbidden")))
}

func TestHandlerExposesNamespace(t *testing.T) {
	m := New("shop")
	m.ProductsCreated.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "shop_products_created_total 1")
}
