package query

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func values(raw string) url.Values {
	v, err := url.ParseQuery(raw)
	if err != nil {
		panic(err)
	}
	return v
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		raw      string
		page     int64
		limit    int64
		wantSkip int64
	}{
		{"", 1, 10, 0},
		{"page=3&limit=20", 3, 20, 40},
		{"page=0&limit=-5", 1, 10, 0},
		{"page=abc&limit=x", 1, 10, 0},
		{"page=2&limit=500", 2, MaxLimit, MaxLimit},
		{"page=7&limit=1", 7, 1, 6},
		{"page=9223372036854775807&limit=10", 922337203685477581, 10, 9223372036854775800},
		{"page=9223372036854775807&limit=1", math.MaxInt64, 1, math.MaxInt64 - 1},
		{"page=99999999999999999999", 1, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			p := ParsePagination(values(tt.raw))
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.limit, p.Limit)
			assert.Equal(t, tt.wantSkip, p.Skip())
			assert.GreaterOrEqual(t, p.Skip(), int64(0))
		})
	}
}

func TestSkipAndTotalPagesForAllValidInputs(t *testing.T) {
	for page := int64(1); page <= 5; page++ {
		for limit := int64(1); limit <= MaxLimit; limit += 7 {
			for _, total := range []int64{0, 1, limit - 1, limit, limit + 1, 3*limit + 2} {
				p := Pagination{Page: page, Limit: limit}
				assert.Equal(t, (page-1)*limit, p.Skip())

				want := int64(math.Ceil(float64(total) / float64(limit)))
				assert.Equal(t, want, NewMeta(p, total).TotalPages, "total=%d limit=%d", total, limit)
			}
		}
	}
}

func TestNewMeta(t *testing.T) {
	m := NewMeta(Pagination{Page: 2, Limit: 10}, 35)
	assert.Equal(t, Meta{Page: 2, Limit: 10, Total: 35, TotalPages: 4}, m)
}

func TestParseCategories(t *testing.T) {
	assert.Equal(t, []string{"grocery", "beauty"}, ParseCategories("Grocery, beauty"))
	assert.Equal(t, []string{"beauty"}, ParseCategories(" ,BEAUTY,, "))
	assert.Nil(t, ParseCategories(""))
}

func TestProductFilter_Empty(t *testing.T) {
	assert.Equal(t, bson.M{}, ProductFilter(values("page=2")))
	assert.Equal(t, bson.M{}, ProductFilter(values("search=")))
	assert.Equal(t, bson.M{}, ProductFilter(values("search=%20%20")))
}

func TestProductFilter_Search(t *testing.T) {
	f := ProductFilter(values("search=c%2B%2B"))

	re := bson.M{"$regex": `c\+\+`, "$options": "i"}
	assert.Equal(t, []bson.M{
		{"name": re},
		{"brand": re},
		{"description": re},
	}, f["$or"])
}

func TestProductFilter_Categories(t *testing.T) {
	f := ProductFilter(values("categories=Grocery,%20beauty"))
	assert.Equal(t, bson.M{"$in": []string{"grocery", "beauty"}}, f["category"])
}

func TestProductFilter_PriceRange(t *testing.T) {
	tests := []struct {
		raw  string
		want any
	}{
		{"minPrice=10", bson.M{"$gte": 10.0}},
		{"maxPrice=50", bson.M{"$gte": 0.0, "$lte": 50.0}},
		{"minPrice=5&maxPrice=25.5", bson.M{"$gte": 5.0, "$lte": 25.5}},
		{"minPrice=-1&maxPrice=20", bson.M{"$lte": 20.0}},
		{"minPrice=abc", bson.M{"$gte": 0.0}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ProductFilter(values(tt.raw))["price"])
		})
	}

	_, ok := ProductFilter(values("minPrice=-3"))["price"]
	assert.False(t, ok)
	_, ok = ProductFilter(values("search=rice"))["price"]
	assert.False(t, ok)
}

func TestProductFilter_Combined(t *testing.T) {
	f := ProductFilter(values("search=oil&categories=grocery&minPrice=1&maxPrice=9"))
	assert.Len(t, f, 3)
	assert.Contains(t, f, "$or")
	assert.Contains(t, f, "category")
	assert.Contains(t, f, "price")
}

func TestOrderFilter(t *testing.T) {
	uid := primitive.NewObjectID()

	f, err := OrderFilter(values("status=shipped&isPaid=true&isDelivered=false&userId="+uid.Hex()), false)
	require.NoError(t, err)

	assert.Equal(t, "shipped", f["status"])
	assert.Equal(t, true, f["isPaid"])
	assert.Equal(t, false, f["isDelivered"])
	assert.Equal(t, uid, f["user"])
}

func TestOrderFilter_BooleanCoercion(t *testing.T) {
	f, err := OrderFilter(values("isPaid=yes&isDelivered="), false)
	require.NoError(t, err)
	assert.Equal(t, false, f["isPaid"])
	assert.Equal(t, false, f["isDelivered"])

	f, err = OrderFilter(values(""), false)
	require.NoError(t, err)
	assert.NotContains(t, f, "isPaid")
}

func TestOrderFilter_MalformedUserID(t *testing.T) {
	f, err := OrderFilter(values("userId=not-an-id&status=pending"), false)
	require.NoError(t, err)
	assert.NotContains(t, f, "user")
	assert.Equal(t, "pending", f["status"])

	_, err = OrderFilter(values("userId=not-an-id"), true)
	assert.ErrorIs(t, err, ErrInvalidUserID)
}

func TestOrderFilter_Search(t *testing.T) {
	f, err := OrderFilter(values("search=ORD-1"), false)
	require.NoError(t, err)

	re := bson.M{"$regex": "ORD-1", "$options": "i"}
	assert.Equal(t, []bson.M{
		{"orderId": re},
		{"shippingAddress.fullName": re},
		{"shippingAddress.phone": re},
	}, f["$or"])
}
