// Package query turns list-endpoint query parameters into store filters and
// pagination.
package query

import (
	"errors"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ErrInvalidUserID is returned for a malformed userId filter in strict mode.
var ErrInvalidUserID = errors.New("invalid userId filter")

// Pagination is a resolved page request.
type Pagination struct {
	Page  int64
	Limit int64
}

func (p Pagination) Skip() int64 {
	return (p.Page - 1) * p.Limit
}

// Meta is the pagination block of a list response.
type Meta struct {
	Page       int64 `json:"page"`
	Limit      int64 `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

func NewMeta(p Pagination, total int64) Meta {
	return Meta{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: (total + p.Limit - 1) / p.Limit,
	}
}

// SortNewestFirst orders by creation time descending.
func SortNewestFirst() bson.D {
	return bson.D{{Key: "createdAt", Value: -1}}
}

// ParsePagination reads page and limit, falling back to defaults for
// missing or out-of-range values.
func ParsePagination(values url.Values) Pagination {
	page, err := strconv.ParseInt(values.Get("page"), 10, 64)
	if err != nil || page < 1 {
		page = DefaultPage
	}

	limit, err := strconv.ParseInt(values.Get("limit"), 10, 64)
	if err != nil || limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	// keep (page-1)*limit within int64
	if page-1 > math.MaxInt64/limit {
		page = math.MaxInt64/limit + 1
	}

	return Pagination{Page: page, Limit: limit}
}

// ProductFilter builds the product list filter from search, categories,
// minPrice and maxPrice.
func ProductFilter(values url.Values) bson.M {
	filter := bson.M{}

	if search := strings.TrimSpace(values.Get("search")); search != "" {
		filter["$or"] = []bson.M{
			{"name": contains(search)},
			{"brand": contains(search)},
			{"description": contains(search)},
		}
	}

	if categories := ParseCategories(values.Get("categories")); len(categories) > 0 {
		filter["category"] = bson.M{"$in": categories}
	}

	addPriceFilter(filter, values)

	return filter
}

// addPriceFilter adds the price range when either bound was supplied.
func addPriceFilter(filter bson.M, values url.Values) {
	if !values.Has("minPrice") && !values.Has("maxPrice") {
		return
	}

	minPrice := parseFloat(values.Get("minPrice"), 0)
	maxPrice := parseFloat(values.Get("maxPrice"), math.MaxFloat64)

	priceFilter := bson.M{}
	if minPrice >= 0 {
		priceFilter["$gte"] = minPrice
	}
	if maxPrice < math.MaxFloat64 {
		priceFilter["$lte"] = maxPrice
	}
	if len(priceFilter) > 0 {
		filter["price"] = priceFilter
	}
}

// ParseCategories splits a comma-separated list into trimmed, lower-cased
// category names.
func ParseCategories(raw string) []string {
	if raw == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if c := strings.ToLower(strings.TrimSpace(part)); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// OrderFilter builds the order list filter. A malformed userId is dropped,
// or rejected with ErrInvalidUserID when strictIDs is set.
func OrderFilter(values url.Values, strictIDs bool) (bson.M, error) {
	filter := bson.M{}

	if status := values.Get("status"); status != "" {
		filter["status"] = status
	}
	if values.Has("isPaid") {
		filter["isPaid"] = values.Get("isPaid") == "true"
	}
	if values.Has("isDelivered") {
		filter["isDelivered"] = values.Get("isDelivered") == "true"
	}

	if userID := values.Get("userId"); userID != "" {
		oid, err := primitive.ObjectIDFromHex(userID)
		switch {
		case err == nil:
			filter["user"] = oid
		case strictIDs:
			return nil, ErrInvalidUserID
		}
	}

	if search := strings.TrimSpace(values.Get("search")); search != "" {
		filter["$or"] = []bson.M{
			{"orderId": contains(search)},
			{"shippingAddress.fullName": contains(search)},
			{"shippingAddress.phone": contains(search)},
		}
	}

	return filter, nil
}

// contains matches s as a case-insensitive literal substring.
func contains(s string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
}

func parseFloat(raw string, fallback float64) float64 {
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) {
		return fallback
	}
	return v
}
