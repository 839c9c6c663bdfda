package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"shop-backend/internal/validation"
)

const (
	CategoryGrocery = "grocery"
	CategoryBeauty  = "beauty"
)

// Product is a catalog entry. CreatedBy references the admin user who added it.
type Product struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name" validate:"required,min=3"`
	Description string             `json:"description" bson:"description" validate:"required"`
	Category    string             `json:"category" bson:"category" validate:"required,oneof=grocery beauty"`
	Brand       string             `json:"brand" bson:"brand" validate:"required"`
	Images      string             `json:"images" bson:"images" validate:"required"`
	Variants    []string           `json:"variants" bson:"variants"`
	Price       float64            `json:"price" bson:"price" validate:"gte=0"`
	CreatedBy   primitive.ObjectID `json:"createdBy" bson:"createdBy" validate:"required"`
	Stock       int                `json:"stock" bson:"stock" validate:"gte=0"`
	InStock     bool               `json:"inStock" bson:"inStock"`
	MOQ         int                `json:"moq" bson:"moq" validate:"gte=1"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ProductInput carries the writable product fields. Nil fields are absent
// from the request.
type ProductInput struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Brand       *string  `json:"brand,omitempty"`
	Images      *string  `json:"images,omitempty"`
	Variants    []string `json:"variants,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Stock       *int     `json:"stock,omitempty"`
	InStock     *bool    `json:"inStock,omitempty"`
	MOQ         *int     `json:"moq,omitempty"`
}

// ProductSummary is the expanded form of a product reference inside an order.
type ProductSummary struct {
	ID     primitive.ObjectID `json:"id" bson:"_id"`
	Name   string             `json:"name" bson:"name"`
	Brand  string             `json:"brand" bson:"brand"`
	Price  float64            `json:"price" bson:"price"`
	Images string             `json:"images" bson:"images"`
}

// ProductDetail is a product with createdBy expanded.
type ProductDetail struct {
	Product
	CreatedBy *UserSummary `json:"createdBy"`
}

// MissingForCreate reports required fields absent from a create request.
func (in ProductInput) MissingForCreate() error {
	var errs validation.Errors
	if in.Name == nil {
		errs = append(errs, validation.Required("name"))
	}
	if in.Description == nil {
		errs = append(errs, validation.Required("description"))
	}
	if in.Category == nil {
		errs = append(errs, validation.Required("category"))
	}
	if in.Brand == nil {
		errs = append(errs, validation.Required("brand"))
	}
	if in.Images == nil {
		errs = append(errs, validation.Required("images"))
	}
	if in.Price == nil {
		errs = append(errs, validation.Required("price"))
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ApplyTo merges the present fields into p, normalizing them the way they
// are stored, and returns the resulting $set document.
func (in ProductInput) ApplyTo(p *Product) bson.M {
	set := bson.M{}
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
		set["name"] = p.Name
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
		set["description"] = p.Description
	}
	if in.Category != nil {
		p.Category = NormalizeCategory(*in.Category)
		set["category"] = p.Category
	}
	if in.Brand != nil {
		p.Brand = strings.TrimSpace(*in.Brand)
		set["brand"] = p.Brand
	}
	if in.Images != nil {
		p.Images = *in.Images
		set["images"] = p.Images
	}
	if in.Variants != nil {
		p.Variants = make([]string, 0, len(in.Variants))
		for _, v := range in.Variants {
			p.Variants = append(p.Variants, strings.TrimSpace(v))
		}
		set["variants"] = p.Variants
	}
	if in.Price != nil {
		p.Price = *in.Price
		set["price"] = p.Price
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
		set["stock"] = p.Stock
	}
	if in.InStock != nil {
		p.InStock = *in.InStock
		set["inStock"] = p.InStock
	}
	if in.MOQ != nil {
		p.MOQ = *in.MOQ
		set["moq"] = p.MOQ
	}
	return set
}

// NewProduct builds a product from a create request with schema defaults.
func NewProduct(in ProductInput, createdBy primitive.ObjectID, now time.Time) *Product {
	p := &Product{
		Variants:  []string{},
		CreatedBy: createdBy,
		Stock:     0,
		MOQ:       1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.ApplyTo(p)
	return p
}

func NormalizeCategory(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}
