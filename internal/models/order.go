package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

const (
	PaymentCash = "cash"
	PaymentCard = "card"
)

type OrderItem struct {
	Product primitive.ObjectID `json:"product" bson:"product" validate:"required"`
	Name    string             `json:"name" bson:"name" validate:"required"`
	Qty     int                `json:"qty" bson:"qty" validate:"gte=1"`
	Price   float64            `json:"price" bson:"price" validate:"gte=0"`
	Image   string             `json:"image" bson:"image" validate:"required"`
}

type ShippingAddress struct {
	Address    string `json:"address" bson:"address" validate:"required"`
	City       string `json:"city" bson:"city" validate:"required"`
	Country    string `json:"country" bson:"country" validate:"required"`
	FullName   string `json:"fullName" bson:"fullName" validate:"required"`
	Phone      string `json:"phone" bson:"phone" validate:"required"`
	PostalCode string `json:"postalCode" bson:"postalCode" validate:"required"`
}

// Order is a placed order. User and OrderItems[].Product are weak references.
type Order struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OrderID         string             `json:"orderId" bson:"orderId" validate:"required"`
	User            primitive.ObjectID `json:"user" bson:"user" validate:"required"`
	OrderItems      []OrderItem        `json:"orderItems" bson:"orderItems" validate:"dive"`
	ShippingAddress ShippingAddress    `json:"shippingAddress" bson:"shippingAddress"`
	PaymentMethod   string             `json:"paymentMethod" bson:"paymentMethod" validate:"required,oneof=cash card"`
	TotalPrice      float64            `json:"totalPrice" bson:"totalPrice"`
	IsPaid          bool               `json:"isPaid" bson:"isPaid"`
	PaidAt          *time.Time         `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	IsDelivered     bool               `json:"isDelivered" bson:"isDelivered"`
	DeliveredAt     *time.Time         `json:"deliveredAt,omitempty" bson:"deliveredAt,omitempty"`
	Status          OrderStatus        `json:"status" bson:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// CreateOrderRequest wraps the order payload the way clients send it.
type CreateOrderRequest struct {
	OrderData *Order `json:"orderData"`
}

type ShippingAddressUpdate struct {
	Address    *string `json:"address,omitempty"`
	City       *string `json:"city,omitempty"`
	Country    *string `json:"country,omitempty"`
	FullName   *string `json:"fullName,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	PostalCode *string `json:"postalCode,omitempty"`
}

// OrderUpdate is a partial order update. Nil fields are left untouched.
type OrderUpdate struct {
	Status          *OrderStatus           `json:"status,omitempty"`
	IsPaid          *bool                  `json:"isPaid,omitempty"`
	IsDelivered     *bool                  `json:"isDelivered,omitempty"`
	ShippingAddress *ShippingAddressUpdate `json:"shippingAddress,omitempty"`
}

type OrderItemDetail struct {
	OrderItem
	Product *ProductSummary `json:"product"`
}

// OrderDetail is an order with user and item products expanded.
type OrderDetail struct {
	Order
	User       *UserSummary      `json:"user"`
	OrderItems []OrderItemDetail `json:"orderItems"`
}

// PrepareForCreate resets server-owned fields and applies schema defaults.
func (o *Order) PrepareForCreate(now time.Time) {
	o.ID = primitive.NilObjectID
	o.OrderID = strings.TrimSpace(o.OrderID)
	if o.OrderItems == nil {
		o.OrderItems = []OrderItem{}
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	o.PaidAt = nil
	o.DeliveredAt = nil
	o.markPaid(now)
	o.markDelivered(now)
	o.CreatedAt = now
	o.UpdatedAt = now
}

// ApplyUpdate merges u into o and returns the $set document for the change.
// paidAt and deliveredAt are stamped only the first time their flag is set.
func (o *Order) ApplyUpdate(u OrderUpdate, now time.Time) bson.M {
	set := bson.M{}

	if u.Status != nil && *u.Status != "" {
		o.Status = *u.Status
		set["status"] = o.Status
	}
	if u.IsPaid != nil {
		o.IsPaid = *u.IsPaid
		set["isPaid"] = o.IsPaid
		if o.markPaid(now) {
			set["paidAt"] = *o.PaidAt
		}
	}
	if u.IsDelivered != nil {
		o.IsDelivered = *u.IsDelivered
		set["isDelivered"] = o.IsDelivered
		if o.markDelivered(now) {
			set["deliveredAt"] = *o.DeliveredAt
		}
	}
	if u.ShippingAddress != nil {
		u.ShippingAddress.mergeInto(&o.ShippingAddress)
		set["shippingAddress"] = o.ShippingAddress
	}

	if len(set) > 0 {
		o.UpdatedAt = now
		set["updatedAt"] = now
	}
	return set
}

func (o *Order) markPaid(now time.Time) bool {
	if !o.IsPaid || o.PaidAt != nil {
		return false
	}
	t := now
	o.PaidAt = &t
	return true
}

func (o *Order) markDelivered(now time.Time) bool {
	if !o.IsDelivered || o.DeliveredAt != nil {
		return false
	}
	t := now
	o.DeliveredAt = &t
	return true
}

func (u *ShippingAddressUpdate) mergeInto(a *ShippingAddress) {
	if u.Address != nil {
		a.Address = *u.Address
	}
	if u.City != nil {
		a.City = *u.City
	}
	if u.Country != nil {
		a.Country = *u.Country
	}
	if u.FullName != nil {
		a.FullName = *u.FullName
	}
	if u.Phone != nil {
		a.Phone = *u.Phone
	}
	if u.PostalCode != nil {
		a.PostalCode = *u.PostalCode
	}
}
