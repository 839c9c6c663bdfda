package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleRetailer Role = "retailer"
)

// User is an account. Only the bcrypt hash of the password is stored.
type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	FullName     string             `json:"fullName" bson:"fullName" validate:"required,min=3"`
	Email        string             `json:"email" bson:"email" validate:"required,mailaddr"`
	PasswordHash string             `json:"-" bson:"password" validate:"required"`
	Role         Role               `json:"role" bson:"role" validate:"required,oneof=admin retailer"`
	Phone        string             `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,phone"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// SignupInput is the signup request body.
type SignupInput struct {
	FullName string `json:"fullName" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,mailaddr"`
	Password string `json:"password" validate:"required,min=6,max=72,bcryptpw"`
	Role     Role   `json:"role" validate:"required,oneof=admin retailer"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,phone"`
}

// Normalize trims and lower-cases the fields the schema stores that way.
func (in *SignupInput) Normalize() {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = NormalizeEmail(in.Email)
	in.Role = Role(strings.ToLower(strings.TrimSpace(string(in.Role))))
	if in.Role == "" {
		in.Role = RoleRetailer
	}
	in.Phone = strings.TrimSpace(in.Phone)
}

type SigninInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UserSummary is the expanded form of a user reference.
type UserSummary struct {
	ID       primitive.ObjectID `json:"id" bson:"_id"`
	FullName string             `json:"fullName" bson:"fullName"`
	Email    string             `json:"email" bson:"email"`
	Phone    string             `json:"phone,omitempty" bson:"phone,omitempty"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
