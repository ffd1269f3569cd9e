package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Address represents a single shipping address entry for a user.
type Address struct {
	ID         string `bson:"id" json:"id"`
	Label      string `bson:"label,omitempty" json:"label,omitempty"`
	Street     string `bson:"street" json:"street"`
	City       string `bson:"city" json:"city"`
	Province   string `bson:"province" json:"province"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Country    string `bson:"country,omitempty" json:"country,omitempty"`
	IsDefault  bool   `bson:"isDefault" json:"isDefault"`
}

// User represents the application user account. Token hashes are one-way
// digests of the raw tokens handed to the user, never the raw tokens.
type User struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name              string               `bson:"name" json:"name"`
	Surname           string               `bson:"surname" json:"surname"`
	Email             string               `bson:"email" json:"email"`
	Phone             string               `bson:"phone,omitempty" json:"phone,omitempty"`
	PasswordHash      string               `bson:"passwordHash" json:"-"`
	Role              string               `bson:"role" json:"role"`
	IsVerified        bool                 `bson:"isVerified" json:"isVerified"`
	VerifyTokenHash   string               `bson:"verifyTokenHash,omitempty" json:"-"`
	ResetTokenHash    string               `bson:"resetTokenHash,omitempty" json:"-"`
	ResetTokenExpires *time.Time           `bson:"resetTokenExpires,omitempty" json:"-"`
	Addresses         []Address            `bson:"addresses" json:"addresses"`
	Wishlist          []primitive.ObjectID `bson:"wishlist" json:"wishlist"`
	CreatedAt         time.Time            `bson:"createdAt" json:"createdAt"`
	LastAccess        time.Time            `bson:"lastAccess" json:"lastAccess"`
}
