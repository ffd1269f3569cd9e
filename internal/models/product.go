package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductImage is one gallery entry; at most one image per product carries
// the primary flag.
type ProductImage struct {
	URL       string `bson:"url" json:"url"`
	Alt       string `bson:"alt,omitempty" json:"alt,omitempty"`
	IsPrimary bool   `bson:"isPrimary" json:"isPrimary"`
}

// ProductVariant is a purchasable variation (size, color) with an optional
// price delta on top of the product price.
type ProductVariant struct {
	Name       string  `bson:"name" json:"name"`
	Value      string  `bson:"value" json:"value"`
	PriceDelta float64 `bson:"priceDelta" json:"priceDelta"`
	Available  bool    `bson:"available" json:"available"`
}

// Review is embedded in the product document, one per user.
type Review struct {
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Rating    int                `bson:"rating" json:"rating"`
	Comment   string             `bson:"comment" json:"comment"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// ShippingInfo carries the package dimensions used to quote shipping.
type ShippingInfo struct {
	Weight float64 `bson:"weight,omitempty" json:"weight,omitempty"`
	Width  float64 `bson:"width,omitempty" json:"width,omitempty"`
	Height float64 `bson:"height,omitempty" json:"height,omitempty"`
	Depth  float64 `bson:"depth,omitempty" json:"depth,omitempty"`
}

type Product struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name             string               `bson:"name" json:"name"`
	Slug             string               `bson:"slug" json:"slug"`
	Description      string               `bson:"description" json:"description"`
	ShortDescription string               `bson:"shortDescription,omitempty" json:"shortDescription,omitempty"`
	Price            float64              `bson:"price" json:"price"`
	DiscountedPrice  float64              `bson:"discountedPrice" json:"discountedPrice"`
	DiscountPercent  float64              `bson:"discountPercent" json:"discountPercent"`
	TaxRate          float64              `bson:"taxRate" json:"taxRate"`
	CategoryIDs      []primitive.ObjectID `bson:"categoryIds" json:"categoryIds"`
	Brand            string               `bson:"brand,omitempty" json:"brand,omitempty"`
	Images           []ProductImage       `bson:"images" json:"images"`
	Stock            int                  `bson:"stock" json:"stock"`
	Available        bool                 `bson:"available" json:"available"`
	Featured         bool                 `bson:"featured" json:"featured"`
	NewArrival       bool                 `bson:"newArrival" json:"newArrival"`
	Shipping         ShippingInfo         `bson:"shipping,omitempty" json:"shipping,omitempty"`
	Variants         []ProductVariant     `bson:"variants" json:"variants"`
	Reviews          []Review             `bson:"reviews" json:"reviews"`
	CreatedAt        time.Time            `bson:"createdAt" json:"createdAt"`

	// Derived from the embedded review list, never stored.
	AverageRating float64 `bson:"-" json:"averageRating"`
	ReviewCount   int     `bson:"-" json:"reviewCount"`
	InStock       bool    `bson:"-" json:"inStock"`
}

// EffectivePrice returns the discounted price when one is set below the list
// price, otherwise the list price.
func (p Product) EffectivePrice() float64 {
	if p.DiscountedPrice > 0 && p.DiscountedPrice < p.Price {
		return p.DiscountedPrice
	}
	return p.Price
}

// PrimaryImage returns the URL of the image flagged primary, falling back to
// the first image.
func (p Product) PrimaryImage() string {
	for _, img := range p.Images {
		if img.IsPrimary {
			return img.URL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}

// HasReviewBy reports whether the given user already reviewed this product.
func (p Product) HasReviewBy(userID primitive.ObjectID) bool {
	for _, r := range p.Reviews {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// Derive fills the computed fields from the persisted ones.
func (p *Product) Derive() {
	p.InStock = p.Stock > 0
	p.ReviewCount = len(p.Reviews)
	if len(p.Reviews) == 0 {
		p.AverageRating = 0
		return
	}
	sum := 0
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	p.AverageRating = float64(sum) / float64(len(p.Reviews))
}
