package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CategorySEO holds the meta tags rendered on category pages.
type CategorySEO struct {
	MetaTitle       string `bson:"metaTitle,omitempty" json:"metaTitle,omitempty"`
	MetaDescription string `bson:"metaDescription,omitempty" json:"metaDescription,omitempty"`
	MetaKeywords    string `bson:"metaKeywords,omitempty" json:"metaKeywords,omitempty"`
}

// Category is a node in the self-referential category tree. A nil ParentID
// marks a root category.
type Category struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name         string              `bson:"name" json:"name"`
	Slug         string              `bson:"slug" json:"slug"`
	Description  string              `bson:"description,omitempty" json:"description,omitempty"`
	Image        string              `bson:"image,omitempty" json:"image,omitempty"`
	ParentID     *primitive.ObjectID `bson:"parentId" json:"parentId"`
	DisplayOrder int                 `bson:"displayOrder" json:"displayOrder"`
	Featured     bool                `bson:"featured" json:"featured"`
	ShowInMenu   bool                `bson:"showInMenu" json:"showInMenu"`
	SEO          CategorySEO         `bson:"seo,omitempty" json:"seo,omitempty"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
}
