package handlers

import (
	"context"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"motoshop/internal/models"
)

var nonWordChars = regexp.MustCompile(`[^\w\s-]`)
var whitespaceRuns = regexp.MustCompile(`\s+`)

// slugify derives a URL-safe slug from a display name: lowercase, strip
// non-word characters, collapse whitespace into hyphens.
func slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonWordChars.ReplaceAllString(s, "")
	s = whitespaceRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func decodeProducts(ctx context.Context, cursor *mongo.Cursor) ([]models.Product, error) {
	products := make([]models.Product, 0)

	for cursor.Next(ctx) {
		var product models.Product
		if err := cursor.Decode(&product); err != nil {
			return nil, err
		}
		product.Derive()
		products = append(products, product)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

// findProductByIDOrSlug resolves an identifier by shape: a valid ObjectID hex
// is tried as _id first, anything else (or an id miss) falls back to slug.
func findProductByIDOrSlug(ctx context.Context, db *mongo.Database, idOrSlug string) (models.Product, error) {
	var product models.Product

	if objectID, err := primitive.ObjectIDFromHex(idOrSlug); err == nil {
		err := db.Collection("products").FindOne(ctx, bson.M{"_id": objectID}).Decode(&product)
		if err == nil {
			product.Derive()
			return product, nil
		}
		if err != mongo.ErrNoDocuments {
			return models.Product{}, err
		}
	}

	if err := db.Collection("products").FindOne(ctx, bson.M{"slug": idOrSlug}).Decode(&product); err != nil {
		return models.Product{}, err
	}
	product.Derive()
	return product, nil
}
