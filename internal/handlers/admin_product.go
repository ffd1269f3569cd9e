package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"motoshop/internal/models"
)

type ProductCreateRequest struct {
	Name             string                  `json:"name" binding:"required"`
	Slug             string                  `json:"slug"`
	Description      string                  `json:"description" binding:"required"`
	ShortDescription string                  `json:"shortDescription"`
	Price            float64                 `json:"price" binding:"required,gt=0"`
	DiscountedPrice  float64                 `json:"discountedPrice"`
	DiscountPercent  float64                 `json:"discountPercent"`
	TaxRate          float64                 `json:"taxRate"`
	CategoryIDs      []string                `json:"categoryIds" binding:"required,min=1"`
	Brand            string                  `json:"brand"`
	Images           []models.ProductImage   `json:"images"`
	Stock            int                     `json:"stock" binding:"gte=0"`
	Available        *bool                   `json:"available"`
	Featured         bool                    `json:"featured"`
	NewArrival       bool                    `json:"newArrival"`
	Shipping         models.ShippingInfo     `json:"shipping"`
	Variants         []models.ProductVariant `json:"variants"`
}

type ProductUpdateRequest struct {
	Name             *string                  `json:"name"`
	Slug             *string                  `json:"slug"`
	Description      *string                  `json:"description"`
	ShortDescription *string                  `json:"shortDescription"`
	Price            *float64                 `json:"price"`
	DiscountedPrice  *float64                 `json:"discountedPrice"`
	DiscountPercent  *float64                 `json:"discountPercent"`
	TaxRate          *float64                 `json:"taxRate"`
	CategoryIDs      *[]string                `json:"categoryIds"`
	Brand            *string                  `json:"brand"`
	Images           *[]models.ProductImage   `json:"images"`
	Stock            *int                     `json:"stock"`
	Available        *bool                    `json:"available"`
	Featured         *bool                    `json:"featured"`
	NewArrival       *bool                    `json:"newArrival"`
	Shipping         *models.ShippingInfo     `json:"shipping"`
	Variants         *[]models.ProductVariant `json:"variants"`
}

func resolveCategoryIDs(ctx context.Context, db *mongo.Database, raw []string) ([]primitive.ObjectID, error) {
	seen := map[primitive.ObjectID]struct{}{}
	ids := make([]primitive.ObjectID, 0, len(raw))

	for _, value := range raw {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		objectID, err := primitive.ObjectIDFromHex(trimmed)
		if err != nil {
			return nil, fmt.Errorf("invalid category id: %s", trimmed)
		}
		if _, ok := seen[objectID]; ok {
			continue
		}
		seen[objectID] = struct{}{}
		ids = append(ids, objectID)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("at least one category is required")
	}

	count, err := db.Collection("categories").CountDocuments(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	if count != int64(len(ids)) {
		return nil, fmt.Errorf("one or more categories do not exist")
	}

	return ids, nil
}

func validateImages(images []models.ProductImage) error {
	primaries := 0
	for _, img := range images {
		if strings.TrimSpace(img.URL) == "" {
			return fmt.Errorf("image url is required")
		}
		if img.IsPrimary {
			primaries++
		}
	}
	if primaries > 1 {
		return fmt.Errorf("at most one image can be primary")
	}
	return nil
}

// ensureUniqueSlug verifies no other product holds the slug. excludeID is
// zero on create.
func ensureUniqueSlug(ctx context.Context, db *mongo.Database, collection, slug string, excludeID primitive.ObjectID) error {
	filter := bson.M{"slug": slug}
	if !excludeID.IsZero() {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	count, err := db.Collection(collection).CountDocuments(ctx, filter)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("slug already in use: %s", slug)
	}
	return nil
}

func GetAllProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/products"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		filter := bson.M{}
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			filter["$text"] = bson.M{"$search": search}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		total, err := db.Collection("products").CountDocuments(ctx, filter)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		findOptions := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page - 1) * limit).
			SetLimit(limit)

		cursor, err := db.Collection("products").Find(ctx, filter, findOptions)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		products, err := decodeProducts(ctx, cursor)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondPage(c, products, buildPaginationMeta(total, page, limit))
	}
}

func CreateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/products"
		defer handlePanic(c, route)

		var req ProductCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		if req.DiscountedPrice < 0 || (req.DiscountedPrice != 0 && req.DiscountedPrice >= req.Price) {
			respondError(c, http.StatusBadRequest, route, "discountedPrice must be lower than price")
			return
		}
		if err := validateImages(req.Images); err != nil {
			respondError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		slug := strings.TrimSpace(req.Slug)
		if slug == "" {
			slug = slugify(req.Name)
		}
		if slug == "" {
			respondError(c, http.StatusBadRequest, route, "could not derive slug from name")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := ensureUniqueSlug(ctx, db, "products", slug, primitive.NilObjectID); err != nil {
			respondError(c, http.StatusConflict, route, err.Error())
			return
		}

		categoryIDs, err := resolveCategoryIDs(ctx, db, req.CategoryIDs)
		if err != nil {
			respondError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		available := true
		if req.Available != nil {
			available = *req.Available
		}

		if req.Images == nil {
			req.Images = []models.ProductImage{}
		}
		if req.Variants == nil {
			req.Variants = []models.ProductVariant{}
		}

		product := models.Product{
			Name:             strings.TrimSpace(req.Name),
			Slug:             slug,
			Description:      strings.TrimSpace(req.Description),
			ShortDescription: strings.TrimSpace(req.ShortDescription),
			Price:            req.Price,
			DiscountedPrice:  req.DiscountedPrice,
			DiscountPercent:  req.DiscountPercent,
			TaxRate:          req.TaxRate,
			CategoryIDs:      categoryIDs,
			Brand:            strings.TrimSpace(req.Brand),
			Images:           req.Images,
			Stock:            req.Stock,
			Available:        available,
			Featured:         req.Featured,
			NewArrival:       req.NewArrival,
			Shipping:         req.Shipping,
			Variants:         req.Variants,
			Reviews:          []models.Review{},
			CreatedAt:        time.Now(),
		}

		res, err := db.Collection("products").InsertOne(ctx, product)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondError(c, http.StatusConflict, route, "slug already in use")
				return
			}
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		product.ID, _ = res.InsertedID.(primitive.ObjectID)
		product.Derive()

		log.Printf("[%s] product created: %s (%s)", route, product.Name, product.Slug)
		respondData(c, http.StatusCreated, product)
	}
}

func UpdateProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/products/:id"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req ProductUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var existing models.Product
		if err := db.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Decode(&existing); err != nil {
			respondError(c, http.StatusNotFound, route, "product not found")
			return
		}

		set := bson.M{}

		price := existing.Price
		if req.Price != nil {
			if *req.Price <= 0 {
				respondError(c, http.StatusBadRequest, route, "price must be greater than 0")
				return
			}
			price = *req.Price
			set["price"] = price
		}
		if req.DiscountedPrice != nil {
			if *req.DiscountedPrice < 0 || (*req.DiscountedPrice != 0 && *req.DiscountedPrice >= price) {
				respondError(c, http.StatusBadRequest, route, "discountedPrice must be lower than price")
				return
			}
			set["discountedPrice"] = *req.DiscountedPrice
		}
		if req.DiscountPercent != nil {
			set["discountPercent"] = *req.DiscountPercent
		}
		if req.TaxRate != nil {
			set["taxRate"] = *req.TaxRate
		}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				respondError(c, http.StatusBadRequest, route, "name cannot be empty")
				return
			}
			set["name"] = name
			if req.Slug == nil {
				set["slug"] = slugify(name)
			}
		}
		if req.Slug != nil {
			slug := strings.TrimSpace(*req.Slug)
			if slug == "" {
				respondError(c, http.StatusBadRequest, route, "slug cannot be empty")
				return
			}
			set["slug"] = slug
		}
		if slug, ok := set["slug"].(string); ok && slug != existing.Slug {
			if err := ensureUniqueSlug(ctx, db, "products", slug, productID); err != nil {
				respondError(c, http.StatusConflict, route, err.Error())
				return
			}
		}
		if req.Description != nil {
			set["description"] = strings.TrimSpace(*req.Description)
		}
		if req.ShortDescription != nil {
			set["shortDescription"] = strings.TrimSpace(*req.ShortDescription)
		}
		if req.CategoryIDs != nil {
			categoryIDs, err := resolveCategoryIDs(ctx, db, *req.CategoryIDs)
			if err != nil {
				respondError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			set["categoryIds"] = categoryIDs
		}
		if req.Brand != nil {
			set["brand"] = strings.TrimSpace(*req.Brand)
		}
		if req.Images != nil {
			if err := validateImages(*req.Images); err != nil {
				respondError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			set["images"] = *req.Images
		}
		if req.Stock != nil {
			if *req.Stock < 0 {
				respondError(c, http.StatusBadRequest, route, "stock cannot be negative")
				return
			}
			set["stock"] = *req.Stock
		}
		if req.Available != nil {
			set["available"] = *req.Available
		}
		if req.Featured != nil {
			set["featured"] = *req.Featured
		}
		if req.NewArrival != nil {
			set["newArrival"] = *req.NewArrival
		}
		if req.Shipping != nil {
			set["shipping"] = *req.Shipping
		}
		if req.Variants != nil {
			set["variants"] = *req.Variants
		}

		if len(set) == 0 {
			respondError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		var updated models.Product
		err = db.Collection("products").FindOneAndUpdate(
			ctx,
			bson.M{"_id": productID},
			bson.M{"$set": set},
			mongoReturnUpdated(),
		).Decode(&updated)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		updated.Derive()

		log.Printf("[%s] product updated: %s", route, productID.Hex())
		respondData(c, http.StatusOK, updated)
	}
}

func DeleteProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/products/:id"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("products").DeleteOne(ctx, bson.M{"_id": productID})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.DeletedCount == 0 {
			respondError(c, http.StatusNotFound, route, "product not found")
			return
		}

		log.Printf("[%s] product deleted: %s", route, productID.Hex())
		respondMessage(c, http.StatusOK, "product deleted")
	}
}
