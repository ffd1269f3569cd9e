package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"motoshop/internal/models"
)

const relatedProductsLimit = 4

var productSortFields = map[string]string{
	"price":     "price",
	"name":      "name",
	"createdAt": "createdAt",
	"stock":     "stock",
}

type reviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"required"`
}

/*
GET /api/products
Filters: category (slug), minPrice, maxPrice, brand, search, inStock,
featured. Pagination via page/limit, sort via sort=field:direction.
*/
func GetProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products"
		defer handlePanic(c, route)

		log.Printf(
			"[%s] hit page=%s limit=%s category=%s search=%s",
			route,
			c.Query("page"),
			c.Query("limit"),
			c.Query("category"),
			c.Query("search"),
		)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		filter := bson.M{"available": bson.M{"$ne": false}}

		if slug := strings.TrimSpace(c.Query("category")); slug != "" {
			var category models.Category
			if err := db.Collection("categories").FindOne(ctx, bson.M{"slug": slug}).Decode(&category); err != nil {
				respondError(c, http.StatusNotFound, route, "category not found")
				return
			}
			filter["categoryIds"] = category.ID
		}

		priceRange := bson.M{}
		if raw := strings.TrimSpace(c.Query("minPrice")); raw != "" {
			min, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				respondError(c, http.StatusBadRequest, route, "invalid minPrice")
				return
			}
			priceRange["$gte"] = min
		}
		if raw := strings.TrimSpace(c.Query("maxPrice")); raw != "" {
			max, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				respondError(c, http.StatusBadRequest, route, "invalid maxPrice")
				return
			}
			priceRange["$lte"] = max
		}
		if len(priceRange) > 0 {
			filter["price"] = priceRange
		}

		if brand := strings.TrimSpace(c.Query("brand")); brand != "" {
			filter["brand"] = brand
		}
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			filter["$text"] = bson.M{"$search": search}
		}
		if c.Query("inStock") == "true" {
			filter["stock"] = bson.M{"$gt": 0}
		}
		if c.Query("featured") == "true" {
			filter["featured"] = true
		}

		sortDoc := bson.D{{Key: "createdAt", Value: -1}}
		if raw := strings.TrimSpace(c.Query("sort")); raw != "" {
			field, direction, ok := parseSortParam(raw)
			if !ok {
				respondError(c, http.StatusBadRequest, route, "invalid sort field")
				return
			}
			sortDoc = bson.D{{Key: field, Value: direction}}
		}

		total, err := db.Collection("products").CountDocuments(ctx, filter)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		findOptions := options.Find().
			SetSort(sortDoc).
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

		log.Printf("[%s] returning %d products", route, len(products))
		respondPage(c, products, buildPaginationMeta(total, page, limit))
	}
}

func GetProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/:id"
		defer handlePanic(c, route)

		idOrSlug := strings.TrimSpace(c.Param("id"))

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		product, err := findProductByIDOrSlug(ctx, db, idOrSlug)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondData(c, http.StatusOK, product)
	}
}

// GetRelatedProducts returns up to four other products sharing at least one
// category with the given product.
func GetRelatedProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/:id/related"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		product, err := findProductByIDOrSlug(ctx, db, strings.TrimSpace(c.Param("id")))
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		related := make([]models.Product, 0)
		if len(product.CategoryIDs) > 0 {
			cursor, err := db.Collection("products").Find(ctx, bson.M{
				"_id":         bson.M{"$ne": product.ID},
				"categoryIds": bson.M{"$in": product.CategoryIDs},
				"available":   bson.M{"$ne": false},
			}, options.Find().SetLimit(relatedProductsLimit))
			if err != nil {
				respondError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			defer cursor.Close(ctx)

			related, err = decodeProducts(ctx, cursor)
			if err != nil {
				respondError(c, http.StatusInternalServerError, route, "decode error")
				return
			}
		}

		respondData(c, http.StatusOK, related)
	}
}

// AddReview appends a review to the embedded list, at most one per user. The
// duplicate guard is part of the update filter so a concurrent double submit
// cannot slip through.
func AddReview(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/products/:id/reviews"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req reviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		product, err := findProductByIDOrSlug(ctx, db, strings.TrimSpace(c.Param("id")))
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		review := models.Review{
			UserID:    userID,
			Rating:    req.Rating,
			Comment:   strings.TrimSpace(req.Comment),
			CreatedAt: time.Now(),
		}

		res, err := db.Collection("products").UpdateOne(ctx, bson.M{
			"_id":            product.ID,
			"reviews.userId": bson.M{"$ne": userID},
		}, bson.M{
			"$push": bson.M{"reviews": review},
		})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.MatchedCount == 0 {
			// Zero matches also happens when the product was deleted between
			// the read and the guarded update.
			count, countErr := db.Collection("products").CountDocuments(ctx, bson.M{"_id": product.ID})
			if countErr != nil {
				respondError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			status, message := reviewRejection(count > 0)
			respondError(c, status, route, message)
			return
		}

		log.Printf("[%s] review added by %s", route, userID.Hex())
		respondData(c, http.StatusCreated, review)
	}
}

// reviewRejection maps a zero-match review insert onto the right failure: the
// product no longer exists, or this user already reviewed it.
func reviewRejection(productExists bool) (int, string) {
	if !productExists {
		return http.StatusNotFound, "product not found"
	}
	return http.StatusConflict, "product already reviewed"
}

// parseSortParam accepts "field" or "field:asc|desc" limited to the
// whitelisted sortable fields.
func parseSortParam(raw string) (string, int, bool) {
	field := raw
	direction := 1

	if idx := strings.IndexByte(raw, ':'); idx >= 0 {
		field = raw[:idx]
		switch raw[idx+1:] {
		case "asc":
			direction = 1
		case "desc":
			direction = -1
		default:
			return "", 0, false
		}
	}

	mapped, ok := productSortFields[field]
	if !ok {
		return "", 0, false
	}
	return mapped, direction, true
}
