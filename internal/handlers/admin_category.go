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

	"motoshop/internal/models"
)

// Hard cap on parent-chain walks; a well-formed tree never gets near it.
const maxCategoryDepth = 32

type CategoryCreateRequest struct {
	Name         string              `json:"name" binding:"required"`
	Slug         string              `json:"slug"`
	Description  string              `json:"description"`
	Image        string              `json:"image"`
	ParentID     *string             `json:"parentId"`
	DisplayOrder int                 `json:"displayOrder"`
	Featured     bool                `json:"featured"`
	ShowInMenu   *bool               `json:"showInMenu"`
	SEO          models.CategorySEO  `json:"seo"`
}

type CategoryUpdateRequest struct {
	Name         *string             `json:"name"`
	Slug         *string             `json:"slug"`
	Description  *string             `json:"description"`
	Image        *string             `json:"image"`
	ParentID     *string             `json:"parentId"`
	DisplayOrder *int                `json:"displayOrder"`
	Featured     *bool               `json:"featured"`
	ShowInMenu   *bool               `json:"showInMenu"`
	SEO          *models.CategorySEO `json:"seo"`
}

func findCategoryByIDOrSlug(ctx context.Context, db *mongo.Database, idOrSlug string) (models.Category, error) {
	var category models.Category

	if objectID, err := primitive.ObjectIDFromHex(idOrSlug); err == nil {
		err := db.Collection("categories").FindOne(ctx, bson.M{"_id": objectID}).Decode(&category)
		if err == nil {
			return category, nil
		}
		if err != mongo.ErrNoDocuments {
			return models.Category{}, err
		}
	}

	err := db.Collection("categories").FindOne(ctx, bson.M{"slug": idOrSlug}).Decode(&category)
	return category, err
}

// validateParentChain rejects a parent assignment that would detach the node
// from a root or close a cycle (a category becoming its own ancestor).
func validateParentChain(ctx context.Context, db *mongo.Database, categoryID primitive.ObjectID, parentID primitive.ObjectID) error {
	current := parentID
	for depth := 0; depth < maxCategoryDepth; depth++ {
		if current == categoryID {
			return fmt.Errorf("category cannot be its own ancestor")
		}

		var parent models.Category
		err := db.Collection("categories").FindOne(ctx, bson.M{"_id": current}).Decode(&parent)
		if err == mongo.ErrNoDocuments {
			return fmt.Errorf("parent category not found: %s", current.Hex())
		}
		if err != nil {
			return err
		}

		if parent.ParentID == nil {
			return nil
		}
		current = *parent.ParentID
	}
	return fmt.Errorf("category tree too deep")
}

func GetAllCategories(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/categories"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("categories").Find(ctx, bson.M{})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		var categories []models.Category
		if err := cursor.All(ctx, &categories); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondData(c, http.StatusOK, categories)
	}
}

func CreateCategory(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/categories"
		defer handlePanic(c, route)

		var req CategoryCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		name := strings.TrimSpace(req.Name)
		slug := strings.TrimSpace(req.Slug)
		if slug == "" {
			slug = slugify(name)
		}
		if slug == "" {
			respondError(c, http.StatusBadRequest, route, "could not derive slug from name")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := ensureUniqueSlug(ctx, db, "categories", slug, primitive.NilObjectID); err != nil {
			respondError(c, http.StatusConflict, route, err.Error())
			return
		}

		var parentID *primitive.ObjectID
		if req.ParentID != nil && strings.TrimSpace(*req.ParentID) != "" {
			parsed, err := primitive.ObjectIDFromHex(strings.TrimSpace(*req.ParentID))
			if err != nil {
				respondError(c, http.StatusBadRequest, route, "invalid parentId")
				return
			}
			if err := validateParentChain(ctx, db, primitive.NilObjectID, parsed); err != nil {
				respondError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			parentID = &parsed
		}

		showInMenu := true
		if req.ShowInMenu != nil {
			showInMenu = *req.ShowInMenu
		}

		category := models.Category{
			Name:         name,
			Slug:         slug,
			Description:  strings.TrimSpace(req.Description),
			Image:        strings.TrimSpace(req.Image),
			ParentID:     parentID,
			DisplayOrder: req.DisplayOrder,
			Featured:     req.Featured,
			ShowInMenu:   showInMenu,
			SEO:          req.SEO,
			CreatedAt:    time.Now(),
		}

		result, err := db.Collection("categories").InsertOne(ctx, category)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondError(c, http.StatusConflict, route, "slug already in use")
				return
			}
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		category.ID = result.InsertedID.(primitive.ObjectID)

		log.Printf("[%s] category created: %s (%s)", route, category.Name, category.Slug)
		respondData(c, http.StatusCreated, category)
	}
}

func UpdateCategory(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/categories/:id"
		defer handlePanic(c, route)

		categoryID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req CategoryUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var existing models.Category
		if err := db.Collection("categories").FindOne(ctx, bson.M{"_id": categoryID}).Decode(&existing); err != nil {
			respondError(c, http.StatusNotFound, route, "category not found")
			return
		}

		set := bson.M{}
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
			if err := ensureUniqueSlug(ctx, db, "categories", slug, categoryID); err != nil {
				respondError(c, http.StatusConflict, route, err.Error())
				return
			}
		}
		if req.Description != nil {
			set["description"] = strings.TrimSpace(*req.Description)
		}
		if req.Image != nil {
			set["image"] = strings.TrimSpace(*req.Image)
		}
		if req.ParentID != nil {
			if strings.TrimSpace(*req.ParentID) == "" {
				set["parentId"] = nil
			} else {
				parsed, err := primitive.ObjectIDFromHex(strings.TrimSpace(*req.ParentID))
				if err != nil {
					respondError(c, http.StatusBadRequest, route, "invalid parentId")
					return
				}
				if err := validateParentChain(ctx, db, categoryID, parsed); err != nil {
					respondError(c, http.StatusBadRequest, route, err.Error())
					return
				}
				set["parentId"] = parsed
			}
		}
		if req.DisplayOrder != nil {
			set["displayOrder"] = *req.DisplayOrder
		}
		if req.Featured != nil {
			set["featured"] = *req.Featured
		}
		if req.ShowInMenu != nil {
			set["showInMenu"] = *req.ShowInMenu
		}
		if req.SEO != nil {
			set["seo"] = *req.SEO
		}

		if len(set) == 0 {
			respondError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		var updated models.Category
		err = db.Collection("categories").FindOneAndUpdate(
			ctx,
			bson.M{"_id": categoryID},
			bson.M{"$set": set},
			mongoReturnUpdated(),
		).Decode(&updated)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondData(c, http.StatusOK, updated)
	}
}

// DeleteCategory refuses to delete a category that still has children or
// products referencing it; callers must re-parent or clean up first.
func DeleteCategory(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/categories/:id"
		defer handlePanic(c, route)

		categoryID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		children, err := db.Collection("categories").CountDocuments(ctx, bson.M{"parentId": categoryID})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if children > 0 {
			respondError(c, http.StatusConflict, route, "category has subcategories")
			return
		}

		inUse, err := db.Collection("products").CountDocuments(ctx, bson.M{"categoryIds": categoryID})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if inUse > 0 {
			respondError(c, http.StatusConflict, route, "category still has products")
			return
		}

		result, err := db.Collection("categories").DeleteOne(ctx, bson.M{"_id": categoryID})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.DeletedCount == 0 {
			respondError(c, http.StatusNotFound, route, "category not found")
			return
		}

		log.Printf("[%s] category deleted: %s", route, categoryID.Hex())
		respondMessage(c, http.StatusOK, "category deleted")
	}
}
