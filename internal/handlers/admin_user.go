package handlers

import (
	"context"
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

type adminUserUpdateRequest struct {
	Name       *string `json:"name"`
	Surname    *string `json:"surname"`
	Email      *string `json:"email"`
	Role       *string `json:"role"`
	IsVerified *bool   `json:"isVerified"`
}

// countOtherAdmins reports how many admin accounts exist besides the given
// one. Demoting or deleting the last admin must be refused.
func countOtherAdmins(ctx context.Context, db *mongo.Database, excludeID primitive.ObjectID) (int64, error) {
	return db.Collection("users").CountDocuments(ctx, bson.M{
		"role": models.RoleAdmin,
		"_id":  bson.M{"$ne": excludeID},
	})
}

// canRemoveAdmin reports whether demoting or deleting the account would still
// leave at least one admin behind.
func canRemoveAdmin(role string, otherAdmins int64) bool {
	return role != models.RoleAdmin || otherAdmins > 0
}

func GetAllUsers(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/users"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		filter := bson.M{}
		if role := strings.TrimSpace(c.Query("role")); role != "" {
			filter["role"] = role
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		total, err := db.Collection("users").CountDocuments(ctx, filter)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		findOptions := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page - 1) * limit).
			SetLimit(limit)

		cursor, err := db.Collection("users").Find(ctx, filter, findOptions)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		users := make([]models.User, 0)
		if err := cursor.All(ctx, &users); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondPage(c, users, buildPaginationMeta(total, page, limit))
	}
}

func GetUserDetails(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/users/:id"
		defer handlePanic(c, route)

		userID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		err = db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, route, "user not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondData(c, http.StatusOK, user)
	}
}

func UpdateUser(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/admin/users/:id"
		defer handlePanic(c, route)

		userID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req adminUserUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var target models.User
		err = db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&target)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, route, "user not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		set := bson.M{}
		if req.Name != nil {
			set["name"] = strings.TrimSpace(*req.Name)
		}
		if req.Surname != nil {
			set["surname"] = strings.TrimSpace(*req.Surname)
		}
		if req.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*req.Email))
			if email == "" {
				respondError(c, http.StatusBadRequest, route, "email cannot be empty")
				return
			}
			set["email"] = email
		}
		if req.IsVerified != nil {
			set["isVerified"] = *req.IsVerified
		}
		if req.Role != nil {
			role := strings.TrimSpace(*req.Role)
			if role != models.RoleUser && role != models.RoleAdmin {
				respondError(c, http.StatusBadRequest, route, "unknown role")
				return
			}
			if target.Role == models.RoleAdmin && role != models.RoleAdmin {
				others, err := countOtherAdmins(ctx, db, userID)
				if err != nil {
					respondError(c, http.StatusInternalServerError, route, "db error")
					return
				}
				if !canRemoveAdmin(target.Role, others) {
					respondError(c, http.StatusConflict, route, "cannot demote the last admin")
					return
				}
			}
			set["role"] = role
		}

		if len(set) == 0 {
			respondError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		var updated models.User
		err = db.Collection("users").FindOneAndUpdate(
			ctx,
			bson.M{"_id": userID},
			bson.M{"$set": set},
			mongoReturnUpdated(),
		).Decode(&updated)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondError(c, http.StatusConflict, route, "email already registered")
				return
			}
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[%s] user updated: %s", route, userID.Hex())
		respondData(c, http.StatusOK, updated)
	}
}

func DeleteUser(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/admin/users/:id"
		defer handlePanic(c, route)

		userID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var target models.User
		err = db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&target)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, route, "user not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if target.Role == models.RoleAdmin {
			others, err := countOtherAdmins(ctx, db, userID)
			if err != nil {
				respondError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			if !canRemoveAdmin(target.Role, others) {
				respondError(c, http.StatusConflict, route, "cannot delete the last admin")
				return
			}
		}

		result, err := db.Collection("users").DeleteOne(ctx, bson.M{"_id": userID})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.DeletedCount == 0 {
			respondError(c, http.StatusNotFound, route, "user not found")
			return
		}

		log.Printf("[%s] user deleted: %s", route, userID.Hex())
		respondMessage(c, http.StatusOK, "user deleted")
	}
}
