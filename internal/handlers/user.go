package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"motoshop/internal/models"
)

type addressRequest struct {
	Label      string `json:"label"`
	Street     string `json:"street" binding:"required"`
	City       string `json:"city" binding:"required"`
	Province   string `json:"province" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"isDefault"`
}

type updateProfileRequest struct {
	Name    *string `json:"name"`
	Surname *string `json:"surname"`
	Phone   *string `json:"phone"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

type wishlistRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	value, ok := c.Get("userId")
	if !ok {
		return primitive.NilObjectID, false
	}
	userID, ok := value.(primitive.ObjectID)
	return userID, ok
}

func GetMe(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/auth/me"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			respondError(c, http.StatusNotFound, route, "user not found")
			return
		}

		respondData(c, http.StatusOK, user)
	}
}

func UpdateProfile(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/auth/update-profile"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req updateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		set := bson.M{}
		if req.Name != nil {
			if strings.TrimSpace(*req.Name) == "" {
				respondError(c, http.StatusBadRequest, route, "name cannot be empty")
				return
			}
			set["name"] = strings.TrimSpace(*req.Name)
		}
		if req.Surname != nil {
			if strings.TrimSpace(*req.Surname) == "" {
				respondError(c, http.StatusBadRequest, route, "surname cannot be empty")
				return
			}
			set["surname"] = strings.TrimSpace(*req.Surname)
		}
		if req.Phone != nil {
			set["phone"] = strings.TrimSpace(*req.Phone)
		}
		if len(set) == 0 {
			respondError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		err := db.Collection("users").FindOneAndUpdate(
			ctx,
			bson.M{"_id": userID},
			bson.M{"$set": set},
			mongoReturnUpdated(),
		).Decode(&user)
		if err != nil {
			respondError(c, http.StatusNotFound, route, "user not found")
			return
		}

		respondData(c, http.StatusOK, user)
	}
}

func UpdatePassword(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/auth/update-password"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req updatePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			respondError(c, http.StatusNotFound, route, "user not found")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
			respondError(c, http.StatusUnauthorized, route, "current password is incorrect")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "password hash failed")
			return
		}

		if _, err := db.Collection("users").UpdateByID(ctx, userID, bson.M{
			"$set": bson.M{"passwordHash": string(hash)},
		}); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondMessage(c, http.StatusOK, "password updated")
	}
}

func CreateUserAddress(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/addresses"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req addressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			respondError(c, http.StatusNotFound, route, "user not found")
			return
		}

		if req.IsDefault {
			for i := range user.Addresses {
				user.Addresses[i].IsDefault = false
			}
		}

		address := models.Address{
			ID:         uuid.NewString(),
			Label:      strings.TrimSpace(req.Label),
			Street:     strings.TrimSpace(req.Street),
			City:       strings.TrimSpace(req.City),
			Province:   strings.TrimSpace(req.Province),
			PostalCode: strings.TrimSpace(req.PostalCode),
			Country:    strings.TrimSpace(req.Country),
			IsDefault:  req.IsDefault || len(user.Addresses) == 0,
		}

		user.Addresses = append(user.Addresses, address)

		if _, err := db.Collection("users").UpdateByID(ctx, userID, bson.M{
			"$set": bson.M{"addresses": user.Addresses},
		}); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Println("[ADDRESS] [INFO] address created:", address.ID)
		respondData(c, http.StatusCreated, address)
	}
}

func DeleteUserAddress(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/auth/addresses/:id"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		addressID := strings.TrimSpace(c.Param("id"))

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("users").UpdateByID(ctx, userID, bson.M{
			"$pull": bson.M{"addresses": bson.M{"id": addressID}},
		})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.ModifiedCount == 0 {
			respondError(c, http.StatusNotFound, route, "address not found")
			return
		}

		respondMessage(c, http.StatusOK, "address deleted")
	}
}

func GetWishlist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/auth/wishlist"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			respondError(c, http.StatusNotFound, route, "user not found")
			return
		}

		products := make([]models.Product, 0)
		if len(user.Wishlist) > 0 {
			cursor, err := db.Collection("products").Find(ctx, bson.M{"_id": bson.M{"$in": user.Wishlist}})
			if err != nil {
				respondError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			defer cursor.Close(ctx)

			products, err = decodeProducts(ctx, cursor)
			if err != nil {
				respondError(c, http.StatusInternalServerError, route, "decode error")
				return
			}
		}

		respondData(c, http.StatusOK, products)
	}
}

func AddToWishlist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/auth/wishlist"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req wishlistRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.ProductID))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		count, err := db.Collection("products").CountDocuments(ctx, bson.M{"_id": productID})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if count == 0 {
			respondError(c, http.StatusNotFound, route, "product not found")
			return
		}

		if _, err := db.Collection("users").UpdateByID(ctx, userID, bson.M{
			"$addToSet": bson.M{"wishlist": productID},
		}); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondMessage(c, http.StatusOK, "product added to wishlist")
	}
}

func RemoveFromWishlist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/auth/wishlist/:id"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid product id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if _, err := db.Collection("users").UpdateByID(ctx, userID, bson.M{
			"$pull": bson.M{"wishlist": productID},
		}); err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondMessage(c, http.StatusOK, "product removed from wishlist")
	}
}
