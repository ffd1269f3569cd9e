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

type orderStatusUpdateRequest struct {
	Status       string `json:"status" binding:"required"`
	Carrier      string `json:"carrier"`
	TrackingCode string `json:"trackingCode"`
}

func GetAllOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/orders"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		filter := bson.M{}
		if status := strings.TrimSpace(c.Query("status")); status != "" {
			if !models.ValidOrderStatus(status) {
				respondError(c, http.StatusBadRequest, route, "unknown status")
				return
			}
			filter["status"] = status
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		total, err := db.Collection("orders").CountDocuments(ctx, filter)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		findOptions := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page - 1) * limit).
			SetLimit(limit)

		cursor, err := db.Collection("orders").Find(ctx, filter, findOptions)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		orders := make([]models.Order, 0)
		if err := cursor.All(ctx, &orders); err != nil {
			respondError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		respondPage(c, orders, buildPaginationMeta(total, page, limit))
	}
}

func GetOrderDetails(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/orders/:id"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		err = db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondData(c, http.StatusOK, order)
	}
}

// UpdateOrderStatus moves an order through the transition table. Setting
// shipped stamps the shipment date and accepts tracking fields.
func UpdateOrderStatus(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/admin/orders/:id"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req orderStatusUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		newStatus := strings.TrimSpace(req.Status)
		if !models.ValidOrderStatus(newStatus) {
			respondError(c, http.StatusBadRequest, route, "unknown status")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		err = db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, route, "order not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if !models.CanTransition(order.Status, newStatus) {
			respondError(c, http.StatusBadRequest, route,
				"invalid transition from "+order.Status+" to "+newStatus)
			return
		}

		set := bson.M{"status": newStatus}
		switch newStatus {
		case models.OrderStatusShipped:
			set["shippedAt"] = time.Now()
			if carrier := strings.TrimSpace(req.Carrier); carrier != "" {
				set["carrier"] = carrier
			}
			if code := strings.TrimSpace(req.TrackingCode); code != "" {
				set["trackingCode"] = code
			}
		case models.OrderStatusPaymentReceived:
			set["paymentStatus"] = models.PaymentStatusCompleted
		case models.OrderStatusRefunded:
			set["paymentStatus"] = models.PaymentStatusRefunded
		}

		// The status in the filter guards against a concurrent transition
		// between the read and this write.
		var updated models.Order
		err = db.Collection("orders").FindOneAndUpdate(
			ctx,
			bson.M{"_id": orderID, "status": order.Status},
			bson.M{"$set": set},
			mongoReturnUpdated(),
		).Decode(&updated)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusConflict, route, "order status changed concurrently")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[%s] order %s: %s -> %s", route, updated.OrderNumber, order.Status, newStatus)
		respondData(c, http.StatusOK, updated)
	}
}

// DeleteOrder is a destructive escape hatch; orders are normally never
// hard-deleted.
func DeleteOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/admin/orders/:id"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("orders").DeleteOne(ctx, bson.M{"_id": orderID})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.DeletedCount == 0 {
			respondError(c, http.StatusNotFound, route, "order not found")
			return
		}

		log.Printf("[%s] order deleted: %s", route, orderID.Hex())
		respondMessage(c, http.StatusOK, "order deleted")
	}
}
