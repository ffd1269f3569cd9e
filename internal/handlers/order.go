package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"motoshop/internal/models"
)

type createOrderItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type orderAddressRequest struct {
	Name       string `json:"name" binding:"required"`
	Surname    string `json:"surname" binding:"required"`
	Street     string `json:"street" binding:"required"`
	City       string `json:"city" binding:"required"`
	Province   string `json:"province" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country"`
}

type createOrderRequest struct {
	Items           []createOrderItemRequest `json:"items" binding:"required,min=1,dive"`
	ShippingAddress orderAddressRequest      `json:"shippingAddress" binding:"required"`
	BillingAddress  *orderAddressRequest     `json:"billingAddress"`
	PaymentType     string                   `json:"paymentType" binding:"required"`
	ShippingCost    float64                  `json:"shippingCost"`
	Discount        float64                  `json:"discount"`
}

func orderAddressFrom(req orderAddressRequest) models.OrderAddress {
	return models.OrderAddress{
		Name:       req.Name,
		Surname:    req.Surname,
		Street:     req.Street,
		City:       req.City,
		Province:   req.Province,
		PostalCode: req.PostalCode,
		Country:    req.Country,
	}
}

/*
POST /api/orders
Direct order submission (pay-on-delivery / bank transfer). Stock is walked
item by item inside a session transaction: a guarded decrement either
reserves the quantity or aborts the whole order.
*/
func CreateOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/orders"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		if req.PaymentType != "bank-transfer" && req.PaymentType != "cash-on-delivery" {
			respondError(c, http.StatusBadRequest, route, "invalid payment type")
			return
		}
		if req.ShippingCost < 0 || req.Discount < 0 {
			respondError(c, http.StatusBadRequest, route, "negative amounts are not allowed")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		session, err := db.Client().StartSession()
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer session.EndSession(ctx)

		var order models.Order
		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			now := time.Now()

			items := make([]models.OrderItem, 0, len(req.Items))
			for _, item := range req.Items {
				productID, err := primitive.ObjectIDFromHex(item.ProductID)
				if err != nil {
					return nil, productNotFoundError{}
				}

				var product models.Product
				err = db.Collection("products").FindOne(sessCtx, bson.M{"_id": productID}).Decode(&product)
				if err == mongo.ErrNoDocuments {
					return nil, productNotFoundError{ProductID: productID}
				}
				if err != nil {
					return nil, err
				}

				if product.Stock < item.Quantity {
					return nil, outOfStockError{
						ProductID: productID,
						Available: product.Stock,
						Requested: item.Quantity,
					}
				}

				items = append(items, newOrderItem(product, item.Quantity))

				if err := reserveStock(sessCtx, db, productID, item.Quantity); err != nil {
					return nil, err
				}
			}

			orderNumber, err := generateOrderNumber(sessCtx, db, now)
			if err != nil {
				return nil, err
			}

			billing := orderAddressFrom(req.ShippingAddress)
			if req.BillingAddress != nil {
				billing = orderAddressFrom(*req.BillingAddress)
			}

			order = models.Order{
				OrderNumber:     orderNumber,
				UserID:          userID,
				Items:           items,
				ShippingAddress: orderAddressFrom(req.ShippingAddress),
				BillingAddress:  billing,
				PaymentMethod:   models.PaymentMethod{Type: req.PaymentType},
				PaymentStatus:   models.PaymentStatusPending,
				Status:          models.OrderStatusAwaitingPayment,
				CreatedAt:       now,
			}
			fillOrderTotals(&order, req.ShippingCost, req.Discount, orderTaxRate)

			res, err := db.Collection("orders").InsertOne(sessCtx, order)
			if err != nil {
				return nil, err
			}
			if id, ok := res.InsertedID.(primitive.ObjectID); ok {
				order.ID = id
			}
			return nil, nil
		})
		if err != nil {
			var stockErr outOfStockError
			if errors.As(err, &stockErr) {
				c.JSON(http.StatusBadRequest, gin.H{
					"success":   false,
					"message":   "insufficient stock",
					"productId": stockErr.ProductID.Hex(),
					"available": stockErr.Available,
					"requested": stockErr.Requested,
				})
				return
			}
			var notFoundErr productNotFoundError
			if errors.As(err, &notFoundErr) {
				c.JSON(http.StatusBadRequest, gin.H{
					"success":   false,
					"message":   "product not found",
					"productId": notFoundErr.ProductID.Hex(),
				})
				return
			}
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Printf("[%s] order %s created for user %s", route, order.OrderNumber, userID.Hex())
		respondData(c, http.StatusCreated, order)
	}
}

func GetMyOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders/my-orders"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		filter := bson.M{"userId": userID}

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

func GetMyOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders/my-orders/:id"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		err = db.Collection("orders").FindOne(ctx, bson.M{
			"_id":    orderID,
			"userId": userID,
		}).Decode(&order)
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
