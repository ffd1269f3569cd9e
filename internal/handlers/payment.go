package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"motoshop/internal/models"
)

type checkoutItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type checkoutSessionRequest struct {
	Items             []checkoutItemRequest `json:"items" binding:"required,min=1,dive"`
	ShippingAddressID string                `json:"shippingAddressId"`
}

// cartEntry is the line-item reference embedded in the session metadata so
// the webhook can resolve products by id instead of matching display names.
type cartEntry struct {
	ProductID string `json:"p"`
	Quantity  int    `json:"q"`
}

func encodeCartMetadata(entries []cartEntry) (string, error) {
	data, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeCartMetadata(raw string) ([]cartEntry, error) {
	var entries []cartEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("empty cart metadata")
	}
	for _, e := range entries {
		if e.Quantity < 1 {
			return nil, fmt.Errorf("invalid quantity in cart metadata")
		}
	}
	return entries, nil
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// markOversold flags the order lines for a product whose stock reservation
// failed, so reconciliation queries can find them.
func markOversold(items []models.OrderItem, productID primitive.ObjectID) {
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Oversold = true
		}
	}
}

/*
POST /api/payments/create-checkout-session
Validates the cart against live stock and opens a provider-hosted checkout
session. No order document is written here; the order comes into existence
only when the provider confirms the payment through the webhook.
*/
func CreateCheckoutSession(db *mongo.Database, frontendURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/payments/create-checkout-session"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}
		email, _ := c.Get("userEmail")
		userEmail, _ := email.(string)

		var req checkoutSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
		cart := make([]cartEntry, 0, len(req.Items))
		total := 0.0

		for _, item := range req.Items {
			productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(item.ProductID))
			if err != nil {
				respondError(c, http.StatusBadRequest, route, "invalid productId")
				return
			}

			var product models.Product
			err = db.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
			if err == mongo.ErrNoDocuments {
				respondError(c, http.StatusNotFound, route, "product not found: "+item.ProductID)
				return
			}
			if err != nil {
				respondError(c, http.StatusInternalServerError, route, "db error")
				return
			}

			if product.Stock < item.Quantity {
				c.JSON(http.StatusBadRequest, gin.H{
					"success":   false,
					"message":   "insufficient stock",
					"productId": productID.Hex(),
					"available": product.Stock,
					"requested": item.Quantity,
				})
				return
			}

			unitPrice := product.EffectivePrice()
			total += unitPrice * float64(item.Quantity)

			productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(product.Name),
			}
			if desc := strings.TrimSpace(product.ShortDescription); desc != "" {
				productData.Description = stripe.String(desc)
			}
			if img := product.PrimaryImage(); img != "" {
				productData.Images = stripe.StringSlice([]string{img})
			}

			lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String("eur"),
					ProductData: productData,
					UnitAmount:  stripe.Int64(toCents(unitPrice)),
				},
				Quantity: stripe.Int64(int64(item.Quantity)),
			})
			cart = append(cart, cartEntry{ProductID: productID.Hex(), Quantity: item.Quantity})
		}

		cartMeta, err := encodeCartMetadata(cart)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "cart encoding failed")
			return
		}

		params := &stripe.CheckoutSessionParams{
			Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
			PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
			LineItems:          lineItems,
			CustomerEmail:      stripe.String(userEmail),
			ClientReferenceID:  stripe.String(userID.Hex()),
			SuccessURL:         stripe.String(frontendURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
			CancelURL:          stripe.String(frontendURL + "/checkout/cancel"),
			ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
				AllowedCountries: stripe.StringSlice([]string{"IT"}),
			},
		}
		params.AddMetadata("userId", userID.Hex())
		params.AddMetadata("cart", cartMeta)
		params.AddMetadata("totalAmount", fmt.Sprintf("%.2f", total))
		if req.ShippingAddressID != "" {
			params.AddMetadata("shippingAddressId", req.ShippingAddressID)
		}

		sess, err := session.New(params)
		if err != nil {
			log.Printf("[%s] provider session creation failed: %v", route, err)
			respondError(c, http.StatusBadGateway, route, "payment provider error")
			return
		}

		log.Printf("[%s] checkout session %s opened for user %s", route, sess.ID, userID.Hex())
		respondData(c, http.StatusOK, gin.H{
			"sessionId": sess.ID,
			"url":       sess.URL,
		})
	}
}

/*
POST /payments/webhook
Signature-verified provider callback. Requires the raw, unparsed request
body. Processing is idempotent: the event id is recorded under a unique
index before any side effect, and a duplicate delivery is acknowledged
without re-processing.
*/
func HandleWebhook(db *mongo.Database, webhookSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /payments/webhook"
		defer handlePanic(c, route)

		payload, err := c.GetRawData()
		if err != nil {
			respondError(c, http.StatusBadRequest, route, "could not read body")
			return
		}

		event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), webhookSecret)
		if err != nil {
			log.Printf("[%s] signature verification failed: %v", route, err)
			respondError(c, http.StatusBadRequest, route, "invalid signature")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		switch event.Type {
		case "checkout.session.completed":
			var sess stripe.CheckoutSession
			if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
				respondError(c, http.StatusBadRequest, route, "malformed event payload")
				return
			}

			_, err := db.Collection("payment_events").InsertOne(ctx, models.PaymentEvent{
				EventID:   event.ID,
				Type:      string(event.Type),
				SessionID: sess.ID,
				CreatedAt: time.Now(),
			})
			if err != nil {
				if mongo.IsDuplicateKeyError(err) {
					log.Printf("[%s] duplicate delivery of event %s, skipping", route, event.ID)
					c.JSON(http.StatusOK, gin.H{"received": true})
					return
				}
				respondError(c, http.StatusInternalServerError, route, "db error")
				return
			}

			if err := handleCheckoutCompleted(ctx, db, sess); err != nil {
				log.Printf("[%s] checkout completion failed for session %s: %v", route, sess.ID, err)
				// Release the event record, otherwise the provider retry
				// would be mistaken for a duplicate delivery and the paid
				// session would never produce an order.
				if _, delErr := db.Collection("payment_events").DeleteOne(ctx, bson.M{"eventId": event.ID}); delErr != nil {
					log.Printf("[%s] could not release event record %s: %v", route, event.ID, delErr)
				}
				respondError(c, http.StatusInternalServerError, route, "event processing failed")
				return
			}
		default:
			log.Printf("[%s] ignoring event type %s", route, event.Type)
		}

		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

// handleCheckoutCompleted turns a paid checkout session into an order and
// decrements stock. Products are resolved by the id references carried in
// the session metadata.
func handleCheckoutCompleted(ctx context.Context, db *mongo.Database, sess stripe.CheckoutSession) error {
	userID, err := primitive.ObjectIDFromHex(sess.Metadata["userId"])
	if err != nil {
		return fmt.Errorf("invalid userId metadata: %w", err)
	}

	entries, err := decodeCartMetadata(sess.Metadata["cart"])
	if err != nil {
		return fmt.Errorf("invalid cart metadata: %w", err)
	}

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return fmt.Errorf("session user lookup: %w", err)
	}

	now := time.Now()
	items := make([]models.OrderItem, 0, len(entries))

	for _, entry := range entries {
		productID, err := primitive.ObjectIDFromHex(entry.ProductID)
		if err != nil {
			return fmt.Errorf("invalid product id in cart metadata: %s", entry.ProductID)
		}

		var product models.Product
		if err := db.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
			return fmt.Errorf("product lookup %s: %w", productID.Hex(), err)
		}

		items = append(items, newOrderItem(product, entry.Quantity))

		// Payment is already captured; an oversold item is flagged on the
		// order rather than failing it.
		if err := reserveStock(ctx, db, productID, entry.Quantity); err != nil {
			log.Printf("[WEBHOOK] stock reservation failed for %s, marking line oversold: %v", productID.Hex(), err)
			markOversold(items, productID)
		}
	}

	address := addressFromShippingDetails(sess.ShippingDetails, user)

	transactionID := ""
	if sess.PaymentIntent != nil {
		transactionID = sess.PaymentIntent.ID
	}

	orderNumber, err := generateOrderNumber(ctx, db, now)
	if err != nil {
		return fmt.Errorf("order number: %w", err)
	}

	order := models.Order{
		OrderNumber:     orderNumber,
		UserID:          userID,
		Items:           items,
		ShippingAddress: address,
		BillingAddress:  address,
		PaymentMethod: models.PaymentMethod{
			Type:          "card",
			Provider:      "stripe",
			TransactionID: transactionID,
		},
		PaymentStatus: models.PaymentStatusCompleted,
		Status:        models.OrderStatusPaymentReceived,
		CreatedAt:     now,
	}
	fillOrderTotals(&order, 0, 0, orderTaxRate)

	if _, err := db.Collection("orders").InsertOne(ctx, order); err != nil {
		return fmt.Errorf("order insert: %w", err)
	}

	log.Printf("[WEBHOOK] order %s created from session %s", order.OrderNumber, sess.ID)
	return nil
}

// addressFromShippingDetails maps provider-supplied shipping details onto an
// order address snapshot, falling back to the user's default address.
func addressFromShippingDetails(details *stripe.ShippingDetails, user models.User) models.OrderAddress {
	if details != nil && details.Address != nil {
		name := user.Name
		surname := user.Surname
		if parts := strings.Fields(details.Name); len(parts) > 0 {
			name = parts[0]
			if len(parts) > 1 {
				surname = strings.Join(parts[1:], " ")
			}
		}
		return models.OrderAddress{
			Name:       name,
			Surname:    surname,
			Street:     details.Address.Line1,
			City:       details.Address.City,
			Province:   details.Address.State,
			PostalCode: details.Address.PostalCode,
			Country:    details.Address.Country,
		}
	}

	for _, addr := range user.Addresses {
		if addr.IsDefault {
			return models.OrderAddress{
				Name:       user.Name,
				Surname:    user.Surname,
				Street:     addr.Street,
				City:       addr.City,
				Province:   addr.Province,
				PostalCode: addr.PostalCode,
				Country:    addr.Country,
			}
		}
	}

	return models.OrderAddress{Name: user.Name, Surname: user.Surname}
}

// GetMyPayments lists the caller's payment-bearing orders, newest first.
func GetMyPayments(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/payments/my-payments"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, http.StatusUnauthorized, route, "unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cursor, err := db.Collection("orders").Find(
			ctx,
			bson.M{"userId": userID},
			options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
		)
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

		respondData(c, http.StatusOK, orders)
	}
}
