package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses. The main flow runs awaiting-payment through delivered;
// cancellation and refunds branch off non-terminal states.
const (
	OrderStatusAwaitingPayment = "awaiting-payment"
	OrderStatusPaymentReceived = "payment-received"
	OrderStatusProcessing      = "processing"
	OrderStatusShipped         = "shipped"
	OrderStatusDelivered       = "delivered"
	OrderStatusCancelled       = "cancelled"
	OrderStatusRefundRequested = "refund-requested"
	OrderStatusRefunded        = "refunded"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

var orderStatusTransitions = map[string][]string{
	OrderStatusAwaitingPayment: {OrderStatusPaymentReceived, OrderStatusCancelled},
	OrderStatusPaymentReceived: {OrderStatusProcessing, OrderStatusCancelled, OrderStatusRefundRequested},
	OrderStatusProcessing:      {OrderStatusShipped, OrderStatusCancelled, OrderStatusRefundRequested},
	OrderStatusShipped:         {OrderStatusDelivered, OrderStatusRefundRequested},
	OrderStatusDelivered:       {OrderStatusRefundRequested},
	OrderStatusRefundRequested: {OrderStatusRefunded},
	OrderStatusCancelled:       {},
	OrderStatusRefunded:        {},
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	_, ok := orderStatusTransitions[s]
	return ok
}

// CanTransition reports whether an order may move from one status to the
// next. Writing the current status again is a no-op and always allowed.
func CanTransition(from, to string) bool {
	if from == to {
		return ValidOrderStatus(from)
	}
	for _, next := range orderStatusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderItem is a snapshot of a product at purchase time, decoupled from the
// live catalog document.
type OrderItem struct {
	ProductID       primitive.ObjectID `bson:"productId" json:"productId"`
	Name            string             `bson:"name" json:"name"`
	Image           string             `bson:"image,omitempty" json:"image,omitempty"`
	UnitPrice       float64            `bson:"unitPrice" json:"unitPrice"`
	DiscountedPrice float64            `bson:"discountedPrice" json:"discountedPrice"`
	Quantity        int                `bson:"quantity" json:"quantity"`
	LineTotal       float64            `bson:"lineTotal" json:"lineTotal"`

	// Oversold marks a line whose stock reservation failed after the payment
	// was already captured; such orders need manual reconciliation.
	Oversold bool `bson:"oversold,omitempty" json:"oversold,omitempty"`
}

// OrderAddress is the address snapshot stored on the order.
type OrderAddress struct {
	Name       string `bson:"name" json:"name"`
	Surname    string `bson:"surname" json:"surname"`
	Street     string `bson:"street" json:"street"`
	City       string `bson:"city" json:"city"`
	Province   string `bson:"province" json:"province"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Country    string `bson:"country,omitempty" json:"country,omitempty"`
}

// PaymentMethod describes how the order was (or will be) paid.
type PaymentMethod struct {
	Type          string `bson:"type" json:"type"`
	Provider      string `bson:"provider,omitempty" json:"provider,omitempty"`
	TransactionID string `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
}

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber     string             `bson:"orderNumber" json:"orderNumber"`
	UserID          primitive.ObjectID `bson:"userId" json:"userId"`
	Items           []OrderItem        `bson:"items" json:"items"`
	ShippingAddress OrderAddress       `bson:"shippingAddress" json:"shippingAddress"`
	BillingAddress  OrderAddress       `bson:"billingAddress" json:"billingAddress"`
	PaymentMethod   PaymentMethod      `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus   string             `bson:"paymentStatus" json:"paymentStatus"`
	Status          string             `bson:"status" json:"status"`
	Carrier         string             `bson:"carrier,omitempty" json:"carrier,omitempty"`
	TrackingCode    string             `bson:"trackingCode,omitempty" json:"trackingCode,omitempty"`
	ShippedAt       *time.Time         `bson:"shippedAt,omitempty" json:"shippedAt,omitempty"`
	Subtotal        float64            `bson:"subtotal" json:"subtotal"`
	ShippingCost    float64            `bson:"shippingCost" json:"shippingCost"`
	Discount        float64            `bson:"discount" json:"discount"`
	Tax             float64            `bson:"tax" json:"tax"`
	Total           float64            `bson:"total" json:"total"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}
