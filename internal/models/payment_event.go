package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentEvent records a processed provider webhook event. The unique index
// on EventID turns duplicate deliveries into no-ops.
type PaymentEvent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EventID   string             `bson:"eventId" json:"eventId"`
	Type      string             `bson:"type" json:"type"`
	SessionID string             `bson:"sessionId,omitempty" json:"sessionId,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
