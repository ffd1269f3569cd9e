package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("users").Indexes()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true),
	}

	log.Println("EnsureUserIndexes: creating email_unique index")
	_, err := indexes.CreateOne(ctx, emailIndex)
	if err != nil {
		log.Println("EnsureUserIndexes: email index error:", err)
		return err
	}
	return nil
}

func EnsureProductIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("products").Indexes()

	slugIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().
			SetName("slug_unique").
			SetUnique(true),
	}

	textIndex := mongo.IndexModel{
		Keys: bson.D{
			{Key: "name", Value: "text"},
			{Key: "description", Value: "text"},
			{Key: "brand", Value: "text"},
		},
		Options: options.Index().SetName("product_text"),
	}

	log.Println("EnsureProductIndexes: creating slug_unique and product_text indexes")
	_, err := indexes.CreateMany(ctx, []mongo.IndexModel{slugIndex, textIndex})
	if err != nil {
		log.Println("EnsureProductIndexes: index error:", err)
		return err
	}
	return nil
}

func EnsureCategoryIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("categories").Indexes()

	slugIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().
			SetName("slug_unique").
			SetUnique(true),
	}

	log.Println("EnsureCategoryIndexes: creating slug_unique index")
	_, err := indexes.CreateOne(ctx, slugIndex)
	if err != nil {
		log.Println("EnsureCategoryIndexes: slug index error:", err)
		return err
	}
	return nil
}

func EnsureOrderIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("orders").Indexes()

	orderIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetName("userId_index"),
		},
		{
			Keys: bson.D{{Key: "orderNumber", Value: 1}},
			Options: options.Index().
				SetName("orderNumber_unique").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("status_index"),
		},
	}

	log.Println("EnsureOrderIndexes: creating userId, orderNumber and status indexes")
	_, err := indexes.CreateMany(ctx, orderIndexes)
	if err != nil {
		log.Println("EnsureOrderIndexes: index error:", err)
		return err
	}
	return nil
}

// EnsurePaymentEventIndexes backs webhook idempotency: inserting the same
// provider event id twice fails with a duplicate key error.
func EnsurePaymentEventIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("payment_events").Indexes()

	eventIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "eventId", Value: 1}},
		Options: options.Index().
			SetName("eventId_unique").
			SetUnique(true),
	}

	log.Println("EnsurePaymentEventIndexes: creating eventId_unique index")
	_, err := indexes.CreateOne(ctx, eventIndex)
	if err != nil {
		log.Println("EnsurePaymentEventIndexes: eventId index error:", err)
		return err
	}
	return nil
}
