package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"motoshop/internal/models"
)

type topSeller struct {
	ProductID string `bson:"_id" json:"productId"`
	Name      string `bson:"name" json:"name"`
	Sold      int64  `bson:"sold" json:"sold"`
}

/*
GET /api/admin/dashboard
Full-collection counts and aggregations computed at request time; acceptable
at this data volume.
*/
func GetDashboardStats(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/dashboard"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		userCount, err := db.Collection("users").CountDocuments(ctx, bson.M{})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		productCount, err := db.Collection("products").CountDocuments(ctx, bson.M{})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		orderCount, err := db.Collection("orders").CountDocuments(ctx, bson.M{})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		categoryCount, err := db.Collection("categories").CountDocuments(ctx, bson.M{})
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		revenue, err := totalRevenue(ctx, db)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		topSellers, err := bestSellingProducts(ctx, db, 5)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		byStatus, err := ordersByStatus(ctx, db)
		if err != nil {
			respondError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		respondData(c, http.StatusOK, gin.H{
			"users":          userCount,
			"products":       productCount,
			"orders":         orderCount,
			"categories":     categoryCount,
			"revenue":        revenue,
			"topSellers":     topSellers,
			"ordersByStatus": byStatus,
		})
	}
}

func totalRevenue(ctx context.Context, db *mongo.Database) (float64, error) {
	cursor, err := db.Collection("orders").Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"paymentStatus": models.PaymentStatusCompleted}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$total"},
		}}},
	})
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}

func bestSellingProducts(ctx context.Context, db *mongo.Database, limit int) ([]topSeller, error) {
	cursor, err := db.Collection("orders").Aggregate(ctx, mongo.Pipeline{
		{{Key: "$unwind", Value: "$items"}},
		{{Key: "$group", Value: bson.M{
			"_id":  bson.M{"$toString": "$items.productId"},
			"name": bson.M{"$first": "$items.name"},
			"sold": bson.M{"$sum": "$items.quantity"},
		}}},
		{{Key: "$sort", Value: bson.M{"sold": -1}}},
		{{Key: "$limit", Value: limit}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sellers := make([]topSeller, 0, limit)
	if err := cursor.All(ctx, &sellers); err != nil {
		return nil, err
	}
	return sellers, nil
}

func ordersByStatus(ctx context.Context, db *mongo.Database) (map[string]int64, error) {
	cursor, err := db.Collection("orders").Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
		}}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}

	byStatus := make(map[string]int64, len(results))
	for _, r := range results {
		byStatus[r.Status] = r.Count
	}
	return byStatus, nil
}
