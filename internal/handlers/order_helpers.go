package handlers

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"motoshop/internal/models"
)

// orderTaxRate is the flat VAT rate applied to checkout totals.
const orderTaxRate = 0.22

type outOfStockError struct {
	ProductID primitive.ObjectID
	Available int
	Requested int
}

func (e outOfStockError) Error() string {
	return "product out of stock"
}

type productNotFoundError struct {
	ProductID primitive.ObjectID
}

func (e productNotFoundError) Error() string {
	return "product not found"
}

// generateOrderNumber builds ORD-YYYYMM-<seq>-<rand>. The sequence comes from
// a count at generation time; the random suffix keeps concurrent creations
// from colliding before the unique index settles the race.
func generateOrderNumber(ctx context.Context, db *mongo.Database, now time.Time) (string, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	count, err := db.Collection("orders").CountDocuments(ctx, bson.M{
		"createdAt": bson.M{"$gte": monthStart},
	})
	if err != nil {
		return "", err
	}

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return formatOrderNumber(now, count+1, suffix), nil
}

func formatOrderNumber(now time.Time, seq int64, suffix string) string {
	return fmt.Sprintf("ORD-%s-%d-%s", now.Format("200601"), seq, suffix)
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// newOrderItem snapshots a product into an order line at its current
// effective price.
func newOrderItem(product models.Product, quantity int) models.OrderItem {
	return models.OrderItem{
		ProductID:       product.ID,
		Name:            product.Name,
		Image:           product.PrimaryImage(),
		UnitPrice:       product.Price,
		DiscountedPrice: product.DiscountedPrice,
		Quantity:        quantity,
		LineTotal:       roundMoney(product.EffectivePrice() * float64(quantity)),
	}
}

// fillOrderTotals computes the monetary breakdown so that
// total = subtotal - discount + shipping + tax always holds.
func fillOrderTotals(order *models.Order, shippingCost, discount, taxRate float64) {
	subtotal := 0.0
	for _, item := range order.Items {
		subtotal += item.LineTotal
	}

	order.Subtotal = roundMoney(subtotal)
	order.ShippingCost = roundMoney(shippingCost)
	order.Discount = roundMoney(discount)
	order.Tax = roundMoney((subtotal - discount) * taxRate)
	order.Total = roundMoney(order.Subtotal - order.Discount + order.ShippingCost + order.Tax)
}

// reserveStock decrements stock for one item with a floor guard; the filter
// refuses the write when remaining stock is insufficient.
func reserveStock(ctx context.Context, db *mongo.Database, productID primitive.ObjectID, quantity int) error {
	res, err := db.Collection("products").UpdateOne(ctx, bson.M{
		"_id":   productID,
		"stock": bson.M{"$gte": quantity},
	}, bson.M{
		"$inc": bson.M{"stock": -quantity},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return outOfStockError{ProductID: productID, Requested: quantity}
	}
	return nil
}
