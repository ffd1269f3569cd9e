package main

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"motoshop/internal/config"
	"motoshop/internal/database"
	"motoshop/internal/handlers"
	"motoshop/internal/middleware"
	"motoshop/internal/models"
)

func main() {
	config.Load()

	stripe.Key = config.AppEnv.StripeSecretKey

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("user index warning: %v", err)
	}
	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("product index warning: %v", err)
	}
	if err := database.EnsureCategoryIndexes(db); err != nil {
		log.Printf("category index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("order index warning: %v", err)
	}
	if err := database.EnsurePaymentEventIndexes(db); err != nil {
		log.Printf("payment event index warning: %v", err)
	}

	if err := seedAdmin(db); err != nil {
		log.Fatal("admin seed failed:", err)
	}

	jwtSecret := config.AppEnv.JWTSecret
	accessTTL := config.AppEnv.AccessTokenTTL

	r := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{config.AppEnv.FrontendURL}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	r.Use(cors.New(corsConfig))

	// Webhook stays outside the API groups: it needs the raw body for
	// signature verification and carries no bearer token.
	r.POST("/payments/webhook", handlers.HandleWebhook(db, config.AppEnv.StripeWebhookSecret))

	r.GET("/verify-email/:token", handlers.VerifyEmail(db))
	r.POST("/forgot-password", handlers.ForgotPassword(db))
	r.POST("/reset-password/:token", handlers.ResetPassword(db))

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", handlers.Register(db, jwtSecret, accessTTL))
		auth.POST("/login", handlers.Login(db, jwtSecret, accessTTL))

		authed := auth.Group("")
		authed.Use(middleware.AuthGuard(db, jwtSecret))
		{
			authed.GET("/me", handlers.GetMe(db))
			authed.PUT("/update-profile", handlers.UpdateProfile(db))
			authed.PUT("/update-password", handlers.UpdatePassword(db))
			authed.POST("/addresses", handlers.CreateUserAddress(db))
			authed.DELETE("/addresses/:id", handlers.DeleteUserAddress(db))
			authed.GET("/wishlist", handlers.GetWishlist(db))
			authed.POST("/wishlist", handlers.AddToWishlist(db))
			authed.DELETE("/wishlist/:id", handlers.RemoveFromWishlist(db))
		}
	}

	products := r.Group("/api/products")
	{
		products.GET("", handlers.GetProducts(db))
		products.GET("/:id", handlers.GetProduct(db))
		products.GET("/:id/related", handlers.GetRelatedProducts(db))
		products.POST("/:id/reviews", middleware.AuthGuard(db, jwtSecret), handlers.AddReview(db))

		products.POST("", middleware.AdminAuth(db, jwtSecret), handlers.CreateProduct(db))
		products.PUT("/:id", middleware.AdminAuth(db, jwtSecret), handlers.UpdateProduct(db))
		products.DELETE("/:id", middleware.AdminAuth(db, jwtSecret), handlers.DeleteProduct(db))
	}

	categories := r.Group("/api/categories")
	{
		categories.GET("", handlers.GetCategories(db))
		categories.GET("/:id", handlers.GetCategory(db))

		categories.POST("", middleware.AdminAuth(db, jwtSecret), handlers.CreateCategory(db))
		categories.PUT("/:id", middleware.AdminAuth(db, jwtSecret), handlers.UpdateCategory(db))
		categories.DELETE("/:id", middleware.AdminAuth(db, jwtSecret), handlers.DeleteCategory(db))
	}

	r.GET("/api/orders", middleware.AdminAuth(db, jwtSecret), handlers.GetAllOrders(db))

	orders := r.Group("/api/orders")
	orders.Use(middleware.AuthGuard(db, jwtSecret))
	{
		orders.POST("", handlers.CreateOrder(db))
		orders.GET("/my-orders", handlers.GetMyOrders(db))
		orders.GET("/my-orders/:id", handlers.GetMyOrder(db))
	}

	payments := r.Group("/api/payments")
	payments.Use(middleware.AuthGuard(db, jwtSecret))
	{
		payments.POST("/create-checkout-session", handlers.CreateCheckoutSession(db, config.AppEnv.FrontendURL))
		payments.GET("/my-payments", handlers.GetMyPayments(db))
	}

	admin := r.Group("/api/admin")
	admin.Use(middleware.AdminAuth(db, jwtSecret))
	{
		admin.GET("/dashboard", handlers.GetDashboardStats(db))

		admin.GET("/users", handlers.GetAllUsers(db))
		admin.GET("/users/:id", handlers.GetUserDetails(db))
		admin.PUT("/users/:id", handlers.UpdateUser(db))
		admin.DELETE("/users/:id", handlers.DeleteUser(db))

		admin.GET("/products", handlers.GetAllProducts(db))
		admin.GET("/categories", handlers.GetAllCategories(db))

		admin.GET("/orders", handlers.GetAllOrders(db))
		admin.GET("/orders/:id", handlers.GetOrderDetails(db))
		admin.PUT("/orders/:id", handlers.UpdateOrderStatus(db))
		admin.DELETE("/orders/:id", handlers.DeleteOrder(db))
	}

	r.Run(":" + config.AppEnv.Port)
}

// seedAdmin creates the bootstrap admin account when no admin exists, so the
// at-least-one-admin invariant holds from first start.
func seedAdmin(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := db.Collection("users").CountDocuments(ctx, bson.M{"role": models.RoleAdmin})
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email := config.AppEnv.SeedAdminEmail
	password := config.AppEnv.SeedAdminPassword
	if missingSeedCredentials(email, password) {
		// Refusing to start beats running with zero admins: every admin
		// operation would be unreachable until the database is hand-edited.
		return errors.New("no admin account exists and no seed credentials configured")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now()
	_, err = db.Collection("users").InsertOne(ctx, models.User{
		Name:         "Admin",
		Surname:      "Admin",
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		IsVerified:   true,
		Addresses:    []models.Address{},
		Wishlist:     []primitive.ObjectID{},
		CreatedAt:    now,
		LastAccess:   now,
	})
	if err != nil {
		return err
	}

	log.Println("seed admin created:", email)
	return nil
}

func missingSeedCredentials(email, password string) bool {
	return strings.TrimSpace(email) == "" || strings.TrimSpace(password) == ""
}
