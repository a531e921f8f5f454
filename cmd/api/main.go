package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Pesokrava/storefront_api/internal/config"
	"github.com/Pesokrava/storefront_api/internal/delivery/events"
	httpDelivery "github.com/Pesokrava/storefront_api/internal/delivery/http"
	"github.com/Pesokrava/storefront_api/internal/delivery/http/handler"
	authpkg "github.com/Pesokrava/storefront_api/internal/pkg/auth"
	"github.com/Pesokrava/storefront_api/internal/pkg/cache"
	"github.com/Pesokrava/storefront_api/internal/pkg/database"
	"github.com/Pesokrava/storefront_api/internal/pkg/logger"
	cacheRepo "github.com/Pesokrava/storefront_api/internal/repository/cache"
	"github.com/Pesokrava/storefront_api/internal/repository/postgres"
	"github.com/Pesokrava/storefront_api/internal/usecase/auth"
	"github.com/Pesokrava/storefront_api/internal/usecase/bookmark"
	"github.com/Pesokrava/storefront_api/internal/usecase/category"
	"github.com/Pesokrava/storefront_api/internal/usecase/product"
	"github.com/Pesokrava/storefront_api/internal/usecase/review"
	"github.com/Pesokrava/storefront_api/internal/usecase/user"

	_ "github.com/Pesokrava/storefront_api/docs"
)

// @title Storefront API
// @version 1.0
// @description E-commerce backend with a product catalog, user reviews with helpfulness voting, bookmarks, and JWT authentication.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://github.com/Pesokrava/storefront_api
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @tag.name Auth
// @tag.description Registration, login and password management

// @tag.name Products
// @tag.description Product catalog endpoints

// @tag.name Reviews
// @tag.description Review and helpfulness voting endpoints

// @tag.name Categories
// @tag.description Category management endpoints

// @tag.name Bookmarks
// @tag.description Bookmark endpoints

// @tag.name Admin
// @tag.description User administration endpoints

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Env)
	appLogger.Info("Starting Storefront API...")

	appLogger.Info("Connecting to PostgreSQL...")
	db, err := database.WaitForDB(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", err)
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL successfully")

	if err := database.RunMigrations(db); err != nil {
		appLogger.Fatal("Failed to run migrations", err)
	}
	appLogger.Info("Database migrations applied")

	appLogger.Info("Connecting to Redis...")
	redisClient, err := cache.WaitForRedis(cfg, 10, 2*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis successfully")

	appLogger.Info("Connecting to NATS...")
	publisher, err := events.NewPublisher(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create NATS publisher", err)
	}
	defer publisher.Close()

	userRepo := postgres.NewUserRepository(db)
	productRepo := postgres.NewProductRepository(db)
	reviewRepo := postgres.NewReviewRepository(db)
	categoryRepo := postgres.NewCategoryRepository(db)
	bookmarkRepo := postgres.NewBookmarkRepository(db)
	redisCache := cacheRepo.NewRedisCache(
		redisClient,
		cfg.Cache.ProductRatingTTL,
		cfg.Cache.ReviewsListTTL,
	)

	jwtManager := authpkg.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)

	authService := auth.NewService(userRepo, jwtManager, appLogger, cfg.Auth.BcryptCost, cfg.Auth.ResetTokenTTL)
	userService := user.NewService(userRepo, reviewRepo, bookmarkRepo, appLogger)
	productService := product.NewService(productRepo, categoryRepo, redisCache, appLogger)
	reviewService := review.NewService(reviewRepo, redisCache, publisher, appLogger)
	categoryService := category.NewService(categoryRepo, appLogger)
	bookmarkService := bookmark.NewService(bookmarkRepo, productRepo, appLogger)

	authHandler := handler.NewAuthHandler(authService, userService, appLogger)
	productHandler := handler.NewProductHandler(productService, appLogger)
	reviewHandler := handler.NewReviewHandler(reviewService, appLogger)
	categoryHandler := handler.NewCategoryHandler(categoryService, appLogger)
	bookmarkHandler := handler.NewBookmarkHandler(bookmarkService, appLogger)
	userHandler := handler.NewUserHandler(userService, appLogger)

	router := httpDelivery.NewRouter(
		authHandler,
		productHandler,
		reviewHandler,
		categoryHandler,
		bookmarkHandler,
		userHandler,
		jwtManager,
		userRepo,
		cfg,
		appLogger,
	)
	httpHandler := router.Setup()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      httpHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", err)
	}

	appLogger.Info("Server stopped gracefully")
}
