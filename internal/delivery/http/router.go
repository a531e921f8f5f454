package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Pesokrava/storefront_api/internal/config"
	"github.com/Pesokrava/storefront_api/internal/delivery/http/handler"
	"github.com/Pesokrava/storefront_api/internal/delivery/http/middleware"
	"github.com/Pesokrava/storefront_api/internal/delivery/http/response"
	"github.com/Pesokrava/storefront_api/internal/domain"
	"github.com/Pesokrava/storefront_api/internal/pkg/auth"
	"github.com/Pesokrava/storefront_api/internal/pkg/logger"
)

// Router holds HTTP handlers and router configuration
type Router struct {
	authHandler     *handler.AuthHandler
	productHandler  *handler.ProductHandler
	reviewHandler   *handler.ReviewHandler
	categoryHandler *handler.CategoryHandler
	bookmarkHandler *handler.BookmarkHandler
	userHandler     *handler.UserHandler
	tokens          *auth.JWTManager
	users           domain.UserRepository
	logger          *logger.Logger
	cfg             *config.Config
}

// NewRouter creates a new HTTP router
func NewRouter(
	authHandler *handler.AuthHandler,
	productHandler *handler.ProductHandler,
	reviewHandler *handler.ReviewHandler,
	categoryHandler *handler.CategoryHandler,
	bookmarkHandler *handler.BookmarkHandler,
	userHandler *handler.UserHandler,
	tokens *auth.JWTManager,
	users domain.UserRepository,
	cfg *config.Config,
	log *logger.Logger,
) *Router {
	return &Router{
		authHandler:     authHandler,
		productHandler:  productHandler,
		reviewHandler:   reviewHandler,
		categoryHandler: categoryHandler,
		bookmarkHandler: bookmarkHandler,
		userHandler:     userHandler,
		tokens:          tokens,
		users:           users,
		logger:          log,
		cfg:             cfg,
	}
}

// Setup configures and returns the HTTP router
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.RequestLogger(rt.logger))
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(rt.tokens, rt.users)
	optionalAuth := middleware.OptionalAuth(rt.tokens, rt.users)

	r.Get("/health", rt.healthCheck)
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", rt.authHandler.Register)
			r.Post("/login", rt.authHandler.Login)
			r.Post("/forgot-password", rt.authHandler.ForgotPassword)
			r.Post("/reset-password", rt.authHandler.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Get("/me", rt.authHandler.Me)
				r.Put("/me", rt.authHandler.UpdateProfile)
				r.Put("/change-password", rt.authHandler.ChangePassword)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(optionalAuth)
				r.Get("/", rt.productHandler.List)
				r.Get("/{id}", rt.productHandler.GetByID)
				r.Get("/slug/{slug}", rt.productHandler.GetBySlug)
				r.Get("/{id}/reviews", rt.reviewHandler.ListByProduct)
			})

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/{id}/reviews", rt.reviewHandler.Create)
				r.Post("/{id}/bookmark", rt.bookmarkHandler.Toggle)
			})

			r.Group(func(r chi.Router) {
				r.Use(authenticate, middleware.RequireAdmin)
				r.Post("/", rt.productHandler.Create)
				r.Put("/{id}", rt.productHandler.Update)
				r.Delete("/{id}", rt.productHandler.Delete)
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/me", rt.reviewHandler.ListMine)
			r.Put("/{id}", rt.reviewHandler.Update)
			r.Delete("/{id}", rt.reviewHandler.Delete)
			r.Post("/{id}/helpful", rt.reviewHandler.MarkHelpful)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", rt.categoryHandler.List)
			r.Get("/{id}", rt.categoryHandler.GetByID)

			r.Group(func(r chi.Router) {
				r.Use(authenticate, middleware.RequireAdmin)
				r.Post("/", rt.categoryHandler.Create)
				r.Put("/{id}", rt.categoryHandler.Update)
				r.Delete("/{id}", rt.categoryHandler.Delete)
			})
		})

		r.Route("/bookmarks", func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/", rt.bookmarkHandler.List)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authenticate, middleware.RequireAdmin)
			r.Get("/users", rt.userHandler.List)
			r.Put("/users/{id}/role", rt.userHandler.SetRole)
			r.Delete("/users/{id}", rt.userHandler.Delete)
		})
	})

	return r
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
