package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/inventario/catalog-api/docs"
	"github.com/inventario/catalog-api/internal/api/handler"
	"github.com/inventario/catalog-api/internal/api/middleware"
	"github.com/inventario/catalog-api/internal/core/domain"
	"github.com/inventario/catalog-api/internal/core/ports"
	"github.com/inventario/catalog-api/internal/infrastructure/http/handlers"
)

// RouterDeps carries the services and probes the HTTP surface needs.
type RouterDeps struct {
	Categories    ports.CategoryService
	Subcategories ports.SubcategoryService
	Products      ports.ProductService
	Coordinator   ports.CascadeCoordinator
	Auth          ports.AuthService
	Audits        ports.AuditRepository
	HealthChecks  []handlers.Check
	JWTSecret     string
	Version       string
	Log           zerolog.Logger
	// Registry receives the HTTP metrics. Nil means the default registry,
	// which also holds the domain metrics.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps RouterDeps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "catalog",
		Registerer: registerer,
	}))

	// --- Handlers ---
	categoryHandler := handler.NewCategoryHandler(deps.Categories, deps.Coordinator)
	subcategoryHandler := handler.NewSubcategoryHandler(deps.Subcategories, deps.Coordinator)
	productHandler := handler.NewProductHandler(deps.Products, deps.Coordinator)
	authHandler := handler.NewAuthHandler(deps.Auth)
	userHandler := handler.NewUserHandler(deps.Auth)
	auditHandler := handler.NewAuditHandler(deps.Audits)

	// --- Health probes, metrics and docs (no auth required) ---
	e.GET("/health", handlers.NewHealthHandler(deps.Version).Liveness)
	e.GET("/health/ready", handlers.NewHealthDependenciesHandler(deps.HealthChecks...).Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	authGroup := e.Group("/api/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/refresh", authHandler.Refresh)

	// --- Protected routes ---
	apiGroup := e.Group("/api", middleware.Auth(deps.JWTSecret))
	writers := middleware.RBAC(domain.RoleAdmin, domain.RoleCoordinator)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	categories := apiGroup.Group("/categories")
	categories.GET("", categoryHandler.List)
	categories.GET("/:id", categoryHandler.Get)
	categories.POST("", categoryHandler.Create, writers)
	categories.PUT("/:id", categoryHandler.Update, writers)
	categories.DELETE("/:id", categoryHandler.Delete, adminOnly)

	subcategories := apiGroup.Group("/subcategories")
	subcategories.GET("", subcategoryHandler.List)
	subcategories.GET("/:id", subcategoryHandler.Get)
	subcategories.POST("", subcategoryHandler.Create, writers)
	subcategories.PUT("/:id", subcategoryHandler.Update, writers)
	subcategories.DELETE("/:id", subcategoryHandler.Delete, adminOnly)

	products := apiGroup.Group("/products")
	products.GET("", productHandler.List)
	products.GET("/:id", productHandler.Get)
	products.POST("", productHandler.Create, writers)
	products.PUT("/:id", productHandler.Update, writers)
	products.DELETE("/:id", productHandler.Delete, adminOnly)

	users := apiGroup.Group("/users")
	users.GET("/me", userHandler.Me)
	users.GET("", userHandler.List, adminOnly)
	users.POST("", userHandler.Create, adminOnly)

	apiGroup.GET("/audit/cascades", auditHandler.ListCascades, adminOnly)

	return e
}

// requestLogger writes one zerolog entry per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			switch {
			case v.Status >= 500:
				evt = log.Error().Err(v.Error)
			case v.Status >= 400:
				evt = log.Warn()
			}
			evt.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
