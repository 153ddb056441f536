// Package httpapi wires the HTTP transport (Gin) to the todo service,
// middleware and route handlers. It owns middleware ordering, the
// /metrics and Swagger endpoints, and the 404/405 fallbacks.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-todo-backend/docs"
	"github.com/tbourn/go-todo-backend/internal/config"
	"github.com/tbourn/go-todo-backend/internal/domain"
	"github.com/tbourn/go-todo-backend/internal/http/handlers"
	"github.com/tbourn/go-todo-backend/internal/http/middleware"
	"github.com/tbourn/go-todo-backend/internal/repo"
	"github.com/tbourn/go-todo-backend/internal/services"
)

// todoRepoShim adapts the repository free functions to services.TodoRepo.
type todoRepoShim struct{}

func (todoRepoShim) GetTodos(ctx context.Context, db *gorm.DB) ([]domain.TodoList, error) {
	return repo.GetTodos(ctx, db)
}

func (todoRepoShim) GetItems(ctx context.Context, db *gorm.DB, listID int64) ([]domain.Item, error) {
	return repo.GetItems(ctx, db, listID)
}

func (todoRepoShim) CreateTodo(ctx context.Context, db *gorm.DB, title string) (*domain.TodoList, error) {
	return repo.CreateTodo(ctx, db, title)
}

func (todoRepoShim) CheckTodo(ctx context.Context, db *gorm.DB, listID, itemID int64) (bool, error) {
	return repo.CheckTodo(ctx, db, listID, itemID)
}

// RegisterRoutes attaches middleware and endpoints to r. The pool is the only
// shared state; every database-backed request borrows one connection from it.
//
// Middleware order:
//  1. otelgin: one server span per request
//  2. RequestID, Logger, Recovery: correlation id first so panics carry it
//  3. BodyLimit
//  4. gzip (not for /metrics)
//  5. Metrics
//  6. rate limiter per client IP
//  7. CORS and security headers
//
// The liveness probe GET / stays at the engine root; the todo routes are
// mounted under cfg.APIBasePath. Both /todos and /todos/ are served directly
// instead of redirecting.
func RegisterRoutes(r *gin.Engine, pool *repo.Pool, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID(), middleware.Logger(), middleware.Recovery())
	r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(middleware.Metrics())

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	r.Use(rl.Handler())

	r.Use(cors.New(corsConfig(cfg.CORS)))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(services.NewTodoService(pool, todoRepoShim{}))

	r.GET("/", h.Status)

	api := groupWithPrefix(r, cfg.APIBasePath)
	for _, p := range []string{"/todos", "/todos/"} {
		api.GET(p, h.GetTodos)
		api.POST(p, h.CreateTodo)
	}
	api.GET("/todos/:list_id/items", h.GetItems)
	api.PUT("/todos/:list_id/items/:item_id", h.CheckItem)
}

// corsConfig allows any origin (without credentials) when no allowlist is
// configured, otherwise only the listed origins.
func corsConfig(c config.CORSConfig) cors.Config {
	cc := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(c.AllowedOrigins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = c.AllowedOrigins
	}
	return cc
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
