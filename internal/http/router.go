package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/JeanCalmon10/madr/internal/auth"
	"github.com/JeanCalmon10/madr/internal/config"
	"github.com/JeanCalmon10/madr/internal/http/handlers"
	"github.com/JeanCalmon10/madr/internal/http/middlewares"
	"github.com/JeanCalmon10/madr/internal/observability"
	"github.com/JeanCalmon10/madr/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, rdb *redis.Client, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// each router carries its own registry so tests can build several
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.MaxBodyBytes(1 << 20))
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(otelgin.Middleware("madr-api"))
	r.Use(prom.Middleware())

	// health + metrics

	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	health := handlers.NewHealthHandler(ping)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// wire up repositories

	usersRepo := postgres.NewUsersRepo(pool, prom)
	romancistsRepo := postgres.NewRomancistsRepo(pool, prom)
	booksRepo := postgres.NewBooksRepo(pool, prom)

	// auth core

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())
	resolver := auth.NewResolver(jwtManager, usersRepo)
	authMw := middlewares.NewAuthMiddleware(resolver, prom)

	loginLimiter := middlewares.NewRateLimiter(
		rdb,
		cfg.LoginRateLimit,
		time.Duration(cfg.LoginRateWindowS)*time.Second,
	)

	// handlers

	authHandler := handlers.NewAuthHandler(usersRepo, jwtManager, prom)
	usersHandler := handlers.NewUsersHandler(usersRepo, cfg.BcryptCost)
	romancistsHandler := handlers.NewRomancistsHandler(romancistsRepo)
	booksHandler := handlers.NewBooksHandler(booksRepo)

	// auth routes; login takes form-encoded credentials, so no RequireJSON

	authGroup := r.Group("/auth")
	authGroup.POST("/token", loginLimiter.Middleware(middlewares.KeyByIP), authHandler.Login)
	authGroup.POST("/refresh_token", authMw.RequireAuth(), authHandler.Refresh)

	// users

	users := r.Group("/users", middlewares.RequireJSON())
	users.POST("", usersHandler.Create)
	users.GET("/me", authMw.RequireAuth(), usersHandler.Me)
	users.GET("/:id", usersHandler.Get)
	users.PUT("/:id", authMw.RequireAuth(), usersHandler.Update)
	users.DELETE("/:id", authMw.RequireAuth(), usersHandler.Delete)

	// romancists: reads are public, mutations need an identity

	romancists := r.Group("/romancists", middlewares.RequireJSON())
	romancists.GET("", romancistsHandler.List)
	romancists.GET("/:id", romancistsHandler.Get)
	romancists.POST("", authMw.RequireAuth(), romancistsHandler.Create)
	romancists.PUT("/:id", authMw.RequireAuth(), romancistsHandler.Update)
	romancists.DELETE("/:id", authMw.RequireAuth(), romancistsHandler.Delete)

	// books

	books := r.Group("/books", middlewares.RequireJSON())
	books.GET("", booksHandler.List)
	books.GET("/:id", booksHandler.Get)
	books.POST("", authMw.RequireAuth(), booksHandler.Create)
	books.PUT("/:id", authMw.RequireAuth(), booksHandler.Update)
	books.DELETE("/:id", authMw.RequireAuth(), booksHandler.Delete)

	return r
}
