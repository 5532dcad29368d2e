package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yukikurage/calibrate-api/internal/config"
	"github.com/yukikurage/calibrate-api/internal/database"
	"github.com/yukikurage/calibrate-api/internal/handlers"
	"github.com/yukikurage/calibrate-api/internal/identity"
	"github.com/yukikurage/calibrate-api/internal/middleware"
	"github.com/yukikurage/calibrate-api/internal/ratelimit"
	"github.com/yukikurage/calibrate-api/internal/repository"
	"github.com/yukikurage/calibrate-api/internal/services"
	"github.com/yukikurage/calibrate-api/internal/validation"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)
	validation.Register()

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Rate limiting is optional and needs Redis
	var redisClient *redis.Client
	var apiLimiter, analyzeLimiter *ratelimit.Limiter
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.Warn("redis is not reachable, rate limiter will fail open", "addr", cfg.RedisAddr, "error", err)
		}
		cancel()
		apiLimiter = ratelimit.NewLimiter(redisClient, "api", ratelimit.PerMinute(cfg.RateLimitPerMinute))
		analyzeLimiter = ratelimit.NewLimiter(redisClient, "analyze", ratelimit.PerMinute(cfg.AnalyzeRateLimitPerMinute))
	} else {
		slog.Info("REDIS_ADDR not set, rate limiting disabled")
	}

	// Initialize estimate assistant
	var assistant *services.EstimateAssistant
	if cfg.OpenAIAPIKey != "" {
		assistant = services.NewEstimateAssistant(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	} else {
		slog.Info("OPENAI_API_KEY not set, estimate assistant disabled")
	}

	// Initialize repositories and services
	db := database.GetDB()
	taskRepo := repository.NewTaskRepository(db)
	subtaskRepo := repository.NewSubtaskRepository(db)
	prefsRepo := repository.NewPreferencesRepository(db)
	userRepo := repository.NewUserRepository(db)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.CORS(cfg.CORSOrigin))

	handlers.RegisterRoutes(r, handlers.Dependencies{
		Verifier: identity.NewJWTVerifier(identity.JWTConfig{
			Secret:   cfg.IdentityJWTSecret,
			Issuer:   cfg.IdentityIssuer,
			Audience: cfg.IdentityAudience,
		}),
		Users:          services.NewUserService(userRepo, prefsRepo, taskRepo),
		Tasks:          services.NewTaskService(taskRepo, subtaskRepo, prefsRepo, assistant),
		Capacity:       services.NewCapacityService(taskRepo, prefsRepo),
		APILimiter:     apiLimiter,
		AnalyzeLimiter: analyzeLimiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "db_driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	operations := map[string]gfshutdown.Operation{
		"http-server": func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
		"database": func(ctx context.Context) error {
			return database.Close()
		},
	}
	if redisClient != nil {
		operations["redis"] = func(ctx context.Context) error {
			return redisClient.Close()
		}
	}

	wait := gfshutdown.GracefulShutdown(context.Background(), cfg.ShutdownTimeout, operations)

	exitCode := <-wait
	slog.Info("server exited", "code", exitCode)
	os.Exit(exitCode)
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
