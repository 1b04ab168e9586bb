package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/example/tidytasks/internal/config"
	"github.com/example/tidytasks/internal/database"
	"github.com/example/tidytasks/internal/logger"
	"github.com/example/tidytasks/middleware/ratelimit"
	"github.com/example/tidytasks/modules/api"
	"github.com/example/tidytasks/modules/auth"
	"github.com/example/tidytasks/modules/notification"
	"github.com/example/tidytasks/modules/tasklist"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/middleware/accesslog"
	"github.com/go-monolith/mono/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("=== TidyTasks ===", zap.String("env", cfg.Env))

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	limiter, redisClient := newLimiter(cfg, log)

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatal("failed to create application", zap.Error(err))
	}

	authModule := auth.NewModule(db, auth.JWTConfig{
		SecretKey:           cfg.JWT.SecretKey,
		AccessTokenDuration: cfg.JWT.TokenExpiry,
		Issuer:              cfg.JWT.Issuer,
	}, nil, log)
	notificationModule := notification.NewModule(newSender(cfg, log), log)
	tasklistModule := tasklist.NewModule(db, log)
	apiModule := api.NewModule(
		cfg.HTTP.Port,
		ratelimit.New(ratelimit.Config{
			Limit:  cfg.RateLimit.Requests,
			Window: cfg.RateLimit.Window,
		}, limiter, log.Named("ratelimit")),
		log,
		authModule, tasklistModule, notificationModule,
	)

	// Middleware before application modules; request ids first so the
	// access log can include them.
	requestIDMiddleware, err := requestid.New(requestid.WithHeaderName("X-Request-ID"))
	if err != nil {
		log.Fatal("failed to create requestid middleware", zap.Error(err))
	}
	accessLogMiddleware, err := accesslog.New(
		accesslog.WithOutput(os.Stdout),
		accesslog.WithFormat(accesslog.FormatJSON),
		accesslog.WithFields([]accesslog.Field{
			accesslog.FieldTimestamp,
			accesslog.FieldRequestID,
			accesslog.FieldModule,
			accesslog.FieldService,
			accesslog.FieldServiceType,
			accesslog.FieldDurationMS,
			accesslog.FieldStatus,
		}),
	)
	if err != nil {
		log.Fatal("failed to create accesslog middleware", zap.Error(err))
	}
	app.Register(requestIDMiddleware)
	app.Register(accessLogMiddleware)

	// Order: independent modules first, then dependent modules
	app.Register(authModule)         // Provides auth services
	app.Register(notificationModule) // Consumes task events
	app.Register(tasklistModule)     // Depends on auth, emits task events
	app.Register(apiModule)          // Depends on auth and tasklist

	if err := app.Start(context.Background()); err != nil {
		log.Fatal("failed to start application", zap.Error(err))
	}

	printStartupInfo(log, cfg)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Info("graceful shutdown initiated")
				stopErr := app.Stop(ctx)
				if redisClient != nil {
					if err := redisClient.Close(); err != nil {
						log.Error("failed to close Redis connection", zap.Error(err))
					}
				}
				if err := database.Close(db); err != nil {
					log.Error("failed to close database", zap.Error(err))
				}
				return stopErr
			},
		},
	)

	exitCode := <-wait
	log.Info("application exited", zap.Int("code", exitCode))
	_ = log.Sync()
	os.Exit(exitCode)
}

// newLimiter uses Redis when it is configured and reachable, and an
// in-process limiter otherwise.
func newLimiter(cfg config.Config, log *zap.Logger) (ratelimit.Limiter, *redis.Client) {
	if cfg.Redis.Addr == "" {
		log.Info("rate limiting in process", zap.Int("limit", cfg.RateLimit.Requests), zap.Duration("window", cfg.RateLimit.Window))
		return ratelimit.NewLocalLimiter(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unavailable, rate limiting in process", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		_ = client.Close()
		return ratelimit.NewLocalLimiter(), nil
	}

	log.Info("rate limiting with Redis", zap.String("addr", cfg.Redis.Addr), zap.Int("limit", cfg.RateLimit.Requests), zap.Duration("window", cfg.RateLimit.Window))
	return ratelimit.NewRedisLimiter(client, "tidytasks:ratelimit:"), client
}

func newSender(cfg config.Config, log *zap.Logger) notification.Sender {
	if cfg.SMTP.Host == "" {
		log.Info("SMTP not configured, notifications are logged only")
		return notification.NewLogSender(log.Named("notification"))
	}
	return notification.NewMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender)
}

func printStartupInfo(log *zap.Logger, cfg config.Config) {
	log.Info("application started",
		zap.Int("port", cfg.HTTP.Port),
		zap.String("database", cfg.Database.Driver),
		zap.Duration("token_expiry", cfg.JWT.TokenExpiry),
		zap.Strings("public_endpoints", []string{
			"POST /auth/register",
			"POST /auth/login",
			"GET  /health",
			"GET  /metrics",
		}),
		zap.Strings("protected_endpoints", []string{
			"POST   /lists/",
			"GET    /lists/?list_id=&is_done=&priority=",
			"GET    /lists/:list_id",
			"PUT    /lists/:list_id",
			"DELETE /lists/:list_id",
			"POST   /lists/:list_id/tasks/",
			"GET    /lists/:list_id/tasks/:task_id",
			"PUT    /lists/:list_id/tasks/:task_id",
			"DELETE /lists/:list_id/tasks/:task_id",
			"PATCH  /lists/:list_id/tasks/:task_id/status",
		}),
	)
	log.Info("press Ctrl+C to shutdown gracefully")
}
