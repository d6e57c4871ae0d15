package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yourorg/contractwatch/internal/featureflags"
	"github.com/yourorg/contractwatch/internal/handler"
	"github.com/yourorg/contractwatch/internal/infrastructure/fcm"
	"github.com/yourorg/contractwatch/internal/infrastructure/logger"
	"github.com/yourorg/contractwatch/internal/infrastructure/redis"
	"github.com/yourorg/contractwatch/internal/infrastructure/smtp"
	"github.com/yourorg/contractwatch/internal/notify"
	"github.com/yourorg/contractwatch/internal/observability/metrics"
	"github.com/yourorg/contractwatch/internal/observability/tracing"
	"github.com/yourorg/contractwatch/internal/reliability/retry"
	"github.com/yourorg/contractwatch/internal/repository"
	"github.com/yourorg/contractwatch/internal/scan"
	"github.com/yourorg/contractwatch/internal/scheduler"
	"github.com/yourorg/contractwatch/internal/security/audit"
	"github.com/yourorg/contractwatch/internal/security/auth"
	"github.com/yourorg/contractwatch/internal/security/middleware"
	"github.com/yourorg/contractwatch/internal/security/ratelimit"
	"github.com/yourorg/contractwatch/internal/service"
	"github.com/yourorg/contractwatch/pkg/cache"
	"github.com/yourorg/contractwatch/pkg/config"
	"github.com/yourorg/contractwatch/pkg/database"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting ContractWatch server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize tracing (no-op without an OTLP endpoint)
	shutdownTracing, err := tracing.Init(ctx, log, "contractwatch", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Connect to Postgres with retry and ensure the schema
	db, err := retry.Do(ctx, retry.DefaultConfig(), log, "connect database",
		func(ctx context.Context) (*database.ConnectionPool, error) {
			return database.NewConnectionPool(ctx, &database.Config{
				Host:     cfg.DBHost,
				Port:     cfg.DBPort,
				User:     cfg.DBUser,
				Password: cfg.DBPassword,
				Database: cfg.DBName,
				SSLMode:  cfg.DBSSLMode,
			}, log)
		})
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Error("failed to ensure schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Connect to Redis with retry
	redisClient, err := retry.Do(ctx, retry.DefaultConfig(), log, "connect redis",
		func(ctx context.Context) (*redis.Client, error) {
			return redis.NewClient(cfg.RedisURL)
		})
	if err != nil {
		log.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	// 6. Initialize repositories
	contractRepo := repository.NewPostgresContractRepository(db.GetDB(), log)
	notificationRepo := repository.NewPostgresNotificationRepository(db.GetDB(), log)
	userRepo := repository.NewPostgresUserRepository(db.GetDB(), log)
	deviceRepo := repository.NewDeviceTokenRepository(redisClient, log)

	// 7. Initialize delivery gateway and scan engine
	broadcaster := notify.NewBroadcaster()
	mailer := smtp.NewMailer(smtp.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	pusher := fcm.NewPusher(cfg.FCMServerKey, "", cfg.SendTimeout)
	gateway := notify.NewGateway(mailer, pusher, notificationRepo, broadcaster, log, cfg.SendTimeout)

	pushDelivery := featureflags.Enabled(featureflags.PushDelivery)
	engine := scan.NewEngine(contractRepo, deviceRepo, gateway, log, pushDelivery)

	// 8. Initialize services
	responseCache := cache.New()
	contractService := service.NewContractService(contractRepo, responseCache, log)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, log)

	// 9. Register scheduled jobs
	sched := scheduler.New(log)
	scheduler.RegisterDefaultJobs(sched,
		scheduler.NewDailyCheck(engine, log),
		scheduler.NewWeeklySummary(contractRepo, gateway, log),
		scheduler.DailyTrigger{Hour: cfg.DailyCheckHour, Minute: cfg.DailyCheckMinute},
		scheduler.WeeklyTrigger{Weekday: cfg.WeeklySummaryDay, Hour: cfg.WeeklySummaryHour, Minute: cfg.WeeklySummaryMinute},
	)
	go sched.Start(ctx)

	if featureflags.Enabled(featureflags.ScanOnStart) {
		go engine.Scan(ctx, time.Now())
	}

	// 10. Initialize handlers
	contractsHandler := handler.NewContractsHandler(contractService, log)
	notificationsHandler := handler.NewNotificationsHandler(notificationRepo, contractService, deviceRepo, gateway, pushDelivery, log)
	checkRenewalsHandler := handler.NewCheckRenewalsHandler(engine, log)
	jobsHandler := handler.NewJobsHandler(sched, engine, log)
	devicesHandler := handler.NewDevicesHandler(deviceRepo, log)
	eventsHandler := handler.NewEventsHandler(broadcaster, log, cfg.CORSAllowedOrigins)
	healthHandler := handler.NewHealthHandler(db, redisClient, log)
	authHandler := handler.NewAuthHandler(authService, log)

	// 10a. Initialize security components
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, "contractwatch")
	rateLimiter := ratelimit.NewLimiter(100, time.Minute) // 100 requests per minute per user
	auditLogger := audit.NewLogger(log)

	// 11. Setup HTTP routes
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/change-password", authHandler.ChangePassword)

	mux.HandleFunc("GET /api/contracts", contractsHandler.List)
	mux.HandleFunc("POST /api/contracts", contractsHandler.Create)
	mux.HandleFunc("GET /api/contracts/dashboard", contractsHandler.Dashboard)
	mux.HandleFunc("GET /api/contracts/{id}", contractsHandler.Get)
	mux.HandleFunc("PUT /api/contracts/{id}", contractsHandler.Update)
	mux.HandleFunc("DELETE /api/contracts/{id}", contractsHandler.Delete)

	mux.HandleFunc("GET /api/notifications", notificationsHandler.List)
	mux.HandleFunc("POST /api/notifications", notificationsHandler.Create)
	mux.HandleFunc("GET /api/notifications/history/{contract_id}", notificationsHandler.History)
	mux.HandleFunc("PUT /api/notifications/settings/{contract_id}", notificationsHandler.UpdateSettings)
	mux.HandleFunc("POST /api/notifications/send-test", notificationsHandler.SendTest)
	mux.Handle("POST /api/notifications/check-renewals", checkRenewalsHandler)

	mux.HandleFunc("GET /api/jobs", jobsHandler.List)
	mux.HandleFunc("POST /api/jobs", jobsHandler.Add)
	mux.HandleFunc("DELETE /api/jobs/{id}", jobsHandler.Remove)

	mux.HandleFunc("PUT /api/devices", devicesHandler.Register)
	mux.HandleFunc("DELETE /api/devices", devicesHandler.Unregister)

	mux.Handle("GET /ws/events", eventsHandler)

	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("GET /readyz", healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	// CORS middleware honoring configured origins
	handlerWithCORS := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if originAllowed(cfg.CORSAllowedOrigins, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else if len(cfg.CORSAllowedOrigins) > 0 {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins[0])
		}
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})

	// Chain middleware: request ID -> audit -> rate limit -> JWT -> CORS -> mux
	rootHandler := withRequestID(
		middleware.AuditMiddleware(auditLogger)(
			middleware.RateLimitMiddleware(rateLimiter, log)(
				middleware.JWTMiddleware(tokenManager, log)(handlerWithCORS),
			),
		),
		log,
	)
	rootHandler = metrics.HTTPMetricsMiddleware(rootHandler)
	rootHandler = otelhttp.NewHandler(rootHandler, "http.server")

	// 12. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", "jwt"),
		slog.Bool("push_delivery", pushDelivery),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop scheduler
	rateLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

type requestIDKey struct{}

// withRequestID attaches a request ID to the context and response headers for traceability
func withRequestID(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := generateRequestID()
		w.Header().Set("X-Request-ID", reqID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		start := time.Now()

		next.ServeHTTP(w, r.WithContext(ctx))

		log.Info("request completed",
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration_ms", time.Since(start)),
		)
	})
}

func originAllowed(allowed []string, origin string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

func generateRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}
	return fmt.Sprintf("req-%d", time.Now().UnixNano())
}
