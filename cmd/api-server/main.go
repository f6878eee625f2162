package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"patentadmin/database"
	"patentadmin/internal/cache"
	"patentadmin/internal/config"
	"patentadmin/internal/microservices/http-api/handler"
	"patentadmin/internal/microservices/http-api/middleware"
	"patentadmin/internal/microservices/http-api/repository"
	"patentadmin/internal/microservices/http-api/service"
	ws "patentadmin/internal/microservices/websocket"
)

func main() {
	// 1. Load and validate config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	// 2. Connect to the database
	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	// 3. Connect to Redis; the dashboard degrades to uncached when it's down
	metricsCache, err := cache.NewMetricsCache(cfg.RedisAddr, cfg.RedisPassword, cfg.CacheTTL)
	if err != nil {
		logger.Warn("redis unavailable, dashboard caching disabled", "error", err)
		metricsCache = nil
	} else {
		defer metricsCache.Close()
	}

	// 4. Repositories
	adminRepo := repository.NewAdminRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	userRepo := repository.NewUserRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	metricsRepo := repository.NewMetricsRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	apiLogRepo := repository.NewAPILogRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	// 5. Realtime registry and services
	registry := ws.NewRegistry(logger)

	authService := service.NewAuthService(adminRepo, sessionRepo, activityRepo, cfg, logger)
	userService := service.NewUserService(userRepo, paymentRepo, subRepo, logger)
	paymentService := service.NewPaymentService(paymentRepo, subRepo, userRepo, logger)
	dashboardService := service.NewDashboardService(userRepo, paymentRepo, metricsRepo, alertRepo, apiLogRepo, activityRepo, metricsCache, logger)
	monitoringService := service.NewMonitoringService(db, metricsCache, metricsRepo, alertRepo, apiLogRepo, activityRepo, registry, logger)

	// 6. Realtime handshake + producers
	verifier := ws.TokenVerifierFunc(func(token string) (ws.AdminIdentity, error) {
		claims, err := authService.Authenticate(token)
		if err != nil {
			return ws.AdminIdentity{}, fmt.Errorf("%w: %v", ws.ErrUnauthorized, err)
		}
		return ws.AdminIdentity{
			AdminID: claims.AdminID,
			Email:   claims.Email,
			Role:    claims.Role,
		}, nil
	})
	provider := ws.NewAdminDataProvider(userService, paymentService, monitoringService)
	wsHandler := ws.NewHandler(registry, verifier, provider, cfg.WSHeartbeatInterval, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go ws.NewMetricsProducer(registry, metricsRepo, cfg.MetricsPushInterval, logger).Run(ctx)
	go ws.NewAlertProducer(registry, alertRepo, cfg.AlertPollInterval, logger).Run(ctx)

	// 7. Setup Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))

	registerRoutes(r, cfg, authService, userService, paymentService, dashboardService, monitoringService, registry, wsHandler)

	// 8. Serve until shutdown signal
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.GoEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func registerRoutes(
	r *gin.Engine,
	cfg *config.Config,
	authService service.AuthService,
	userService service.UserService,
	paymentService service.PaymentService,
	dashboardService service.DashboardService,
	monitoringService service.MonitoringService,
	registry *ws.Registry,
	wsHandler *ws.Handler,
) {
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	monitoringHandler := handler.NewMonitoringHandler(monitoringService)
	realtimeHandler := handler.NewRealtimeHandler(registry)

	// Health probe stays open for load balancers
	r.GET("/health", monitoringHandler.GetHealth)

	api := r.Group("/api/v1")

	// Realtime socket; auth happens inside the handshake
	api.GET("/ws/connect", wsHandler.HandleConnection)

	auth := api.Group("/auth")
	{
		auth.POST("/login", middleware.LoginRateLimit(cfg.LoginRatePerMin), authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)
		auth.POST("/logout", authHandler.Logout)
	}

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(authService))
	{
		me := authed.Group("/auth")
		{
			me.GET("/me", authHandler.Me)
			me.POST("/enable-2fa", authHandler.Enable2FA)
			me.POST("/disable-2fa", authHandler.Disable2FA)
			me.GET("/sessions", authHandler.ListSessions)
			me.DELETE("/sessions/:session_id", authHandler.RevokeSession)
		}

		users := authed.Group("/users")
		{
			users.GET("", userHandler.ListUsers)
			users.GET("/statistics", userHandler.GetStatistics)
			users.POST("", userHandler.CreateUser)
			users.POST("/bulk-update", userHandler.BulkUpdateUsers)
			users.GET("/:user_id", userHandler.GetUser)
			users.GET("/:user_id/activity", userHandler.GetUserActivity)
			users.PUT("/:user_id", userHandler.UpdateUser)
			users.DELETE("/:user_id", userHandler.DeleteUser)
		}

		payments := authed.Group("/payments")
		{
			payments.GET("", paymentHandler.ListPayments)
			payments.GET("/statistics", paymentHandler.GetStatistics)
			payments.GET("/analytics", paymentHandler.GetAnalytics)
			payments.POST("", paymentHandler.CreatePayment)
			payments.GET("/:payment_id", paymentHandler.GetPayment)
			payments.PUT("/:payment_id", paymentHandler.UpdatePayment)
			payments.POST("/:payment_id/refund", paymentHandler.RefundPayment)

			payments.GET("/subscriptions", paymentHandler.ListSubscriptions)
			payments.GET("/subscriptions/statistics", paymentHandler.GetSubscriptionStatistics)
			payments.POST("/subscriptions", paymentHandler.CreateSubscription)
			payments.GET("/subscriptions/:subscription_id", paymentHandler.GetSubscription)
			payments.PUT("/subscriptions/:subscription_id", paymentHandler.UpdateSubscription)
		}

		dashboard := authed.Group("/dashboard")
		{
			dashboard.GET("/metrics", dashboardHandler.GetMetrics)
			dashboard.GET("/realtime", dashboardHandler.GetRealtimeSnapshot)
			dashboard.GET("/overview", dashboardHandler.GetOverview)
			dashboard.GET("/charts", dashboardHandler.GetCharts)
			dashboard.GET("/charts/revenue", dashboardHandler.GetRevenueChart)
			dashboard.GET("/charts/user-growth", dashboardHandler.GetUserGrowthChart)
			dashboard.GET("/activities", dashboardHandler.GetRecentActivities)
		}

		monitoring := authed.Group("/monitoring")
		{
			monitoring.GET("/health", monitoringHandler.GetHealth)
			monitoring.GET("/realtime", monitoringHandler.GetRealtimeStatus)
			monitoring.GET("/performance", monitoringHandler.GetPerformance)
			monitoring.GET("/metrics/history", monitoringHandler.GetMetricsHistory)
			monitoring.POST("/metrics", monitoringHandler.RecordMetric)
			monitoring.GET("/logs/api", monitoringHandler.ListAPILogs)
			monitoring.POST("/logs/api", monitoringHandler.LogAPIRequest)
			monitoring.GET("/errors/analysis", monitoringHandler.GetErrorAnalysis)
			monitoring.GET("/alerts", monitoringHandler.ListAlerts)
			monitoring.POST("/alerts", monitoringHandler.CreateAlert)
			monitoring.PUT("/alerts/:alert_id/resolve", monitoringHandler.ResolveAlert)
			monitoring.POST("/cleanup", middleware.RequireSuperAdmin(), monitoringHandler.Cleanup)
		}

		realtime := authed.Group("/ws")
		{
			realtime.GET("/connected-admins", realtimeHandler.ConnectedAdmins)
			realtime.POST("/broadcast", realtimeHandler.Broadcast)
			realtime.POST("/notify/:admin_id", realtimeHandler.Notify)
		}
	}
}
