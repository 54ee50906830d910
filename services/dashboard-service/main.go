package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	awspkg "github.com/yashrajoria/inventory-dashboard/pkg/aws"
	apperrors "github.com/yashrajoria/inventory-dashboard/services/common/errors"
	"github.com/yashrajoria/inventory-dashboard/services/common/logger"
	"github.com/yashrajoria/inventory-dashboard/services/common/middleware"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/clients"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/config"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/controllers"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/database"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/kafka"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/render"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/routes"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/services"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/stream"
	"go.uber.org/zap"
)

const serviceName = "dashboard-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Initialize("development")
		logger.Log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── CloudWatch Logs + Metrics ──
	var metricsClient *awspkg.MetricsClient
	if cfg.CloudWatchEnabled {
		cwLogs, err := awspkg.NewCloudWatchLogsClient(ctx, serviceName)
		if err != nil {
			logger.Initialize(cfg.Env)
			logger.Log.Warn("CloudWatch Logs init failed", zap.Error(err))
		} else {
			logger.InitializeWithWriter(cfg.Env, cwLogs)
		}
		mc, err := awspkg.NewMetricsClient(ctx)
		if err != nil {
			logger.Log.Warn("CloudWatch Metrics init failed", zap.Error(err))
		} else {
			metricsClient = mc
		}
	} else {
		logger.Initialize(cfg.Env)
	}
	defer logger.Sync()
	log := logger.Log

	// ── AWS: secrets + SNS ──
	var publisher awspkg.SNSPublisher
	if cfg.UseSecrets || cfg.DepletionAlertTopicARN != "" {
		awsCfg, err := awspkg.LoadAWSConfig(ctx)
		if err != nil {
			log.Fatal("Failed to load AWS config", zap.Error(err))
		}
		if err := cfg.ApplySecrets(ctx, awspkg.NewSecretsClient(awsCfg)); err != nil {
			log.Fatal("Failed to load STOMP credentials", zap.Error(err))
		}
		if cfg.DepletionAlertTopicARN != "" {
			publisher = awspkg.NewSNSClient(awsCfg)
		}
	}

	inventoryClient := clients.NewInventoryClient(cfg.InventoryServiceURL, cfg.RequestTimeout)
	orderClient := clients.NewOrderClient(cfg.OrderServiceURL, cfg.RequestTimeout)

	subscriber := stream.NewSubscriber(
		stream.WebSocketDialer{URL: cfg.StompURL, Origin: cfg.StompOrigin},
		stream.Config{
			Login:             cfg.StompLogin,
			Passcode:          cfg.StompPasscode,
			Host:              cfg.StompHost,
			HeartBeat:         cfg.StompHeartBeat,
			DisconnectTimeout: cfg.StompDisconnectTimeout,
		},
		log.Named("stream"),
	)

	opts := services.DashboardOptions{
		Metrics:          metricsClient,
		HydrationTimeout: cfg.RequestTimeout,
		Alerter:          services.NewDepletionAlerter(publisher, cfg.DepletionAlertTopicARN, metricsClient, log.Named("alerts")),
	}
	if cfg.KafkaEnabled() {
		opts.Feed = kafka.NewFeed(cfg.KafkaBrokers, cfg.KafkaGroupID, log.Named("kafka"))
		log.Info("Kafka feed enabled", zap.Strings("brokers", cfg.KafkaBrokers))
	}
	dashboard := services.NewDashboardService(inventoryClient, services.STOMPSubscriber(subscriber), opts, log.Named("dashboard"))

	// Redis (optional, buy dedupe)
	storefrontOpts := services.StorefrontOptions{
		Metrics:      metricsClient,
		OrderTimeout: cfg.RequestTimeout,
	}
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		storefrontOpts.Guard = services.NewRedisOrderGuard(redisClient, cfg.BuyDedupeWindow)
		log.Info("Connected to Redis")
	}
	storefront := services.NewStorefrontService(inventoryClient, orderClient, storefrontOpts)

	if err := dashboard.Start(ctx); err != nil {
		log.Fatal("Failed to start dashboard", zap.Error(err))
	}
	go func() {
		done := dashboard.StreamDone()
		if done == nil {
			return
		}
		select {
		case <-done:
			if ctx.Err() == nil {
				log.Warn("Inventory stream ended; dashboard keeps serving the last known state")
			}
		case <-ctx.Done():
		}
	}()

	if cfg.RenderInterval > 0 {
		go renderLoop(ctx, dashboard, cfg.RenderInterval)
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.MetricsMiddleware(metricsClient, serviceName))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	router.Use(middleware.RateLimitMiddleware(120, 20))
	router.Use(apperrors.ErrorMiddleware())

	routes.RegisterRoutes(router,
		controllers.NewDashboardController(dashboard),
		controllers.NewStorefrontController(storefront),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("Dashboard service is running", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown error", zap.Error(err))
	}
	dashboard.Close()
	storefront.Close()
	log.Info("Server shutdown complete.")
}

func renderLoop(ctx context.Context, dashboard *services.DashboardService, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := render.WriteText(os.Stdout, dashboard.View()); err != nil {
				logger.Log.Warn("Failed to render dashboard", zap.Error(err))
			}
		}
	}
}
