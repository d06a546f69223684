package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/vapestore/storefront-api/internal/config"
	"github.com/vapestore/storefront-api/internal/handler"
	"github.com/vapestore/storefront-api/internal/middleware"
	"github.com/vapestore/storefront-api/internal/notifier"
	"github.com/vapestore/storefront-api/internal/payment"
	"github.com/vapestore/storefront-api/internal/repository"
	"github.com/vapestore/storefront-api/internal/service"
	"github.com/vapestore/storefront-api/internal/worker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		log.Error("parse db config", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Error("ping database", "error", err)
		os.Exit(1)
	}
	if err := repository.EnsureSchema(ctx, dbPool); err != nil {
		log.Error("apply schema", "error", err)
		os.Exit(1)
	}
	log.Info("connected to PostgreSQL")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// RabbitMQ
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	amqpCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer amqpCh.Close()

	if err := worker.SetupRabbitMQ(amqpCh); err != nil {
		log.Error("setup RabbitMQ", "error", err)
		os.Exit(1)
	}
	log.Info("connected to RabbitMQ")

	// Payment provider
	stripeProvider := payment.NewStripe(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, cfg.Store.Currency)

	// Notifier: SES when a sender is configured, no-op otherwise.
	var mailer notifier.Notifier
	if cfg.SES.SenderEmail != "" {
		sesNotifier, err := notifier.NewSES(ctx, cfg.SES)
		if err != nil {
			log.Error("configure SES", "error", err)
			os.Exit(1)
		}
		mailer = sesNotifier
	} else {
		mailer = notifier.NewNoop(log)
	}

	// Repositories
	categoryRepo := repository.NewCategoryRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)
	statsRepo := repository.NewStatsRepository(dbPool)

	// Services
	catalogSvc := service.NewCatalogService(categoryRepo, productRepo)
	categorySvc := service.NewCategoryService(categoryRepo)
	productSvc := service.NewProductService(productRepo, redisClient)
	checkoutSvc := service.NewCheckoutService(orderRepo, stripeProvider, cfg.Store.BaseURL, decimal.NewFromFloat(cfg.Store.ShippingCost))
	webhookSvc := service.NewWebhookService(orderRepo, redisClient, amqpCh, log)
	orderSvc := service.NewOrderService(orderRepo)
	statsSvc := service.NewStatsService(statsRepo)
	uploadSvc := service.NewUploadService(cfg.Store.UploadDir, cfg.Store.MaxUploadSize)

	// Handlers
	catalogH := handler.NewCatalogHandler(catalogSvc, productSvc)
	categoryH := handler.NewCategoryHandler(categorySvc)
	productH := handler.NewProductHandler(productSvc)
	checkoutH := handler.NewCheckoutHandler(checkoutSvc)
	webhookH := handler.NewWebhookHandler(stripeProvider, webhookSvc, log)
	orderH := handler.NewOrderHandler(orderSvc)
	statsH := handler.NewStatsHandler(statsSvc)
	uploadH := handler.NewUploadHandler(uploadSvc)
	authH := handler.NewAuthHandler(cfg.Admin.Token)
	healthH := handler.NewHealthHandler(dbPool, redisClient, amqpConn)

	// Worker
	notificationWorker := worker.NewNotificationWorker(amqpCh, mailer, redisClient, log)

	// Router
	router := gin.Default()
	router.GET("/healthz", healthH.Healthz)
	router.GET("/readyz", healthH.Readyz)
	router.Static("/products", cfg.Store.UploadDir)

	api := router.Group("/api")
	{
		api.GET("/categories", catalogH.ListCategories)
		api.GET("/products", catalogH.ListProducts)
		api.GET("/products/:id", catalogH.GetProduct)
		api.POST("/checkout", checkoutH.Checkout)
		api.POST("/webhook", webhookH.Handle)

		api.POST("/admin/login", authH.Login)

		admin := api.Group("/admin", middleware.AdminAuth(cfg.Admin.Token))
		{
			admin.GET("/categories", categoryH.List)
			admin.POST("/categories", categoryH.Create)
			admin.PUT("/categories/:id", categoryH.Update)
			admin.DELETE("/categories/:id", categoryH.Delete)

			admin.GET("/products", productH.List)
			admin.GET("/products/:id", productH.GetByID)
			admin.POST("/products", productH.Create)
			admin.PUT("/products/:id", productH.Update)
			admin.DELETE("/products/:id", productH.Delete)

			admin.GET("/orders", orderH.List)
			admin.GET("/orders/:id/items", orderH.ListItems)
			admin.PUT("/orders/:id/status", orderH.UpdateStatus)

			admin.GET("/stats", statsH.Dashboard)
			admin.POST("/upload", uploadH.Upload)
		}
	}

	if err := notificationWorker.Start(ctx); err != nil {
		log.Error("start notification worker", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	notificationWorker.Stop()
	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Info("server stopped")
}
