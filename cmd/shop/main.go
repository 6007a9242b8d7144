package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/mongsom/shop/internal/httpserver"
	"github.com/mongsom/shop/internal/lock"
	"github.com/mongsom/shop/internal/models"
	"github.com/mongsom/shop/internal/payment"
	"github.com/mongsom/shop/internal/repo"
	"github.com/mongsom/shop/internal/search"
	"github.com/mongsom/shop/internal/service"
	"github.com/mongsom/shop/pkg/config"
	pkgdb "github.com/mongsom/shop/pkg/db"
	"github.com/mongsom/shop/pkg/events"
	"github.com/mongsom/shop/pkg/logging"
	authmw "github.com/mongsom/shop/pkg/middleware/auth"
	loggingmw "github.com/mongsom/shop/pkg/middleware/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.Load()
	cfg.MustRequired()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("timezone %q: %v", cfg.Timezone, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL, cfg.SQLDriver)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	var publisher events.Publisher = events.Nop{}
	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers)
		publisher = producer
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	var locker lock.Locker = lock.Noop{}
	var redisLocker *lock.RedisLocker
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisLocker, err = lock.NewRedisLocker(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		locker = redisLocker
	}

	r := &repo.GormRepo{DB: db}
	products := &service.ProductService{Repo: r, Events: publisher}
	if cfg.ESURL != "" {
		idx, err := search.NewIndex(cfg.ESURL, cfg.ESUser, cfg.ESPassword, cfg.ESIndex)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		products.Index = idx
	} else {
		logger.Warn("search_index_disabled", "reason", "ES_URL is empty")
	}

	orders := &service.OrderService{Repo: r, Events: publisher}
	payments := &service.PaymentService{
		Repo:    r,
		Gateway: payment.NewTossClient(cfg.TossBaseURL, cfg.TossSecretKey, cfg.GatewayTimeout),
		Locker:  locker,
		LockTTL: cfg.ConfirmLockTTL,
		Events:  publisher,
	}

	e := echo.New()
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		DB:      db,
		Auth:    authmw.NewAuthMiddleware(cfg.JWTAccessSecret),
		Orders:  &httpserver.OrderHTTP{Svc: orders},
		Payment: &httpserver.PaymentHTTP{Svc: payments},
		Catalog: &httpserver.CatalogHTTP{Svc: products},
		Cart:    &httpserver.CartHTTP{Svc: &service.CartService{Repo: r}},
		Admin: &httpserver.AdminHTTP{
			Orders:   &service.AdminOrderService{Repo: r, Orders: orders, Location: loc},
			Payments: payments,
			Products: products,
		},
		SecureCookies: cfg.CookieSecure,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting_down")

	ctx, cancel = context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server_shutdown_failed", "error", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka_close_failed", "error", err)
		}
	}
	if redisLocker != nil {
		if err := redisLocker.Close(); err != nil {
			logger.Error("redis_close_failed", "error", err)
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db_close_failed", "error", err)
		}
	}

	logger.Info("shutdown_complete")
}
