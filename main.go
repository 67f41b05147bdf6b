package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"food-delivery-platform/auth"
	"food-delivery-platform/config"
	"food-delivery-platform/events"
	"food-delivery-platform/handlers"
	"food-delivery-platform/idempotency"
	"food-delivery-platform/logging"
	"food-delivery-platform/mailer"
	"food-delivery-platform/metrics"
	"food-delivery-platform/middleware"
	"food-delivery-platform/routes"
	"food-delivery-platform/services"
	"food-delivery-platform/tenancy"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.Env)
	logrus.SetFormatter(log.Formatter)
	logrus.SetLevel(log.Level)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := config.OpenDB(cfg.DB, log)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}

	tokens, err := auth.NewTokens(cfg.JWT.Secret)
	if err != nil {
		log.WithError(err).Fatal("cannot sign tokens")
	}

	var idem idempotency.Store = idempotency.Nop{}
	if cfg.Redis.Addr != "" {
		rdb, err := idempotency.Connect(ctx, cfg.Redis.Addr)
		if err != nil {
			log.WithError(err).Fatal("redis unavailable")
		}
		defer rdb.Close()
		idem = idempotency.NewRedisStore(rdb, idempotency.DefaultTTL)
		log.WithField("addr", cfg.Redis.Addr).Info("idempotency keys stored in redis")
	} else {
		log.Warn("REDIS_ADDR not set, Idempotency-Key headers are ignored")
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		log.WithField("topic", cfg.Kafka.Topic).Info("publishing order events to kafka")
	}
	defer publisher.Close()

	mail, err := mailer.New(ctx, cfg.Mail, log)
	if err != nil {
		log.WithError(err).Fatal("mailer unavailable")
	}

	exposeReset := cfg.Auth.ExposeResetToken && cfg.Mail.Driver == mailer.DriverLog
	if exposeReset {
		log.Warn("AUTH_EXPOSE_RESET_TOKEN is on, reset tokens are returned in API responses")
	}

	m := metrics.New("food-delivery-platform")
	runner := tenancy.NewRunner(db, cfg.DB.EnableRLS)
	h := &handlers.Handler{
		DB:               db,
		Accounts:         services.NewAccounts(db, tokens, mail, cfg.Mail.FrontendURL),
		Users:            services.NewUsers(runner),
		Tenants:          services.NewTenants(db),
		Catalog:          services.NewCatalog(runner),
		Orders:           services.NewOrders(runner, idem, publisher, m, cfg.Affiliate.CommissionRate),
		Affiliates:       services.NewAffiliates(runner),
		ExposeResetToken: exposeReset,
	}
	handlers.RegisterValidators()

	r := gin.New()
	r.Use(
		middleware.RequestID(log),
		middleware.AccessLog(),
		m.Middleware(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)
	r.GET("/metrics", m.Handler())
	routes.SetupRoutes(r, h, tokens)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
