package cmd

import (
	"context"
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-upi-payments/app/backend"
	"github.com/vibast-solutions/ms-go-upi-payments/app/dispatch"
	"github.com/vibast-solutions/ms-go-upi-payments/app/listener"
	"github.com/vibast-solutions/ms-go-upi-payments/app/platform"
	"github.com/vibast-solutions/ms-go-upi-payments/app/publisher"
	"github.com/vibast-solutions/ms-go-upi-payments/app/repository"
	"github.com/vibast-solutions/ms-go-upi-payments/app/service"
	"github.com/vibast-solutions/ms-go-upi-payments/app/upi"
	"github.com/vibast-solutions/ms-go-upi-payments/config"
)

// application holds the wired signal pipeline shared by serve and the jobs.
type application struct {
	cfg            *config.Config
	paymentService *service.PaymentService
	dispatcher     *dispatch.Dispatcher
	metrics        *dispatch.Metrics
	bus            *platform.Bus
	deepLinks      *listener.DeepLinkListener
	monitor        *listener.LifecycleMonitor
	bridge         *listener.NativeBridge
}

func mustCreateApplication() (*application, func()) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	closers := []func(){
		func() {
			if err := db.Close(); err != nil {
				logrus.WithError(err).Warn("Failed to close database")
			}
		},
	}

	var store dispatch.ResolutionStore = dispatch.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logrus.WithError(err).Fatal("Failed to ping redis")
		}
		store = dispatch.NewRedisStore(rdb, cfg.Redis.ResolvedTTL)
		closers = append(closers, func() {
			if err := rdb.Close(); err != nil {
				logrus.WithError(err).Warn("Failed to close redis")
			}
		})
		logrus.WithField("addr", cfg.Redis.Addr).Info("Using redis resolution store")
	}

	var eventPublisher publisher.Publisher = publisher.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.ResolvedTopic != "" {
		eventPublisher = publisher.NewKafkaPublisher(cfg.Kafka.Brokers, []string{cfg.Kafka.ResolvedTopic}, cfg.Kafka.Retry)
		logrus.WithField("topic", cfg.Kafka.ResolvedTopic).Info("Publishing resolved attempts to kafka")
	}
	closers = append(closers, func() {
		if err := eventPublisher.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close publisher")
		}
	})

	metrics := dispatch.NewMetrics()
	dispatcher := dispatch.NewDispatcher(dispatch.WithStore(store), dispatch.WithMetrics(metrics))

	backendClient := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		APIKey:  cfg.Backend.APIKey,
		Timeout: cfg.Backend.HTTPTimeout,
	})

	paymentService := service.NewPaymentService(
		repository.NewPaymentAttemptRepository(db),
		repository.NewAttemptEventRepository(db),
		repository.NewPaymentSignalRepository(db),
		dispatcher,
		backendClient,
		eventPublisher,
		cfg.UPI,
		cfg.Payments,
		cfg.Kafka.ResolvedTopic,
	)
	dispatcher.SetRecorder(paymentService)

	bus := platform.NewBus(cfg.UPI.InitialURL)
	handler := listener.NewURLHandler(upi.NewClassifier(cfg.UPI.CallbackScheme), dispatcher)

	app := &application{
		cfg:            cfg,
		paymentService: paymentService,
		dispatcher:     dispatcher,
		metrics:        metrics,
		bus:            bus,
		deepLinks:      listener.NewDeepLinkListener(bus, handler),
		monitor:        listener.NewLifecycleMonitor(bus, bus, handler),
		bridge:         listener.NewNativeBridge(bus, dispatcher),
	}

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	return app, cleanup
}

// startListeners restores consumers for open attempts before subscribing,
// so the launch URL can already resolve one.
func (a *application) startListeners(ctx context.Context, registerer prometheus.Registerer) error {
	a.metrics.MustRegister(registerer)

	restored, err := a.paymentService.RestorePending(ctx)
	if err != nil {
		return err
	}
	logrus.WithField("attempts", restored).Info("Restored pending attempt consumers")

	a.bridge.Start()
	a.monitor.Start()
	return a.deepLinks.Start(ctx)
}

func (a *application) stopListeners() {
	a.deepLinks.Stop()
	a.monitor.Stop()
	a.bridge.Stop()
}
