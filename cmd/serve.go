package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ABH36/Machine-test/accounts"
	"github.com/ABH36/Machine-test/assets"
	"github.com/ABH36/Machine-test/auth"
	"github.com/ABH36/Machine-test/cache"
	"github.com/ABH36/Machine-test/catalog"
	"github.com/ABH36/Machine-test/config"
	"github.com/ABH36/Machine-test/events"
	"github.com/ABH36/Machine-test/handlers"
	"github.com/ABH36/Machine-test/middleware"
	"github.com/ABH36/Machine-test/notify"
	"github.com/ABH36/Machine-test/orders"

	"github.com/IBM/sarama"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the marketplace HTTP API. Order events go to Kafka when
kafka.enabled is set; otherwise notifications are sent in-process.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	shutdownTracing := func() {}
	if cfg.Tracing.Enabled {
		shutdownTracing, err = middleware.InitTracing(config.ServiceName, cfg.Tracing.Endpoint)
		if err != nil {
			return err
		}
	}

	store, err := openBackend(cfg.Database, logger)
	if err != nil {
		return err
	}

	var productCache catalog.Cache
	var redisClient *redis.Client
	ledger := store.ledger
	if cfg.Redis.Enabled {
		redisClient, err = cache.InitRedis(cfg.Redis, logger)
		if err != nil {
			return err
		}
		pc := cache.NewProductCache(redisClient, cfg.Redis.TTL, logger)
		productCache = pc
		ledger = cache.NewInvalidatingLedger(ledger, pc)
	}

	var publisher orders.EventPublisher
	var producer sarama.SyncProducer
	if cfg.Kafka.Enabled {
		producer, err = events.InitProducer(cfg.Kafka, logger)
		if err != nil {
			return err
		}
		publisher = events.NewPublisher(producer, cfg.Kafka.Topic, logger)
	} else {
		publisher = events.NewDispatcher(store.users, notify.New(cfg.Notify, logger), logger)
	}

	assetStore, err := assets.New(cfg.Assets, logger)
	if err != nil {
		return err
	}

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	router := handlers.NewRouter(handlers.Deps{
		Accounts: accounts.NewService(store.users, store.products, store.orders, productCache, tokens, cfg.Auth.BcryptCost, logger),
		Catalog:  catalog.NewService(store.products, productCache, logger),
		Orders: orders.NewService(store.orders, ledger, publisher, orders.Options{
			StrictTransitions: cfg.Orders.StrictTransitions,
			TrustClientTotal:  cfg.Orders.TrustClientTotal,
		}, logger),
		Assets:    assetStore,
		Tokens:    tokens,
		Users:     store.users,
		UploadDir: cfg.Assets.Dir,
	}, logger)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Info("Marketplace API started", zap.String("addr", cfg.Server.Addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		logger.Info("Shutdown signal received. Exiting...")
	case err := <-errCh:
		logger.Error("Server failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server forced to shutdown", zap.Error(err))
	} else {
		logger.Info("HTTP server stopped gracefully")
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("Failed to close Kafka producer", zap.Error(err))
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Failed to close Redis cache", zap.Error(err))
		}
	}
	store.Close(logger)
	shutdownTracing()

	logger.Info("Marketplace exited gracefully")
	return nil
}
