package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/ABH36/Machine-test/config"
	"github.com/ABH36/Machine-test/events"
	"github.com/ABH36/Machine-test/middleware"
	"github.com/ABH36/Machine-test/notify"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var notifierCmd = &cobra.Command{
	Use:   "notifier",
	Short: "Consume order events and notify buyers and vendors",
	RunE:  runNotifier,
}

func init() {
	rootCmd.AddCommand(notifierCmd)
}

func runNotifier(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if !cfg.Kafka.Enabled {
		return errors.New("the notifier needs kafka.enabled=true")
	}
	if cfg.Database.Driver == "memory" {
		// recipients are looked up in the API's database
		return errors.New("the notifier needs a shared database, set database.driver=postgres")
	}

	if cfg.Tracing.Enabled {
		shutdownTracing, err := middleware.InitTracing(config.ServiceName+"-notifier", cfg.Tracing.Endpoint)
		if err != nil {
			return err
		}
		defer shutdownTracing()
	}

	store, err := openBackend(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer store.Close(logger)

	consumer, err := events.InitConsumer(cfg.Kafka, logger)
	if err != nil {
		return err
	}
	defer consumer.Close()

	dispatcher := events.NewDispatcher(store.users, notify.New(cfg.Notify, logger), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Notifier started", zap.String("topic", cfg.Kafka.Topic))
	if err := events.NewConsumer(consumer, cfg.Kafka.Topic, dispatcher, logger).Run(ctx); err != nil {
		return err
	}
	logger.Info("Notifier exited gracefully")
	return nil
}
