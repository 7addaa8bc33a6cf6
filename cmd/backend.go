package cmd

import (
	"database/sql"

	"github.com/ABH36/Machine-test/accounts"
	"github.com/ABH36/Machine-test/catalog"
	"github.com/ABH36/Machine-test/config"
	"github.com/ABH36/Machine-test/database"
	"github.com/ABH36/Machine-test/inventory"
	"github.com/ABH36/Machine-test/memstore"
	"github.com/ABH36/Machine-test/orders"
	"github.com/ABH36/Machine-test/repository"

	"go.uber.org/zap"
)

// backend bundles the storage implementations selected by database.driver.
type backend struct {
	users    accounts.UserStore
	products catalog.ProductStore
	ledger   inventory.Ledger
	orders   orders.Store
	db       *sql.DB
}

func openBackend(cfg config.DatabaseConfig, logger *zap.Logger) (*backend, error) {
	if cfg.Driver == "memory" {
		logger.Warn("Using in-memory storage, data is lost on restart")
		store := memstore.New()
		return &backend{users: store, products: store, ledger: store, orders: store}, nil
	}

	db, err := database.InitDB(cfg, logger)
	if err != nil {
		return nil, err
	}
	products := repository.NewProductRepository(db)
	return &backend{
		users:    repository.NewUserRepository(db),
		products: products,
		ledger:   products,
		orders:   repository.NewOrderRepository(db),
		db:       db,
	}, nil
}

func (b *backend) Close(logger *zap.Logger) {
	if b.db == nil {
		return
	}
	if err := b.db.Close(); err != nil {
		logger.Error("Failed to close database", zap.Error(err))
	} else {
		logger.Info("Database connection closed gracefully")
	}
}
