package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/domain"
	"github.com/vladislavdragonenkov/shop/internal/health"
	"github.com/vladislavdragonenkov/shop/internal/service/auth"
	"github.com/vladislavdragonenkov/shop/internal/service/cart"
	"github.com/vladislavdragonenkov/shop/internal/service/client"
	"github.com/vladislavdragonenkov/shop/internal/service/order"
	"github.com/vladislavdragonenkov/shop/internal/service/product"
	"github.com/vladislavdragonenkov/shop/internal/storage/memory"
	"github.com/vladislavdragonenkov/shop/internal/storage/postgres"
	transport "github.com/vladislavdragonenkov/shop/internal/transport/http"
	"github.com/vladislavdragonenkov/shop/internal/version"
)

// Dependencies содержит собранный граф зависимостей приложения.
type Dependencies struct {
	Store  domain.Store
	Auth   *auth.Service
	Engine *order.Engine
	Router *transport.Router
	Health *health.Handler
	Logger *log.Entry

	closeStore func() error
}

// NewDependencies инициализирует хранилище, сервисы и маршрутизатор.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	store, closeStore, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	authService := auth.NewService(store, cfg.JWTSecret, logger.WithField("component", "auth_service"))
	productService := product.NewService(store, logger.WithField("component", "product_service"))
	clientService := client.NewService(store, logger.WithField("component", "client_service"))
	engine := order.NewEngine(store, logger.WithField("component", "order_engine"))

	router := transport.NewRouter(
		logger.WithField("component", "http"),
		authService,
		transport.NewAuthHandler(authService),
		transport.NewOrderHandler(engine),
		transport.NewProductHandler(productService),
		transport.NewClientHandler(clientService),
	)

	v, _, _ := version.Info()
	healthHandler := health.NewHandler(v)
	if pinger, ok := store.(health.Pinger); ok {
		healthHandler.RegisterChecker("storage", health.NewPingChecker("storage", pinger))
	}

	return &Dependencies{
		Store:      store,
		Auth:       authService,
		Engine:     engine,
		Router:     router,
		Health:     healthHandler,
		Logger:     logger,
		closeStore: closeStore,
	}, nil
}

// Close освобождает ресурсы хранилища.
func (d *Dependencies) Close() error {
	if d == nil || d.closeStore == nil {
		return nil
	}
	return d.closeStore()
}

// NewCartCleanupWorker собирает воркер очистки брошенных корзин.
func (d *Dependencies) NewCartCleanupWorker(cfg Config) *cart.CleanupWorker {
	return cart.NewCleanupWorker(
		d.Store.Orders(),
		cart.WithLogger(d.Logger.WithField("component", "cart_cleanup")),
		cart.WithInterval(cfg.CartCleanupInterval),
		cart.WithBatchSize(cfg.CartCleanupBatchSize),
		cart.WithTTL(cfg.CartTTL),
	)
}

func initStorage(ctx context.Context, cfg Config, logger *log.Entry) (domain.Store, func() error, error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory, "":
		logger.Info("using in-memory storage")
		return memory.NewStore(), nil, nil
	case StorageDriverPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("init postgres storage: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, nil, fmt.Errorf("apply migrations: %w", err)
			}
		}
		logger.Info("using postgres storage")
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
