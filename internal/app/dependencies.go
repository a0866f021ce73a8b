package app

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/backoffice/internal/health"
	"github.com/vladislavdragonenkov/backoffice/internal/storage/memory"
	"github.com/vladislavdragonenkov/backoffice/internal/storage/postgres"
)

// Repositories содержит хранилища всех сущностей независимо от драйвера.
type Repositories struct {
	Catalog   domain.CatalogRepository
	Addresses domain.AddressRepository
	Customers domain.CustomerRepository
	Users     domain.UserRepository
	Orders    domain.OrderRepository
	Lines     domain.OrderLineRepository
	Tickets   domain.TicketRepository
	Outbox    domain.OutboxRepository
	Timeline  domain.TimelineRepository
}

// NewMemoryRepositories создаёт независимый набор in-memory хранилищ.
func NewMemoryRepositories() Repositories {
	return Repositories{
		Catalog:   memory.NewCatalogRepository(),
		Addresses: memory.NewAddressRepository(),
		Customers: memory.NewCustomerRepository(),
		Users:     memory.NewUserRepository(),
		Orders:    memory.NewOrderRepository(),
		Lines:     memory.NewOrderLineRepository(),
		Tickets:   memory.NewTicketRepository(),
		Outbox:    memory.NewOutboxRepository(),
		Timeline:  memory.NewTimelineRepository(),
	}
}

func fromPostgres(repos postgres.Repositories) Repositories {
	return Repositories{
		Catalog:   repos.Catalog,
		Addresses: repos.Addresses,
		Customers: repos.Customers,
		Users:     repos.Users,
		Orders:    repos.Orders,
		Lines:     repos.Lines,
		Tickets:   repos.Tickets,
		Outbox:    repos.Outbox,
		Timeline:  repos.Timeline,
	}
}

// runtimeDependencies: хранилища выбранного драйвера и их служебные хуки.
type runtimeDependencies struct {
	repos          Repositories
	storageChecker healthcheck.Checker
	closeFn        func() error
}

func (d runtimeDependencies) close(logger *log.Entry) {
	if d.closeFn == nil {
		return
	}
	if err := d.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close storage")
	}
}

// initRuntimeDependencies открывает хранилище по cfg.StorageDriver.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (runtimeDependencies, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	if driver == "" {
		driver = StorageDriverMemory
	}

	switch driver {
	case StorageDriverMemory:
		logger.Info("using in-memory storage")
		return runtimeDependencies{
			repos:          NewMemoryRepositories(),
			storageChecker: healthcheck.NewFuncChecker("storage", func(context.Context) error { return nil }),
		}, nil
	case StorageDriverPostgres:
		dsn := strings.TrimSpace(cfg.PostgresDSN)
		if dsn == "" {
			return runtimeDependencies{}, fmt.Errorf("postgres storage requires dsn")
		}

		store, err := postgres.Open(ctx, dsn)
		if err != nil {
			return runtimeDependencies{}, err
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return runtimeDependencies{}, fmt.Errorf("apply migrations: %w", err)
			}
			logger.Info("postgres schema is up to date")
		} else {
			state, err := store.MigrationStatus(ctx)
			if err != nil {
				_ = store.Close()
				return runtimeDependencies{}, fmt.Errorf("read migration status: %w", err)
			}
			if !state.Current() {
				logger.WithField("pending", state.Pending).Warn("postgres schema has pending migrations")
			}
		}

		logger.Info("using postgres storage")
		return runtimeDependencies{
			repos:          fromPostgres(postgres.NewRepositories(store)),
			storageChecker: healthcheck.NewFuncChecker("storage", store.Ping),
			closeFn:        store.Close,
		}, nil
	default:
		return runtimeDependencies{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}
