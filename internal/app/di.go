// Package app provides the dependency injection container for assembling
// vaultcli's components through lazy, sync.Once-guarded accessors.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/allisson/vaultcli/internal/applog"
	"github.com/allisson/vaultcli/internal/audit"
	"github.com/allisson/vaultcli/internal/config"
	cryptoDomain "github.com/allisson/vaultcli/internal/crypto/domain"
	cryptoService "github.com/allisson/vaultcli/internal/crypto/service"
	"github.com/allisson/vaultcli/internal/database"
	"github.com/allisson/vaultcli/internal/metrics"
	"github.com/allisson/vaultcli/internal/migrations"
	"github.com/allisson/vaultcli/internal/session"
	vaultRepository "github.com/allisson/vaultcli/internal/vault/repository"
	vaultUsecase "github.com/allisson/vaultcli/internal/vault/usecase"
)

// Container holds all of vaultcli's dependencies and builds them lazily on
// first access.
type Container struct {
	config *config.Config

	logger *slog.Logger
	db     *sql.DB

	txManager       database.TxManager
	aeadManager     cryptoService.AEADManager
	kdf             cryptoService.Kdf
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	auditRepo audit.Repository
	auditUC   *audit.UseCase

	vaultRepo  vaultRepository.Repository
	vaultStore vaultUsecase.VaultUseCase

	gateway *session.Gateway

	mu                    sync.Mutex
	loggerInit            sync.Once
	dbInit                sync.Once
	txManagerInit         sync.Once
	aeadManagerInit       sync.Once
	kdfInit               sync.Once
	metricsProviderInit   sync.Once
	businessMetricsInit   sync.Once
	auditRepoInit         sync.Once
	auditUseCaseInit      sync.Once
	vaultRepoInit         sync.Once
	vaultUseCaseInit      sync.Once
	gatewayInit           sync.Once
	initErrors            map[string]error
}

// NewContainer builds a Container over cfg. Nothing is constructed until
// first access.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the loaded configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the application's slog.Logger, building it on first access.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = applog.New(c.config.LogLevel)
	})
	return c.logger
}

// DB returns the vault's SQLite connection, opening and migrating it on
// first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if storedErr, ok := c.initErrors["db"]; ok {
		return nil, storedErr
	}
	return c.db, err
}

func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{Path: c.config.DBPath})
	if err != nil {
		return nil, err
	}
	if err := migrations.Run(db); err != nil {
		return nil, err
	}
	return db, nil
}

// TxManager returns the shared transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}
	c.txManagerInit.Do(func() {
		c.txManager = database.NewTxManager(db)
	})
	return c.txManager, nil
}

// AEADManager returns the AEAD cipher factory.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// Kdf returns the Argon2id key derivation implementation.
func (c *Container) Kdf() cryptoService.Kdf {
	c.kdfInit.Do(func() {
		c.kdf = cryptoService.NewArgon2Kdf()
	})
	return c.kdf
}

// MetricsProvider returns the Prometheus-backed OpenTelemetry provider.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = metrics.NewProvider("vaultcli")
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if storedErr, ok := c.initErrors["metricsProvider"]; ok {
		return nil, storedErr
	}
	return c.metricsProvider, err
}

// BusinessMetrics returns the BusinessMetrics recorder the vault usecase is
// decorated with.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		provider, providerErr := c.MetricsProvider()
		if providerErr != nil {
			err = providerErr
			c.initErrors["businessMetrics"] = err
			return
		}
		c.businessMetrics, err = metrics.NewBusinessMetrics(provider.MeterProvider(), "vaultcli")
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if storedErr, ok := c.initErrors["businessMetrics"]; ok {
		return nil, storedErr
	}
	return c.businessMetrics, err
}

// AuditRepository returns the audit log repository.
func (c *Container) AuditRepository() (audit.Repository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}
	txManager, err := c.TxManager()
	if err != nil {
		return nil, err
	}
	c.auditRepoInit.Do(func() {
		c.auditRepo = audit.NewSQLiteRepository(db, txManager)
	})
	return c.auditRepo, nil
}

// AuditUseCase returns the audit chain usecase.
func (c *Container) AuditUseCase() (*audit.UseCase, error) {
	repo, err := c.AuditRepository()
	if err != nil {
		return nil, err
	}
	c.auditUseCaseInit.Do(func() {
		c.auditUC = audit.NewUseCase(repo)
	})
	return c.auditUC, nil
}

// VaultRepository returns the vault's schema CRUD repository.
func (c *Container) VaultRepository() (vaultRepository.Repository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}
	c.vaultRepoInit.Do(func() {
		c.vaultRepo = vaultRepository.NewSQLiteRepository(db)
	})
	return c.vaultRepo, nil
}

// VaultUseCase returns the key-hierarchy and CRUD orchestration layer,
// decorated with BusinessMetrics instrumentation.
func (c *Container) VaultUseCase() (vaultUsecase.VaultUseCase, error) {
	var err error
	c.vaultUseCaseInit.Do(func() {
		c.vaultStore, err = c.initVaultUseCase()
		if err != nil {
			c.initErrors["vaultUseCase"] = err
		}
	})
	if storedErr, ok := c.initErrors["vaultUseCase"]; ok {
		return nil, storedErr
	}
	return c.vaultStore, err
}

func (c *Container) initVaultUseCase() (vaultUsecase.VaultUseCase, error) {
	repo, err := c.VaultRepository()
	if err != nil {
		return nil, err
	}
	auditUC, err := c.AuditUseCase()
	if err != nil {
		return nil, err
	}
	txManager, err := c.TxManager()
	if err != nil {
		return nil, err
	}

	kdfParams := cryptoDomain.KdfParams{
		MemoryKiB:   c.config.KDFMemoryKiB,
		Iterations:  c.config.KDFIterations,
		Parallelism: c.config.KDFParallelism,
		SaltSize:    cryptoDomain.DefaultKdfParams.SaltSize,
	}

	store := vaultUsecase.New(repo, auditUC, txManager, c.AEADManager(), c.Kdf(), cryptoDomain.ChaCha20, kdfParams)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}
	return vaultUsecase.NewVaultUseCaseWithMetrics(store, businessMetrics), nil
}

// Gateway returns the session gateway that every CLI command drives.
func (c *Container) Gateway() (*session.Gateway, error) {
	var err error
	c.gatewayInit.Do(func() {
		var store vaultUsecase.VaultUseCase
		store, err = c.VaultUseCase()
		if err != nil {
			c.initErrors["gateway"] = err
			return
		}
		c.gateway = session.New(store, c.config.IdleTimeout)
	})
	if storedErr, ok := c.initErrors["gateway"]; ok {
		return nil, storedErr
	}
	return c.gateway, err
}

// Shutdown releases every initialized resource.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.gateway != nil && !c.gateway.Locked() {
		if err := c.gateway.Lock(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("gateway lock: %w", err))
		}
	}
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}
	return nil
}
