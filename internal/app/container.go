// Package app wires configuration, logging, storage and the library services
// together in a samber/do container.
package app

import (
	"fmt"

	"github.com/samber/do/v2"

	"library-ledger/access"
	"library-ledger/internal/config"
	"library-ledger/internal/logger"
	"library-ledger/library"
	"library-ledger/records"
)

// StoreHandle owns the record store so it can be closed exactly once.
type StoreHandle struct {
	records.Store
}

// Shutdown closes the store.
func (h *StoreHandle) Shutdown() error { return h.Store.Close() }

// App is the assembled application. Services are built lazily on first use.
type App struct {
	injector *do.RootScope
	store    *StoreHandle
}

// New builds the container for cfg.
func New(cfg *config.Config) *App {
	a := &App{injector: do.New()}

	do.ProvideValue(a.injector, cfg)
	do.Provide(a.injector, ProvideLogger)
	do.Provide(a.injector, func(i do.Injector) (*StoreHandle, error) {
		h, err := ProvideStore(i)
		if err == nil {
			a.store = h
		}
		return h, err
	})
	do.Provide(a.injector, ProvideLibrary)
	do.Provide(a.injector, ProvideAccess)

	return a
}

// Logger returns the shared logger.
func (a *App) Logger() *logger.Logger { return do.MustInvoke[*logger.Logger](a.injector) }

// Library returns the catalog and circulation manager.
func (a *App) Library() (*library.LibraryManager, error) {
	return do.Invoke[*library.LibraryManager](a.injector)
}

// Access returns the registration and login service.
func (a *App) Access() (*access.Service, error) {
	return do.Invoke[*access.Service](a.injector)
}

// Close releases the store if it was ever opened.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Shutdown()
}

// ProvideLogger builds the logger from config.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return logger.New(logger.Config{
		Format: cfg.LogFormat,
		Level:  logger.ParseLevel(cfg.LogLevel),
	}), nil
}

// ProvideStore opens the configured record store backend.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	store, err := records.Open(cfg.Store, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	log.Debug("record store opened", "backend", cfg.Store, "dir", cfg.DataDir)
	return &StoreHandle{Store: store}, nil
}

// ProvideLibrary builds the manager with the configured policy.
func ProvideLibrary(i do.Injector) (*library.LibraryManager, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	store := do.MustInvoke[*StoreHandle](i)

	policy := library.Policy{
		LoanDays:       cfg.LoanDays,
		FineRate:       cfg.FineRate,
		OneLoanPerPair: !cfg.AllowDuplicateLoans,
	}
	return library.NewLibraryManager(store,
		library.WithPolicy(policy),
		library.WithLogger(log.With("component", "library")),
	), nil
}

// ProvideAccess builds the registration and login service.
func ProvideAccess(i do.Injector) (*access.Service, error) {
	log := do.MustInvoke[*logger.Logger](i)
	store := do.MustInvoke[*StoreHandle](i)
	return access.NewService(store, access.WithLogger(log.With("component", "access"))), nil
}
