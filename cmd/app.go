package cmd

import (
	"fmt"
	"net/http"

	"github.com/iksnae/gamehelp/internal"
)

// app bundles everything a command needs to talk to the assistant
type app struct {
	cfg        *internal.Config
	store      *internal.SQLiteStore
	catalog    *internal.GameCatalog
	gateway    *internal.HTTPGateway
	controller *internal.Controller
}

// loadConfig reads the config and applies the persistent flag overrides
func loadConfig() (*internal.Config, error) {
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if storagePath != "" {
		cfg.Storage = storagePath
	}
	return cfg, nil
}

// openApp opens the state database and builds the controller. tune may adjust
// the per-launch request options before the controller is created.
func openApp(requireEndpoint bool, tune func(*internal.ControllerOptions) error) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if requireEndpoint {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	opts, err := cfg.ControllerOptions()
	if err != nil {
		return nil, err
	}
	if tune != nil {
		if err := tune(&opts); err != nil {
			return nil, err
		}
	}

	store, err := internal.OpenSQLiteStore(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	internal.LogDebug("Using state database %s", store.Path())

	catalog := internal.NewGameCatalog(cfg.Games...)
	gateway := internal.NewHTTPGateway(cfg.Endpoint, cfg.APIKey, http.DefaultClient)
	controller := internal.NewController(
		internal.NewIdentityStore(store),
		internal.NewConversationStore(store),
		internal.NewGameStore(store, catalog),
		gateway,
		opts,
	)

	return &app{
		cfg:        cfg,
		store:      store,
		catalog:    catalog,
		gateway:    gateway,
		controller: controller,
	}, nil
}

// Close releases the state database
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		internal.LogWarn("Failed to close state database: %v", err)
	}
}
