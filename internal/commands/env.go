package commands

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bookport-dev/bookport/internal/config"
	"github.com/bookport-dev/bookport/internal/logger"
	"github.com/bookport-dev/bookport/internal/store"
)

// environment bundles what every subcommand needs: configuration, a
// logger at the configured level, and the ledger store.
type environment struct {
	cfg   *config.Config
	log   zerolog.Logger
	store store.Store
	close func() error
}

// loadConfigArg resolves the --config flag: an explicit path must
// exist, the default path may be absent.
func loadConfigArg(cfgPath string) (*config.Config, error) {
	if cfgPath != "" {
		return config.Load(cfgPath)
	}
	return config.LoadOrDefault(config.DefaultFileName)
}

func loadEnvironment(cfgPath string) (*environment, error) {
	cfg, err := loadConfigArg(cfgPath)
	if err != nil {
		return nil, err
	}

	env := &environment{
		cfg:   cfg,
		log:   logger.New(cfg.Logging.Level),
		close: func() error { return nil },
	}

	switch cfg.Store.Driver {
	case "", config.DriverMemory:
		env.store = store.NewMemory()
	case config.DriverPostgres:
		pg, err := store.OpenPostgres(cfg.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		env.store = pg
		env.close = pg.Close
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	return env, nil
}
