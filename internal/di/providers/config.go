// Package providers contains dependency injection providers for the page cache server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/spacemark/pagecache/internal/config"
	"github.com/spacemark/pagecache/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting page cache server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"settings_path", cfg.Settings.Path,
		"fixture_path", cfg.Fixture.Path,
	)

	return log, nil
}
