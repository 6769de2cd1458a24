// Package di provides dependency injection configuration for the page cache server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/spacemark/pagecache/internal/cache"
	"github.com/spacemark/pagecache/internal/config"
	"github.com/spacemark/pagecache/internal/di/providers"
	"github.com/spacemark/pagecache/internal/logger"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Cache and its settings store
	do.Provide(injector, providers.ProvideSettings)
	do.Provide(injector, providers.ProvideCache)

	// Event stream, attached before hydration so clients see the initial state
	do.Provide(injector, providers.ProvideSSEManager)

	// Hydration source
	do.Provide(injector, providers.ProvideFixture)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services in dependency order.
// This triggers lazy initialization of every provider.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)

	steps := []func(do.Injector) error{
		invoke[*providers.SettingsHandle],
		invoke[*cache.Cache],
		invoke[*providers.SSEManagerHandle],
		invoke[*providers.FixtureHandle],
		invoke[*providers.HTTPServerHandle],
	}
	for _, step := range steps {
		if err := step(injector); err != nil {
			return err
		}
	}
	return nil
}

func invoke[T any](i do.Injector) error {
	_, err := do.Invoke[T](i)
	return err
}
