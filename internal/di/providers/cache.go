package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/spacemark/pagecache/internal/cache"
	"github.com/spacemark/pagecache/internal/config"
	"github.com/spacemark/pagecache/internal/events"
	"github.com/spacemark/pagecache/internal/logger"
	"github.com/spacemark/pagecache/internal/settings"
)

// SettingsHandle wraps the settings database with shutdown capability.
type SettingsHandle struct {
	*settings.BadgerStore
}

// Shutdown implements do.Shutdownable.
func (h *SettingsHandle) Shutdown() error {
	return h.Close()
}

// ProvideSettings opens the settings database holding the highlight color palette.
func ProvideSettings(i do.Injector) (*SettingsHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	store, err := settings.OpenBadger(cfg.Settings.Path, log.Component("settings"))
	if err != nil {
		return nil, err
	}
	return &SettingsHandle{BadgerStore: store}, nil
}

// ProvideCache provides the page annotation cache, with its color palette loaded.
func ProvideCache(i do.Injector) (*cache.Cache, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	settingsHandle := do.MustInvoke[*SettingsHandle](i)

	sorter, err := cache.SorterByName(cfg.Cache.SortOrder)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	c, err := cache.New(ctx, cache.Config{
		Sorter:   sorter,
		Debug:    cfg.Cache.Debug,
		Logger:   log.Component("cache"),
		Settings: settingsHandle.BadgerStore,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Debug {
		pageLog := log.Component("cache")
		// Registered for the lifetime of the cache.
		events.On(c.Events(), events.PageDataUpdated, func(data *events.PageDataEventData) {
			pageLog.Debug("page lists changed",
				"page", data.NormalizedPageURL,
				"lists", len(data.ListIDs))
		})
	}

	log.Info("Cache ready", "sort_order", cfg.Cache.SortOrder, "debug", cfg.Cache.Debug)
	return c, nil
}
