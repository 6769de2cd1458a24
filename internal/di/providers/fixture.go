package providers

import (
	"context"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/spacemark/pagecache/internal/cache"
	"github.com/spacemark/pagecache/internal/config"
	"github.com/spacemark/pagecache/internal/fixture"
	"github.com/spacemark/pagecache/internal/hydrate"
	"github.com/spacemark/pagecache/internal/logger"
)

// FixtureHandle owns the fixture backend and, when enabled, its file watcher.
// Backend is nil when no fixture is configured.
type FixtureHandle struct {
	Backend *fixture.Backend
	cancel  context.CancelFunc
	done    chan struct{}
}

// Shutdown implements do.Shutdownable.
func (h *FixtureHandle) Shutdown() error {
	if h.cancel == nil {
		return nil
	}
	h.cancel()
	<-h.done
	return nil
}

// ProvideFixture loads the fixture, hydrates the cache from it, and starts watching it.
func ProvideFixture(i do.Injector) (*FixtureHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	c := do.MustInvoke[*cache.Cache](i)

	if cfg.Fixture.Path == "" {
		log.Info("No fixture configured, starting with an empty cache")
		return &FixtureHandle{}, nil
	}

	backend, err := fixture.Load(cfg.Fixture.Path)
	if err != nil {
		return nil, err
	}

	hydrateLog := log.Component("hydrate")
	rehydrate := func(ctx context.Context) error {
		return Hydrate(ctx, c, backend, cfg.Fixture.PageURL, hydrateLog)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	err = rehydrate(ctx)
	cancel()
	if err != nil {
		return nil, err
	}
	log.Info("Cache hydrated from fixture",
		"path", backend.Path(),
		"page", cfg.Fixture.PageURL,
		"annotations", len(c.AnnotationsArray()),
		"lists", len(c.ListsArray()),
	)

	handle := &FixtureHandle{Backend: backend}
	if !cfg.Fixture.Watch {
		return handle, nil
	}

	w := fixture.NewWatcher(backend, rehydrate, cfg.Fixture.SettleDelay, log.Component("fixture"))
	watchCtx, watchCancel := context.WithCancel(context.Background())
	handle.cancel = watchCancel
	handle.done = make(chan struct{})

	go func() {
		defer close(handle.done)
		if err := w.Run(watchCtx); err != nil {
			log.Error("Fixture watcher error", "error", err)
		}
	}()

	return handle, nil
}

// Hydrate loads the cache for pageURL from backend, or only the lists when pageURL is empty.
func Hydrate(ctx context.Context, c *cache.Cache, backend *fixture.Backend, pageURL string, log *slog.Logger) error {
	h := hydrate.NewHydrator(backend, backend.User(), log)
	if pageURL == "" {
		return h.HydrateForListUsage(ctx, c)
	}
	return h.HydrateForPage(ctx, c, pageURL, hydrate.PageOptions{})
}
