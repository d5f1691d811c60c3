package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/catalog"
	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/index"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// Refresher refetches a catalog page regardless of cache freshness.
type Refresher interface {
	Refresh(ctx context.Context, f domain.Filter) (*catalog.Page, error)
}

// CatalogWarmer keeps the first page of every content type in the cache
type CatalogWarmer struct {
	engine        Refresher
	index         *index.MemoryIndex
	logger        logger.Logger
	interval      time.Duration
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewCatalogWarmer creates a new catalog warmer
func NewCatalogWarmer(
	engine Refresher,
	idx *index.MemoryIndex,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *CatalogWarmer {
	return &CatalogWarmer{
		engine:        engine,
		index:         idx,
		logger:        log,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start warms once, then on every tick and manual trigger
func (cw *CatalogWarmer) Start(ctx context.Context) error {
	// A cold catalog is served from samples, so a failed first warm is not fatal.
	if err := cw.Warm(ctx); err != nil {
		cw.logger.Warn("initial catalog warm failed", logger.Error(err))
	}

	ticker := time.NewTicker(cw.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := cw.Warm(ctx); err != nil {
					cw.logger.Error("failed to warm catalog",
						logger.Error(err))
				}
			case <-cw.manualTrigger:
				cw.logger.Info("manual catalog reload triggered")
				if err := cw.Warm(ctx); err != nil {
					cw.logger.Error("failed to warm catalog",
						logger.Error(err))
				}
			case <-cw.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the warmer
func (cw *CatalogWarmer) Stop() {
	close(cw.stopCh)
}

// Warm refreshes page 1 of every content type and records the items in the
// index. It fails only when no content type could be fetched live.
func (cw *CatalogWarmer) Warm(ctx context.Context) error {
	cw.logger.Info("warming catalog cache")

	var errs []error
	warmed := 0
	for _, ct := range domain.ContentTypes() {
		page, err := cw.engine.Refresh(ctx, domain.Filter{Type: ct, Page: 1})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ct, err))
			continue
		}
		if page.Source != catalog.SourceLive {
			errs = append(errs, fmt.Errorf("%s: served from %s", ct, page.Source))
			continue
		}
		if cw.index != nil {
			cw.index.Record(page.Items)
		}
		warmed++
		cw.logger.Debug("content type warmed",
			logger.String("type", string(ct)),
			logger.Int("items", len(page.Items)),
			logger.Int("total", page.Total))
	}

	if warmed == 0 {
		return fmt.Errorf("catalog warm: %w", errors.Join(errs...))
	}
	cw.logger.Info("catalog cache warmed",
		logger.Int("types", warmed),
		logger.Int("failed", len(errs)))
	return nil
}
