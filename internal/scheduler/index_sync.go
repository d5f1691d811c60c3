package scheduler

import (
	"context"

	"github.com/MrSnakeDoc/shelf/internal/catalog"
	"github.com/MrSnakeDoc/shelf/internal/index"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// PageSource lists every cached catalog page.
type PageSource interface {
	CachedPages(ctx context.Context) ([]catalog.Entry, error)
}

// IndexSyncer fills the memory index from the shared page cache on startup
type IndexSyncer struct {
	source PageSource
	index  *index.MemoryIndex
	logger logger.Logger
}

// NewIndexSyncer creates a new index syncer
func NewIndexSyncer(
	source PageSource,
	idx *index.MemoryIndex,
	log logger.Logger,
) *IndexSyncer {
	return &IndexSyncer{
		source: source,
		index:  idx,
		logger: log,
	}
}

// Sync loads cached pages and records their items in the index
func (is *IndexSyncer) Sync(ctx context.Context) error {
	is.logger.Info("syncing index from cached catalog pages")

	pages, err := is.source.CachedPages(ctx)
	if err != nil {
		return err
	}

	if len(pages) == 0 {
		is.logger.Info("no cached catalog pages found")
		return nil
	}

	for _, p := range pages {
		is.index.Record(p.Items)
	}

	is.logger.Info("synced index from cache",
		logger.Int("pages", len(pages)),
		logger.Int("components", is.index.Count()))

	return nil
}
