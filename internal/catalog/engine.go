package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// Source tells where a page came from.
type Source string

const (
	SourceLive    Source = "live"
	SourceCache   Source = "cache"
	SourceStale   Source = "stale"
	SourceSample  Source = "sample"
	SourceTimeout Source = "timeout"
)

const (
	DefaultTTL         = 5 * time.Minute
	DefaultFetchWait   = 5 * time.Second
	TimeoutWarning     = "Loading timed out. Using fallback components."
	UnavailableWarning = "Catalog unavailable. Showing cached or sample components."

	// The upstream unfiltered total over-reports by six.
	knownBadTotal    = 548
	correctedTotal   = 542
	defaultFetchTime = 30 * time.Second
)

var errNoData = errors.New("catalog returned no data")

// Page is one page of the catalog as served to the plugin.
type Page struct {
	Items    []domain.Component `json:"items"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	HasMore  bool               `json:"has_more"`
	Source   Source             `json:"source"`
	Warning  string             `json:"warning,omitempty"`
}

// Config wires an Engine. Store, Log and Categories are required; the
// rest have defaults.
type Config struct {
	Store      Store
	Cache      Cache
	Categories *domain.CategoryTable
	Filters    map[domain.ContentType]domain.FilterGroup
	Samples    []domain.Component
	AssetBase  string
	TTL        time.Duration
	PageSize   int
	Now        func() time.Time
	Log        logger.Logger
}

// Engine runs catalog queries: category normalization, page caching,
// count correction, asset URL resolution and the fallback ladder.
type Engine struct {
	store      Store
	cache      Cache
	categories *domain.CategoryTable
	filters    map[domain.ContentType]domain.FilterGroup
	samples    []domain.Component
	assetBase  string
	ttl        time.Duration
	pageSize   int
	now        func() time.Time
	log        logger.Logger
}

// NewEngine creates a catalog engine
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		store:      cfg.Store,
		cache:      cfg.Cache,
		categories: cfg.Categories,
		filters:    cfg.Filters,
		samples:    domain.CloneComponents(cfg.Samples),
		assetBase:  cfg.AssetBase,
		ttl:        cfg.TTL,
		pageSize:   cfg.PageSize,
		now:        cfg.Now,
		log:        cfg.Log,
	}
	if e.cache == nil {
		e.cache = NewMemoryCache()
	}
	if e.assetBase == "" {
		e.assetBase = domain.DefaultAssetBase
	}
	if e.ttl <= 0 {
		e.ttl = DefaultTTL
	}
	if e.pageSize <= 0 {
		e.pageSize = domain.DefaultPageSize
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Normalize validates f, applies the engine page size and maps the category
// label to its canonical query value.
func (e *Engine) Normalize(f domain.Filter) (domain.Filter, error) {
	if f.PageSize <= 0 {
		f.PageSize = e.pageSize
	}
	if err := f.Validate(); err != nil {
		return f, err
	}
	f.Category = e.categories.Normalize(f.Category)
	f.Aliases = e.categories.Aliases(f.Category)
	return f, nil
}

// FetchPage returns a page for f. The only error is an invalid filter;
// remote failures are answered from the stale cache or the sample dataset.
func (e *Engine) FetchPage(ctx context.Context, f domain.Filter) (*Page, error) {
	f, err := e.Normalize(f)
	if err != nil {
		return nil, err
	}
	return e.fetch(ctx, f, true), nil
}

// Refresh queries the store for f even when a fresh cached page exists and
// stores the result. Used to warm the cache ahead of requests.
func (e *Engine) Refresh(ctx context.Context, f domain.Filter) (*Page, error) {
	f, err := e.Normalize(f)
	if err != nil {
		return nil, err
	}
	return e.fetch(ctx, f, false), nil
}

// FetchPageWithin races FetchPage against wait. When wait elapses first the
// sample page is returned and the fetch keeps running detached from ctx, so
// a late result still lands in the cache.
func (e *Engine) FetchPageWithin(ctx context.Context, f domain.Filter, wait time.Duration) (*Page, error) {
	f, err := e.Normalize(f)
	if err != nil {
		return nil, err
	}
	if wait <= 0 {
		return e.fetch(ctx, f, true), nil
	}

	done := make(chan *Page, 1)
	go func() {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultFetchTime)
		defer cancel()
		done <- e.fetch(fetchCtx, f, true)
	}()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case page := <-done:
		return page, nil
	case <-timer.C:
		e.log.Warn("catalog fetch timed out, serving sample components",
			logger.String("filter", f.Key()),
			logger.Duration("wait", wait),
		)
		page := e.samplePage(f)
		page.Source = SourceTimeout
		page.Warning = TimeoutWarning
		return page, nil
	case <-ctx.Done():
		page := e.samplePage(f)
		page.Source = SourceTimeout
		page.Warning = TimeoutWarning
		return page, nil
	}
}

// FlushCache drops every cached page, stale fallbacks included.
func (e *Engine) FlushCache(ctx context.Context) (int, error) {
	n, err := e.cache.FlushCatalog(ctx)
	if err != nil {
		return n, fmt.Errorf("flush catalog cache: %w", err)
	}
	e.log.Info("catalog cache flushed", logger.Int("pages", n))
	return n, nil
}

// GetComponent looks up one component and resolves its asset URL,
// falling back to the sample dataset when the store fails.
func (e *Engine) GetComponent(ctx context.Context, id string) (*domain.Component, error) {
	c, err := e.store.GetComponent(ctx, id)
	if err == nil {
		resolved := c.WithResolvedURL(e.assetBase)
		return &resolved, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		e.log.Warn("component lookup failed",
			logger.String("id", id),
			logger.Error(err),
		)
	}
	for _, s := range e.samples {
		if s.ID == id {
			resolved := s.WithResolvedURL(e.assetBase)
			return &resolved, nil
		}
	}
	if errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return nil, fmt.Errorf("get component %s: %w", id, err)
}

// Categories returns the filter group shown for a content type.
func (e *Engine) Categories(ct domain.ContentType) (domain.FilterGroup, error) {
	if !ct.Valid() {
		return domain.FilterGroup{}, fmt.Errorf("%w: %q", domain.ErrUnknownContentType, ct)
	}
	group, ok := e.filters[ct]
	if !ok {
		return domain.FilterGroup{Type: ct, Options: []string{}}, nil
	}
	group.Options = append([]string(nil), group.Options...)
	return group, nil
}

// ─────────────────────────────────────────────────────────────────
// Fetch path
// ─────────────────────────────────────────────────────────────────

func (e *Engine) fetch(ctx context.Context, f domain.Filter, useFresh bool) *Page {
	key := f.Key()
	cacheable := f.Cacheable()

	if cacheable && useFresh {
		if entry, ok := e.cacheGet(ctx, key); ok && entry.Fresh(e.now(), e.ttl) {
			e.log.Debug("catalog cache hit", logger.String("filter", key))
			return e.newPage(f, entry.Items, entry.Total, SourceCache)
		}
	}

	items, total, err := e.query(ctx, f)
	if err != nil {
		e.log.Warn("catalog query failed, using fallback",
			logger.String("filter", key),
			logger.Error(err),
		)
		return e.fallback(ctx, f, key)
	}

	if cacheable {
		entry := Entry{Items: items, Total: total, CapturedAt: e.now()}
		if err := e.cache.Put(ctx, key, entry); err != nil {
			e.log.Warn("catalog cache write failed",
				logger.String("filter", key),
				logger.Error(err),
			)
		}
	}
	return e.newPage(f, items, total, SourceLive)
}

// query runs the paged query plus, for narrowed filters, the dedicated
// count query, and resolves asset URLs.
func (e *Engine) query(ctx context.Context, f domain.Filter) ([]domain.Component, int, error) {
	rows, total, err := e.store.QueryComponents(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	if len(rows) == 0 && f.Page == 1 && !f.HasFilters() {
		return nil, 0, errNoData
	}

	if f.HasFilters() {
		count, err := e.store.CountComponents(ctx, f)
		if err != nil {
			e.log.Warn("catalog count query failed, keeping paged count",
				logger.String("filter", f.Key()),
				logger.Error(err),
			)
		} else {
			total = count
		}
	} else if total == knownBadTotal {
		total = correctedTotal
	}

	items := make([]domain.Component, 0, len(rows))
	for _, c := range rows {
		items = append(items, c.WithResolvedURL(e.assetBase))
	}
	return items, total, nil
}

func (e *Engine) fallback(ctx context.Context, f domain.Filter, key string) *Page {
	if entry, ok := e.cacheGet(ctx, key); ok {
		page := e.newPage(f, entry.Items, entry.Total, SourceStale)
		page.Warning = UnavailableWarning
		return page
	}
	page := e.samplePage(f)
	page.Warning = UnavailableWarning
	return page
}

func (e *Engine) samplePage(f domain.Filter) *Page {
	items, total := domain.FilterSample(e.samples, f)
	for i := range items {
		items[i] = items[i].WithResolvedURL(e.assetBase)
	}
	return e.newPage(f, items, total, SourceSample)
}

func (e *Engine) cacheGet(ctx context.Context, key string) (Entry, bool) {
	entry, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		e.log.Warn("catalog cache read failed",
			logger.String("filter", key),
			logger.Error(err),
		)
		return Entry{}, false
	}
	return entry, ok
}

func (e *Engine) newPage(f domain.Filter, items []domain.Component, total int, src Source) *Page {
	items = domain.CloneComponents(items)
	return &Page{
		Items:    items,
		Total:    total,
		Page:     f.Page,
		PageSize: f.PageSize,
		HasMore:  domain.HasMore(f.Offset()+len(items), total),
		Source:   src,
	}
}
