package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

type fakeStore struct {
	mu      sync.Mutex
	rows    []domain.Component
	total   int
	count   int
	err     error
	block   chan struct{}
	queries int
	counts  int
	last    domain.Filter
}

func (s *fakeStore) QueryComponents(ctx context.Context, f domain.Filter) ([]domain.Component, int, error) {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	s.last = f
	if s.err != nil {
		return nil, 0, s.err
	}

	var matched []domain.Component
	m := f.CategoryMatch()
	for _, c := range s.rows {
		if c.Type != f.Type {
			continue
		}
		if f.Category != "" && !m.Matches(c.Category) {
			continue
		}
		matched = append(matched, c)
	}
	start := f.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + f.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	total := s.total
	if total == 0 {
		total = len(matched)
	}
	return domain.CloneComponents(matched[start:end]), total, nil
}

func (s *fakeStore) CountComponents(ctx context.Context, f domain.Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts++
	if s.err != nil {
		return 0, s.err
	}
	return s.count, nil
}

func (s *fakeStore) GetComponent(ctx context.Context, id string) (*domain.Component, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, c := range s.rows {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeStore) calls() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries, s.counts
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func layoutRows(n int) []domain.Component {
	rows := make([]domain.Component, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, domain.Component{
			ID:       fmt.Sprintf("l%03d", i),
			Title:    fmt.Sprintf("Layout %03d", i),
			Type:     domain.ContentLayouts,
			Category: "Features",
			URL:      fmt.Sprintf("layout-%d", i),
		})
	}
	return rows
}

func testSamples() []domain.Component {
	return []domain.Component{
		{ID: "1", Title: "Hero Header 1", Type: domain.ContentLayouts, Category: "Hero Headers", URL: "hero-1"},
		{ID: "2", Title: "Bento Grid 9", Type: domain.ContentLayouts, Category: "Bento Grids", IsPro: true, URL: "bento-9"},
		{ID: "9", Title: "Accordion 1", Type: domain.ContentWebUI, Category: "Accordions", URL: "accordion-1"},
		{ID: "17", Title: "Typography 1", Type: domain.ContentTokens, Category: "Text styles", URL: "https://cdn.example.com/t1"},
	}
}

func newTestEngine(t *testing.T, store Store, clock *fakeClock) *Engine {
	t.Helper()
	table, err := domain.NewCategoryTable(map[string][]string{
		"Accordions":    {"Accordion", "Accordions", "accordion", "accordions"},
		"FAQs":          {"FAQ", "FAQs", "faq"},
		"Video players": {"Video", "Video player", "video"},
	})
	if err != nil {
		t.Fatalf("NewCategoryTable() error = %v", err)
	}
	if clock == nil {
		clock = &fakeClock{now: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)}
	}
	return NewEngine(Config{
		Store:      store,
		Categories: table,
		Filters: map[domain.ContentType]domain.FilterGroup{
			domain.ContentWebUI: {Type: domain.ContentWebUI, Title: "Filter by type", Options: []string{"All elements", "Accordions"}},
		},
		Samples: testSamples(),
		Now:     clock.Now,
		Log:     logger.New("error", false),
	})
}

func TestFetchPageCachesUnfilteredQueries(t *testing.T) {
	store := &fakeStore{rows: layoutRows(3)}
	clock := &fakeClock{now: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)}
	engine := newTestEngine(t, store, clock)
	f := domain.Filter{Type: domain.ContentLayouts}

	first, err := engine.FetchPage(context.Background(), f)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	clock.Advance(4 * time.Minute)
	second, err := engine.FetchPage(context.Background(), f)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}

	if q, _ := store.calls(); q != 1 {
		t.Errorf("expected 1 remote query within TTL, got %d", q)
	}
	if first.Source != SourceLive || second.Source != SourceCache {
		t.Errorf("sources = %s, %s; want live, cache", first.Source, second.Source)
	}
	if len(first.Items) != len(second.Items) || first.Total != second.Total {
		t.Errorf("cached page differs: %+v vs %+v", first, second)
	}

	clock.Advance(2 * time.Minute)
	if _, err := engine.FetchPage(context.Background(), f); err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if q, _ := store.calls(); q != 2 {
		t.Errorf("expected a new remote query after TTL, got %d queries", q)
	}
}

func TestFetchPageNeverCachesSearchOrCategory(t *testing.T) {
	tests := []struct {
		name   string
		filter domain.Filter
	}{
		{"search", domain.Filter{Type: domain.ContentLayouts, Search: "layout"}},
		{"category", domain.Filter{Type: domain.ContentLayouts, Category: "Features"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{rows: layoutRows(3), count: 3}
			engine := newTestEngine(t, store, nil)

			for i := 0; i < 3; i++ {
				page, err := engine.FetchPage(context.Background(), tt.filter)
				if err != nil {
					t.Fatalf("FetchPage() error = %v", err)
				}
				if page.Source != SourceLive {
					t.Errorf("call %d source = %s, want live", i, page.Source)
				}
			}
			if q, c := store.calls(); q != 3 || c != 3 {
				t.Errorf("queries=%d counts=%d, want 3 each", q, c)
			}
		})
	}
}

func TestFetchPageCorrectsKnownTotal(t *testing.T) {
	store := &fakeStore{rows: layoutRows(6), total: 548}
	engine := newTestEngine(t, store, nil)

	page, err := engine.FetchPage(context.Background(), domain.Filter{Type: domain.ContentLayouts, Page: 1})
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if page.Total != 542 {
		t.Errorf("Total = %d, want 542", page.Total)
	}
	if !page.HasMore {
		t.Error("HasMore should be true with 6 of 542 loaded")
	}
}

func TestFetchPageFilteredCountUsesCountQuery(t *testing.T) {
	store := &fakeStore{rows: layoutRows(3), total: 548, count: 548}
	engine := newTestEngine(t, store, nil)

	page, err := engine.FetchPage(context.Background(), domain.Filter{Type: domain.ContentLayouts, ProOnly: domain.Bool(false)})
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if _, c := store.calls(); c != 1 {
		t.Errorf("expected one count query, got %d", c)
	}
	if page.Total != 548 {
		t.Errorf("Total = %d, filtered totals are not corrected", page.Total)
	}
}

func TestFetchPageAccordionScenario(t *testing.T) {
	store := &fakeStore{
		rows: []domain.Component{
			{ID: "a1", Title: "Accordion 1", Type: domain.ContentWebUI, Category: "accordion"},
			{ID: "a2", Title: "Accordion 2", Type: domain.ContentWebUI, Category: "Accordions"},
			{ID: "b1", Title: "Banner 1", Type: domain.ContentWebUI, Category: "Banners"},
		},
		count: 2,
	}
	engine := newTestEngine(t, store, nil)

	page, err := engine.FetchPage(context.Background(), domain.Filter{Type: domain.ContentWebUI, Category: "Accordions"})
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if store.last.Category != "Accordion" {
		t.Errorf("store saw category %q, want canonical Accordion", store.last.Category)
	}
	if len(page.Items) != 2 || page.Total != 2 {
		t.Errorf("got %d items (total %d), want both accordion rows", len(page.Items), page.Total)
	}
}

func TestFetchPageStemCategoryReachesLabelRows(t *testing.T) {
	store := &fakeStore{
		rows: []domain.Component{
			{ID: "v1", Title: "Video 1", Type: domain.ContentWebUI, Category: "Video players"},
			{ID: "v2", Title: "Video 2", Type: domain.ContentWebUI, Category: "Video player"},
			{ID: "m1", Title: "Modal 1", Type: domain.ContentWebUI, Category: "Modals"},
		},
		count: 2,
	}
	engine := newTestEngine(t, store, nil)

	page, err := engine.FetchPage(context.Background(), domain.Filter{Type: domain.ContentWebUI, Category: "Video players"})
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if store.last.Category != "Video" {
		t.Errorf("store saw category %q, want Video", store.last.Category)
	}
	if !slices.Contains(store.last.Aliases, "Video players") {
		t.Errorf("store saw aliases %v, want the UI label", store.last.Aliases)
	}
	if len(page.Items) != 2 || page.Total != 2 {
		t.Errorf("got %d items (total %d), want both video rows", len(page.Items), page.Total)
	}
}

func TestFetchPageAllSentinelDropsCategory(t *testing.T) {
	store := &fakeStore{rows: layoutRows(2)}
	engine := newTestEngine(t, store, nil)

	page, err := engine.FetchPage(context.Background(), domain.Filter{Type: domain.ContentLayouts, Category: "All sections"})
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if store.last.Category != "" {
		t.Errorf("store saw category %q, want none", store.last.Category)
	}
	if _, c := store.calls(); c != 0 {
		t.Errorf("unexpected count query for sentinel category")
	}
	if page.Source != SourceLive {
		t.Errorf("Source = %s", page.Source)
	}
}

func TestFetchPageResolvesURLs(t *testing.T) {
	store := &fakeStore{rows: []domain.Component{
		{ID: "x", Title: "X", Type: domain.ContentTokens, URL: "typography-1"},
		{ID: "y", Title: "Y", Type: domain.ContentTokens, URL: "https://framer.com/m/abs"},
	}}
	engine := newTestEngine(t, store, nil)

	page, err := engine.FetchPage(context.Background(), domain.Filter{Type: domain.ContentTokens})
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if page.Items[0].URL != "typography-1" || page.Items[0].ResolvedURL != "https://framer.com/m/typography-1" {
		t.Errorf("relative item = %+v", page.Items[0])
	}
	if page.Items[1].ResolvedURL != "https://framer.com/m/abs" {
		t.Errorf("absolute item = %+v", page.Items[1])
	}
}

func TestFetchPageStaleFallback(t *testing.T) {
	store := &fakeStore{rows: layoutRows(3)}
	clock := &fakeClock{now: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)}
	engine := newTestEngine(t, store, clock)
	f := domain.Filter{Type: domain.ContentLayouts}

	if _, err := engine.FetchPage(context.Background(), f); err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}

	clock.Advance(time.Hour)
	store.err = errors.New("connection refused")

	page, err := engine.FetchPage(context.Background(), f)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if page.Source != SourceStale {
		t.Errorf("Source = %s, want stale", page.Source)
	}
	if len(page.Items) != 3 || page.Warning == "" {
		t.Errorf("unexpected stale page: %+v", page)
	}
}

func TestFetchPageSampleFallback(t *testing.T) {
	store := &fakeStore{err: errors.New("boom")}
	engine := newTestEngine(t, store, nil)

	page, err := engine.FetchPage(context.Background(), domain.Filter{Type: domain.ContentLayouts})
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if page.Source != SourceSample {
		t.Errorf("Source = %s, want sample", page.Source)
	}
	if page.Total != 2 || len(page.Items) != 2 {
		t.Fatalf("sample page = %+v, want 2 layouts", page)
	}
	for _, item := range page.Items {
		if item.Type != domain.ContentLayouts {
			t.Errorf("sample fallback returned %s item", item.Type)
		}
		if item.ResolvedURL == "" {
			t.Errorf("sample item %s has no resolved URL", item.ID)
		}
	}
}

func TestFetchPageEmptyCatalogFallsBack(t *testing.T) {
	store := &fakeStore{}
	engine := newTestEngine(t, store, nil)

	page, err := engine.FetchPage(context.Background(), domain.Filter{Type: domain.ContentWebUI})
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if page.Source != SourceSample || len(page.Items) != 1 {
		t.Errorf("page = %+v, want sample accordion", page)
	}
}

func TestFetchPageInvalidFilter(t *testing.T) {
	engine := newTestEngine(t, &fakeStore{}, nil)

	_, err := engine.FetchPage(context.Background(), domain.Filter{Type: "widgets"})
	if !errors.Is(err, domain.ErrInvalidFilter) {
		t.Errorf("error = %v, want ErrInvalidFilter", err)
	}
	_, err = engine.FetchPage(context.Background(), domain.Filter{Type: domain.ContentLayouts, Page: -1})
	if !errors.Is(err, domain.ErrInvalidFilter) {
		t.Errorf("error = %v, want ErrInvalidFilter", err)
	}
}

func TestFetchPageDoesNotAliasCache(t *testing.T) {
	store := &fakeStore{rows: layoutRows(2)}
	engine := newTestEngine(t, store, nil)
	f := domain.Filter{Type: domain.ContentLayouts}

	first, _ := engine.FetchPage(context.Background(), f)
	first.Items[0].Title = "mutated"

	second, _ := engine.FetchPage(context.Background(), f)
	if second.Items[0].Title == "mutated" {
		t.Error("caller mutation leaked into the cache")
	}
}

func TestFetchPageWithinTimeout(t *testing.T) {
	block := make(chan struct{})
	store := &fakeStore{rows: layoutRows(3), block: block}
	engine := newTestEngine(t, store, nil)
	f := domain.Filter{Type: domain.ContentLayouts}

	page, err := engine.FetchPageWithin(context.Background(), f, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("FetchPageWithin() error = %v", err)
	}
	if page.Source != SourceTimeout || page.Warning != TimeoutWarning {
		t.Errorf("page = %+v, want timeout sample page", page)
	}
	if len(page.Items) != 2 {
		t.Errorf("timeout page has %d items, want 2 sample layouts", len(page.Items))
	}

	// Let the abandoned fetch complete; it should still populate the cache.
	close(block)
	deadline := time.Now().Add(2 * time.Second)
	for {
		if q, _ := store.calls(); q == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("abandoned fetch never completed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	for time.Now().Before(deadline) {
		page, _ = engine.FetchPage(context.Background(), f)
		if page.Source == SourceCache {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if page.Source != SourceCache {
		t.Errorf("late result was not cached, source = %s", page.Source)
	}
}

func TestFetchPageWithinFastPath(t *testing.T) {
	engine := newTestEngine(t, &fakeStore{rows: layoutRows(1)}, nil)

	page, err := engine.FetchPageWithin(context.Background(), domain.Filter{Type: domain.ContentLayouts}, time.Second)
	if err != nil {
		t.Fatalf("FetchPageWithin() error = %v", err)
	}
	if page.Source != SourceLive {
		t.Errorf("Source = %s, want live", page.Source)
	}
}

func TestGetComponent(t *testing.T) {
	store := &fakeStore{rows: layoutRows(1)}
	engine := newTestEngine(t, store, nil)

	c, err := engine.GetComponent(context.Background(), "l001")
	if err != nil {
		t.Fatalf("GetComponent() error = %v", err)
	}
	if c.ResolvedURL != "https://framer.com/m/layout-1" {
		t.Errorf("ResolvedURL = %q", c.ResolvedURL)
	}

	if _, err := engine.GetComponent(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}

	store.err = errors.New("down")
	c, err = engine.GetComponent(context.Background(), "9")
	if err != nil || c.Title != "Accordion 1" {
		t.Errorf("sample lookup = %+v, %v", c, err)
	}
}

func TestCategories(t *testing.T) {
	engine := newTestEngine(t, &fakeStore{}, nil)

	group, err := engine.Categories(domain.ContentWebUI)
	if err != nil {
		t.Fatalf("Categories() error = %v", err)
	}
	if group.Title != "Filter by type" || group.Options[0] != "All elements" {
		t.Errorf("group = %+v", group)
	}
	if _, err := engine.Categories("widgets"); !errors.Is(err, domain.ErrUnknownContentType) {
		t.Errorf("error = %v, want ErrUnknownContentType", err)
	}
}

func TestRefreshBypassesFreshCache(t *testing.T) {
	store := &fakeStore{rows: layoutRows(2)}
	clock := &fakeClock{now: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)}
	engine := newTestEngine(t, store, clock)
	f := domain.Filter{Type: domain.ContentLayouts}

	if _, err := engine.FetchPage(context.Background(), f); err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	page, err := engine.Refresh(context.Background(), f)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if page.Source != SourceLive {
		t.Errorf("Refresh source = %s, want live", page.Source)
	}
	if q, _ := store.calls(); q != 2 {
		t.Errorf("expected 2 remote queries, got %d", q)
	}

	page, _ = engine.FetchPage(context.Background(), f)
	if page.Source != SourceCache {
		t.Errorf("after Refresh source = %s, want cache", page.Source)
	}
}

func TestFlushCacheDropsStaleFallback(t *testing.T) {
	store := &fakeStore{rows: layoutRows(3)}
	engine := newTestEngine(t, store, nil)
	ctx := context.Background()

	if _, err := engine.FetchPage(ctx, domain.Filter{Type: domain.ContentLayouts}); err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	n, err := engine.FlushCache(ctx)
	if err != nil || n != 1 {
		t.Fatalf("FlushCache() = %d, %v; want 1 page", n, err)
	}

	store.mu.Lock()
	store.err = errors.New("backend down")
	store.mu.Unlock()

	page, err := engine.FetchPage(ctx, domain.Filter{Type: domain.ContentLayouts})
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if page.Source != SourceSample {
		t.Errorf("Source = %s, want sample once the cache is flushed", page.Source)
	}
}
