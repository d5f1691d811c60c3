package catalog

import (
	"context"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

// Cursor accumulates the pages of one filter for infinite scrolling.
// Items already loaded are never returned twice.
type Cursor struct {
	engine *Engine
	filter domain.Filter
	next   int
	total  int
	seen   map[string]bool
	items  []domain.Component
	last   Source
}

// NewCursor starts a cursor at page 1 of f.
func (e *Engine) NewCursor(f domain.Filter) (*Cursor, error) {
	f.Page = 1
	f, err := e.Normalize(f)
	if err != nil {
		return nil, err
	}
	return &Cursor{
		engine: e,
		filter: f,
		next:   1,
		total:  -1,
		seen:   make(map[string]bool),
	}, nil
}

// Next fetches the following page and returns the newly added items.
func (c *Cursor) Next(ctx context.Context) ([]domain.Component, error) {
	f := c.filter
	f.Page = c.next

	page, err := c.engine.FetchPage(ctx, f)
	if err != nil {
		return nil, err
	}
	c.next++
	c.total = page.Total
	c.last = page.Source

	added := make([]domain.Component, 0, len(page.Items))
	for _, item := range page.Items {
		if c.seen[item.ID] {
			continue
		}
		c.seen[item.ID] = true
		added = append(added, item)
	}
	c.items = append(c.items, added...)
	if len(page.Items) == 0 {
		// An empty page ends the scroll even if the count disagrees.
		c.total = len(c.items)
	}
	return added, nil
}

// HasMore is false exactly when the loaded items reach the reported total.
// Before the first page it is true.
func (c *Cursor) HasMore() bool {
	if c.total < 0 {
		return true
	}
	return domain.HasMore(len(c.items), c.total)
}

// Items returns everything loaded so far.
func (c *Cursor) Items() []domain.Component {
	return domain.CloneComponents(c.items)
}

// Total is the last reported total, -1 before the first page.
func (c *Cursor) Total() int {
	return c.total
}

// Source is the origin of the last page.
func (c *Cursor) Source() Source {
	return c.last
}
