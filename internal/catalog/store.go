package catalog

import (
	"context"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

// Store is the remote catalog. The filter it receives is validated and its
// category already normalized; implementations apply the tolerant matching
// rule from domain.MatchCategory.
type Store interface {
	// QueryComponents returns one page ordered by title together with the
	// count reported by the paged query.
	QueryComponents(ctx context.Context, f domain.Filter) ([]domain.Component, int, error)

	// CountComponents runs a count-only query with the same conditions.
	CountComponents(ctx context.Context, f domain.Filter) (int, error)

	// GetComponent returns a single component or domain.ErrNotFound.
	GetComponent(ctx context.Context, id string) (*domain.Component, error)
}
