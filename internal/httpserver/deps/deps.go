package deps

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/shelf/internal/catalog"
	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/entitlement"
	"github.com/MrSnakeDoc/shelf/internal/favorites"
	"github.com/MrSnakeDoc/shelf/internal/identity"
	"github.com/MrSnakeDoc/shelf/internal/index"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/supabase"
	"github.com/MrSnakeDoc/shelf/internal/version"
)

// Catalog is the part of the catalog engine the handlers use.
type Catalog interface {
	FetchPageWithin(ctx context.Context, f domain.Filter, wait time.Duration) (*catalog.Page, error)
	GetComponent(ctx context.Context, id string) (*domain.Component, error)
	Categories(ct domain.ContentType) (domain.FilterGroup, error)
	FlushCache(ctx context.Context) (int, error)
}

// Entitlements resolves the access state of an identity.
type Entitlements interface {
	Resolve(ctx context.Context, id *domain.Identity) entitlement.Entitlement
}

// Favorites is the favorites synchronizer.
type Favorites interface {
	Get(ctx context.Context, device string, id *domain.Identity, force bool) ([]string, error)
	Save(ctx context.Context, device string, ids []string, id *domain.Identity) (favorites.SaveResult, error)
	Reconcile(ctx context.Context, device string, id *domain.Identity) ([]string, error)
	Watch(ctx context.Context, device string, id *domain.Identity, fn func([]string)) (*favorites.Subscription, error)
}

// Auth proxies password sign-in to the auth provider. Nil when the
// backend has none.
type Auth interface {
	SignIn(ctx context.Context, email, password string) (*supabase.Session, error)
	SignUp(ctx context.Context, email, password string) (*supabase.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// Usage counts component inserts.
type Usage interface {
	IncrementUsage(ctx context.Context, componentID string) error
	GetUsageStats(ctx context.Context) (map[string]int64, error)
}

// Pinger reports whether a dependency answers.
type Pinger func(ctx context.Context) error

type Deps struct {
	Logger          logger.Logger
	StartTime       time.Time
	Build           version.Info
	TimeNow         func() time.Time       // for testing, defaults to time.Now
	AllowedHosts    []string               // Host headers allowed to access ops endpoints
	AllowedCIDRS    []string               // IPs allowed to access ops endpoints
	AllowedOrigins  []string               // CORS origins (plugin iframes)
	TrustProxy      bool                   // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RateLimitBurst  int                    // per-IP burst on /api
	RateLimitPerMin int                    // per-IP refill on /api
	Backend         string                 // supabase | postgres
	CacheMode       string                 // memory | redis
	FetchTimeout    time.Duration          // caller-side wait for a catalog page
	Catalog         Catalog                // catalog engine
	Entitlements    Entitlements           // entitlement resolver
	Sessions        *entitlement.Sessions  // per-user entitlement state
	Favorites       Favorites              // favorites synchronizer
	Auth            Auth                   // nil when the backend has no auth provider
	Authenticator   identity.Authenticator // bearer token verification
	Usage           Usage                  // nil disables usage counting
	RedisClient     *redis.Client          // nil when the in-process cache is used
	Ready           map[string]Pinger      // dependencies checked by /readyz and /infra
	MemoryIndex     *index.MemoryIndex     // components recently served
	ReloadTrigger   chan struct{}          // Channel to trigger a manual catalog warm
}

// Now returns the injected clock or time.Now.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
