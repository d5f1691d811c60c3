// Package identity turns bearer tokens issued by the auth provider into
// domain identities.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

var ErrInvalidToken = errors.New("invalid token")

// Authenticator resolves an access token to an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Identity, error)
}

// Claims is the subset of the auth provider access token we rely on.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// JWTVerifier checks HS256 access tokens locally with the project secret.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a verifier for tokens signed with secret
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Authenticate(_ context.Context, token string) (*domain.Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Role == "anon" {
		return nil, fmt.Errorf("%w: anonymous key", ErrInvalidToken)
	}
	return newIdentity(claims.Subject, claims.Email)
}

// UserLookup asks the auth provider who owns an access token.
type UserLookup interface {
	User(ctx context.Context, accessToken string) (*domain.Identity, error)
}

// RemoteVerifier validates tokens by asking the auth provider. Used when no
// signing secret is configured.
type RemoteVerifier struct {
	users UserLookup
}

// NewRemoteVerifier creates a verifier backed by the auth provider
func NewRemoteVerifier(users UserLookup) *RemoteVerifier {
	return &RemoteVerifier{users: users}
}

func (v *RemoteVerifier) Authenticate(ctx context.Context, token string) (*domain.Identity, error) {
	id, err := v.users.User(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if id == nil {
		return nil, ErrInvalidToken
	}
	return newIdentity(id.ID, id.Email)
}

func newIdentity(sub, email string) (*domain.Identity, error) {
	uid, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	return &domain.Identity{ID: uid.String(), Email: strings.ToLower(strings.TrimSpace(email))}, nil
}

// BearerToken extracts the token of an "Authorization: Bearer" header value.
func BearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// ─────────────────────────────────────────────────────────────────
// Context
// ─────────────────────────────────────────────────────────────────

type ctxKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id *domain.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored in ctx, nil when anonymous.
func FromContext(ctx context.Context) *domain.Identity {
	id, _ := ctx.Value(ctxKey{}).(*domain.Identity)
	return id
}

// Sign issues an HS256 token for id, for tests and local tooling.
func Sign(secret string, id domain.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: id.Email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
