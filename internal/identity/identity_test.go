package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

const (
	testSecret = "super-secret-jwt-token-with-at-least-32-characters"
	testUserID = "8d0f6a6e-2a3b-4c1d-9e8f-0a1b2c3d4e5f"
)

func TestJWTVerifier(t *testing.T) {
	v := NewJWTVerifier(testSecret)

	valid, err := Sign(testSecret, domain.Identity{ID: testUserID, Email: "Ada@Example.com"}, time.Hour)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	expired, _ := Sign(testSecret, domain.Identity{ID: testUserID}, -time.Minute)
	wrongKey, _ := Sign("another-secret-another-secret-another", domain.Identity{ID: testUserID}, time.Hour)
	badSubject, _ := Sign(testSecret, domain.Identity{ID: "not-a-uuid"}, time.Hour)
	anon, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             "anon",
		RegisteredClaims: jwt.RegisteredClaims{Subject: testUserID},
	}).SignedString([]byte(testSecret))

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"valid", valid, false},
		{"expired", expired, true},
		{"wrong key", wrongKey, true},
		{"bad subject", badSubject, true},
		{"anon key", anon, true},
		{"garbage", "abc.def.ghi", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := v.Authenticate(context.Background(), tt.token)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidToken) {
					t.Errorf("error = %v, want ErrInvalidToken", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
			if id.ID != testUserID || id.Email != "ada@example.com" {
				t.Errorf("identity = %+v", id)
			}
		})
	}
}

func TestJWTVerifierRejectsNoneAlgorithm(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: testUserID},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	if _, err := NewJWTVerifier(testSecret).Authenticate(context.Background(), token); err == nil {
		t.Error("unsigned token accepted")
	}
}

type stubUsers struct {
	id  *domain.Identity
	err error
}

func (s stubUsers) User(context.Context, string) (*domain.Identity, error) {
	return s.id, s.err
}

func TestRemoteVerifier(t *testing.T) {
	ok := NewRemoteVerifier(stubUsers{id: &domain.Identity{ID: testUserID, Email: "a@b.c"}})
	id, err := ok.Authenticate(context.Background(), "tok")
	if err != nil || id.ID != testUserID {
		t.Errorf("Authenticate() = %+v, %v", id, err)
	}

	failing := NewRemoteVerifier(stubUsers{err: errors.New("401")})
	if _, err := failing.Authenticate(context.Background(), "tok"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer   xyz ", "xyz", true},
		{"Basic abc", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := BearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("BearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	if FromContext(ctx) != nil {
		t.Error("empty context should be anonymous")
	}
	id := &domain.Identity{ID: testUserID}
	if got := FromContext(WithIdentity(ctx, id)); got != id {
		t.Errorf("FromContext() = %+v", got)
	}
}
