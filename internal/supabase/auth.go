package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

// Session is what the auth provider returns on sign-in.
type Session struct {
	AccessToken  string          `json:"access_token,omitempty"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	TokenType    string          `json:"token_type,omitempty"`
	ExpiresIn    int             `json:"expires_in,omitempty"`
	User         domain.Identity `json:"user"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type sessionBody struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	User         *authUser `json:"user"`
}

func (b sessionBody) session() *Session {
	s := &Session{
		AccessToken:  b.AccessToken,
		RefreshToken: b.RefreshToken,
		TokenType:    b.TokenType,
		ExpiresIn:    b.ExpiresIn,
	}
	if b.User != nil {
		s.User = domain.Identity{ID: b.User.ID, Email: b.User.Email}
	}
	return s
}

// SignIn exchanges email and password for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	q := url.Values{}
	q.Set("grant_type", "password")

	var body sessionBody
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   authPath + "token",
		query:  q,
		body:   credentials{Email: email, Password: password},
	}, &body)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return body.session(), nil
}

// SignUp registers a user. Without email auto-confirmation the session
// carries no tokens, only the user.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	var raw json.RawMessage
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   authPath + "signup",
		body:   credentials{Email: email, Password: password},
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}

	var body sessionBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("sign up: decode session: %w", err)
	}
	if body.User == nil {
		var u authUser
		if err := json.Unmarshal(raw, &u); err != nil {
			return nil, fmt.Errorf("sign up: decode user: %w", err)
		}
		body.User = &u
	}
	return body.session(), nil
}

// SignOut revokes the session of accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   authPath + "logout",
		token:  accessToken,
	}, nil)
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// User returns the identity owning accessToken.
func (c *Client) User(ctx context.Context, accessToken string) (*domain.Identity, error) {
	var u authUser
	_, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   authPath + "user",
		token:  accessToken,
	}, &u)
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	if u.ID == "" {
		return nil, domain.ErrNotFound
	}
	return &domain.Identity{ID: u.ID, Email: u.Email}, nil
}
