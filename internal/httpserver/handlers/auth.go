package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/shelf/internal/entitlement"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/mw"
	"github.com/MrSnakeDoc/shelf/internal/identity"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/supabase"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResponse struct {
	Session     *supabase.Session       `json:"session"`
	Favorites   []string                `json:"favorites"`
	Entitlement entitlement.Entitlement `json:"entitlement"`
}

func readCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var c credentialsRequest
	if !decodeBody(w, r, &c) {
		return c, false
	}
	c.Email = strings.TrimSpace(c.Email)
	if c.Email == "" || c.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_body", "email and password are required")
		return c, false
	}
	return c, true
}

func writeAuthError(w http.ResponseWriter, err error) {
	var apiErr *supabase.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		writeError(w, apiErr.Status, "auth_failed", apiErr.Message)
		return
	}
	writeError(w, http.StatusBadGateway, "auth_unavailable", err.Error())
}

// SignIn signs in with email and password, reconciles the device
// favorites with the account and resolves the entitlement.
func SignIn(d deps.Deps) http.HandlerFunc {
	return signInWith(d, func(r *http.Request, c credentialsRequest) (*supabase.Session, error) {
		return d.Auth.SignIn(r.Context(), c.Email, c.Password)
	})
}

// SignUp creates an account. When the provider returns a session right
// away it is handled like a sign-in.
func SignUp(d deps.Deps) http.HandlerFunc {
	return signInWith(d, func(r *http.Request, c credentialsRequest) (*supabase.Session, error) {
		return d.Auth.SignUp(r.Context(), c.Email, c.Password)
	})
}

func signInWith(d deps.Deps, call func(*http.Request, credentialsRequest) (*supabase.Session, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Auth == nil {
			writeError(w, http.StatusNotImplemented, "auth_unavailable", "backend has no auth provider")
			return
		}
		creds, ok := readCredentials(w, r)
		if !ok {
			return
		}

		session, err := call(r, creds)
		if err != nil {
			d.Logger.Warn("sign-in failed", logger.Error(err))
			writeAuthError(w, err)
			return
		}

		resp := signInResponse{Session: session, Favorites: []string{}, Entitlement: entitlement.Free()}
		if session.AccessToken == "" || session.User.ID == "" {
			// Confirmation pending: no session yet.
			writeJSON(w, http.StatusAccepted, resp)
			return
		}

		ctx := r.Context()
		id := &session.User
		if verified, err := d.Authenticator.Authenticate(ctx, session.AccessToken); err == nil {
			id = verified
		}

		ids, err := d.Favorites.Reconcile(ctx, mw.Device(r), id)
		if err != nil {
			d.Logger.Warn("favorites reconcile failed",
				logger.String("user_id", id.ID),
				logger.Error(err))
		} else {
			resp.Favorites = ids
		}
		resp.Entitlement = currentEntitlement(ctx, d, id, true)

		d.Logger.Info("user signed in",
			logger.String("user_id", id.ID),
			logger.String("plan", string(resp.Entitlement.Plan)))
		writeJSON(w, http.StatusOK, resp)
	}
}

// SignOut revokes the session and forgets the user's entitlement state.
// Local favorites stay on the device.
func SignOut(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Auth == nil {
			writeError(w, http.StatusNotImplemented, "auth_unavailable", "backend has no auth provider")
			return
		}
		ctx := r.Context()
		id := identity.FromContext(ctx)
		token, _ := identity.BearerToken(r.Header.Get("Authorization"))

		if err := d.Auth.SignOut(ctx, token); err != nil {
			d.Logger.Warn("sign-out failed upstream", logger.String("user_id", id.ID), logger.Error(err))
		}
		if d.Sessions != nil {
			d.Sessions.End(id.ID)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
