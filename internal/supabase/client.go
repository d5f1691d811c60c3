// Package supabase talks to the hosted backend: PostgREST for tables and
// GoTrue for authentication.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/version"
)

const (
	restPath = "/rest/v1/"
	authPath = "/auth/v1/"

	defaultTimeout = 10 * time.Second
	maxErrorBody   = 64 << 10
)

// APIError is a non-2xx answer from PostgREST or GoTrue.
type APIError struct {
	Status  int
	Code    string
	Message string
	Hint    string
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "supabase: status %d", e.Status)
	if e.Code != "" {
		fmt.Fprintf(&b, " (%s)", e.Code)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Hint != "" {
		b.WriteString(" hint: ")
		b.WriteString(e.Hint)
	}
	return b.String()
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Config configures a Client.
type Config struct {
	URL        string
	Key        string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client is a thin PostgREST and GoTrue client.
type Client struct {
	baseURL string
	key     string
	http    *http.Client
	log     logger.Logger
	now     func() time.Time
}

// New creates a client for the project at cfg.URL
func New(cfg Config, log logger.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, errors.New("supabase: url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("supabase: invalid url: %w", err)
	}
	if cfg.Key == "" {
		return nil, errors.New("supabase: key is required")
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: base,
		key:     cfg.Key,
		http:    hc,
		log:     log,
		now:     time.Now,
	}, nil
}

// request describes one call. Token overrides the project key in the
// Authorization header.
type request struct {
	method string
	path   string
	query  url.Values
	body   any
	prefer []string
	token  string
}

func (c *Client) do(ctx context.Context, r request, out any) (http.Header, error) {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	token := r.token
	if token == "" {
		token = c.key
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if len(r.prefer) > 0 {
		req.Header.Set("Prefer", strings.Join(r.prefer, ","))
	}

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("supabase call",
		logger.String("method", r.method),
		logger.String("path", r.path),
		logger.Int("status", resp.StatusCode),
		logger.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.Header, decodeError(resp)
	}
	if out == nil || r.method == http.MethodHead || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.Header, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.Header, fmt.Errorf("decode %s response: %w", r.path, err)
	}
	return resp.Header, nil
}

// decodeError reads PostgREST ({code,message,hint}) and GoTrue
// ({error,error_description} or {code,msg,error_code}) error bodies.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Code             json.RawMessage `json:"code"`
		Message          string          `json:"message"`
		Hint             string          `json:"hint"`
		Msg              string          `json:"msg"`
		Error            string          `json:"error"`
		ErrorDescription string          `json:"error_description"`
		ErrorCode        string          `json:"error_code"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		apiErr.Message = strings.TrimSpace(string(raw))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	apiErr.Code = strings.Trim(string(body.Code), `"`)
	if body.ErrorCode != "" {
		apiErr.Code = body.ErrorCode
	} else if apiErr.Code == "" {
		apiErr.Code = body.Error
	}
	apiErr.Hint = body.Hint
	for _, m := range []string{body.Message, body.Msg, body.ErrorDescription, body.Error} {
		if m != "" {
			apiErr.Message = m
			break
		}
	}
	return apiErr
}

// parseContentRange extracts the total of a "0-19/542" or "*/542" header.
func parseContentRange(h http.Header) (int, error) {
	cr := h.Get("Content-Range")
	i := strings.LastIndexByte(cr, '/')
	if i < 0 {
		return 0, fmt.Errorf("missing count in Content-Range %q", cr)
	}
	total := cr[i+1:]
	if total == "*" {
		return 0, fmt.Errorf("count not computed in Content-Range %q", cr)
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0, fmt.Errorf("bad Content-Range %q: %w", cr, err)
	}
	return n, nil
}

// Ping checks that PostgREST answers.
func (c *Client) Ping(ctx context.Context) error {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("limit", "1")
	_, err := c.do(ctx, request{method: http.MethodHead, path: restPath + "components", query: q}, nil)
	return err
}

// flexID accepts ids stored as text, uuid or integer columns.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// quote wraps a value for use inside PostgREST or=() and in.() lists.
func quote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}
