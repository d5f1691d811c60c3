package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ContentType is the closed set of catalog sections.
type ContentType string

const (
	ContentLayouts   ContentType = "layouts"
	ContentWebUI     ContentType = "webui"
	ContentTokens    ContentType = "tokens"
	ContentTemplates ContentType = "templates"
)

// DefaultAssetBase is prefixed to relative asset identifiers.
const DefaultAssetBase = "https://framer.com/m/"

var (
	ErrUnknownContentType = errors.New("unknown content type")
	ErrNotFound           = errors.New("not found")
)

// ContentTypes lists every valid content type in display order.
func ContentTypes() []ContentType {
	return []ContentType{ContentLayouts, ContentWebUI, ContentTokens, ContentTemplates}
}

// ParseContentType validates a raw content type string.
func ParseContentType(s string) (ContentType, error) {
	ct := ContentType(strings.ToLower(strings.TrimSpace(s)))
	if !ct.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownContentType, s)
	}
	return ct, nil
}

// Valid reports whether ct belongs to the closed set.
func (ct ContentType) Valid() bool {
	switch ct {
	case ContentLayouts, ContentWebUI, ContentTokens, ContentTemplates:
		return true
	}
	return false
}

// Component represents a catalog entry as served to the plugin.
//
// Components are owned by the remote catalog and treated as read-only.
// The only locally computed field is ResolvedURL.
type Component struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the opaque catalog identifier.
	ID string `json:"id" yaml:"id"`

	// ─────────────────────────────
	// Catalog attributes
	// ─────────────────────────────

	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Type        ContentType `json:"type" yaml:"type"`

	// Category is free text and inconsistently cased upstream.
	// Example: "Hero Headers", "accordion"
	Category string `json:"category" yaml:"category"`

	// IsPro marks paid items. Using one requires a Pro entitlement.
	IsPro bool `json:"is_pro" yaml:"is_pro"`

	// URL is the primary asset reference, either relative
	// ("Hero-header-1-Lyue.js@o8jazO3DJk1kN3WrrSdv") or absolute.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	Thumbnail string `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`

	// ─────────────────────────────
	// Derived
	// ─────────────────────────────

	// ResolvedURL is URL expanded against the asset base at fetch time.
	ResolvedURL string `json:"resolved_url,omitempty" yaml:"-"`
}

// ResolveAssetURL expands a relative asset identifier against base.
// Absolute URLs and empty references pass through untouched.
func ResolveAssetURL(ref, base string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://") {
		return ref
	}
	if base == "" {
		base = DefaultAssetBase
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + strings.TrimPrefix(ref, "/")
}

// WithResolvedURL returns a copy of c carrying the derived asset URL.
// The original URL is left as fetched.
func (c Component) WithResolvedURL(base string) Component {
	c.ResolvedURL = ResolveAssetURL(c.URL, base)
	return c
}

// CloneComponents copies a page so callers can't alias cached slices.
func CloneComponents(items []Component) []Component {
	if items == nil {
		return []Component{}
	}
	out := make([]Component, len(items))
	copy(out, items)
	return out
}

// CanUse gates drag and insert actions. Free items are always usable,
// pro items only with a Pro entitlement.
func CanUse(c Component, hasPro bool) bool {
	return !c.IsPro || hasPro
}
