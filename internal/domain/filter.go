package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultPageSize is the fixed catalog page size.
const DefaultPageSize = 20

var ErrInvalidFilter = errors.New("invalid filter")

// Filter describes one catalog request.
type Filter struct {
	Type     ContentType // required
	Category string      // optional, UI label or canonical value
	ProOnly  *bool       // nil = omitted, otherwise is_pro must equal *ProOnly
	Search   string      // case-insensitive title substring
	Page     int         // 1-based
	PageSize int

	// Aliases are the other known spellings of Category, filled in by
	// catalog normalization. They widen matching and are not part of Key.
	Aliases []string
}

// CategoryMatch returns the remote matching rule for the filter category.
func (f Filter) CategoryMatch() CategoryMatch {
	if f.Category == "" {
		return CategoryMatch{}
	}
	return MatchCategory(f.Category, f.Aliases...)
}

// MatchesSampleCategory applies the loose sample rule to the category and
// each of its aliases.
func (f Filter) MatchesSampleCategory(rowCategory string) bool {
	if f.Category == "" {
		return true
	}
	for _, term := range append([]string{f.Category}, f.Aliases...) {
		if LooseCategoryMatch(rowCategory, term) {
			return true
		}
	}
	return false
}

// Validate checks the filter and applies defaults for page and page size.
func (f *Filter) Validate() error {
	if !f.Type.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidFilter, ErrUnknownContentType, f.Type)
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Page < 1 {
		return fmt.Errorf("%w: page must be >= 1, got %d", ErrInvalidFilter, f.Page)
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	f.Search = strings.TrimSpace(f.Search)
	f.Category = strings.TrimSpace(f.Category)
	return nil
}

// Offset returns the zero-based index of the first row of the page.
func (f Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// HasFilters reports whether any narrowing condition beyond the type is set.
// Those queries get a dedicated count query.
func (f Filter) HasFilters() bool {
	return f.Category != "" || f.ProOnly != nil || f.Search != ""
}

// Cacheable reports whether results for f may be cached.
// Search and category queries always go to the remote store.
func (f Filter) Cacheable() bool {
	return f.Search == "" && f.Category == ""
}

// Key serializes the full filter tuple into a stable cache key.
func (f Filter) Key() string {
	pro := "any"
	if f.ProOnly != nil {
		pro = strconv.FormatBool(*f.ProOnly)
	}
	return strings.Join([]string{
		"type=" + string(f.Type),
		"category=" + f.Category,
		"pro=" + pro,
		"search=" + f.Search,
		"page=" + strconv.Itoa(f.Page),
		"size=" + strconv.Itoa(f.PageSize),
	}, "|")
}

// HasMore reports whether more items remain after loaded of total.
func HasMore(loaded, total int) bool {
	return loaded < total
}

// Bool returns a pointer to b, for ProOnly literals.
func Bool(b bool) *bool { return &b }
