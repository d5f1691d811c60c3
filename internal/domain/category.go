package domain

import (
	"fmt"
	"sort"
	"strings"
)

// allPrefix marks the "All <noun>" option of every filter group.
const allPrefix = "All "

// CategoryTable maps canonical UI labels to the textual variants
// known to exist upstream. The first variant is the query value.
type CategoryTable struct {
	aliases map[string][]string
}

// NewCategoryTable builds a table and checks it normalizes idempotently.
func NewCategoryTable(aliases map[string][]string) (*CategoryTable, error) {
	t := &CategoryTable{aliases: make(map[string][]string, len(aliases))}
	for label, variants := range aliases {
		if len(variants) == 0 {
			return nil, fmt.Errorf("category %q has no variants", label)
		}
		t.aliases[label] = append([]string(nil), variants...)
	}
	for label, variants := range t.aliases {
		canonical := variants[0]
		if next, ok := t.aliases[canonical]; ok && next[0] != canonical {
			return nil, fmt.Errorf("category %q normalizes to %q which normalizes again to %q",
				label, canonical, next[0])
		}
	}
	return t, nil
}

// IsAll reports whether label is an "All <noun>" sentinel.
func IsAll(label string) bool {
	return strings.HasPrefix(label, allPrefix)
}

// Normalize maps a UI label to the value used for remote queries.
// Sentinels and empty labels return "" (no category filter);
// unknown labels pass through.
func (t *CategoryTable) Normalize(label string) string {
	label = strings.TrimSpace(label)
	if label == "" || IsAll(label) {
		return ""
	}
	if t == nil {
		return label
	}
	if variants, ok := t.aliases[label]; ok {
		return variants[0]
	}
	return label
}

// Labels returns every canonical label of the table.
func (t *CategoryTable) Labels() []string {
	if t == nil {
		return nil
	}
	labels := make([]string, 0, len(t.aliases))
	for label := range t.aliases {
		labels = append(labels, label)
	}
	return labels
}

// Variants returns the known variants of label, nil if unknown.
func (t *CategoryTable) Variants(label string) []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.aliases[label]...)
}

// Aliases returns every spelling that normalizes to value: the labels
// mapping to it and all their variants, in label order. Nil when value
// is not a canonical query value of the table.
func (t *CategoryTable) Aliases(value string) []string {
	if t == nil || value == "" {
		return nil
	}
	labels := t.Labels()
	sort.Strings(labels)

	var out []string
	for _, label := range labels {
		variants := t.Variants(label)
		if variants[0] != value {
			continue
		}
		out = append(out, label)
		out = append(out, variants...)
	}
	return uniqueStrings(out)
}

// CategoryMatch is the tolerant remote matching rule for one category.
//
// A row matches when its lowercased category equals one of Exact, or
// contains one of Contains.
type CategoryMatch struct {
	Exact    []string
	Contains []string
}

// MatchCategory derives the matching rule for a normalized category and
// its known aliases. Every term is compared case-insensitively as itself,
// its singular and its plural, and as a substring. Hero and header
// categories also match any row mentioning either word.
func MatchCategory(category string, aliases ...string) CategoryMatch {
	terms := make([]string, 0, len(aliases)+1)
	for _, term := range append([]string{category}, aliases...) {
		if lower := strings.ToLower(strings.TrimSpace(term)); lower != "" {
			terms = append(terms, lower)
		}
	}
	terms = uniqueStrings(terms)
	if len(terms) == 0 {
		return CategoryMatch{}
	}

	var exact []string
	heroic := false
	for _, term := range terms {
		plural := term
		if !strings.HasSuffix(term, "s") {
			plural = term + "s"
		}
		exact = append(exact, term, strings.TrimSuffix(term, "s"), plural)
		if strings.Contains(term, "hero") || strings.Contains(term, "header") {
			heroic = true
		}
	}

	contains := append([]string(nil), terms...)
	if heroic {
		contains = append(contains, "hero", "header")
	}
	return CategoryMatch{
		Exact:    uniqueStrings(exact),
		Contains: uniqueStrings(contains),
	}
}

// Matches applies the rule to a row category.
func (m CategoryMatch) Matches(rowCategory string) bool {
	row := strings.ToLower(strings.TrimSpace(rowCategory))
	for _, e := range m.Exact {
		if row == e {
			return true
		}
	}
	if row == "" {
		return false
	}
	for _, c := range m.Contains {
		if strings.Contains(row, c) {
			return true
		}
	}
	return false
}

// LooseCategoryMatch is the substring-tolerant rule used against the
// local sample dataset.
func LooseCategoryMatch(rowCategory, category string) bool {
	row := strings.ToLower(strings.TrimSpace(rowCategory))
	want := strings.ToLower(strings.TrimSpace(category))
	if want == "" {
		return true
	}
	if row == "" {
		return false
	}
	return strings.Contains(row, want) ||
		strings.Contains(want, row) ||
		strings.TrimSuffix(row, "s") == strings.TrimSuffix(want, "s")
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// FilterGroup is the option list the UI shows for one content type.
// Options[0] is the "All <noun>" sentinel.
type FilterGroup struct {
	Type    ContentType `json:"type"`
	Title   string      `json:"title"`
	Options []string    `json:"options"`
}
