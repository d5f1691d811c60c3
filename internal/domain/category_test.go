package domain

import "testing"

func testCategoryTable(t *testing.T) *CategoryTable {
	t.Helper()
	table, err := NewCategoryTable(map[string][]string{
		"Hero Headers": {"Hero headers", "Hero Headers", "Hero header", "Hero Header"},
		"FAQs":         {"FAQ", "FAQs", "Faq", "Faqs", "faq", "faqs"},
		"Accordions":   {"Accordion", "Accordions", "accordion", "accordions"},
		"Marquee":      {"Marquee", "marquee"},
	})
	if err != nil {
		t.Fatalf("NewCategoryTable() error = %v", err)
	}
	return table
}

func TestCategoryTableNormalize(t *testing.T) {
	table := testCategoryTable(t)

	tests := []struct {
		name  string
		label string
		want  string
	}{
		{name: "alias uses first variant", label: "FAQs", want: "FAQ"},
		{name: "hero headers", label: "Hero Headers", want: "Hero headers"},
		{name: "self mapped", label: "Marquee", want: "Marquee"},
		{name: "unknown passes through", label: "Pricing", want: "Pricing"},
		{name: "all sentinel", label: "All sections", want: ""},
		{name: "empty", label: "", want: ""},
		{name: "trimmed", label: "  FAQs ", want: "FAQ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.Normalize(tt.label); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

func TestCategoryTableNormalizeIdempotent(t *testing.T) {
	table := testCategoryTable(t)

	labels := append(table.Labels(), "Pricing", "All elements", "")
	for _, label := range labels {
		once := table.Normalize(label)
		twice := table.Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q then %q", label, once, twice)
		}
	}
}

func TestNewCategoryTableRejectsChains(t *testing.T) {
	_, err := NewCategoryTable(map[string][]string{
		"Buttons": {"Button"},
		"Button":  {"Btn"},
	})
	if err == nil {
		t.Fatal("expected error for non-idempotent alias chain")
	}

	_, err = NewCategoryTable(map[string][]string{"Tabs": {}})
	if err == nil {
		t.Fatal("expected error for empty variant list")
	}
}

func TestMatchCategory(t *testing.T) {
	tests := []struct {
		name     string
		category string
		row      string
		want     bool
	}{
		{name: "singular lowercase row", category: "Accordion", row: "accordion", want: true},
		{name: "plural mixed case row", category: "Accordion", row: "Accordions", want: true},
		{name: "plural filter singular row", category: "Banners", row: "banner", want: true},
		{name: "different category", category: "Accordion", row: "Avatars", want: false},
		{name: "stem matches longer label", category: "Video", row: "Video players", want: true},
		{name: "stem matches singular label", category: "Search", row: "Search bar", want: true},
		{name: "empty row", category: "Video", row: "", want: false},
		{name: "hero heuristic", category: "Hero headers", row: "Hero", want: true},
		{name: "header heuristic", category: "Hero headers", row: "Page Header", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := MatchCategory(tt.category)
			if got := m.Matches(tt.row); got != tt.want {
				t.Errorf("MatchCategory(%q).Matches(%q) = %v, want %v", tt.category, tt.row, got, tt.want)
			}
		})
	}
}

func TestMatchCategoryAliases(t *testing.T) {
	tests := []struct {
		name     string
		category string
		aliases  []string
		row      string
		want     bool
	}{
		{name: "abbreviation reaches label", category: "CTA", aliases: []string{"Call-To-Actions", "Call to action"}, row: "Call-To-Actions", want: true},
		{name: "stem reaches label", category: "Price", aliases: []string{"Pricing", "price"}, row: "Pricing", want: true},
		{name: "without aliases", category: "Price", row: "Pricing", want: false},
		{name: "unrelated row", category: "CTA", aliases: []string{"Call-To-Actions"}, row: "Footers", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := MatchCategory(tt.category, tt.aliases...)
			if got := m.Matches(tt.row); got != tt.want {
				t.Errorf("MatchCategory(%q, %v).Matches(%q) = %v, want %v", tt.category, tt.aliases, tt.row, got, tt.want)
			}
		})
	}
}

func TestCategoryTableAliases(t *testing.T) {
	table, err := NewCategoryTable(map[string][]string{
		"Badges":           {"Badge", "Badges"},
		"Badges and chips": {"Badge", "Chip"},
		"Marquee":          {"Marquee"},
	})
	if err != nil {
		t.Fatalf("NewCategoryTable() error = %v", err)
	}

	got := table.Aliases("Badge")
	want := []string{"Badges", "Badge", "Badges and chips", "Chip"}
	if len(got) != len(want) {
		t.Fatalf("Aliases(Badge) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Aliases(Badge)[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if got := table.Aliases("Navbars"); got != nil {
		t.Errorf("Aliases(unknown) = %v, want nil", got)
	}
	if got := table.Aliases(""); got != nil {
		t.Errorf("Aliases(\"\") = %v, want nil", got)
	}
}

func TestFilterMatchesSampleCategory(t *testing.T) {
	f := Filter{Category: "Price", Aliases: []string{"Pricing"}}
	if !f.MatchesSampleCategory("Pricing") {
		t.Error("alias should match the sample row")
	}
	if f.MatchesSampleCategory("") {
		t.Error("empty sample category should not match")
	}
	if !(Filter{}).MatchesSampleCategory("") {
		t.Error("no category filter should match everything")
	}
}

func TestMatchCategoryEmpty(t *testing.T) {
	m := MatchCategory("  ")
	if len(m.Exact) != 0 || len(m.Contains) != 0 {
		t.Errorf("expected empty match rule, got %+v", m)
	}
}

func TestLooseCategoryMatch(t *testing.T) {
	tests := []struct {
		row, want string
		match     bool
	}{
		{"Hero Headers", "Hero headers", true},
		{"Text styles", "text", true},
		{"Badges", "Badge", true},
		{"SaaS", "Agency", false},
		{"Anything", "", true},
		{"", "Accordions", false},
		{"  ", "Accordions", false},
	}
	for _, tt := range tests {
		if got := LooseCategoryMatch(tt.row, tt.want); got != tt.match {
			t.Errorf("LooseCategoryMatch(%q, %q) = %v, want %v", tt.row, tt.want, got, tt.match)
		}
	}
}
