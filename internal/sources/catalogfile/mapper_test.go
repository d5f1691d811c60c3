package catalogfile

import (
	"strings"
	"testing"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

func TestMapperMap(t *testing.T) {
	f := &File{
		Filters: map[string]FilterEntry{
			"templates": {Title: "Filter by category", Options: []string{"All categories", "SaaS"}},
		},
		Categories: map[string][]string{"FAQs": {"FAQ", "FAQs"}},
		Samples: []SampleEntry{
			{ID: "22", Title: "SaaS - Cloud", Type: "templates", Category: "SaaS", URL: "saas-cloud"},
			{ID: "23", Title: "SaaS - ERP", Type: "Templates", Category: "SaaS", IsPro: true},
		},
	}

	cat, err := NewMapper().Map(f)
	if err != nil {
		t.Fatalf("Map() error = %v", err)
	}

	group, ok := cat.Filters[domain.ContentTemplates]
	if !ok || group.Title != "Filter by category" || len(group.Options) != 2 {
		t.Errorf("unexpected filter group: %+v", group)
	}
	if cat.Categories.Normalize("FAQs") != "FAQ" {
		t.Errorf("Normalize(FAQs) = %q", cat.Categories.Normalize("FAQs"))
	}
	if len(cat.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(cat.Samples))
	}
	if cat.Samples[1].Type != domain.ContentTemplates || !cat.Samples[1].IsPro {
		t.Errorf("unexpected sample: %+v", cat.Samples[1])
	}
}

func TestEmbeddedSampleAccordionScenario(t *testing.T) {
	cat, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	f := domain.Filter{Type: domain.ContentWebUI, Category: cat.Categories.Normalize("Accordions"), Page: 1, PageSize: 20}
	items, total := domain.FilterSample(cat.Samples, f)
	if total != 1 || len(items) != 1 || items[0].ID != "9" {
		t.Errorf("accordion sample = %+v (total %d), want id 9", items, total)
	}
}

func TestEmbeddedLabelsMatchTheirRows(t *testing.T) {
	cat, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	for ct, group := range cat.Filters {
		for _, label := range group.Options[1:] {
			rows := []string{label, strings.TrimSuffix(label, "s")}
			if !strings.HasSuffix(label, "s") {
				rows = append(rows, label+"s")
			}

			f := domain.Filter{Type: ct, Category: cat.Categories.Normalize(label)}
			f.Aliases = cat.Categories.Aliases(f.Category)
			m := f.CategoryMatch()

			for _, row := range rows {
				t.Run(string(ct)+"/"+label+"/"+row, func(t *testing.T) {
					if !m.Matches(row) {
						t.Errorf("live rule for %q (query %q) rejects row %q", label, f.Category, row)
					}
					if !f.MatchesSampleCategory(row) {
						t.Errorf("sample rule for %q (query %q) rejects row %q", label, f.Category, row)
					}
				})
			}
		}
	}
}
