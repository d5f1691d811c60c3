package catalogfile

import (
	"github.com/MrSnakeDoc/shelf/internal/domain"
)

// Catalog is the mapped form of a metadata document.
type Catalog struct {
	Categories *domain.CategoryTable
	Filters    map[domain.ContentType]domain.FilterGroup
	Samples    []domain.Component
}

// Mapper converts a validated document to domain values
type Mapper struct{}

// NewMapper creates a new catalog metadata mapper
func NewMapper() *Mapper {
	return &Mapper{}
}

// Map converts f. f must have passed Validate.
func (m *Mapper) Map(f *File) (*Catalog, error) {
	table, err := domain.NewCategoryTable(f.Categories)
	if err != nil {
		return nil, err
	}

	filters := make(map[domain.ContentType]domain.FilterGroup, len(f.Filters))
	for name, entry := range f.Filters {
		ct, err := domain.ParseContentType(name)
		if err != nil {
			return nil, err
		}
		filters[ct] = domain.FilterGroup{
			Type:    ct,
			Title:   entry.Title,
			Options: append([]string(nil), entry.Options...),
		}
	}

	samples := make([]domain.Component, 0, len(f.Samples))
	for _, s := range f.Samples {
		ct, err := domain.ParseContentType(s.Type)
		if err != nil {
			return nil, err
		}
		samples = append(samples, domain.Component{
			ID:          s.ID,
			Title:       s.Title,
			Description: s.Description,
			Type:        ct,
			Category:    s.Category,
			IsPro:       s.IsPro,
			URL:         s.URL,
			Thumbnail:   s.Thumbnail,
		})
	}

	return &Catalog{
		Categories: table,
		Filters:    filters,
		Samples:    samples,
	}, nil
}

// Load is the common path: read the document at path (or the embedded
// default) and map it.
func Load(path string) (*Catalog, error) {
	f, err := NewLoader(path).Load()
	if err != nil {
		return nil, err
	}
	return NewMapper().Map(f)
}
