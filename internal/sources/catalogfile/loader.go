package catalogfile

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

//go:embed default.yaml
var defaultDocument []byte

// Loader reads the catalog metadata document. An empty path selects the
// embedded default.
type Loader struct {
	filePath string
}

// NewLoader creates a new catalog metadata loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Source describes where Load reads from, for logging.
func (l *Loader) Source() string {
	if l.filePath == "" {
		return "embedded"
	}
	return l.filePath
}

// Load reads, parses and validates the document.
func (l *Loader) Load() (*File, error) {
	data := defaultDocument
	if l.filePath != "" {
		raw, err := os.ReadFile(l.filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog file: %w", err)
		}
		data = raw
	}
	return Parse(data)
}

// Parse decodes and validates a catalog metadata document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog yaml: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks content types, option lists, the alias table and
// sample ids.
func (f *File) Validate() error {
	for name, entry := range f.Filters {
		if _, err := domain.ParseContentType(name); err != nil {
			return fmt.Errorf("filters: %w", err)
		}
		if len(entry.Options) == 0 || !domain.IsAll(entry.Options[0]) {
			return fmt.Errorf("filters: %s must start with an \"All ...\" option", name)
		}
	}

	if _, err := domain.NewCategoryTable(f.Categories); err != nil {
		return fmt.Errorf("categories: %w", err)
	}

	seen := make(map[string]bool, len(f.Samples))
	for i, s := range f.Samples {
		if s.ID == "" || s.Title == "" {
			return fmt.Errorf("samples[%d]: id and title are required", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("samples[%d]: duplicate id %q", i, s.ID)
		}
		seen[s.ID] = true
		if _, err := domain.ParseContentType(s.Type); err != nil {
			return fmt.Errorf("samples[%d]: %w", i, err)
		}
	}
	return nil
}
