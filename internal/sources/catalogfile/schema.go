package catalogfile

// FilterEntry is the filter option list of one content type.
// The first option is the "All <noun>" sentinel.
type FilterEntry struct {
	Title   string   `yaml:"title"`
	Options []string `yaml:"options"`
}

// SampleEntry is one row of the sample dataset served when the
// remote catalog is unavailable.
type SampleEntry struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Type        string `yaml:"type"`
	Category    string `yaml:"category"`
	IsPro       bool   `yaml:"is_pro"`
	URL         string `yaml:"url"`
	Thumbnail   string `yaml:"thumbnail"`
}

// File is the root structure of the catalog metadata document.
//
//	filters:
//	  layouts: { title: Filter by section, options: [All sections, Navbars] }
//	categories:
//	  FAQs: [FAQ, FAQs, faq]
//	samples:
//	  - { id: "1", title: Hero Header 1, type: layouts, category: Hero Headers }
type File struct {
	Filters    map[string]FilterEntry `yaml:"filters"`
	Categories map[string][]string    `yaml:"categories"`
	Samples    []SampleEntry          `yaml:"samples"`
}
