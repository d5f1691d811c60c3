package domain

import "strings"

// FilterSample applies a filter to the local sample dataset and returns
// the requested page together with the size of the filtered set.
func FilterSample(samples []Component, f Filter) ([]Component, int) {
	search := strings.ToLower(f.Search)

	matched := make([]Component, 0, len(samples))
	for _, c := range samples {
		if f.Type != "" && c.Type != f.Type {
			continue
		}
		if !f.MatchesSampleCategory(c.Category) {
			continue
		}
		if f.ProOnly != nil && c.IsPro != *f.ProOnly {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(c.Title), search) {
			continue
		}
		matched = append(matched, c)
	}

	total := len(matched)
	size := f.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	start := f.Offset()
	if start >= total {
		return []Component{}, total
	}
	end := start + size
	if end > total {
		end = total
	}
	return CloneComponents(matched[start:end]), total
}
