package domain

// DedupeIDs drops empty and repeated ids, keeping first occurrences in order.
func DedupeIDs(ids []string) []string {
	return uniqueStrings(ids)
}

// DiffFavorites computes the remote writes needed to turn current into
// desired: ids to insert and ids to delete. Order follows the inputs.
func DiffFavorites(desired, current []string) (add, remove []string) {
	want := make(map[string]bool, len(desired))
	for _, id := range desired {
		want[id] = true
	}
	have := make(map[string]bool, len(current))
	for _, id := range current {
		have[id] = true
	}

	for _, id := range DedupeIDs(desired) {
		if !have[id] {
			add = append(add, id)
		}
	}
	for _, id := range DedupeIDs(current) {
		if !want[id] {
			remove = append(remove, id)
		}
	}
	return add, remove
}

// SameFavorites reports whether a and b hold the same set of ids.
func SameFavorites(a, b []string) bool {
	add, remove := DiffFavorites(a, b)
	return len(add) == 0 && len(remove) == 0
}
