package habit

// Toggle flips the completion state at dateKey and returns a new map; the
// input is never mutated. An absent key counts as false, so the first
// toggle marks the date complete. Un-completing removes the key so the map
// stays sparse and a double toggle restores the original map exactly.
// Past, present, and future dates may all be toggled.
func Toggle(completions map[string]bool, dateKey string) map[string]bool {
	next := make(map[string]bool, len(completions)+1)
	for k, v := range completions {
		next[k] = v
	}
	if next[dateKey] {
		delete(next, dateKey)
	} else {
		next[dateKey] = true
	}
	return next
}

// Clone returns a shallow copy of the completion map. A nil input yields
// an empty, non-nil map.
func Clone(completions map[string]bool) map[string]bool {
	next := make(map[string]bool, len(completions))
	for k, v := range completions {
		next[k] = v
	}
	return next
}

// Equal reports whether two completion maps mark the same dates complete.
// Explicit false entries count the same as absent ones.
func Equal(a, b map[string]bool) bool {
	for k, v := range a {
		if v && !b[k] {
			return false
		}
	}
	for k, v := range b {
		if v && !a[k] {
			return false
		}
	}
	return true
}
