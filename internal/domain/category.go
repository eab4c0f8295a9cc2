package domain

// Categories derives the category index: the wildcard first, then every
// distinct category in the order it first appears in quotes. A stored
// category spelled like the wildcard is not listed twice.
func Categories(quotes []Quote) []string {
	seen := map[string]struct{}{CategoryAll: {}}
	out := make([]string, 0, len(quotes)+1)
	out = append(out, CategoryAll)

	for _, q := range quotes {
		if _, ok := seen[q.Category]; ok {
			continue
		}

		seen[q.Category] = struct{}{}
		out = append(out, q.Category)
	}

	return out
}

// FilterByCategory returns the quotes matching category, in collection order.
func FilterByCategory(quotes []Quote, category string) []Quote {
	out := make([]Quote, 0, len(quotes))

	for _, q := range quotes {
		if q.MatchesCategory(category) {
			out = append(out, q)
		}
	}

	return out
}
