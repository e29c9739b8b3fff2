package checklist

import "strings"

// Filter returns the items whose Title contains query, case-insensitively,
// in their original order. The query is not trimmed; an empty query matches
// everything.
func Filter(items []Item, query string) []Item {
	needle := strings.ToLower(query)
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Title()), needle) {
			out = append(out, item)
		}
	}
	return out
}
