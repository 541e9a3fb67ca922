package query

import "sort"

// sortActivity orders a feed reverse-chronologically. Ties order leads before
// page views so the feed is deterministic.
func sortActivity(items []ActivityItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].OccurredAt.Equal(items[j].OccurredAt) {
			return items[i].OccurredAt.After(items[j].OccurredAt)
		}
		return items[i].Type < items[j].Type
	})
}
