// Package rollup computes per-tenant, per-day traffic aggregates from raw
// page-view events and writes them to the daily_stats table.
package rollup

import (
	"sort"

	"github.com/mwhitfield/clientpulse/pkg/models"
)

// DefaultTopN is the truncation size for top-pages and top-referrers lists.
const DefaultTopN = 5

// DayAggregate is the in-memory result of aggregating one tenant-day of
// events, before it is written to a DailyStat row.
type DayAggregate struct {
	PageViews      int
	UniqueVisitors int
	TopPages       []models.PageCount
	TopReferrers   []models.ReferrerCount
}

type groupCount struct {
	key       string
	count     int
	firstSeen int // index of first occurrence in the event scan
}

// Aggregate computes the day summary for the given events, which must all
// belong to one tenant and one UTC day. Events are expected in (created_at,
// id) order; equal counts are tie-broken by first occurrence in that order,
// which makes reruns over unchanged events produce identical output.
func Aggregate(events []*models.PageViewEvent, topN int) DayAggregate {
	if topN <= 0 {
		topN = DefaultTopN
	}

	agg := DayAggregate{
		TopPages:     []models.PageCount{},
		TopReferrers: []models.ReferrerCount{},
	}
	if len(events) == 0 {
		return agg
	}

	agg.PageViews = len(events)

	sessions := make(map[string]struct{})
	pages := make(map[string]*groupCount)
	referrers := make(map[string]*groupCount)

	for i, e := range events {
		sessions[e.SessionID] = struct{}{}

		bump(pages, e.PageURL, i)

		ref := models.DirectReferrer
		if e.Referrer != nil && *e.Referrer != "" {
			ref = *e.Referrer
		}
		bump(referrers, ref, i)
	}

	agg.UniqueVisitors = len(sessions)

	for _, g := range topGroups(pages, topN) {
		agg.TopPages = append(agg.TopPages, models.PageCount{URL: g.key, Count: g.count})
	}
	for _, g := range topGroups(referrers, topN) {
		agg.TopReferrers = append(agg.TopReferrers, models.ReferrerCount{Referrer: g.key, Count: g.count})
	}

	return agg
}

func bump(groups map[string]*groupCount, key string, idx int) {
	g, ok := groups[key]
	if !ok {
		g = &groupCount{key: key, firstSeen: idx}
		groups[key] = g
	}
	g.count++
}

func topGroups(groups map[string]*groupCount, n int) []*groupCount {
	ordered := make([]*groupCount, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].count != ordered[j].count {
			return ordered[i].count > ordered[j].count
		}
		return ordered[i].firstSeen < ordered[j].firstSeen
	})
	if len(ordered) > n {
		ordered = ordered[:n]
	}
	return ordered
}
