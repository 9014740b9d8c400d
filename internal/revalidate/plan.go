package revalidate

import (
	"cmp"
	"slices"
)

// Plan is the outcome of ordering the files affected by one change.
type Plan struct {
	// Scheduled is revalidated now, trigger first.
	Scheduled []string
	// Deferred waits until the next request for it.
	Deferred []string
}

// BuildPlan keeps the open files among affected, puts trigger first and
// the rest by activity priority, then cuts the list at limit (limit <= 0
// means no limit). affected may contain trigger; duplicates are dropped.
func BuildPlan(trigger string, affected []string, isOpen func(string) bool, act *Activity, limit int) Plan {
	seen := map[string]struct{}{trigger: {}}
	var rest []string
	for _, uri := range affected {
		if _, dup := seen[uri]; dup {
			continue
		}
		seen[uri] = struct{}{}
		if isOpen != nil && !isOpen(uri) {
			continue
		}
		rest = append(rest, uri)
	}
	prio := func(uri string) int {
		if act == nil {
			return 0
		}
		return act.Priority(uri)
	}
	slices.SortStableFunc(rest, func(a, b string) int {
		if c := cmp.Compare(prio(a), prio(b)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	ordered := make([]string, 0, len(rest)+1)
	if trigger != "" && (isOpen == nil || isOpen(trigger)) {
		ordered = append(ordered, trigger)
	}
	ordered = append(ordered, rest...)
	if limit <= 0 || len(ordered) <= limit {
		return Plan{Scheduled: ordered}
	}
	return Plan{Scheduled: ordered[:limit], Deferred: slices.Clone(ordered[limit:])}
}
