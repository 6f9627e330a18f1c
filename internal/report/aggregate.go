// Package report totals event durations per group and renders the result.
package report

import (
	"sort"
	"time"

	appLog "calhours/internal/log"
	"calhours/internal/model"
	"calhours/internal/rules"
)

// Filter selects which events are counted. Zero Start / End mean unbounded.
type Filter struct {
	// Start is inclusive: events starting before it are skipped.
	Start time.Time
	// End is exclusive: events ending at or after it are skipped.
	End time.Time
	// AllDay counts all-day events, which are skipped otherwise.
	AllDay bool
}

// Includes reports whether ev passes the filter.
func (f Filter) Includes(ev model.Event) bool {
	if !f.AllDay && ev.AllDay {
		return false
	}
	if !f.Start.IsZero() && ev.Start.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && !ev.End.Before(f.End) {
		return false
	}
	return true
}

// Group is the total time spent under one resolved name.
type Group struct {
	Name     string
	Duration time.Duration
}

// Seconds is the group total in seconds.
func (g Group) Seconds() float64 {
	return g.Duration.Seconds()
}

// Hours is the group total in fractional hours.
func (g Group) Hours() float64 {
	return g.Seconds() / 3600.0
}

// Result is the outcome of one aggregation pass.
type Result struct {
	// Groups in the order their name was first seen.
	Groups []Group
	// Total is the summed duration of every counted event.
	Total time.Duration
	// Events is how many events were counted.
	Events int
}

// Aggregate counts every event accepted by f under the name rs resolves it to.
// Each counted event adds its full duration to exactly one group.
func Aggregate(events []model.Event, f Filter, rs []rules.Rule) Result {
	var res Result
	index := make(map[string]int)

	for _, ev := range events {
		if !f.Includes(ev) {
			continue
		}

		d := ev.Duration()
		res.Total += d
		res.Events++

		name := rules.Resolve(rs, ev.Name)
		i, ok := index[name]
		if !ok {
			i = len(res.Groups)
			index[name] = i
			res.Groups = append(res.Groups, Group{Name: name})
		}
		res.Groups[i].Duration += d
	}

	appLog.Info("aggregation completed",
		"events_seen", len(events),
		"events_counted", res.Events,
		"groups", len(res.Groups),
		"total_seconds", res.Total.Seconds(),
	)
	return res
}

// Sorted returns the groups by duration, longest first. Equal durations keep
// first-seen order.
func (r Result) Sorted() []Group {
	out := make([]Group, len(r.Groups))
	copy(out, r.Groups)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Duration > out[j].Duration
	})
	return out
}
