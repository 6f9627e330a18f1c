package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "calhours/internal/log"
	"calhours/internal/model"
)

const defaultMaxOccurrencesPerEvent = 5000

// ExpandConfig controls recurrence expansion.
type ExpandConfig struct {
	// RangeStart / RangeEnd bound the occurrence start times (both inclusive).
	// A zero RangeStart means unbounded; RangeEnd is required since many
	// rules never end.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps each event's expansion. Zero means
	// defaultMaxOccurrencesPerEvent.
	MaxOccurrencesPerEvent int
}

// ExpandResult holds the expanded events and the UIDs that hit the cap.
type ExpandResult struct {
	Events          []model.Event
	TruncatedEvents []string
}

// Expand replaces every recurring event with its occurrences inside the
// configured range. It handles:
//
//   - RRULE-based recurrence
//   - EXDATE exception removal
//   - RECURRENCE-ID overrides, which replace the instance they name
//   - all-day semantics (instances start at midnight and keep their day count)
//
// Non-recurring events pass through untouched. Output keeps the calendar
// order of the input; the occurrences of one event are chronological.
// Overrides that match no generated instance are kept as plain events.
func Expand(events []model.Event, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.IsZero() {
		return result, errors.New("expand: RangeEnd is required")
	}
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	overridesByUID := make(map[string][]int)
	for i, ev := range events {
		if ev.IsOverride() {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], i)
		}
	}

	used := make(map[int]bool)
	expanded := make(map[int][]model.Event)
	for i, ev := range events {
		if ev.IsOverride() || ev.RawRRule == "" {
			continue
		}
		occ, hitCap := expandRecurringEvent(ev, events, overridesByUID[ev.UID], used, cfg)
		expanded[i] = occ
		if hitCap {
			result.TruncatedEvents = append(result.TruncatedEvents, ev.UID)
			appLog.Error("expand: truncated occurrences for UID due to cap",
				errors.New("max occurrences reached"),
				"uid", ev.UID,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
	}

	out := make([]model.Event, 0, len(events))
	for i, ev := range events {
		switch {
		case ev.IsOverride():
			if !used[i] {
				out = append(out, ev)
			}
		case ev.RawRRule != "":
			out = append(out, expanded[i]...)
		default:
			out = append(out, ev)
		}
	}

	result.Events = out
	return result, nil
}

// expandRecurringEvent expands ev within cfg and applies overrides, recording
// consumed override indexes in used. It reports whether the cap was hit.
func expandRecurringEvent(ev model.Event, all []model.Event, overrides []int, used map[int]bool, cfg ExpandConfig) ([]model.Event, bool) {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE, counting event once", err, "uid", ev.UID, "rrule", ev.RawRRule)
		single := ev
		single.RawRRule = ""
		return []model.Event{single}, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	loc := ev.Start.Location()
	occTimes := set.Between(cfg.RangeStart.In(loc), cfg.RangeEnd.In(loc), true)

	hitCap := false
	if len(occTimes) > cfg.MaxOccurrencesPerEvent {
		occTimes = occTimes[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	length := ev.End.Sub(ev.Start)
	days := int(length / allDayLength)
	if days < 1 {
		days = 1
	}

	out := make([]model.Event, 0, len(occTimes))
	for _, occStart := range occTimes {
		var occEnd time.Time
		if ev.AllDay {
			date := time.Date(occStart.Year(), occStart.Month(), occStart.Day(), 0, 0, 0, 0, occStart.Location())
			occStart = date
			occEnd = date.AddDate(0, 0, days)
		} else {
			occEnd = occStart.Add(length)
		}

		occ := model.Occurrence{
			UID:         ev.UID,
			InstanceKey: occStart.Format(time.RFC3339Nano),
			Name:        ev.Name,
			AllDay:      ev.AllDay,
			Start:       occStart,
			End:         occEnd,
		}

		if idx, ok := findOverrideForStart(all, overrides, occStart); ok {
			used[idx] = true
			o := all[idx]
			occ.Name = o.Name
			occ.AllDay = o.AllDay
			occ.Start = o.Start
			occ.End = o.End
		}

		out = append(out, occ.Event())
	}

	return out, hitCap
}

// findOverrideForStart returns the index of the override whose RECURRENCE-ID
// equals instanceStart.
func findOverrideForStart(all []model.Event, overrides []int, instanceStart time.Time) (int, bool) {
	for _, idx := range overrides {
		rid := all[idx].Recurrence
		if rid != nil && rid.Equal(instanceStart) {
			return idx, true
		}
	}
	return 0, false
}
