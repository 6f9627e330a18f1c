package model

import "time"

// Event is a single VEVENT as read from a calendar, before any recurrence
// expansion. Recurring events carry their rule data so they can be expanded
// later; everything else treats them as one occurrence at Start.
type Event struct {
	UID  string
	Name string // SUMMARY

	AllDay bool

	Start time.Time
	End   time.Time

	RawRRule   string
	ExDates    []time.Time
	Recurrence *time.Time // RECURRENCE-ID, set only on overrides
}

// Duration is End - Start. An event whose end precedes its start counts as zero.
func (e Event) Duration() time.Duration {
	d := e.End.Sub(e.Start)
	if d < 0 {
		return 0
	}
	return d
}

// IsOverride reports whether the event replaces one instance of a recurring event.
func (e Event) IsOverride() bool {
	return e.Recurrence != nil
}

// Occurrence is one concrete instance of an event after expansion.
type Occurrence struct {
	UID string

	// InstanceKey identifies one instance of a recurring event,
	// derived from its start time.
	InstanceKey string

	Name   string
	AllDay bool

	Start time.Time
	End   time.Time
}

// Event converts the occurrence back into a plain, non-recurring event.
func (o Occurrence) Event() Event {
	return Event{
		UID:    o.UID,
		Name:   o.Name,
		AllDay: o.AllDay,
		Start:  o.Start,
		End:    o.End,
	}
}
