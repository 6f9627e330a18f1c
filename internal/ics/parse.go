package ics

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	_ "time/tzdata" // TZIDs must resolve on hosts without a zoneinfo database

	duration "github.com/ChannelMeter/iso8601duration"
	ical "github.com/arran4/golang-ical"

	appLog "calhours/internal/log"
	"calhours/internal/model"
)

const allDayLength = 24 * time.Hour

// ParseICS parses an ICS stream into events, in the order the VEVENTs
// appear. r must already yield UTF-8; see Decode.
//
//   - Timezones (TZID / VTIMEZONE) are resolved by the ical library.
//   - Floating DATE-TIMEs and DATE values carry no zone and are read in
//     loc, the zone report boundaries are given in. A nil loc means UTC.
//   - All-day events are detected from the DTSTART value form.
//   - RRULE / EXDATE / RECURRENCE-ID are recorded but not expanded;
//     expansion is done by Expand.
//
// A malformed calendar is an error. A single VEVENT without a usable
// DTSTART is an error too: it cannot be placed in any date range.
func ParseICS(r io.Reader, loc *time.Location) ([]model.Event, error) {
	if loc == nil {
		loc = time.UTC
	}

	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	events := make([]model.Event, 0)
	for i, comp := range cal.Events() {
		ev, perr := parseVEvent(comp, loc)
		if perr != nil {
			return nil, fmt.Errorf("parse event #%d (uid %q): %w", i+1, ev.UID, perr)
		}
		events = append(events, ev)
	}

	appLog.Info("ics parse completed", "event_count", len(events))
	return events, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (model.Event, error) {
	var out model.Event

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Name = p.Value
	}

	dtStartProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStartProp == nil {
		return out, errors.New("missing DTSTART")
	}
	out.AllDay = isDateValue(dtStartProp)

	start, err := propertyTime(ve.GetStartAt, dtStartProp, loc)
	if err != nil {
		return out, fmt.Errorf("invalid DTSTART %q: %w", dtStartProp.Value, err)
	}
	out.Start = start

	end, err := resolveEnd(ve, start, out.AllDay, loc)
	if err != nil {
		return out, err
	}
	out.End = end

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	// EXDATE may repeat and may hold a comma-separated list.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			t, err := parseICSTimeIn(part, tzidLocation(p, start.Location()))
			if err != nil {
				appLog.Warn("ignoring invalid EXDATE", "uid", out.UID, "value", part)
				continue
			}
			out.ExDates = append(out.ExDates, t)
		}
	}

	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, err := parseICSTimeIn(p.Value, tzidLocation(p, start.Location())); err == nil {
			out.Recurrence = &t
		} else {
			appLog.Warn("ignoring invalid RECURRENCE-ID", "uid", out.UID, "value", p.Value)
		}
	}

	return out, nil
}

// resolveEnd picks DTEND, then DTSTART+DURATION, then the RFC 5545 default:
// one day for all-day events, zero length otherwise.
func resolveEnd(ve *ical.VEvent, start time.Time, allDay bool, loc *time.Location) (time.Time, error) {
	if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil {
		end, err := propertyTime(ve.GetEndAt, p, loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid DTEND %q: %w", p.Value, err)
		}
		return end, nil
	}

	if p := ve.GetProperty("DURATION"); p != nil {
		d, err := duration.FromString(strings.TrimSpace(p.Value))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid DURATION %q: %w", p.Value, err)
		}
		return start.Add(d.ToDuration()), nil
	}

	if allDay {
		return start.Add(allDayLength), nil
	}
	return start, nil
}

// propertyTime reads a DTSTART/DTEND through get, falling back to the plain
// forms for values the library rejects. The library reads zoneless values in
// time.Local; those are re-anchored in loc.
func propertyTime(get func() (time.Time, error), p *ical.IANAProperty, loc *time.Location) (time.Time, error) {
	t, err := get()
	if err != nil {
		return parseICSTimeIn(p.Value, tzidLocation(p, loc))
	}
	if isFloating(p) {
		t = inLocation(t, loc)
	}
	return t, nil
}

// isFloating reports whether p has neither a TZID nor a UTC 'Z' suffix.
func isFloating(p *ical.IANAProperty) bool {
	if tzs, ok := p.ICalParameters["TZID"]; ok && len(tzs) > 0 {
		return false
	}
	return !strings.HasSuffix(strings.ToUpper(strings.TrimSpace(p.Value)), "Z")
}

// inLocation keeps t's wall clock and moves it to loc.
func inLocation(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// isDateValue reports whether a date property holds a DATE (all-day) rather
// than a DATE-TIME: either VALUE=DATE or a value without a 'T'.
func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func tzidLocation(p *ical.IANAProperty, fallback *time.Location) *time.Location {
	if tzs, ok := p.ICalParameters["TZID"]; ok && len(tzs) > 0 {
		if loc, err := time.LoadLocation(tzs[0]); err == nil {
			return loc
		}
	}
	if fallback == nil {
		return time.UTC
	}
	return fallback
}

func parseICSTimeIn(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	// 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	// 20250101T090000
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, loc)
	}
	// 20250101
	return time.ParseInLocation("20060102", v, loc)
}
