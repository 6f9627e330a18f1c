package ics

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	appLog "calhours/internal/log"
	"calhours/internal/model"
)

// DefaultCharset is the encoding calendar files are read with unless told otherwise.
const DefaultCharset = "iso-8859-1"

// Loader reads a calendar from a local path or a subscription URL and
// returns its events.
type Loader struct {
	// Fetcher serves http(s):// and webcal:// locations. Nil disables them.
	Fetcher *Fetcher
	// Charset is an IANA charset name. Empty means DefaultCharset.
	Charset string
	// Location is the zone floating and all-day times are read in. Nil means UTC.
	Location *time.Location
}

// IsRemote reports whether location is fetched over HTTP rather than read from disk.
func IsRemote(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") ||
		strings.HasPrefix(l, "https://") ||
		strings.HasPrefix(l, "webcal://")
}

// Load reads, decodes and parses the calendar at location.
func (l *Loader) Load(ctx context.Context, location string) ([]model.Event, error) {
	body, err := l.read(ctx, location)
	if err != nil {
		return nil, err
	}

	r, err := Decode(body, l.Charset)
	if err != nil {
		return nil, err
	}

	events, err := ParseICS(r, l.Location)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", displayLocation(location), err)
	}
	return events, nil
}

func (l *Loader) read(ctx context.Context, location string) ([]byte, error) {
	if !IsRemote(location) {
		appLog.Debug("reading calendar file", "path", location)
		return os.ReadFile(location)
	}
	if l.Fetcher == nil {
		return nil, fmt.Errorf("remote calendar %s: fetching is disabled", redactURL(location))
	}

	res, err := l.Fetcher.FetchOne(ctx, Source{ID: "calendar", URL: webcalToHTTPS(location)})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", redactURL(location), err)
	}
	return res.Body, nil
}

// Decode converts body from the named charset to UTF-8.
func Decode(body []byte, charset string) (io.Reader, error) {
	if charset == "" {
		charset = DefaultCharset
	}
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", charset, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", charset)
	}
	return transform.NewReader(bytes.NewReader(body), enc.NewDecoder()), nil
}

func webcalToHTTPS(u string) string {
	if strings.HasPrefix(strings.ToLower(u), "webcal://") {
		return "https://" + u[len("webcal://"):]
	}
	return u
}

func displayLocation(location string) string {
	if IsRemote(location) {
		return redactURL(location)
	}
	return location
}
