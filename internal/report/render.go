package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"
)

// Format selects how a Result is written.
type Format string

const (
	FormatText  Format = "text"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formats lists the accepted output formats.
var Formats = []Format{FormatText, FormatTable, FormatJSON, FormatYAML}

// ParseFormat validates a format name. Empty means FormatText.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatText, nil
	}
	for _, f := range Formats {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want one of %s)", s, formatList())
}

func formatList() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

type groupSummary struct {
	Name    string  `json:"name" yaml:"name"`
	Seconds float64 `json:"seconds" yaml:"seconds"`
	Hours   float64 `json:"hours" yaml:"hours"`
}

type summary struct {
	Groups       []groupSummary `json:"groups" yaml:"groups"`
	TotalSeconds float64        `json:"total_seconds" yaml:"total_seconds"`
	TotalHours   float64        `json:"total_hours" yaml:"total_hours"`
	Events       int            `json:"events" yaml:"events"`
}

// Render writes r to w in the given format, groups sorted longest first.
func Render(w io.Writer, r Result, format Format) error {
	switch format {
	case FormatText, "":
		return renderText(w, r)
	case FormatTable:
		return renderTable(w, r)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summarize(r))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(summarize(r)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// renderText prints one "name: hours" line per group.
func renderText(w io.Writer, r Result) error {
	for _, g := range r.Sorted() {
		if _, err := fmt.Fprintf(w, "%s: %s\n", g.Name, FormatHours(g.Hours())); err != nil {
			return err
		}
	}
	return nil
}

func renderTable(w io.Writer, r Result) error {
	data := pterm.TableData{{"Group", "Hours", "Share"}}
	for _, g := range r.Sorted() {
		data = append(data, []string{g.Name, FormatHours(g.Hours()), share(g.Duration.Seconds(), r.Total.Seconds())})
	}
	data = append(data, []string{"Total", FormatHours(r.Total.Hours()), share(r.Total.Seconds(), r.Total.Seconds())})

	out, err := pterm.DefaultTable.
		WithHasHeader().
		WithHeaderStyle(pterm.NewStyle()).
		WithSeparatorStyle(pterm.NewStyle()).
		WithRightAlignment().
		WithData(data).
		Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func summarize(r Result) summary {
	s := summary{
		Groups:       make([]groupSummary, 0, len(r.Groups)),
		TotalSeconds: r.Total.Seconds(),
		TotalHours:   r.Total.Hours(),
		Events:       r.Events,
	}
	for _, g := range r.Sorted() {
		s.Groups = append(s.Groups, groupSummary{Name: g.Name, Seconds: g.Seconds(), Hours: g.Hours()})
	}
	return s
}

func share(part, total float64) string {
	if total == 0 {
		return "-"
	}
	return strconv.FormatFloat(100*part/total, 'f', 1, 64) + "%"
}

// FormatHours renders a float the shortest way that round-trips, always
// with a fractional part or an exponent: 1.5, 0.25, 2.0, 1e-05.
func FormatHours(h float64) string {
	if h == 0 {
		return "0.0"
	}
	if a := math.Abs(h); a >= 1e16 || a < 1e-4 {
		return strconv.FormatFloat(h, 'e', -1, 64)
	}
	s := strconv.FormatFloat(h, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
