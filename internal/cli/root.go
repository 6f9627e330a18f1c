package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"calhours/internal/config"
	"calhours/internal/ics"
	appLog "calhours/internal/log"
	"calhours/internal/model"
	"calhours/internal/report"
	"calhours/internal/rules"
)

type options struct {
	startDate  string
	endDate    string
	calendar   string
	allDay     string
	configPath string
	timezone   string
	format     string
	expand     bool
	verbosity  int

	now func() time.Time
}

// NewRootCmd builds the calhours command. Each call returns an independent
// command, so tests can run it repeatedly.
func NewRootCmd(version string) *cobra.Command {
	opts := &options{now: time.Now}

	cmd := &cobra.Command{
		Use:   "calhours -c CALENDAR [flags] [/pattern/replacement/flags ...]",
		Short: "Analyzes calendar events to track time spent on activities.",
		Long: `calhours reads an iCalendar (.ics) file, keeps the events inside the
requested date range, groups them by name and prints the hours spent per
group, longest first.

Events can be grouped under a common name with rules of the form
/toReplace/replaceWith/. The pattern is a regular expression matched at the
start of the event name; on a match the whole name becomes replaceWith.
The first matching rule wins. Regex flags can follow the last slash, e.g.
/toReplace/replaceWith/i for case-insensitive matching (i, L, s, u, x).`,
		Example: `  calhours -c work.ics
  calhours -c work.ics -s 2024-01-01 -e 2024-02-01 '/Meeting.*/Meetings/' '/lunch/Breaks/i'
  calhours -c https://example.com/cal.ics --format table --allday true`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			appLog.Setup(cmd.ErrOrStderr(), opts.verbosity)
			appLog.Debug("command started", "command", cmd.Name(), "args", args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.startDate, "startdate", "s", "", "the start date, inclusive (ISO-8601 compliant, i.e. YYYY-MM-DD)")
	f.StringVarP(&opts.endDate, "enddate", "e", "", "the end date, exclusive (ISO-8601 compliant, i.e. YYYY-MM-DD)")
	f.StringVarP(&opts.calendar, "calendar", "c", "", "the calendar file (.ics) or an http(s)/webcal URL (required)")
	f.StringVar(&opts.allDay, "allday", "", "include all day events (true/false)")
	f.StringVar(&opts.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	f.StringVar(&opts.timezone, "timezone", "", "IANA timezone for dates without an offset (default from config, UTC)")
	f.StringVar(&opts.format, "format", "", "output format: text, table, json or yaml")
	f.BoolVar(&opts.expand, "expand", false, "count every occurrence of recurring events")
	f.CountVarP(&opts.verbosity, "verbose", "v", "increase log verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ArgumentError{Message: err.Error()}
	})

	return cmd
}

// settings is the effective configuration of one run.
type settings struct {
	filter   report.Filter
	location *time.Location
	calendar string
	format   report.Format
	expand   bool
	rawRules []string
	cfg      *config.Config
}

func run(ctx context.Context, cmd *cobra.Command, opts *options, args []string) error {
	s, err := resolve(cmd.Flags(), opts, args)
	if err != nil {
		return err
	}

	rs, err := rules.Parse(s.rawRules)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	// Diagnostics go with the report in text mode and to stderr otherwise,
	// keeping structured output parseable.
	diag := out
	if s.format != report.FormatText {
		diag = cmd.ErrOrStderr()
	}
	announce(diag, rs, s.filter)

	loader := &ics.Loader{
		Fetcher:  ics.NewFetcher(s.cfg.CacheDir),
		Charset:  s.cfg.Encoding,
		Location: s.location,
	}
	events, err := loader.Load(ctx, s.calendar)
	if err != nil {
		return fmt.Errorf("load calendar: %w", err)
	}

	if s.expand {
		events, err = expand(events, s, opts.now())
		if err != nil {
			return err
		}
	}

	res := report.Aggregate(events, s.filter, rs)
	return report.Render(out, res, s.format)
}

// resolve merges the config file with the flags and validates every value
// before any work is done.
func resolve(flags *pflag.FlagSet, opts *options, args []string) (*settings, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, &ArgumentError{Flag: "--config", Message: err.Error()}
	}

	s := &settings{cfg: cfg, expand: cfg.ExpandRecurring}

	tz := cfg.Timezone
	if flags.Changed("timezone") {
		tz = opts.timezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, &ArgumentError{Flag: "--timezone", Message: fmt.Sprintf("unknown timezone '%s'", tz)}
	}
	s.location = loc

	if opts.startDate != "" {
		if s.filter.Start, err = parseDate(opts.startDate, loc); err != nil {
			return nil, &ArgumentError{Flag: "-s/--startdate", Message: err.Error()}
		}
	}
	if opts.endDate != "" {
		if s.filter.End, err = parseDate(opts.endDate, loc); err != nil {
			return nil, &ArgumentError{Flag: "-e/--enddate", Message: err.Error()}
		}
	}

	s.filter.AllDay = cfg.AllDay
	if flags.Changed("allday") {
		if s.filter.AllDay, err = strconv.ParseBool(opts.allDay); err != nil {
			return nil, &ArgumentError{Flag: "--allday", Message: fmt.Sprintf("invalid boolean value: '%s'", opts.allDay)}
		}
	}

	if opts.calendar == "" {
		return nil, &ArgumentError{Message: "the following arguments are required: -c/--calendar"}
	}
	if !ics.IsRemote(opts.calendar) {
		if _, err := os.Stat(opts.calendar); err != nil {
			msg := err.Error()
			if errors.Is(err, fs.ErrNotExist) {
				msg = "no such file or directory"
			}
			return nil, &ArgumentError{Flag: "-c/--calendar", Message: fmt.Sprintf("can't open '%s': %s", opts.calendar, msg)}
		}
	}
	s.calendar = opts.calendar

	format := cfg.Format
	if flags.Changed("format") {
		format = opts.format
	}
	if s.format, err = report.ParseFormat(format); err != nil {
		return nil, &ArgumentError{Flag: "--format", Message: err.Error()}
	}

	if flags.Changed("expand") {
		s.expand = opts.expand
	}

	s.rawRules = make([]string, 0, len(args)+len(cfg.Rules))
	s.rawRules = append(s.rawRules, args...)
	s.rawRules = append(s.rawRules, cfg.Rules...)

	return s, nil
}

func announce(w io.Writer, rs []rules.Rule, f report.Filter) {
	for _, r := range rs {
		fmt.Fprintf(w, "Replacing %s with %s\n", r.Expr(), r.Replacement)
	}
	fmt.Fprintf(w, "Processing events from %s to %s\n", formatBoundary(f.Start), formatBoundary(f.End))
}

// expand bounds recurrence expansion by the report range; an open end
// stops at now.
func expand(events []model.Event, s *settings, now time.Time) ([]model.Event, error) {
	cfg := ics.ExpandConfig{
		RangeStart:             s.filter.Start,
		RangeEnd:               s.filter.End,
		MaxOccurrencesPerEvent: s.cfg.MaxOccurrencesPerEvent,
	}
	if cfg.RangeEnd.IsZero() {
		cfg.RangeEnd = now
	}

	res, err := ics.Expand(events, cfg)
	if err != nil {
		return nil, fmt.Errorf("expand recurring events: %w", err)
	}
	appLog.Info("recurring events expanded", "before", len(events), "after", len(res.Events), "truncated", len(res.TruncatedEvents))
	return res.Events, nil
}
