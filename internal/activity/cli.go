package activity

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

type CLI struct {
	writer    io.Writer
	service   *Service
	history   History
	logger    *slog.Logger
	level     *slog.LevelVar
	skipTypes []string
}

func NewCLI(w io.Writer, service *Service, history History, logger *slog.Logger, level *slog.LevelVar, skipTypes []string) *CLI {
	return &CLI{
		writer:    w,
		service:   service,
		history:   history,
		logger:    logger,
		level:     level,
		skipTypes: skipTypes,
	}
}

func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		c.Usage()
		return nil
	}

	switch args[0] {
	case "fetch":
		return c.Fetch(ctx, args[1:])
	case "history":
		return c.History(ctx)
	default:
		c.Usage()
	}
	return nil
}

func (c *CLI) Usage() {
	fmt.Fprintf(c.writer, `Usage: gpxfetch [command] [flags]
--help show this message

	fetch    download GPX tracks for activities matching the filters
	         -t <type>         activity type, e.g. running (exact, ignores case)
	         -n <substring>    name substring, ignores case (repeat for OR match)
	         -r <km>           radius in km around the reference coordinate
	         -c "(lat, lon)"   reference coordinate, requires -r; defaults to
	                           the start of the most recent activity
	         -f <and|or>       combinator for the active filters, default and
	         -l <level>        log level: debug, info, warn, error
	         -nowrite          dry run, list matches without downloading
	history  list previously downloaded activities
`)
}

// Fetch parses the filter flags and runs a download batch. All flag and
// filter validation happens here, before any network call is made.
func (c *CLI) Fetch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)

	var names stringList
	var actType, radiusArg, coordArg, combArg, logLevel string
	var noWrite bool
	fs.Var(&names, "n", "activity name substring, ignores case (repeatable)")
	fs.StringVar(&actType, "t", "", "activity type, e.g. running")
	fs.StringVar(&radiusArg, "r", "", "radius in kilometers")
	fs.StringVar(&coordArg, "c", "", `reference coordinate "(lat, lon)"`)
	fs.StringVar(&combArg, "f", "and", "filter combinator: and, or")
	fs.StringVar(&logLevel, "l", "", "log level: debug, info, warn, error")
	fs.BoolVar(&noWrite, "nowrite", false, "dry run without downloading")
	fs.Usage = c.Usage

	if err := fs.Parse(args); err != nil {
		return err
	}

	if logLevel != "" {
		if err := SetLogLevel(c.level, logLevel); err != nil {
			return err
		}
	}

	spec := FilterSpec{
		Names:     names,
		Type:      actType,
		SkipTypes: c.skipTypes,
	}

	if radiusArg != "" {
		r, err := strconv.ParseFloat(radiusArg, 64)
		if err != nil {
			return fmt.Errorf("%w: radius %q is not a number", ErrInvalidFilter, radiusArg)
		}
		spec.Radius = &r
	}

	if coordArg != "" {
		coord, err := ParseCoordinate(coordArg)
		if err != nil {
			return err
		}
		spec.Center = &coord
	}

	comb, err := ParseCombinator(combArg)
	if err != nil {
		return err
	}

	if err := spec.Validate(); err != nil {
		return err
	}

	res, err := c.service.Fetch(ctx, spec, comb, FetchOptions{NoWrite: noWrite})
	if err != nil {
		return err
	}

	fmt.Fprintf(c.writer, "%d activities found, %d matched the filters\n", res.Listed, res.Selected)
	if noWrite {
		fmt.Fprintln(c.writer, "Dry run, nothing downloaded")
		return nil
	}
	fmt.Fprintf(c.writer, "%d written, %d skipped, %d failed\n", res.Written, res.Skipped, res.Failed)

	return nil
}

// History prints the recorded downloads, newest first.
func (c *CLI) History(ctx context.Context) error {
	records, err := c.history.List(ctx)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(c.writer, "No downloads recorded yet")
		return nil
	}

	for _, r := range records {
		fmt.Fprintf(c.writer, "%s\t%s\t%s\t%s\n",
			r.CreatedAt.Format("2006-01-02 15:04"), r.ActivityID, r.Type, r.Filename)
	}

	return nil
}

// SetLogLevel parses a level name and applies it to the handler's LevelVar.
func SetLogLevel(level *slog.LevelVar, s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "", "info":
		level.Set(slog.LevelInfo)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level %q", s)
	}
	return nil
}

// stringList collects repeated occurrences of a flag.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}
