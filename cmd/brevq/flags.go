package main

import (
	"fmt"
	"github.com/modfin/brevq"
	"github.com/modfin/brevq/pkg/blacklist"
	"github.com/modfin/henry/slicez"
	"github.com/urfave/cli/v2"
	"os"
	"strings"
	"time"
)

var contentFlags = []cli.Flag{
	&cli.StringFlag{Name: "from", Usage: "sender, 'email' or 'name <email>', defaults to the server's sender"},
	&cli.StringFlag{Name: "subject", Usage: "subject line"},
	&cli.StringFlag{Name: "html", Usage: "html body"},
	&cli.StringFlag{Name: "html-file", Usage: "read the html body from a file"},
	&cli.StringFlag{Name: "priority", Usage: "now, high, standard or low"},
	&cli.StringFlag{Name: "at", Usage: "earliest send time, RFC3339"},
	&cli.StringFlag{Name: "editable-until", Usage: "edits are locked after this time, RFC3339"},
	&cli.IntFlag{Name: "max-attempts", Usage: "send attempts before the email is failed"},
	&cli.IntSliceFlag{Name: "day", Usage: "allowed weekday, 0 (sunday) to 6, repeatable"},
	&cli.StringSliceFlag{Name: "between", Usage: "allowed time of day, 'HH:MM-HH:MM', repeatable"},
	&cli.StringSliceFlag{Name: "exclude", Usage: "excluded dates, 'YYYY-MM-DD..YYYY-MM-DD[:reason]', repeatable"},
}

func content(c *cli.Context) (brevq.Content, error) {
	var err error
	req := brevq.Content{
		From:     c.String("from"),
		Subject:  c.String("subject"),
		HTML:     c.String("html"),
		Priority: c.String("priority"),
	}
	if path := c.String("html-file"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return req, fmt.Errorf("could not read html file: %w", err)
		}
		req.HTML = string(b)
	}
	if req.ScheduledFor, err = timestamp(c, "at"); err != nil {
		return req, err
	}
	if req.EditableUntil, err = timestamp(c, "editable-until"); err != nil {
		return req, err
	}
	if c.IsSet("max-attempts") {
		n := c.Int("max-attempts")
		req.MaxAttempts = &n
	}
	if req.BlacklistRules, err = rules(c); err != nil {
		return req, err
	}
	return req, nil
}

func timestamp(c *cli.Context, name string) (*time.Time, error) {
	if !c.IsSet(name) {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, c.String(name))
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &t, nil
}

func rules(c *cli.Context) (*blacklist.Rules, error) {
	if !c.IsSet("day") && !c.IsSet("between") && !c.IsSet("exclude") {
		return nil, nil
	}
	r := &blacklist.Rules{DaysOfWeek: c.IntSlice("day")}
	for _, s := range c.StringSlice("between") {
		tr, err := parseBetween(s)
		if err != nil {
			return nil, err
		}
		r.TimeRanges = append(r.TimeRanges, tr)
	}
	for _, s := range c.StringSlice("exclude") {
		dr, err := parseExclude(s)
		if err != nil {
			return nil, err
		}
		r.DateRanges = append(r.DateRanges, dr)
	}
	return r, r.Validate()
}

func parseBetween(s string) (blacklist.TimeRange, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return blacklist.TimeRange{}, fmt.Errorf("--between %q, expected HH:MM-HH:MM", s)
	}
	return blacklist.TimeRange{Start: strings.TrimSpace(parts[0]), End: strings.TrimSpace(parts[1])}, nil
}

// parseExclude reads 'start..end[:reason]'. Both ends are dates in UTC and the
// end date is covered in full.
func parseExclude(s string) (blacklist.DateRange, error) {
	var dr blacklist.DateRange
	span, reason, _ := strings.Cut(s, ":")
	from, to, ok := strings.Cut(span, "..")
	if !ok {
		to = from
	}
	dates := slicez.Map([]string{from, to}, strings.TrimSpace)

	start, err := time.Parse(time.DateOnly, dates[0])
	if err != nil {
		return dr, fmt.Errorf("--exclude %q: %w", s, err)
	}
	end, err := time.Parse(time.DateOnly, dates[1])
	if err != nil {
		return dr, fmt.Errorf("--exclude %q: %w", s, err)
	}
	dr.StartDate = start
	dr.EndDate = end.Add(24*time.Hour - time.Nanosecond)
	dr.Reason = strings.TrimSpace(reason)
	return dr, nil
}
