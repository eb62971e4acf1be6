package builtins

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/conneroisu/tmpltool/internal/capability"
	tterrors "github.com/conneroisu/tmpltool/internal/errors"
)

// Named layouts accepted wherever a format argument is taken. Any other
// value is used as a Go reference-time layout.
var namedLayouts = map[string]string{
	"rfc3339":  time.RFC3339,
	"rfc1123":  time.RFC1123,
	"rfc822":   time.RFC822,
	"date":     time.DateOnly,
	"time":     time.TimeOnly,
	"datetime": time.DateTime,
	"kitchen":  time.Kitchen,
}

// clock is replaced in tests.
var clock = time.Now

func datetimeCapabilities() []capability.Capability {
	return []capability.Capability{
		&capability.Func{
			Meta: describe("now", CategoryDatetime, "Current time in UTC", "string",
				capability.FunctionOnly,
				args(capability.OptArg("format", "string", "rfc3339", "Named layout or Go reference layout")),
				`{{ now() }}`,
				`{{ now("date") }}`,
			),
			Fn: func(a capability.Args) (any, error) {
				format, err := a.StringOr("format", "rfc3339")
				if err != nil {
					return nil, err
				}
				return clock().UTC().Format(layout(format)), nil
			},
		},
		&capability.Filter{
			Meta: describe("format_date", CategoryDatetime, "Format a date, timestamp or date string", "string",
				capability.FunctionAndFilter,
				args(
					capability.Arg("date", "string|integer", "Date string or Unix timestamp"),
					capability.OptArg("format", "string", "rfc3339", "Named layout or Go reference layout"),
				),
				`{{ format_date(1700000000, "date") }}`,
				`{{ created|format_date:"2006-01-02" }}`,
			),
			Apply: func(value any, a capability.Args) (any, error) {
				t, err := toTime("date", value)
				if err != nil {
					return nil, err
				}
				format, err := a.StringOr("format", "rfc3339")
				if err != nil {
					return nil, err
				}
				return t.Format(layout(format)), nil
			},
		},
		&capability.Filter{
			Meta: describe("parse_date", CategoryDatetime, "Parse a date string and return it as RFC 3339", "string",
				capability.FunctionAndFilter,
				args(
					capability.Arg("string", "string", "Date string"),
					capability.OptArgNoDefault("format", "string", "Layout to parse with; common formats are detected when omitted"),
				),
				`{{ parse_date("02/01/2024", "02/01/2006") }}`,
				`{{ "2024-01-02"|parse_date }}`,
			),
			Apply: func(value any, a capability.Args) (any, error) {
				s, err := capability.ToString("string", value)
				if err != nil {
					return nil, err
				}
				if !a.Has("format") {
					t, err := toTime("string", s)
					if err != nil {
						return nil, err
					}
					return t.Format(time.RFC3339), nil
				}
				format, err := a.String("format")
				if err != nil {
					return nil, err
				}
				t, err := time.Parse(layout(format), s)
				if err != nil {
					return nil, tterrors.NewDomainError("cannot parse date", err)
				}
				return t.UTC().Format(time.RFC3339), nil
			},
		},
		&capability.Filter{
			Meta: describe("date_add", CategoryDatetime, "Add a duration to a date", "string",
				capability.FunctionAndFilter,
				args(
					capability.Arg("date", "string|integer", "Date string or Unix timestamp"),
					capability.Arg("duration", "string", "Duration such as 90m, 36h, 7d or 2w; negative values subtract"),
				),
				`{{ date_add("2024-01-01", "7d") }}`,
				`{{ release|date_add:"-24h" }}`,
			),
			Apply: func(value any, a capability.Args) (any, error) {
				t, err := toTime("date", value)
				if err != nil {
					return nil, err
				}
				raw, err := a.String("duration")
				if err != nil {
					return nil, err
				}
				d, err := parseDuration(raw)
				if err != nil {
					return nil, tterrors.NewArgumentError("duration", err.Error())
				}
				return t.Add(d).Format(time.RFC3339), nil
			},
		},
		&capability.Filter{
			Meta: describe("timestamp", CategoryDatetime, "Unix timestamp in seconds of a date", "integer",
				capability.FunctionAndFilter,
				args(capability.Arg("date", "string", "Date string")),
				`{{ timestamp("2024-01-01T00:00:00Z") }}`,
				`{{ created|timestamp }}`,
			),
			Apply: func(value any, _ capability.Args) (any, error) {
				t, err := toTime("date", value)
				if err != nil {
					return nil, err
				}
				return t.Unix(), nil
			},
		},
		&capability.Predicate{
			Meta: describe("is_leap_year", CategoryDatetime, "Test whether a year is a leap year", "boolean",
				capability.FunctionAndTest,
				args(capability.Arg("year", "integer", "Year number")),
				`{{ is_leap_year(2024) }}`,
				`{% if year|is_leap_year %}366{% endif %}`,
			),
			Check: func(value any) (bool, error) {
				switch value.(type) {
				case bool, nil:
					return false, capability.TypeError("year", "integer", value)
				}
				year, err := cast.ToIntE(value)
				if err != nil {
					return false, capability.TypeError("year", "integer", value)
				}
				return year%4 == 0 && (year%100 != 0 || year%400 == 0), nil
			},
		},
	}
}

func layout(format string) string {
	if l, ok := namedLayouts[strings.ToLower(format)]; ok {
		return l
	}
	return format
}

func toTime(name string, v any) (time.Time, error) {
	switch v.(type) {
	case nil, bool, map[string]any, []any:
		return time.Time{}, capability.TypeError(name, "date", v)
	}
	t, err := cast.ToTimeE(v)
	if err != nil {
		return time.Time{}, tterrors.NewArgumentError(name, "not a recognizable date: "+err.Error())
	}
	return t.UTC(), nil
}

// parseDuration extends time.ParseDuration with day and week units and
// treats a bare number as seconds.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}

	for suffix, unit := range map[string]time.Duration{"d": 24 * time.Hour, "w": 7 * 24 * time.Hour} {
		if num, ok := strings.CutSuffix(s, suffix); ok {
			n, err := strconv.ParseFloat(num, 64)
			if err != nil {
				return 0, err
			}
			return time.Duration(n * float64(unit)), nil
		}
	}
	return time.ParseDuration(s)
}
