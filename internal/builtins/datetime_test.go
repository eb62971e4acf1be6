package builtins

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tterrors "github.com/conneroisu/tmpltool/internal/errors"
)

func fixClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := clock
	clock = func() time.Time { return at }
	t.Cleanup(func() { clock = prev })
}

func TestNow(t *testing.T) {
	fixClock(t, time.Date(2024, 2, 29, 12, 30, 0, 0, time.FixedZone("CET", 3600)))

	assert.Equal(t, "2024-02-29T11:30:00Z", mustCall(t, nil, "now"))
	assert.Equal(t, "2024-02-29", mustCall(t, nil, "now", "date"))
	assert.Equal(t, "11:30:00", mustCall(t, nil, "now", "TIME"))
	assert.Equal(t, "2024", mustCall(t, nil, "now", "2006"))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2023-11-14", mustCall(t, nil, "format_date", 1700000000, "date"))
	assert.Equal(t, "2023-11-14T22:13:20Z", mustCall(t, nil, "format_date", int64(1700000000)))
	assert.Equal(t, "2024-01-02 03:04:05", mustCall(t, nil, "format_date", "2024-01-02T03:04:05Z", "datetime"))
	assert.Equal(t, "02/01/2024", mustCall(t, nil, "format_date", "2024-01-02", "02/01/2006"))

	piped, err := pipe(t, "format_date", "2024-01-02T03:04:05+02:00", map[string]any{"format": "rfc3339"})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02T01:04:05Z", piped)

	for _, bad := range []any{true, nil, "yesterday", []any{1}} {
		_, err := call(t, nil, "format_date", bad)
		assert.True(t, tterrors.IsArgumentError(err), "%v", bad)
	}
}

func TestParseDate(t *testing.T) {
	assert.Equal(t, "2024-01-02T00:00:00Z", mustCall(t, nil, "parse_date", "02/01/2024", "02/01/2006"))
	assert.Equal(t, "2024-01-02T00:00:00Z", mustCall(t, nil, "parse_date", "2024-01-02"))
	assert.Equal(t, "2024-01-02T01:04:05Z", mustCall(t, nil, "parse_date", "2024-01-02T03:04:05+02:00"))

	_, err := call(t, nil, "parse_date", "31/31/2024", "02/01/2006")
	assert.True(t, tterrors.IsDomainError(err))

	_, err = call(t, nil, "parse_date", "soon")
	assert.True(t, tterrors.IsArgumentError(err))
}

func TestDateAdd(t *testing.T) {
	tests := []struct {
		duration string
		want     string
	}{
		{"7d", "2024-01-08T00:00:00Z"},
		{"2w", "2024-01-15T00:00:00Z"},
		{"-24h", "2023-12-31T00:00:00Z"},
		{"90m", "2024-01-01T01:30:00Z"},
		{"3600", "2024-01-01T01:00:00Z"},
		{"1.5d", "2024-01-02T12:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.duration, func(t *testing.T) {
			assert.Equal(t, tt.want, mustCall(t, nil, "date_add", "2024-01-01", tt.duration))
		})
	}

	_, err := call(t, nil, "date_add", "2024-01-01", "soon")
	assert.True(t, tterrors.IsArgumentError(err))
	_, err = call(t, nil, "date_add", "2024-01-01", "xd")
	assert.True(t, tterrors.IsArgumentError(err))
}

func TestTimestamp(t *testing.T) {
	assert.Equal(t, int64(1704067200), mustCall(t, nil, "timestamp", "2024-01-01T00:00:00Z"))

	piped, err := pipe(t, "timestamp", "1970-01-01T00:01:00Z", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(60), piped)
}

func TestIsLeapYear(t *testing.T) {
	for year, want := range map[any]bool{2024: true, 2023: false, 1900: false, 2000: true, "2028": true} {
		assert.Equal(t, want, mustCall(t, nil, "is_leap_year", year), "%v", year)
		assert.Equal(t, want, isTest(t, nil, "is_leap_year", year), "%v", year)
	}

	_, err := call(t, nil, "is_leap_year", true)
	assert.True(t, tterrors.IsArgumentError(err))
	assert.False(t, isTest(t, nil, "is_leap_year", true))
	assert.False(t, isTest(t, nil, "is_leap_year", nil))
	assert.False(t, isTest(t, nil, "is_leap_year", "leap"))
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration(" 1w ")
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, d)

	_, err = parseDuration("")
	assert.Error(t, err)
}
