package timeline_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/figure-timeline/internal/timeline"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"separated short month and day", "1990-5-3", "001990-05-03 00:00:00"},
		{"negative year only", "-221", "-000221-01-01 00:00:00"},
		{"compact date and time", "19900503 1230", "001990-05-03 12:30:00"},
		{"year only", "1990", "001990-01-01 00:00:00"},
		{"year and month", "1990-05", "001990-05-01 00:00:00"},
		{"run-together month and day", "1990-0503", "001990-05-03 00:00:00"},
		{"full separated", "1990-05-03 12:30:45", "001990-05-03 12:30:45"},
		{"hour only", "1990-05-03 7", "001990-05-03 07:00:00"},
		{"hour and minute", "1990-05-03 7:5", "001990-05-03 07:05:00"},
		{"compact time with seconds", "1990-05-03 123045", "001990-05-03 12:30:45"},
		{"iso timestamp", "2024-05-03T12:34:56.789Z", "002024-05-03 12:34:56"},
		{"surrounding whitespace", "  907  ", "000907-01-01 00:00:00"},
		{"six digit year", "123456", "123456-01-01 00:00:00"},
		{"seven digit year truncated", "1234567", "234567-01-01 00:00:00"},
		{"long year with month truncated", "98765432-12", "765432-12-01 00:00:00"},
		{"negative compact", "-00010203", "-000001-02-03 00:00:00"},
		{"already canonical", "001990-05-03 00:00:00", "001990-05-03 00:00:00"},
		{"already canonical negative", "-000221-01-01 00:00:00", "-000221-01-01 00:00:00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, timeline.Normalize(tc.in))
		})
	}
}

// TestNormalize_unrecognizedPassthrough verifies that input outside the
// grammar comes back byte for byte.
func TestNormalize_unrecognizedPassthrough(t *testing.T) {
	for _, in := range []string{
		"",
		"   ",
		"hello",
		"late spring",
		"+1990",
		"1990-",
		"1990-123",
		"1990-05-",
		"1990-05-123",
		"1990-05-03 123",
		"1990-05-03 12:",
		"1990-05-03 12:30:45 extra",
		"c. 1990",
		"--221",
	} {
		assert.Equal(t, in, timeline.Normalize(in), "input %q", in)
	}
}

func TestNormalize_idempotent(t *testing.T) {
	for _, in := range []string{
		"1990-5-3",
		"-221",
		"19900503 1230",
		"1234567",
		"2024-05-03T12:34:56Z",
		"not a date",
	} {
		once := timeline.Normalize(in)
		assert.Equal(t, once, timeline.Normalize(once), "input %q", in)
	}
}

func TestParse_components(t *testing.T) {
	d, ok := timeline.Parse("-44-3-15 9:05")

	require.True(t, ok)
	assert.Equal(t, timeline.Date{Sign: "-", Year: "44", Month: "3", Day: "15", Hour: "9", Minute: "05"}, d)
	assert.Equal(t, "-000044-03-15 09:05:00", d.String())
}

func TestParse_compactYearSplitOnlyAtEightDigits(t *testing.T) {
	d, ok := timeline.Parse("199005")

	require.True(t, ok)
	assert.Equal(t, "199005", d.Year)
	assert.Empty(t, d.Month)
}

func TestParse_rejects(t *testing.T) {
	_, ok := timeline.Parse("May 3rd")

	assert.False(t, ok)
}

func TestDate_String_defaults(t *testing.T) {
	assert.Equal(t, "000001-01-01 00:00:00", timeline.Date{Year: "1"}.String())
}

func TestIsCanonical(t *testing.T) {
	assert.True(t, timeline.IsCanonical("001990-05-03 00:00:00"))
	assert.True(t, timeline.IsCanonical("-000221-01-01 00:00:00"))
	assert.True(t, timeline.IsCanonical(timeline.Normalize("19900503 1230")))

	assert.False(t, timeline.IsCanonical("1990-05-03 00:00:00"))
	assert.False(t, timeline.IsCanonical("001990-05-03"))
	assert.False(t, timeline.IsCanonical("001990/05/03 00:00:00"))
	assert.False(t, timeline.IsCanonical("hello"))
	assert.False(t, timeline.IsCanonical(""))
}

func TestFormat(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)

	assert.Equal(t, "002024-03-05 07:08:09",
		timeline.Format(time.Date(2024, 3, 5, 7, 8, 9, 999, time.UTC)))
	assert.Equal(t, "002024-03-04 22:00:00",
		timeline.Format(time.Date(2024, 3, 5, 7, 0, 0, 0, tokyo)), "rendered in UTC")
	assert.Equal(t, "-000044-03-15 00:00:00",
		timeline.Format(time.Date(-44, 3, 15, 0, 0, 0, 0, time.UTC)))
	assert.True(t, timeline.IsCanonical(timeline.Format(time.Now())))
}

func TestNormalizeAt(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 30, 0, 0, time.UTC)

	assert.Equal(t, "002026-10-19 12:30:00", timeline.NormalizeAt("", now))
	assert.Equal(t, "002026-10-19 12:30:00", timeline.NormalizeAt(" \t ", now), "whitespace counts as empty")
	assert.Equal(t, "000907-01-01 00:00:00", timeline.NormalizeAt("907", now))
	assert.Equal(t, "late spring", timeline.NormalizeAt("late spring", now), "unrecognized input passes through")
}
