package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	m, err := ParseTime("09:30")
	require.NoError(t, err)
	assert.Equal(t, MinuteOfDay(570), m)
	assert.Equal(t, "09:30", m.String())

	_, err = ParseTime("9h30")
	assert.Error(t, err)

	_, err = ParseTime("25:00")
	assert.Error(t, err)

	_, err = ParseTime("10:75")
	assert.Error(t, err)
}

func TestIntervalOverlaps(t *testing.T) {
	nine, _ := ParseTime("09:00")
	ten, _ := ParseTime("10:00")
	eleven, _ := ParseTime("11:00")
	halfNine, _ := ParseTime("09:30")
	halfTen, _ := ParseTime("10:30")

	a := Interval{Start: nine, End: ten}

	// Adjacent slots are both bookable.
	assert.False(t, a.Overlaps(Interval{Start: ten, End: eleven}))
	assert.False(t, Interval{Start: ten, End: eleven}.Overlaps(a))

	// Partial overlap in either direction.
	assert.True(t, a.Overlaps(Interval{Start: halfNine, End: halfTen}))
	assert.True(t, Interval{Start: halfNine, End: halfTen}.Overlaps(a))

	// Containment.
	assert.True(t, Interval{Start: nine, End: eleven}.Overlaps(Interval{Start: halfNine, End: ten}))
}

func TestOpenInterval(t *testing.T) {
	wh := WorkingHours{
		"monday":  {Start: "09:00", End: "18:00", Active: true},
		"tuesday": {Start: "09:00", End: "18:00", Active: false},
	}

	// 2026-09-07 is a Monday.
	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	iv, err := OpenInterval(wh, monday)
	require.NoError(t, err)
	require.NotNil(t, iv)
	assert.Equal(t, "09:00", iv.Start.String())
	assert.Equal(t, "18:00", iv.End.String())

	// Inactive day yields no interval.
	tuesday := monday.AddDate(0, 0, 1)
	iv, err = OpenInterval(wh, tuesday)
	require.NoError(t, err)
	assert.Nil(t, iv)

	// Missing day yields no interval.
	wednesday := monday.AddDate(0, 0, 2)
	iv, err = OpenInterval(wh, wednesday)
	require.NoError(t, err)
	assert.Nil(t, iv)
}

func TestOpenIntervalConfigurationErrors(t *testing.T) {
	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	malformed := WorkingHours{
		"monday": {Start: "nine", End: "18:00", Active: true},
	}
	_, err := OpenInterval(malformed, monday)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "monday", cfgErr.Weekday)

	inverted := WorkingHours{
		"monday": {Start: "18:00", End: "09:00", Active: true},
	}
	_, err = OpenInterval(inverted, monday)
	require.ErrorAs(t, err, &cfgErr)
}
