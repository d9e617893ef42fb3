package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToLocalAsUTC(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	local := time.Date(2024, 3, 15, 14, 5, 30, 0, tokyo)

	got := toLocalAsUTC(local)

	// Wall clock reading survives, only the zone label changes
	assert.Equal(t, 14, got.Hour())
	assert.Equal(t, 5, got.Minute())
	assert.Equal(t, time.UTC, got.Location())
}

func TestToActualUTC(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	local := time.Date(2024, 3, 15, 14, 5, 30, 0, tokyo)

	got := toActualUTC(local)

	assert.Equal(t, 5, got.Hour())
	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.Equal(local))
}

func TestFormatTimezone(t *testing.T) {
	tests := []struct {
		offsetMinutes int
		want          string
	}{
		{0, "UTC+0"},
		{60, "UTC+1"},
		{-300, "UTC-5"},
		{330, "UTC+5:30"},
		{-570, "UTC-9:30"},
		{765, "UTC+12:45"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatTimezone(tt.offsetMinutes))
		})
	}
}

func TestFormatExposure(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0.008, "1/125"},
		{0.0005, "1/2000"},
		{1.0 / 3, "1/3"},
		{1, "1"},
		{2.5, "2.5"},
		{30, "30"},
		{0, ""},
		{-1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatExposure(tt.seconds))
		})
	}
}
