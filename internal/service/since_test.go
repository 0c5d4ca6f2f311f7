package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSince(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
		loc  *time.Location
		want time.Time
		ok   bool
	}{
		{"rfc3339 utc", "2024-03-01T12:00:00Z", time.UTC, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), true},
		{"fractional seconds", "2024-03-01T12:00:00.123456+00:00", time.UTC, time.Date(2024, 3, 1, 12, 0, 0, 123456000, time.UTC), true},
		{"explicit offset", "2024-03-01T07:00:00-05:00", time.UTC, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), true},
		{"compact offset", "2024-03-01T07:00:00-0500", time.UTC, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), true},
		{"space separator", "2024-03-01 12:00:00Z", time.UTC, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), true},
		{"plus decoded as space", "2024-03-01T14:00:00 02:00", time.UTC, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), true},
		{"naive in utc", "2024-03-01T12:00:00", time.UTC, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), true},
		{"naive in reference zone", "2024-03-01T07:00:00", ny, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), true},
		{"minutes only", "2024-03-01T12:30", time.UTC, time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC), true},
		{"date only", "2024-03-01", time.UTC, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"nil location means utc", "2024-03-01T12:00:00", nil, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), true},
		{"empty", "", time.UTC, time.Time{}, false},
		{"whitespace", "   ", time.UTC, time.Time{}, false},
		{"garbage", "yesterday", time.UTC, time.Time{}, false},
		{"invalid month", "2024-13-01T00:00:00Z", time.UTC, time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseSince(tt.raw, tt.loc)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
			}
		})
	}
}
