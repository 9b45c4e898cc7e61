package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hcmCfg = TimeConfig{
	Timezone:       "Asia/Ho_Chi_Minh",
	CutoffTime:     "20:00",
	MaxAdvanceDays: 7,
}

func mustZone(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestParseDateKey(t *testing.T) {
	t.Run("PlainDate", func(t *testing.T) {
		got, err := ParseDateKey("2025-03-10")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("Idempotent", func(t *testing.T) {
		once, err := ParseDateKey("2025-03-10")
		require.NoError(t, err)
		twice := DateKey(once)
		assert.Equal(t, once, twice)
	})

	t.Run("RFC3339", func(t *testing.T) {
		got, err := ParseDateKey("2025-03-10T15:30:00Z")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("Malformed", func(t *testing.T) {
		for _, s := range []string{"", "10-03-2025", "2025/03/10", "next tuesday"} {
			_, err := ParseDateKey(s)
			assert.ErrorIs(t, err, ErrBadDate, "input %q", s)
		}
	})

	// The normalizer reads the date off the input's UTC rendering and
	// does not re-interpret through any tenant zone. An offset-bearing
	// timestamp near midnight therefore shifts the key by a day; the
	// handlers only ever pass plain YYYY-MM-DD strings.
	t.Run("OffsetTimestampShiftsDay", func(t *testing.T) {
		got, err := ParseDateKey("2025-03-10T01:00:00+07:00")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), got)
	})
}

func TestDateKey_Determinism(t *testing.T) {
	// The key must not depend on the wall-clock zone of the input
	// value, only on its UTC instant.
	hcm := mustZone(t, "Asia/Ho_Chi_Minh")
	inUTC := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	inHCM := inUTC.In(hcm)

	assert.Equal(t, DateKey(inUTC), DateKey(inHCM))
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), DateKey(inHCM))
}

func TestWithinAdvanceWindow(t *testing.T) {
	hcm := mustZone(t, "Asia/Ho_Chi_Minh")
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, hcm) // local day D = 2025-03-10

	day := func(offset int) time.Time {
		return time.Date(2025, 3, 10+offset, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name   string
		target time.Time
		want   bool
	}{
		{"today", day(0), true},
		{"tomorrow", day(1), true},
		{"boundary D+7", day(7), true},
		{"beyond D+8", day(8), false},
		{"far future", day(30), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WithinAdvanceWindow(tt.target, hcmCfg, now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("InvalidZone", func(t *testing.T) {
		cfg := hcmCfg
		cfg.Timezone = "Not/A_Zone"
		_, err := WithinAdvanceWindow(day(1), cfg, now)
		assert.Error(t, err)
	})
}

func TestPastCutoff(t *testing.T) {
	hcm := mustZone(t, "Asia/Ho_Chi_Minh")
	target := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC) // day D

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"just before cutoff on D-1", time.Date(2025, 3, 14, 19, 59, 0, 0, hcm), false},
		{"exactly at cutoff on D-1", time.Date(2025, 3, 14, 20, 0, 0, 0, hcm), false},
		{"just after cutoff on D-1", time.Date(2025, 3, 14, 20, 1, 0, 0, hcm), true},
		{"morning of D-1", time.Date(2025, 3, 14, 8, 0, 0, 0, hcm), false},
		{"days earlier", time.Date(2025, 3, 10, 12, 0, 0, 0, hcm), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PastCutoff(target, hcmCfg, tt.now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	// Ordering for "today" compares against yesterday's cutoff, which
	// has already passed once the working day starts. Same-day ordering
	// is rejected by construction.
	t.Run("SameDayAlwaysPast", func(t *testing.T) {
		for _, hour := range []int{0, 6, 12, 20, 23} {
			now := time.Date(2025, 3, 15, hour, 30, 0, 0, hcm)
			got, err := PastCutoff(target, hcmCfg, now)
			require.NoError(t, err)
			assert.True(t, got, "hour %d", hour)
		}
	})

	t.Run("MalformedCutoff", func(t *testing.T) {
		cfg := hcmCfg
		cfg.CutoffTime = "8pm"
		_, err := PastCutoff(target, cfg, time.Now())
		assert.Error(t, err)
	})
}

func TestTimeConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TimeConfig
		wantErr bool
	}{
		{"valid", TimeConfig{"Asia/Ho_Chi_Minh", "20:00", 7}, false},
		{"min advance", TimeConfig{"UTC", "00:00", 1}, false},
		{"max advance", TimeConfig{"UTC", "23:59", 14}, false},
		{"missing zone", TimeConfig{"", "20:00", 7}, true},
		{"bad cutoff shape", TimeConfig{"UTC", "20:0", 7}, true},
		{"cutoff hour out of range", TimeConfig{"UTC", "24:00", 7}, true},
		{"cutoff minute out of range", TimeConfig{"UTC", "20:60", 7}, true},
		{"advance too small", TimeConfig{"UTC", "20:00", 0}, true},
		{"advance too large", TimeConfig{"UTC", "20:00", 15}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
