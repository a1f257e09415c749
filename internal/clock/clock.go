// Package clock keeps display time: a local monotonic clock corrected by
// periodic network sync, shifted into the configured timezone, and
// formatted for the renderer. Time is always injectable for tests.
package clock

import (
	"context"
	"fmt"
	"time"
)

// Syncer fetches authoritative time from the network. Only success or
// failure matters to callers; the returned instant corrects local drift.
type Syncer interface {
	Now(ctx context.Context) (time.Time, error)
}

// Zone is a timezone selection resolved from settings.
type Zone struct {
	// baseOffset is the standard-time offset from UTC.
	baseOffset time.Duration
	// dst applies the US daylight-saving rule on top of baseOffset.
	dst bool
}

// Named selector offsets (standard time).
var zones = map[string]time.Duration{
	"eastern":  -5 * time.Hour,
	"central":  -6 * time.Hour,
	"mountain": -7 * time.Hour,
	"pacific":  -8 * time.Hour,
	"alaska":   -9 * time.Hour,
	"hawaii":   -10 * time.Hour,
}

// NewZone resolves a named selector. The useDST flag gates the US rule;
// zones that never observe DST should be configured with it off.
func NewZone(selector string, useDST bool) (Zone, error) {
	off, ok := zones[selector]
	if !ok {
		return Zone{}, fmt.Errorf("clock: unknown timezone selector %q", selector)
	}
	return Zone{baseOffset: off, dst: useDST}, nil
}

// ManualZone builds a fixed-offset zone from an explicit hour offset.
func ManualZone(hours float64) Zone {
	return Zone{baseOffset: time.Duration(hours * float64(time.Hour))}
}

// Offset returns the zone's offset from UTC at the given UTC instant,
// including DST when enabled and in effect.
func (z Zone) Offset(utc time.Time) time.Duration {
	if z.dst && inUSDaylightTime(utc.Add(z.baseOffset)) {
		return z.baseOffset + time.Hour
	}
	return z.baseOffset
}

// inUSDaylightTime applies the US rule to a standard-local instant:
// DST runs from 02:00 on the second Sunday of March to 02:00 on the first
// Sunday of November.
func inUSDaylightTime(local time.Time) bool {
	start := nthSunday(local.Year(), time.March, 2).Add(2 * time.Hour)
	end := nthSunday(local.Year(), time.November, 1).Add(2 * time.Hour)
	return !local.Before(start) && local.Before(end)
}

// nthSunday returns midnight of the nth Sunday of the month, in UTC wall
// terms matching the local-standard instants it is compared against.
func nthSunday(year int, month time.Month, n int) time.Time {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (7 - int(t.Weekday())) % 7 // days until the first Sunday
	return t.AddDate(0, 0, offset+(n-1)*7)
}

// Clock converts the host clock into display-local time. Between network
// syncs it free-runs on the host clock plus the last measured skew.
// Not safe for concurrent use; it belongs to the single control loop.
type Clock struct {
	now  func() time.Time
	zone Zone
	skew time.Duration
}

// New creates a Clock in the given zone. now defaults to time.Now.
func New(zone Zone, now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now, zone: zone}
}

// Sync measures skew against the network time source. On failure the
// previous skew remains in effect and the clock keeps free-running.
func (c *Clock) Sync(ctx context.Context, s Syncer) error {
	t, err := s.Now(ctx)
	if err != nil {
		return fmt.Errorf("clock: network sync: %w", err)
	}
	c.skew = t.Sub(c.now())
	return nil
}

// Local returns the current display-local time.
func (c *Clock) Local() time.Time {
	utc := c.now().Add(c.skew).UTC()
	return utc.Add(c.zone.Offset(utc))
}

// IsDaytime reports whether t falls in the 07:00-19:00 display-day window
// used for icon selection.
func IsDaytime(t time.Time) bool {
	h := t.Hour()
	return h >= 7 && h < 19
}

// FormatTime renders the 12-hour clock string, space-padded to a fixed
// width so the renderer overwrites cleanly: " 9:05:07 AM".
func FormatTime(t time.Time) string {
	hour := t.Hour()
	ampm := "AM"
	switch {
	case hour == 0:
		hour = 12
	case hour == 12:
		ampm = "PM"
	case hour > 12:
		hour -= 12
		ampm = "PM"
	}
	return fmt.Sprintf("%2d:%02d:%02d %s", hour, t.Minute(), t.Second(), ampm)
}

// FormatDate renders the short date string, e.g. "Aug 06".
func FormatDate(t time.Time) string {
	return t.Format("Jan 02")
}
