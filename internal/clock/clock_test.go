package clock

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewZoneUnknownSelector(t *testing.T) {
	if _, err := NewZone("lunar", false); err == nil {
		t.Error("expected error for unknown selector")
	}
}

func TestZoneOffsetStandardTime(t *testing.T) {
	z, err := NewZone("eastern", false)
	if err != nil {
		t.Fatal(err)
	}
	utc := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	if got := z.Offset(utc); got != -5*time.Hour {
		t.Errorf("expected -5h, got %v", got)
	}
}

func TestZoneOffsetDST(t *testing.T) {
	z, err := NewZone("eastern", true)
	if err != nil {
		t.Fatal(err)
	}

	// July is deep inside DST.
	july := time.Date(2026, 7, 15, 12, 0, 0, 0, time.UTC)
	if got := z.Offset(july); got != -4*time.Hour {
		t.Errorf("july: expected -4h, got %v", got)
	}

	// January is standard time.
	jan := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	if got := z.Offset(jan); got != -5*time.Hour {
		t.Errorf("january: expected -5h, got %v", got)
	}
}

func TestDSTBoundaries2026(t *testing.T) {
	// 2026: DST starts Sunday March 8 at 02:00, ends Sunday November 1 at
	// 02:00 (local standard / local daylight respectively).
	z, _ := NewZone("eastern", true)

	beforeStart := time.Date(2026, 3, 8, 6, 59, 0, 0, time.UTC) // 01:59 EST
	if got := z.Offset(beforeStart); got != -5*time.Hour {
		t.Errorf("just before start: expected -5h, got %v", got)
	}
	afterStart := time.Date(2026, 3, 8, 7, 1, 0, 0, time.UTC) // 02:01 EST
	if got := z.Offset(afterStart); got != -4*time.Hour {
		t.Errorf("just after start: expected -4h, got %v", got)
	}
	afterEnd := time.Date(2026, 11, 1, 7, 1, 0, 0, time.UTC) // 02:01 EST
	if got := z.Offset(afterEnd); got != -5*time.Hour {
		t.Errorf("just after end: expected -5h, got %v", got)
	}
}

func TestManualZone(t *testing.T) {
	z := ManualZone(-4.5)
	utc := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	want := -4*time.Hour - 30*time.Minute
	if got := z.Offset(utc); got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestClockSyncCorrectsSkew(t *testing.T) {
	host := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	c := New(ManualZone(0), func() time.Time { return host })

	// Network says the host is 90 seconds behind.
	syncer := &FakeSyncer{Time: host.Add(90 * time.Second)}
	if err := c.Sync(context.Background(), syncer); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if got := c.Local(); !got.Equal(host.Add(90 * time.Second)) {
		t.Errorf("expected corrected time, got %v", got)
	}
}

func TestClockSyncFailureKeepsSkew(t *testing.T) {
	host := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	c := New(ManualZone(0), func() time.Time { return host })

	if err := c.Sync(context.Background(), &FakeSyncer{Time: host.Add(time.Minute)}); err != nil {
		t.Fatal(err)
	}
	err := c.Sync(context.Background(), &FakeSyncer{Err: errors.New("ntp down")})
	if err == nil {
		t.Fatal("expected sync error")
	}
	if got := c.Local(); !got.Equal(host.Add(time.Minute)) {
		t.Errorf("failed sync must keep previous skew, got %v", got)
	}
}

func TestFormatTime(t *testing.T) {
	cases := []struct {
		h, m, s int
		want    string
	}{
		{0, 5, 7, "12:05:07 AM"},
		{9, 5, 7, " 9:05:07 AM"},
		{12, 0, 0, "12:00:00 PM"},
		{13, 30, 59, " 1:30:59 PM"},
		{23, 59, 59, "11:59:59 PM"},
	}
	for _, tc := range cases {
		tm := time.Date(2026, 8, 26, tc.h, tc.m, tc.s, 0, time.UTC)
		if got := FormatTime(tm); got != tc.want {
			t.Errorf("FormatTime(%02d:%02d:%02d) = %q, want %q", tc.h, tc.m, tc.s, got, tc.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	tm := time.Date(2026, 8, 6, 0, 0, 0, 0, time.UTC)
	if got := FormatDate(tm); got != "Aug 06" {
		t.Errorf("got %q", got)
	}
}

func TestIsDaytime(t *testing.T) {
	cases := []struct {
		hour int
		want bool
	}{
		{6, false}, {7, true}, {12, true}, {18, true}, {19, false}, {23, false},
	}
	for _, tc := range cases {
		tm := time.Date(2026, 8, 26, tc.hour, 0, 0, 0, time.UTC)
		if got := IsDaytime(tm); got != tc.want {
			t.Errorf("IsDaytime(hour=%d) = %v, want %v", tc.hour, got, tc.want)
		}
	}
}
