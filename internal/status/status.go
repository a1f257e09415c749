// Package status provides a thread-safe status tracker for the weather
// clock. It is read by the update server's status endpoint and by
// telemetry heartbeats.
package status

import (
	"sync"
	"time"

	"github.com/phonorad/weatherclock/internal/weather"
)

// Config contains boot configuration for display.
type Config struct {
	SettingsPath string
	APIBaseURL   string
	NTPHost      string
	Broker       string
	RefreshMs    int64
	SyncMs       int64
	TickMs       int64
}

// Counters tracks work done since startup.
type Counters struct {
	Refreshes       int
	RefreshFailures int
	TimeSyncs       int
	SyncFailures    int
}

// Snapshot is a point-in-time view of device state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Mode       string
	Version    string
	SSID       string
	StartTime  time.Time
	Now        time.Time
	LastSample weather.Sample
	WeatherOK  bool
	LastError  string
	Counts     Counters
	Config     Config
}

// Uptime returns the duration since the device booted.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable device state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time, version and config.
func NewTracker(startTime time.Time, version string, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Version:   version,
			Config:    cfg,
		},
	}
}

// SetMode records the active device mode.
func (t *Tracker) SetMode(mode string) {
	t.mu.Lock()
	t.snap.Mode = mode
	t.mu.Unlock()
}

// SetSSID records the configured network for display.
func (t *Tracker) SetSSID(ssid string) {
	t.mu.Lock()
	t.snap.SSID = ssid
	t.mu.Unlock()
}

// RecordRefresh records the outcome of a weather refresh.
// Called from the control loop after each attempt.
func (t *Tracker) RecordRefresh(sample weather.Sample, err error) {
	t.mu.Lock()
	if err != nil {
		t.snap.Counts.RefreshFailures++
		t.snap.WeatherOK = false
		t.snap.LastError = err.Error()
	} else {
		t.snap.Counts.Refreshes++
		t.snap.WeatherOK = true
		t.snap.LastSample = sample
	}
	t.mu.Unlock()
}

// RecordSync records the outcome of a time sync.
func (t *Tracker) RecordSync(err error) {
	t.mu.Lock()
	if err != nil {
		t.snap.Counts.SyncFailures++
		t.snap.LastError = err.Error()
	} else {
		t.snap.Counts.TimeSyncs++
	}
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the device state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
