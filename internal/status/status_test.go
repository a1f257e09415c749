package status

import (
	"errors"
	"testing"
	"time"

	"github.com/phonorad/weatherclock/internal/weather"
)

func TestTrackerRecordRefresh(t *testing.T) {
	tr := NewTracker(time.Now(), "1.1.0", Config{})

	sample := weather.Sample{TempF: 71, Humidity: 65, Forecast: "Sunny"}
	tr.RecordRefresh(sample, nil)

	snap := tr.Snapshot()
	if !snap.WeatherOK {
		t.Error("expected WeatherOK after successful refresh")
	}
	if snap.LastSample.TempF != 71 {
		t.Errorf("got %+v", snap.LastSample)
	}
	if snap.Counts.Refreshes != 1 || snap.Counts.RefreshFailures != 0 {
		t.Errorf("counts %+v", snap.Counts)
	}

	tr.RecordRefresh(weather.Sample{}, errors.New("api down"))
	snap = tr.Snapshot()
	if snap.WeatherOK {
		t.Error("expected WeatherOK cleared after failure")
	}
	if snap.LastSample.TempF != 71 {
		t.Error("failed refresh must not clobber the last good sample")
	}
	if snap.Counts.RefreshFailures != 1 {
		t.Errorf("counts %+v", snap.Counts)
	}
	if snap.LastError != "api down" {
		t.Errorf("got LastError %q", snap.LastError)
	}
}

func TestTrackerRecordSync(t *testing.T) {
	tr := NewTracker(time.Now(), "1.1.0", Config{})
	tr.RecordSync(nil)
	tr.RecordSync(errors.New("ntp timeout"))

	snap := tr.Snapshot()
	if snap.Counts.TimeSyncs != 1 || snap.Counts.SyncFailures != 1 {
		t.Errorf("counts %+v", snap.Counts)
	}
}

func TestSnapshotIsValueCopy(t *testing.T) {
	tr := NewTracker(time.Now(), "1.1.0", Config{})
	tr.SetMode("running")

	snap := tr.Snapshot()
	tr.SetMode("updating")

	if snap.Mode != "running" {
		t.Error("snapshot must not see later mutations")
	}
}

func TestUptime(t *testing.T) {
	start := time.Now().Add(-90 * time.Second)
	tr := NewTracker(start, "1.1.0", Config{})
	up := tr.Snapshot().Uptime()
	if up < 89*time.Second || up > 2*time.Minute {
		t.Errorf("implausible uptime %v", up)
	}
}
