package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Mode          string      `json:"mode"`
	Version       string      `json:"version"`
	SSID          string      `json:"ssid,omitempty"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	StartTime     string      `json:"start_time"`
	Timestamp     string      `json:"timestamp"`
	Weather       WeatherJSON `json:"weather"`
	Counts        CountsJSON  `json:"counts"`
	Config        ConfigJSON  `json:"config"`
}

// WeatherJSON reports the last acquisition outcome.
type WeatherJSON struct {
	OK         bool   `json:"ok"`
	TempF      int    `json:"temp_f"`
	Humidity   int    `json:"humidity"`
	Forecast   string `json:"forecast,omitempty"`
	ObservedAt string `json:"observed_at,omitempty"`
	LastError  string `json:"last_error,omitempty"`
}

// CountsJSON is the JSON representation of work counters.
type CountsJSON struct {
	Refreshes       int `json:"refreshes"`
	RefreshFailures int `json:"refresh_failures"`
	TimeSyncs       int `json:"time_syncs"`
	SyncFailures    int `json:"sync_failures"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	SettingsPath string `json:"settings_path"`
	APIBaseURL   string `json:"api_base_url"`
	NTPHost      string `json:"ntp_host"`
	Broker       string `json:"broker,omitempty"`
	RefreshMs    int64  `json:"refresh_ms"`
	SyncMs       int64  `json:"sync_ms"`
	TickMs       int64  `json:"tick_ms"`
}

func buildInner(snap Snapshot) StatusInner {
	w := WeatherJSON{
		OK:        snap.WeatherOK,
		TempF:     snap.LastSample.TempF,
		Humidity:  snap.LastSample.Humidity,
		Forecast:  snap.LastSample.Forecast,
		LastError: snap.LastError,
	}
	if !snap.LastSample.ObservedAt.IsZero() {
		w.ObservedAt = snap.LastSample.ObservedAt.UTC().Format(time.RFC3339)
	}

	return StatusInner{
		Mode:          snap.Mode,
		Version:       snap.Version,
		SSID:          snap.SSID,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Weather:       w,
		Counts: CountsJSON{
			Refreshes:       snap.Counts.Refreshes,
			RefreshFailures: snap.Counts.RefreshFailures,
			TimeSyncs:       snap.Counts.TimeSyncs,
			SyncFailures:    snap.Counts.SyncFailures,
		},
		Config: ConfigJSON{
			SettingsPath: snap.Config.SettingsPath,
			APIBaseURL:   snap.Config.APIBaseURL,
			NTPHost:      snap.Config.NTPHost,
			Broker:       snap.Config.Broker,
			RefreshMs:    snap.Config.RefreshMs,
			SyncMs:       snap.Config.SyncMs,
			TickMs:       snap.Config.TickMs,
		},
	}
}

// FormatJSON returns the snapshot as the status JSON document served by
// the update server.
func FormatJSON(snap Snapshot) []byte {
	out, err := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	if err != nil {
		// Snapshot contains only plain values; this cannot fail.
		return []byte(`{"status":{}}`)
	}
	return out
}
