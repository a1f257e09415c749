// Package telemetry publishes weather samples and device lifecycle events
// over MQTT. Telemetry is strictly best-effort: a publish failure is
// logged by the caller and dropped, never allowed to disturb the clock.
package telemetry

import (
	"encoding/json"
	"time"

	"github.com/phonorad/weatherclock/internal/weather"
)

// TopicWeather carries one message per weather refresh.
const TopicWeather = "home/weatherclock/weather"

// TopicSystem carries lifecycle events.
const TopicSystem = "home/weatherclock/system"

// Publisher publishes device telemetry.
type Publisher interface {
	// PublishSample sends a weather sample to the broker.
	// Returns error if publishing fails (must not crash the process).
	PublishSample(sample weather.Sample) error

	// PublishSystem sends a lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// SystemEvent is a device lifecycle event.
type SystemEvent struct {
	Timestamp time.Time
	Event     string // e.g. "STARTUP", "SHUTDOWN", "MODE_CHANGE", "UPDATE_APPLIED"
	Detail    string // e.g. the new mode, or a restart reason
	Retained  bool   // whether the broker should retain the message
}

// samplePayload is the wire shape for a weather sample.
type samplePayload struct {
	Weather sampleInner `json:"weather"`
}

type sampleInner struct {
	Timestamp string `json:"timestamp"`
	TempF     int    `json:"temp_f"`
	Humidity  int    `json:"humidity"`
	Forecast  string `json:"forecast"`
}

// FormatSamplePayload creates the JSON payload for a weather sample.
func FormatSamplePayload(sample weather.Sample) ([]byte, error) {
	return json.Marshal(samplePayload{
		Weather: sampleInner{
			Timestamp: sample.ObservedAt.UTC().Format(time.RFC3339),
			TempF:     sample.TempF,
			Humidity:  sample.Humidity,
			Forecast:  sample.Forecast,
		},
	})
}

// systemPayload is the wire shape for a lifecycle event.
type systemPayload struct {
	System systemInner `json:"system"`
}

type systemInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Detail    string `json:"detail,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a lifecycle event.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	return json.Marshal(systemPayload{
		System: systemInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Detail:    event.Detail,
		},
	})
}
