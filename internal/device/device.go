// Package device sequences the three operating modes of the weather clock
// and owns the Running-mode control loop. Mode transitions are
// restart-based: durable state is persisted, then the whole process is
// reinitialized. That is also the error-recovery mechanism: a device in
// a bad state always restarts into a mode derived from what is on disk.
package device

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/phonorad/weatherclock/internal/settings"
	"github.com/phonorad/weatherclock/internal/weather"
)

// Mode is the active operating mode. Exactly one is active per process
// lifetime; changing mode means restarting.
type Mode int

const (
	// Provisioning serves the captive config portal. Entered when no
	// valid Settings exist.
	Provisioning Mode = iota
	// Running is normal clock/weather operation.
	Running
	// Updating serves the firmware update endpoints. Entered from Running
	// by a qualifying button hold.
	Updating
)

func (m Mode) String() string {
	switch m {
	case Provisioning:
		return "provisioning"
	case Running:
		return "running"
	case Updating:
		return "updating"
	default:
		return "unknown"
	}
}

// ErrAuth reports a rejected Wi-Fi association. It is never recovered
// locally: settings are invalidated and the device restarts into
// provisioning.
var ErrAuth = errors.New("device: wifi authentication failed")

// BootMode classifies persisted settings into the boot mode. Any load or
// validation failure lands in Provisioning; a settings file that is
// missing a required key is invalid, never "mostly valid".
func BootMode(s *settings.Settings, err error) Mode {
	if err != nil {
		return Provisioning
	}
	if err := s.Validate(); err != nil {
		return Provisioning
	}
	return Running
}

// Restarter performs the restart half of a mode transition. The real
// implementation terminates the process; tests observe the request
// instead.
type Restarter interface {
	Restart(reason string)
}

// ProcessRestarter exits the process after a short delay so in-flight
// HTTP responses can flush. The process supervisor brings the firmware
// back up, which re-runs boot classification.
type ProcessRestarter struct {
	Delay time.Duration
}

// Restart logs the reason, waits, and exits.
func (p ProcessRestarter) Restart(reason string) {
	log.Printf("restarting: %s", reason)
	time.Sleep(p.Delay)
	os.Exit(0)
}

// FakeRestarter records restart requests for tests.
type FakeRestarter struct {
	Reasons []string
}

// Restart records the reason.
func (f *FakeRestarter) Restart(reason string) {
	f.Reasons = append(f.Reasons, reason)
}

// Network associates with the configured Wi-Fi. Association mechanics are
// an external collaborator; the device only cares about success or an
// authentication rejection.
type Network interface {
	// Connect associates with ssid. An authentication rejection must be
	// reported as (or wrapping) ErrAuth.
	Connect(ssid, password string) error
}

// Renderer draws on the display. Drawing primitives are an external
// collaborator; the loop only pushes strings and samples at it.
type Renderer interface {
	ShowTime(s string)
	ShowDate(s string)
	ShowWeather(sample weather.Sample, label string, icon string)
	ShowWeatherUnavailable()
}
