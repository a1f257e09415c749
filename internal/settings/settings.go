// Package settings persists the device configuration captured during
// provisioning. The file is the device's only durable state: deleting it is
// the fail-safe that forces the next boot back into provisioning.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Error classification. ErrMissing and ErrCorrupt come out of Load;
// ErrInvalid out of Validate. All three route the device to provisioning.
var (
	ErrMissing = errors.New("settings: file not found")
	ErrCorrupt = errors.New("settings: file unparsable")
	ErrInvalid = errors.New("settings: invalid")
)

// TimezoneManual selects an explicit UTC offset instead of a named zone.
const TimezoneManual = "manual"

// Settings is the flat document written by the provisioning form. SSID,
// password, zip and timezone come from the user; lat/lon are filled in
// lazily once the zip has been geocoded and persisted back.
type Settings struct {
	SSID     string `json:"ssid" validate:"required"`
	Password string `json:"password" validate:"required"`
	Zip      string `json:"zip" validate:"required,len=5,numeric"`
	Timezone string `json:"timezone" validate:"required,oneof=eastern central mountain pacific alaska hawaii manual"`
	UseDST   bool   `json:"use_dst"`
	// ManualOffset is the UTC offset in hours, kept as the raw form string.
	// Required only when Timezone is "manual"; must parse as a number.
	ManualOffset string `json:"manual_offset,omitempty" validate:"required_if=Timezone manual,omitempty,numeric"`

	Lat float64 `json:"lat,omitempty"`
	Lon float64 `json:"lon,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads and parses the settings file. It distinguishes a missing file
// from a corrupt one so callers can log the difference; both land the
// device in provisioning. Load does not validate; call Validate next.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissing, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &s, nil
}

// Validate reports ErrInvalid when any required key is missing or empty,
// the timezone selector is unknown, or a manual offset is non-numeric.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Save writes the settings atomically: write to a temp file, then rename
// into place.
func (s *Settings) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("settings: marshal: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("settings: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("settings: commit %s: %w", path, err)
	}
	return nil
}

// Invalidate deletes the settings file so the next boot enters
// provisioning. A missing file is not an error.
func Invalidate(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("settings: invalidate: %w", err)
	}
	return nil
}

// HasLocation reports whether lat/lon have been resolved and persisted.
func (s *Settings) HasLocation() bool {
	return s.Lat != 0 || s.Lon != 0
}

// SetLocation records the geocoded coordinates for lazy persistence.
func (s *Settings) SetLocation(lat, lon float64) {
	s.Lat = lat
	s.Lon = lon
}

// OffsetHours returns the manual UTC offset. Only meaningful when Timezone
// is TimezoneManual and Validate has passed.
func (s *Settings) OffsetHours() (float64, error) {
	v, err := strconv.ParseFloat(s.ManualOffset, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: manual_offset %q: %v", ErrInvalid, s.ManualOffset, err)
	}
	return v, nil
}
