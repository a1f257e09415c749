package settings

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func validSettings() *Settings {
	return &Settings{
		SSID:     "homenet",
		Password: "hunter22",
		Zip:      "06810",
		Timezone: "eastern",
		UseDST:   true,
	}
}

func TestValidateAccepts(t *testing.T) {
	if err := validSettings().Validate(); err != nil {
		t.Errorf("expected valid, got %v", err)
	}
}

func TestValidateMissingZip(t *testing.T) {
	s := validSettings()
	s.Zip = ""
	err := s.Validate()
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("missing zip must classify as invalid, got %v", err)
	}
}

func TestValidateBadZip(t *testing.T) {
	for _, zip := range []string{"123", "abcde", "123456", "1234x"} {
		s := validSettings()
		s.Zip = zip
		if err := s.Validate(); !errors.Is(err, ErrInvalid) {
			t.Errorf("zip %q: expected ErrInvalid, got %v", zip, err)
		}
	}
}

func TestValidateUnknownTimezone(t *testing.T) {
	s := validSettings()
	s.Timezone = "lunar"
	if err := s.Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestValidateManualOffset(t *testing.T) {
	s := validSettings()
	s.Timezone = TimezoneManual

	// Manual timezone with no offset is invalid.
	if err := s.Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("manual without offset: expected ErrInvalid, got %v", err)
	}

	s.ManualOffset = "not-a-number"
	if err := s.Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("non-numeric offset: expected ErrInvalid, got %v", err)
	}

	s.ManualOffset = "-5"
	if err := s.Validate(); err != nil {
		t.Errorf("numeric offset: expected valid, got %v", err)
	}
	hours, err := s.OffsetHours()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hours != -5 {
		t.Errorf("expected -5, got %v", hours)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "settings.json"))
	if !errors.Is(err, ErrMissing) {
		t.Errorf("expected ErrMissing, got %v", err)
	}
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s := validSettings()
	s.SetLocation(41.4815, -73.2132)

	if err := s.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *got != *s {
		t.Errorf("round trip mismatch: %+v != %+v", got, s)
	}
	if !got.HasLocation() {
		t.Error("expected location to survive the round trip")
	}
}

func TestInvalidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := validSettings().Save(path); err != nil {
		t.Fatal(err)
	}
	if err := Invalidate(path); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("settings file should be gone")
	}
	// Invalidating twice is fine.
	if err := Invalidate(path); err != nil {
		t.Errorf("second invalidate: %v", err)
	}
}
