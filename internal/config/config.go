// Package config loads operational settings from the environment, with
// optional .env file support for development hosts.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the operational knobs of the daemon. User-visible device
// settings (WiFi, ZIP, timezone) live in the settings package; this is
// the deployment-side configuration.
type Config struct {
	// Upstream endpoints.
	APIBaseURL     string
	GeocodeBaseURL string
	GoogleAPIKey   string
	UserAgent      string
	NTPHost        string

	// Cadence.
	SyncInterval    time.Duration
	RefreshInterval time.Duration
	Tick            time.Duration
	HoldThreshold   time.Duration

	// Stream extraction bounds.
	Window int
	Chunk  int

	// Outbound HTTP.
	HTTPTimeout       time.Duration
	RequestsPerSecond float64

	// Telemetry; empty broker disables MQTT.
	Broker   string
	ClientID string

	// Paths and listeners.
	SettingsPath  string
	FirmwareDir   string
	ProvisionAddr string
	UpdateAddr    string
	CaptiveDomain string

	// Hardware.
	ButtonPin int
}

// Load reads configuration from the environment with defaults suitable
// for the device image. A .env file is honored when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := &Config{
		APIBaseURL:     getenvDefault("WC_API_BASE_URL", "https://api.weather.gov"),
		GeocodeBaseURL: getenvDefault("WC_GEOCODE_BASE_URL", "http://api.zippopotam.us"),
		GoogleAPIKey:   os.Getenv("WC_GOOGLE_API_KEY"),
		UserAgent:      getenvDefault("WC_USER_AGENT", "weatherclock (github.com/phonorad/weatherclock)"),
		NTPHost:        getenvDefault("WC_NTP_HOST", "pool.ntp.org"),

		Window: getenvInt("WC_EXTRACT_WINDOW", 4096),
		Chunk:  getenvInt("WC_EXTRACT_CHUNK", 256),

		Broker:   os.Getenv("WC_MQTT_BROKER"),
		ClientID: getenvDefault("WC_MQTT_CLIENT_ID", "weatherclock"),

		SettingsPath:  getenvDefault("WC_SETTINGS_PATH", "/var/lib/weatherclock/settings.json"),
		FirmwareDir:   getenvDefault("WC_FIRMWARE_DIR", "/var/lib/weatherclock/firmware"),
		ProvisionAddr: getenvDefault("WC_PROVISION_ADDR", ":80"),
		UpdateAddr:    getenvDefault("WC_UPDATE_ADDR", ":80"),
		CaptiveDomain: getenvDefault("WC_CAPTIVE_DOMAIN", "weatherclock.local"),

		ButtonPin: getenvInt("WC_BUTTON_PIN", 5),
	}

	var err error
	if cfg.SyncInterval, err = getenvDuration("WC_SYNC_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getenvDuration("WC_REFRESH_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Tick, err = getenvDuration("WC_TICK", 100*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.HoldThreshold, err = getenvDuration("WC_HOLD_THRESHOLD", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("WC_HTTP_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	cfg.RequestsPerSecond = getenvFloat("WC_REQUESTS_PER_SECOND", 2)

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
