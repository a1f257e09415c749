// Command weatherclock runs the firmware for a round-display weather
// clock: it keeps time via NTP, pulls NWS weather for the configured
// location, and serves the provisioning and update portals.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/phonorad/weatherclock/internal/button"
	"github.com/phonorad/weatherclock/internal/clock"
	"github.com/phonorad/weatherclock/internal/config"
	"github.com/phonorad/weatherclock/internal/device"
	"github.com/phonorad/weatherclock/internal/fetch"
	"github.com/phonorad/weatherclock/internal/geocode"
	"github.com/phonorad/weatherclock/internal/provision"
	"github.com/phonorad/weatherclock/internal/settings"
	"github.com/phonorad/weatherclock/internal/status"
	"github.com/phonorad/weatherclock/internal/telemetry"
	"github.com/phonorad/weatherclock/internal/update"
	"github.com/phonorad/weatherclock/internal/weather"
)

const version = "1.1.0"

func main() {
	settingsPath := flag.String("settings", "", "settings file path (overrides WC_SETTINGS_PATH)")
	broker := flag.String("broker", "", "MQTT broker address (overrides WC_MQTT_BROKER, empty disables)")
	buttonPin := flag.Int("button-pin", -1, "BCM pin number for the mode button (overrides WC_BUTTON_PIN)")
	noButton := flag.Bool("no-button", false, "Run without GPIO button (development hosts)")
	printSettings := flag.Bool("print-settings", false, "Print current settings state and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if *settingsPath != "" {
		cfg.SettingsPath = *settingsPath
	}
	if *broker != "" {
		cfg.Broker = *broker
	}
	if *buttonPin >= 0 {
		cfg.ButtonPin = *buttonPin
	}

	if err := run(cfg, *noButton, *printSettings); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg *config.Config, noButton, printSettings bool) error {
	s, loadErr := settings.Load(cfg.SettingsPath)

	if printSettings {
		if loadErr != nil {
			fmt.Printf("settings: %v\n", loadErr)
			return nil
		}
		fmt.Printf("ssid=%s zip=%s timezone=%s use_dst=%v location=%v\n",
			s.SSID, s.Zip, s.Timezone, s.UseDST, s.HasLocation())
		return nil
	}

	var monitor *button.Monitor
	if !noButton {
		monitor = button.NewMonitor(cfg.HoldThreshold)
		input, err := button.NewRealInput(cfg.ButtonPin, monitor)
		if err != nil {
			return fmt.Errorf("init button: %w", err)
		}
		defer input.Close()

		// A button held through boot wipes settings and forces
		// provisioning, the escape hatch for a clock on a dead network.
		if wiped, err := wipeIfHeld(input, cfg.HoldThreshold); err != nil {
			log.Printf("boot button check: %v", err)
		} else if wiped {
			log.Printf("button held through boot, clearing settings")
			if err := settings.Invalidate(cfg.SettingsPath); err != nil {
				return fmt.Errorf("clear settings: %w", err)
			}
			s, loadErr = nil, settings.ErrMissing
		}
	}

	restarter := device.ProcessRestarter{Delay: time.Second}

	mode := device.BootMode(s, loadErr)
	log.Printf("weatherclock v%s booting in %s mode", version, mode)

	switch mode {
	case device.Provisioning:
		return runProvisioning(cfg, restarter)
	case device.Running:
		return runRunning(cfg, s, restarter, monitor)
	default:
		return fmt.Errorf("unexpected boot mode %v", mode)
	}
}

// wipeIfHeld reports whether the button is held continuously for the
// hold threshold, sampled at boot.
func wipeIfHeld(input button.Input, hold time.Duration) (bool, error) {
	deadline := time.Now().Add(hold)
	for time.Now().Before(deadline) {
		pressed, err := input.Pressed()
		if err != nil {
			return false, err
		}
		if !pressed {
			return false, nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return true, nil
}

func runProvisioning(cfg *config.Config, restarter device.Restarter) error {
	store := provision.FileStore{Path: cfg.SettingsPath}
	srv := provision.New(cfg.ProvisionAddr, cfg.CaptiveDomain, store, func() {
		restarter.Restart("settings configured")
	})
	log.Printf("provisioning portal on %s (captive domain %s)", cfg.ProvisionAddr, cfg.CaptiveDomain)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("provisioning server: %w", err)
	}
	return nil
}

func runRunning(cfg *config.Config, s *settings.Settings, restarter device.Restarter, monitor *button.Monitor) error {
	// Wi-Fi association.  An auth rejection means the stored credentials
	// are wrong: invalidate them and restart into provisioning rather
	// than retrying forever.
	net := &nmcliNetwork{}
	if err := net.Connect(s.SSID, s.Password); err != nil {
		if errors.Is(err, device.ErrAuth) {
			log.Printf("wifi auth rejected for %q, clearing settings", s.SSID)
			if ierr := settings.Invalidate(cfg.SettingsPath); ierr != nil {
				log.Printf("clear settings: %v", ierr)
			}
			restarter.Restart("wifi authentication failed")
			return nil
		}
		return fmt.Errorf("wifi connect: %w", err)
	}

	client := fetch.New(fetch.Config{
		UserAgent:         cfg.UserAgent,
		Timeout:           cfg.HTTPTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})

	// Geocode once, then persist so later boots skip the lookup.
	if !s.HasLocation() {
		lat, lon, err := resolveLocation(cfg, client, s.Zip)
		if err != nil {
			return fmt.Errorf("geocode zip %s: %w", s.Zip, err)
		}
		s.SetLocation(lat, lon)
		if err := s.Save(cfg.SettingsPath); err != nil {
			log.Printf("persist location: %v", err)
		}
		log.Printf("geocoded %s to %.4f,%.4f", s.Zip, lat, lon)
	}

	zone, err := deviceZone(s)
	if err != nil {
		return err
	}
	clk := clock.New(zone, time.Now)

	var publisher telemetry.Publisher
	if cfg.Broker != "" {
		pub := telemetry.NewRealPublisher(cfg.Broker, cfg.ClientID)
		defer pub.Close()
		publisher = pub
	}

	tracker := status.NewTracker(time.Now(), version, status.Config{
		SettingsPath: cfg.SettingsPath,
		APIBaseURL:   cfg.APIBaseURL,
		NTPHost:      cfg.NTPHost,
		Broker:       cfg.Broker,
		RefreshMs:    cfg.RefreshInterval.Milliseconds(),
		SyncMs:       cfg.SyncInterval.Milliseconds(),
		TickMs:       cfg.Tick.Milliseconds(),
	})
	tracker.SetMode(device.Running.String())
	tracker.SetSSID(s.SSID)

	if publisher != nil {
		err := publisher.PublishSystem(telemetry.SystemEvent{
			Timestamp: time.Now().UTC(),
			Event:     "STARTUP",
			Detail:    "v" + version,
			Retained:  true,
		})
		if err != nil {
			log.Printf("startup publish: %v", err)
		}
	}

	loop := &device.Loop{
		Renderer:        &logRenderer{},
		Weather:         weather.NewService(client, weather.NewResolver(client, cfg.APIBaseURL, cfg.Window, cfg.Chunk), cfg.APIBaseURL, cfg.Window, cfg.Chunk),
		Clock:           clk,
		Syncer:          &clock.NTPSyncer{Host: cfg.NTPHost, Timeout: cfg.HTTPTimeout},
		Tracker:         tracker,
		Telemetry:       publisher,
		Lat:             s.Lat,
		Lon:             s.Lon,
		SyncInterval:    cfg.SyncInterval,
		RefreshInterval: cfg.RefreshInterval,
		FetchTimeout:    cfg.HTTPTimeout,
	}
	if monitor != nil {
		// Drop any request latched by a near-threshold hold during boot.
		monitor.TakeRequest()
		loop.Update = monitor
	}

	ticker := time.NewTicker(cfg.Tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Printf("running: refresh=%v sync=%v tick=%v", cfg.RefreshInterval, cfg.SyncInterval, cfg.Tick)

	switch loop.Run(context.Background(), ticker.C, sigCh) {
	case device.StopUpdateRequested:
		return runUpdating(cfg, tracker, publisher, restarter)
	default:
		return nil
	}
}

func runUpdating(cfg *config.Config, tracker *status.Tracker, publisher telemetry.Publisher, restarter device.Restarter) error {
	tracker.SetMode(device.Updating.String())
	log.Printf("update server on %s, waiting at /swup", cfg.UpdateAddr)

	stager := &update.Stager{Dir: cfg.FirmwareDir}
	srv := update.New(cfg.UpdateAddr, stager, version, tracker, func(updated bool) {
		reason := "update mode finished"
		if updated {
			reason = "update applied"
			if publisher != nil {
				publisher.PublishSystem(telemetry.SystemEvent{
					Timestamp: time.Now().UTC(),
					Event:     "UPDATE_APPLIED",
					Detail:    "v" + version,
					Retained:  true,
				})
			}
		}
		restarter.Restart(reason)
	})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("update server: %w", err)
	}
	return nil
}

func resolveLocation(cfg *config.Config, client *fetch.Client, zip string) (float64, float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
	defer cancel()

	primary := geocode.NewZipClient(client, cfg.GeocodeBaseURL)
	lat, lon, err := primary.Resolve(ctx, zip)
	if err == nil {
		return lat, lon, nil
	}
	if cfg.GoogleAPIKey == "" {
		return 0, 0, err
	}
	log.Printf("zip lookup failed (%v), trying Google geocoder", err)
	return geocode.NewGoogleResolver(cfg.GoogleAPIKey).Resolve(ctx, zip)
}

func deviceZone(s *settings.Settings) (clock.Zone, error) {
	if s.Timezone == settings.TimezoneManual {
		hours, err := s.OffsetHours()
		if err != nil {
			return clock.Zone{}, fmt.Errorf("manual offset: %w", err)
		}
		return clock.ManualZone(hours), nil
	}
	return clock.NewZone(s.Timezone, s.UseDST)
}

// logRenderer stands in for the display driver, which is wired up by the
// board support layer. Everything the loop would draw is logged instead.
type logRenderer struct{}

func (logRenderer) ShowTime(s string) { log.Printf("display time: %s", s) }
func (logRenderer) ShowDate(s string) { log.Printf("display date: %s", s) }
func (logRenderer) ShowWeather(sample weather.Sample, label, icon string) {
	log.Printf("display weather: %d F %d%% %q icon=%s", sample.TempF, sample.Humidity, label, icon)
}
func (logRenderer) ShowWeatherUnavailable() { log.Printf("display weather: unavailable") }

// nmcliNetwork associates with Wi-Fi through NetworkManager. A rejection
// that names secrets or the password wraps device.ErrAuth so boot logic
// can invalidate the stored credentials.
type nmcliNetwork struct{}

func (nmcliNetwork) Connect(ssid, password string) error {
	out, err := exec.Command("nmcli", "device", "wifi", "connect", ssid, "password", password).CombinedOutput()
	if err == nil {
		log.Printf("wifi connected to %q", ssid)
		return nil
	}
	if authRejected(string(out)) {
		return fmt.Errorf("%w: %s", device.ErrAuth, strings.TrimSpace(string(out)))
	}
	return fmt.Errorf("nmcli connect %q: %v: %s", ssid, err, strings.TrimSpace(string(out)))
}

// authRejected reports whether nmcli output indicates bad credentials as
// opposed to a transient association failure.
func authRejected(out string) bool {
	msg := strings.ToLower(out)
	return strings.Contains(msg, "secrets were required") ||
		strings.Contains(msg, "invalid password") ||
		strings.Contains(msg, "802.1x supplicant failed")
}
