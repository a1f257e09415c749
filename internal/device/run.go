package device

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/phonorad/weatherclock/internal/clock"
	"github.com/phonorad/weatherclock/internal/forecast"
	"github.com/phonorad/weatherclock/internal/status"
	"github.com/phonorad/weatherclock/internal/telemetry"
	"github.com/phonorad/weatherclock/internal/weather"
)

// Default cadence for Running mode.
const (
	DefaultSyncInterval    = time.Hour        // NTP resync
	DefaultRefreshInterval = 5 * time.Minute  // weather refresh
	DefaultTick            = 100 * time.Millisecond
)

// StopReason says why the Running loop returned.
type StopReason int

const (
	// StopSignal means an OS signal asked the process to shut down.
	StopSignal StopReason = iota
	// StopUpdateRequested means a qualifying button hold was consumed and
	// the caller should enter Updating mode.
	StopUpdateRequested
)

// WeatherSource produces samples. Implemented by weather.Service; faked in
// tests.
type WeatherSource interface {
	Fetch(ctx context.Context, lat, lon float64) (weather.Sample, error)
}

// UpdateRequester exposes the interrupt-fed flag. Implemented by
// button.Monitor.
type UpdateRequester interface {
	TakeRequest() bool
}

// Loop is the Running-mode control loop. One cooperative flow owns the
// display, the weather refresh, and the update-flag poll; the only
// asynchronous input is the button flag, consumed via UpdateRequester.
type Loop struct {
	Renderer  Renderer
	Weather   WeatherSource
	Clock     *clock.Clock
	Syncer    clock.Syncer
	Update    UpdateRequester
	Tracker   *status.Tracker
	Telemetry telemetry.Publisher // nil disables telemetry

	Lat, Lon float64

	SyncInterval    time.Duration
	RefreshInterval time.Duration

	// FetchTimeout bounds each weather refresh and time sync so a stalled
	// endpoint cannot suspend the loop past a few ticks' worth of time.
	FetchTimeout time.Duration
}

// Run drives the loop until a signal arrives or an update is requested.
// tick supplies the cooperative cadence and sig delivers shutdown
// signals; both are injected so tests can script the loop.
func (l *Loop) Run(ctx context.Context, tick <-chan time.Time, sig <-chan os.Signal) StopReason {
	if l.SyncInterval <= 0 {
		l.SyncInterval = DefaultSyncInterval
	}
	if l.RefreshInterval <= 0 {
		l.RefreshInterval = DefaultRefreshInterval
	}

	// Initial sync and fetch happen before the first tick so the display
	// is populated immediately after boot.
	l.syncTime(ctx)
	lastSync := l.Clock.Local()
	l.refreshWeather(ctx)
	lastRefresh := l.Clock.Local()

	var lastTimeStr, lastDateStr string

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			l.publishSystem("SHUTDOWN", s.String())
			return StopSignal

		case <-tick:
			// The update flag is polled once per tick; the interrupt side
			// only ever sets it.
			if l.Update != nil && l.Update.TakeRequest() {
				log.Printf("update requested by button hold")
				l.publishSystem("MODE_CHANGE", Updating.String())
				return StopUpdateRequested
			}

			now := l.Clock.Local()

			if now.Sub(lastSync) >= l.SyncInterval {
				l.syncTime(ctx)
				lastSync = now
			}

			if now.Sub(lastRefresh) >= l.RefreshInterval {
				l.refreshWeather(ctx)
				lastRefresh = now
			}

			// Redraw only when the displayed string actually changes; the
			// tick is much faster than a second so most ticks are no-ops.
			if ts := clock.FormatTime(now); ts != lastTimeStr {
				l.Renderer.ShowTime(ts)
				lastTimeStr = ts
			}
			if ds := clock.FormatDate(now); ds != lastDateStr {
				l.Renderer.ShowDate(ds)
				lastDateStr = ds
			}
		}
	}
}

// syncTime resyncs the clock. Failure keeps the previous skew; the clock
// free-runs until the next interval.
func (l *Loop) syncTime(ctx context.Context) {
	fctx, cancel := l.bounded(ctx)
	defer cancel()

	err := l.Clock.Sync(fctx, l.Syncer)
	if err != nil {
		log.Printf("time sync failed: %v", err)
	}
	if l.Tracker != nil {
		l.Tracker.RecordSync(err)
	}
}

// refreshWeather fetches a sample and pushes it at the renderer. A total
// acquisition failure shows the unavailable state and is retried at the
// next interval and never stops the clock.
func (l *Loop) refreshWeather(ctx context.Context) {
	fctx, cancel := l.bounded(ctx)
	defer cancel()

	sample, err := l.Weather.Fetch(fctx, l.Lat, l.Lon)
	if l.Tracker != nil {
		l.Tracker.RecordRefresh(sample, err)
	}
	if err != nil {
		if weather.Unavailable(err) {
			log.Printf("weather unavailable, retrying next interval: %v", err)
		} else {
			// Not a known upstream failure: surface it over telemetry so
			// a fleet operator notices before the next site visit.
			log.Printf("weather refresh failed: %v", err)
			l.publishSystem("WEATHER_ERROR", err.Error())
		}
		l.Renderer.ShowWeatherUnavailable()
		return
	}

	label := forecast.Label(sample.Forecast)
	icon := forecast.IconFor(sample.Forecast, clock.IsDaytime(l.Clock.Local()))
	l.Renderer.ShowWeather(sample, label, string(icon))
	log.Printf("weather updated: %dF %d%% %q -> %q (%s)", sample.TempF, sample.Humidity, sample.Forecast, label, icon)

	if l.Telemetry != nil {
		if err := l.Telemetry.PublishSample(sample); err != nil {
			log.Printf("telemetry publish failed: %v", err)
		}
	}
}

func (l *Loop) publishSystem(event, detail string) {
	if l.Telemetry == nil {
		return
	}
	err := l.Telemetry.PublishSystem(telemetry.SystemEvent{
		Timestamp: time.Now(),
		Event:     event,
		Detail:    detail,
		Retained:  event == "SHUTDOWN",
	})
	if err != nil {
		log.Printf("telemetry publish failed: %v", err)
	}
}

func (l *Loop) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.FetchTimeout > 0 {
		return context.WithTimeout(ctx, l.FetchTimeout)
	}
	return context.WithCancel(ctx)
}
