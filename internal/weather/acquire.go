package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"regexp"
	"time"

	"github.com/phonorad/weatherclock/internal/extract"
	"github.com/phonorad/weatherclock/internal/fetch"
)

// Sample is one weather reading. Samples are displayed and discarded, not
// accumulated.
type Sample struct {
	TempF      int
	Humidity   int
	Forecast   string
	ObservedAt time.Time
}

// Observation fields are nested one object level deep
// ("temperature": {"value": 21.7, ...}); the hourly forecast carries flat
// numbers ("temperature": 72).
var (
	tempNestedRe = regexp.MustCompile(`"temperature"\s*:\s*\{[^}]*?"value"\s*:\s*(-?\d+(?:\.\d+)?)`)
	humNestedRe  = regexp.MustCompile(`"relativeHumidity"\s*:\s*\{[^}]*?"value"\s*:\s*(-?\d+(?:\.\d+)?)`)
	tempFlatRe   = regexp.MustCompile(`"temperature"\s*:\s*(-?\d+(?:\.\d+)?)`)
)

// Service orchestrates acquisition: metadata (cached), primary observation
// endpoint, per-field hourly fallback, and forecast text.
type Service struct {
	client   *fetch.Client
	resolver *Resolver
	baseURL  string
	window   int
	chunk    int
	now      func() time.Time

	// meta is the cached unit for the configured location. Kept here,
	// not in a process global, so tests can run services side by side.
	meta Metadata
}

// NewService creates a Service. baseURL empty selects the public API.
func NewService(client *fetch.Client, resolver *Resolver, baseURL string, window, chunk int) *Service {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Service{
		client:   client,
		resolver: resolver,
		baseURL:  baseURL,
		window:   window,
		chunk:    chunk,
		now:      time.Now,
	}
}

// Metadata exposes the cached unit for status reporting.
func (s *Service) Metadata() Metadata {
	return s.meta
}

// Fetch produces a Sample for (lat, lon), or an error when metadata cannot
// be resolved at all. Individual field failures never fail the fetch: they
// degrade to the sentinel 0 (temperature, humidity) or "N/A" (forecast).
// The sentinel is indistinguishable from a genuine zero reading; that
// trade is deliberate so one bad API field cannot blank the clock.
func (s *Service) Fetch(ctx context.Context, lat, lon float64) (Sample, error) {
	if !s.meta.Complete() {
		meta, err := s.resolver.Resolve(ctx, lat, lon)
		if err != nil {
			return Sample{}, fmt.Errorf("weather: metadata unresolved: %w", err)
		}
		s.meta = meta
	}

	obsURL := fmt.Sprintf("%s/stations/%s/observations/latest", s.baseURL, s.meta.StationID)

	// Primary path: one request per field against the latest observation.
	// Each request is opened, drained for its field, and closed before the
	// next begins.
	tempF := 0
	tempC, err := s.scanNumber(ctx, obsURL, tempNestedRe)
	switch {
	case err == nil:
		tempF = FahrenheitFromCelsius(tempC)
	default:
		log.Printf("weather: observation temperature unavailable: %v", err)
		// Hourly forecast temperatures are already Fahrenheit; Celsius is
		// back-derived only for log bookkeeping.
		f, fbErr := s.scanNumber(ctx, s.meta.HourlyURL, tempFlatRe)
		if fbErr != nil {
			log.Printf("weather: hourly temperature fallback failed, using sentinel: %v", fbErr)
		} else {
			tempF = int(math.Round(f))
			log.Printf("weather: hourly temperature %dF (%.1fC)", tempF, (f-32)*5/9)
		}
	}

	humidity := 0
	rh, err := s.scanNumber(ctx, obsURL, humNestedRe)
	if err != nil {
		log.Printf("weather: observation humidity unavailable: %v", err)
		rh, err = s.scanNumber(ctx, s.meta.HourlyURL, humNestedRe)
		if err != nil {
			log.Printf("weather: hourly humidity fallback failed, using sentinel: %v", err)
			rh = 0
		}
	}
	humidity = int(math.Round(rh))

	forecast, err := s.scanString(ctx, s.meta.ForecastURL, "shortForecast")
	if err != nil {
		log.Printf("weather: short forecast unavailable: %v", err)
		forecast = "N/A"
	}

	return Sample{
		TempF:      tempF,
		Humidity:   humidity,
		Forecast:   forecast,
		ObservedAt: s.now(),
	}, nil
}

// scanNumber opens url, extracts the pattern's value, and closes the body.
func (s *Service) scanNumber(ctx context.Context, url string, re *regexp.Regexp) (float64, error) {
	body, err := s.client.Get(ctx, url)
	if err != nil {
		return 0, err
	}
	defer body.Close()
	return extract.Number(body, re, extract.WithWindow(s.window), extract.WithChunk(s.chunk))
}

func (s *Service) scanString(ctx context.Context, url, key string) (string, error) {
	body, err := s.client.Get(ctx, url)
	if err != nil {
		return "", err
	}
	defer body.Close()
	return extract.String(body, key, extract.WithWindow(s.window), extract.WithChunk(s.chunk))
}

// FahrenheitFromCelsius converts with round-half-away-from-zero semantics:
// 0C -> 32F, 100C -> 212F, -40C -> -40F.
func FahrenheitFromCelsius(c float64) int {
	return int(math.Round(c*9/5 + 32))
}

// Unavailable reports whether err represents a recoverable acquisition
// failure (network trouble or a field missing from the bounded window) as
// opposed to a programming error.
func Unavailable(err error) bool {
	return errors.Is(err, fetch.ErrNetwork) ||
		errors.Is(err, fetch.ErrStatus) ||
		errors.Is(err, extract.ErrNotFound)
}
