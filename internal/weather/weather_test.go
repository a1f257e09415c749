package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/phonorad/weatherclock/internal/extract"
	"github.com/phonorad/weatherclock/internal/fetch"
)

// nwsFixture is a scriptable stand-in for the NWS API.
type nwsFixture struct {
	t *testing.T

	// generous filler so documents exceed one extractor chunk
	pad string

	omitHourlyURL   bool
	obsTemperature  string // raw JSON for the nested value, e.g. "21.7" or "null"
	obsHumidity     string
	hourlyTemp      string // flat value in the hourly document, "" to omit
	hourlyHumidity  string
	shortForecast   string // "" to omit the key entirely
	obsRequests     int
	hourlyRequests  int
	stationRequests int
}

func newFixture(t *testing.T) *nwsFixture {
	return &nwsFixture{
		t:              t,
		pad:            strings.Repeat(`{"pad":"xxxxxxxx"},`, 40),
		obsTemperature: "21.7",
		obsHumidity:    "65.2",
		hourlyTemp:     "71",
		hourlyHumidity: "63.0",
		shortForecast:  "Partly Cloudy",
	}
}

func (f *nwsFixture) server() *httptest.Server {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		base := srv.URL
		switch {
		case strings.HasPrefix(r.URL.Path, "/points/"):
			hourly := fmt.Sprintf(`"forecastHourly": "%s/hourly",`, base)
			if f.omitHourlyURL {
				hourly = ""
			}
			fmt.Fprintf(w, `{"properties": {
				"gridId": "BOX", "gridX": 71, "gridY": 90,
				"forecast": "%s/forecast", %s
				"observationStations": "%s/stations"
			}}`, base, hourly, base)

		case r.URL.Path == "/stations":
			f.stationRequests++
			fmt.Fprintf(w, `{"junk":[%s],"features":[{"id":"%s/stations/KDXR","properties":{"stationIdentifier":"KDXR"}}]}`, f.pad, base)

		case strings.Contains(r.URL.Path, "/observations/latest"):
			f.obsRequests++
			fmt.Fprintf(w, `{"properties":{"junk":[%s],"temperature":{"unitCode":"wmoUnit:degC","value":%s},"relativeHumidity":{"unitCode":"wmoUnit:percent","value":%s}}}`,
				f.pad, f.obsTemperature, f.obsHumidity)

		case r.URL.Path == "/hourly":
			f.hourlyRequests++
			temp := ""
			if f.hourlyTemp != "" {
				temp = fmt.Sprintf(`"temperature": %s,`, f.hourlyTemp)
			}
			fmt.Fprintf(w, `{"properties":{"junk":[%s],"periods":[{%s"relativeHumidity":{"value":%s}}]}}`,
				f.pad, temp, f.hourlyHumidity)

		case r.URL.Path == "/forecast":
			sf := ""
			if f.shortForecast != "" {
				sf = fmt.Sprintf(`"shortForecast": "%s",`, f.shortForecast)
			}
			fmt.Fprintf(w, `{"properties":{"junk":[%s],"periods":[{%s"name":"Today"}]}}`, f.pad, sf)

		default:
			f.t.Errorf("unexpected request path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	return srv
}

func newService(srv *httptest.Server) *Service {
	client := fetch.New(fetch.Config{UserAgent: "weatherclock test"})
	resolver := NewResolver(client, srv.URL, extract.DefaultWindow, extract.DefaultChunk)
	return NewService(client, resolver, srv.URL, extract.DefaultWindow, extract.DefaultChunk)
}

func TestResolveMetadata(t *testing.T) {
	f := newFixture(t)
	srv := f.server()
	defer srv.Close()

	resolver := NewResolver(fetch.New(fetch.Config{}), srv.URL, extract.DefaultWindow, extract.DefaultChunk)
	meta, err := resolver.Resolve(context.Background(), 41.4815, -73.2132)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !meta.Complete() {
		t.Fatalf("expected complete metadata, got %+v", meta)
	}
	if meta.StationID != "KDXR" {
		t.Errorf("expected station KDXR, got %q", meta.StationID)
	}
	if meta.ForecastURL != srv.URL+"/forecast" {
		t.Errorf("unexpected forecast url %q", meta.ForecastURL)
	}
	if meta.HourlyURL != srv.URL+"/hourly" {
		t.Errorf("unexpected hourly url %q", meta.HourlyURL)
	}
}

func TestResolveConstructsHourlyURLFromGrid(t *testing.T) {
	f := newFixture(t)
	f.omitHourlyURL = true
	srv := f.server()
	defer srv.Close()

	resolver := NewResolver(fetch.New(fetch.Config{}), srv.URL, extract.DefaultWindow, extract.DefaultChunk)
	meta, err := resolver.Resolve(context.Background(), 41.4815, -73.2132)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := srv.URL + "/gridpoints/BOX/71,90/forecast/hourly"
	if meta.HourlyURL != want {
		t.Errorf("expected %q, got %q", want, meta.HourlyURL)
	}
}

func TestFetchPrimaryPath(t *testing.T) {
	f := newFixture(t)
	srv := f.server()
	defer srv.Close()

	s := newService(srv)
	sample, err := s.Fetch(context.Background(), 41.4815, -73.2132)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 21.7C -> 71.06F -> 71
	if sample.TempF != 71 {
		t.Errorf("expected 71F, got %d", sample.TempF)
	}
	if sample.Humidity != 65 {
		t.Errorf("expected 65%%, got %d", sample.Humidity)
	}
	if sample.Forecast != "Partly Cloudy" {
		t.Errorf("got forecast %q", sample.Forecast)
	}
	// One request per field: temperature and humidity each open a fresh
	// observation stream.
	if f.obsRequests != 2 {
		t.Errorf("expected 2 observation requests, got %d", f.obsRequests)
	}
	if f.hourlyRequests != 0 {
		t.Errorf("primary path must not touch the hourly endpoint, got %d requests", f.hourlyRequests)
	}
}

func TestFetchHourlyTemperatureFallback(t *testing.T) {
	f := newFixture(t)
	f.obsTemperature = "null" // station not reporting temperature
	srv := f.server()
	defer srv.Close()

	s := newService(srv)
	sample, err := s.Fetch(context.Background(), 41.4815, -73.2132)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Fallback value, already Fahrenheit, not the sentinel.
	if sample.TempF != 71 {
		t.Errorf("expected fallback 71F, got %d", sample.TempF)
	}
	if sample.Humidity != 65 {
		t.Errorf("humidity should still come from the primary path, got %d", sample.Humidity)
	}
	if f.hourlyRequests != 1 {
		t.Errorf("expected exactly one hourly request, got %d", f.hourlyRequests)
	}
}

func TestFetchSentinelWhenAllPathsFail(t *testing.T) {
	f := newFixture(t)
	f.obsTemperature = "null"
	f.obsHumidity = "null"
	f.hourlyTemp = ""
	f.hourlyHumidity = "null"
	srv := f.server()
	defer srv.Close()

	s := newService(srv)
	sample, err := s.Fetch(context.Background(), 41.4815, -73.2132)
	if err != nil {
		t.Fatalf("field failures must not fail the fetch: %v", err)
	}
	if sample.TempF != 0 || sample.Humidity != 0 {
		t.Errorf("expected sentinel 0/0, got %d/%d", sample.TempF, sample.Humidity)
	}
	if sample.Forecast != "Partly Cloudy" {
		t.Errorf("forecast should be unaffected, got %q", sample.Forecast)
	}
}

func TestFetchForecastDefaultsToNA(t *testing.T) {
	f := newFixture(t)
	f.shortForecast = ""
	srv := f.server()
	defer srv.Close()

	s := newService(srv)
	sample, err := s.Fetch(context.Background(), 41.4815, -73.2132)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sample.Forecast != "N/A" {
		t.Errorf("expected N/A, got %q", sample.Forecast)
	}
}

func TestFetchFailsWithoutMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := newService(srv)
	if _, err := s.Fetch(context.Background(), 41.4815, -73.2132); err == nil {
		t.Fatal("expected error when metadata cannot resolve")
	}
}

func TestMetadataCachedAcrossFetches(t *testing.T) {
	f := newFixture(t)
	srv := f.server()
	defer srv.Close()

	s := newService(srv)
	if _, err := s.Fetch(context.Background(), 41.4815, -73.2132); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Fetch(context.Background(), 41.4815, -73.2132); err != nil {
		t.Fatal(err)
	}
	if f.stationRequests != 1 {
		t.Errorf("expected a single station list fetch, got %d", f.stationRequests)
	}
}

func TestFahrenheitFromCelsius(t *testing.T) {
	cases := []struct {
		c    float64
		want int
	}{
		{0, 32},
		{100, 212},
		{-40, -40},
		{21.7, 71},   // 71.06 rounds down
		{21.95, 72},  // 71.51 rounds up
		{-17.5, 1},   // 0.5 rounds away from zero
		{-18.06, -1}, // -0.508 rounds away from zero
	}
	for _, tc := range cases {
		if got := FahrenheitFromCelsius(tc.c); got != tc.want {
			t.Errorf("FahrenheitFromCelsius(%v) = %d, want %d", tc.c, got, tc.want)
		}
	}
}

func TestUnavailable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{fmt.Errorf("observation fetch: %w", fetch.ErrNetwork), true},
		{fmt.Errorf("observation fetch: %w", fetch.ErrStatus), true},
		{fmt.Errorf("temperature scan: %w", extract.ErrNotFound), true},
		{errors.New("observation url malformed"), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := Unavailable(tc.err); got != tc.want {
			t.Errorf("Unavailable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
