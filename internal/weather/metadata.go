// Package weather acquires the current conditions for a location from the
// National Weather Service API: a point lookup resolves per-location
// metadata once, then observations and forecast text are pulled on every
// refresh through the bounded-memory extractor.
package weather

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phonorad/weatherclock/internal/extract"
	"github.com/phonorad/weatherclock/internal/fetch"
)

// DefaultBaseURL is the public NWS API root.
const DefaultBaseURL = "https://api.weather.gov"

// maxPointDoc bounds the point document read; it is a few KB in practice.
const maxPointDoc = 64 << 10

// Metadata is the per-location triple required before any sample can be
// fetched. It is treated as one atomic unit: a Metadata with any field
// empty is stale in its entirety and must never be used partially.
type Metadata struct {
	ForecastURL string
	HourlyURL   string
	StationID   string
}

// Complete reports whether every field resolved.
func (m Metadata) Complete() bool {
	return m.ForecastURL != "" && m.HourlyURL != "" && m.StationID != ""
}

// Station list documents run to hundreds of KB; the station id pattern
// keys off feature ids that point into /stations/.
var stationIDRe = regexp.MustCompile(`"id"\s*:\s*"([^"]*/stations/[^"]*)"`)

// Grid identifiers are bare numbers in the point document, so the string
// fast path cannot pull them.
var (
	gridXRe = regexp.MustCompile(`"gridX"\s*:\s*(\d+)`)
	gridYRe = regexp.MustCompile(`"gridY"\s*:\s*(\d+)`)
)

// Resolver resolves Metadata for coordinates. It never caches partially:
// either all three identifiers come back or the call fails and the caller
// retries later with the same coordinates.
type Resolver struct {
	client  *fetch.Client
	baseURL string
	window  int
	chunk   int
}

// NewResolver creates a Resolver against baseURL (empty selects the public
// API). Window and chunk size the streaming extraction of the station list.
func NewResolver(client *fetch.Client, baseURL string, window, chunk int) *Resolver {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Resolver{client: client, baseURL: baseURL, window: window, chunk: chunk}
}

// Resolve fetches the point document for (lat, lon) and the station list it
// points to, returning the complete Metadata unit.
func (r *Resolver) Resolve(ctx context.Context, lat, lon float64) (Metadata, error) {
	pointURL := fmt.Sprintf("%s/points/%.4f,%.4f", r.baseURL, lat, lon)
	doc, err := r.client.GetAll(ctx, pointURL, maxPointDoc)
	if err != nil {
		return Metadata{}, fmt.Errorf("weather: point lookup: %w", err)
	}

	// The point document is small, so each field is extracted directly
	// from the in-memory bytes.
	forecastURL, err := extract.String(bytes.NewReader(doc), "forecast")
	if err != nil {
		return Metadata{}, fmt.Errorf("weather: point document has no forecast url: %w", err)
	}

	hourlyURL, err := extract.String(bytes.NewReader(doc), "forecastHourly")
	if err != nil {
		// Construct the hourly URL deterministically from the grid
		// identifiers when the point document omits it.
		hourlyURL, err = r.hourlyFromGrid(doc)
		if err != nil {
			return Metadata{}, err
		}
	}

	stationsURL, err := extract.String(bytes.NewReader(doc), "observationStations")
	if err != nil {
		return Metadata{}, fmt.Errorf("weather: point document has no station list url: %w", err)
	}

	stationID, err := r.firstStation(ctx, stationsURL)
	if err != nil {
		return Metadata{}, err
	}

	meta := Metadata{ForecastURL: forecastURL, HourlyURL: hourlyURL, StationID: stationID}
	if !meta.Complete() {
		return Metadata{}, errors.New("weather: incomplete metadata")
	}
	return meta, nil
}

// hourlyFromGrid builds .../gridpoints/{office}/{x},{y}/forecast/hourly.
func (r *Resolver) hourlyFromGrid(doc []byte) (string, error) {
	office, err := extract.String(bytes.NewReader(doc), "gridId")
	if err != nil {
		return "", fmt.Errorf("weather: point document has no grid office: %w", err)
	}
	xs, err := extract.Pattern(bytes.NewReader(doc), gridXRe)
	if err != nil {
		return "", fmt.Errorf("weather: point document has no gridX: %w", err)
	}
	ys, err := extract.Pattern(bytes.NewReader(doc), gridYRe)
	if err != nil {
		return "", fmt.Errorf("weather: point document has no gridY: %w", err)
	}
	x, _ := strconv.Atoi(xs)
	y, _ := strconv.Atoi(ys)
	return fmt.Sprintf("%s/gridpoints/%s/%d,%d/forecast/hourly", r.baseURL, office, x, y), nil
}

// firstStation streams the (potentially long) station list and returns the
// station code of the first feature: the path segment after the final '/'
// of the first id that points into /stations/.
func (r *Resolver) firstStation(ctx context.Context, stationsURL string) (string, error) {
	body, err := r.client.Get(ctx, stationsURL)
	if err != nil {
		return "", fmt.Errorf("weather: station list: %w", err)
	}
	defer body.Close()

	id, err := extract.Pattern(body, stationIDRe, extract.WithWindow(r.window), extract.WithChunk(r.chunk))
	if err != nil {
		return "", fmt.Errorf("weather: no station id in list: %w", err)
	}

	station := id[strings.LastIndexByte(id, '/')+1:]
	if station == "" {
		return "", fmt.Errorf("weather: malformed station id %q", id)
	}
	return station, nil
}
