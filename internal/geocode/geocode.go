// Package geocode resolves a US zip code to latitude/longitude. The result
// is persisted back into settings so the lookup happens once per
// provisioning, not once per boot.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/phonorad/weatherclock/internal/fetch"
)

// DefaultBaseURL is the free zip lookup service the device ships with.
const DefaultBaseURL = "http://api.zippopotam.us"

// maxDocSize bounds the response read; zip documents are a few hundred bytes.
const maxDocSize = 16 << 10

// Resolver turns a zip code into coordinates.
type Resolver interface {
	Resolve(ctx context.Context, zip string) (lat, lon float64, err error)
}

// ZipClient resolves zip codes against a zippopotam-compatible endpoint.
type ZipClient struct {
	client  *fetch.Client
	baseURL string
	country string
}

// NewZipClient creates a ZipClient. An empty baseURL selects the default
// public service.
func NewZipClient(client *fetch.Client, baseURL string) *ZipClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &ZipClient{client: client, baseURL: baseURL, country: "us"}
}

// Resolve looks up zip and returns the first place's coordinates.
func (c *ZipClient) Resolve(ctx context.Context, zip string) (float64, float64, error) {
	url := fmt.Sprintf("%s/%s/%s", c.baseURL, c.country, zip)
	data, err := c.client.GetAll(ctx, url, maxDocSize)
	if err != nil {
		return 0, 0, fmt.Errorf("geocode: fetch %s: %w", zip, err)
	}

	// The document is tiny and its shape is fixed, so a targeted decode is
	// enough. Coordinates arrive as strings.
	var doc struct {
		Places []struct {
			Latitude  string `json:"latitude"`
			Longitude string `json:"longitude"`
		} `json:"places"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, 0, fmt.Errorf("geocode: decode response for %s: %w", zip, err)
	}
	if len(doc.Places) == 0 {
		return 0, 0, fmt.Errorf("geocode: no places for zip %s", zip)
	}

	lat, err := strconv.ParseFloat(doc.Places[0].Latitude, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("geocode: parse latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(doc.Places[0].Longitude, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("geocode: parse longitude: %w", err)
	}
	return lat, lon, nil
}
