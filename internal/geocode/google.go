package geocode

import (
	"context"
	"fmt"

	"github.com/kelvins/geocoder"
)

// GoogleResolver resolves zip codes through the Google Maps geocoding API.
// Selected when a GOOGLE_MAPS_API_KEY is configured; useful where the free
// service is unreachable.
type GoogleResolver struct {
	country string
}

// NewGoogleResolver configures the Google backend with the given API key.
func NewGoogleResolver(apiKey string) *GoogleResolver {
	geocoder.ApiKey = apiKey
	return &GoogleResolver{country: "United States"}
}

// Resolve geocodes the zip. The underlying library does not take a context;
// its timeout is governed by the process-wide HTTP defaults.
func (g *GoogleResolver) Resolve(_ context.Context, zip string) (float64, float64, error) {
	loc, err := geocoder.Geocoding(geocoder.Address{
		PostalCode: zip,
		Country:    g.country,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("geocode: google lookup %s: %w", zip, err)
	}
	return loc.Latitude, loc.Longitude, nil
}
