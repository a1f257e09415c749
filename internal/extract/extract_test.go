package extract

import (
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"
)

var nestedTempRe = regexp.MustCompile(`"temperature"\s*:\s*\{[^}]*?"value"\s*:\s*(-?\d+(?:\.\d+)?)`)

// chunkedReader yields data in fixed-size pieces so tests can control how
// the stream is split.
type chunkedReader struct {
	data []byte
	size int
	pos  int
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if c.pos >= len(c.data) {
		return 0, io.EOF
	}
	n := c.size
	if n > len(p) {
		n = len(p)
	}
	if rem := len(c.data) - c.pos; n > rem {
		n = rem
	}
	copy(p, c.data[c.pos:c.pos+n])
	c.pos += n
	return n, nil
}

func TestScanStringSimple(t *testing.T) {
	doc := `{"properties":{"shortForecast":"Partly Cloudy","temp":5}}`
	got, err := String(strings.NewReader(doc), "shortForecast")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Partly Cloudy" {
		t.Errorf("expected %q, got %q", "Partly Cloudy", got)
	}
}

func TestScanStringChunkSizeInvariance(t *testing.T) {
	pad := strings.Repeat(`{"filler":"xxxxxxxxxxxxxxxx"},`, 200)
	doc := `{"junk":[` + pad + `],"properties":{"shortForecast":"Slight Chance Rain Showers"}}`

	for _, size := range []int{1, 2, 3, 7, 16, 64, 255, 256, 1024, 4096} {
		r := &chunkedReader{data: []byte(doc), size: size}
		got, err := String(r, "shortForecast")
		if err != nil {
			t.Fatalf("chunk size %d: unexpected error: %v", size, err)
		}
		if got != "Slight Chance Rain Showers" {
			t.Errorf("chunk size %d: got %q", size, got)
		}
	}
}

func TestScanStringKeySplitAcrossChunks(t *testing.T) {
	// Place the key so the default 256-byte chunk boundary falls inside it.
	doc := strings.Repeat("x", 250) + `"shortForecast": "Sunny"`
	got, err := String(strings.NewReader(doc), "shortForecast")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Sunny" {
		t.Errorf("got %q", got)
	}
}

func TestScanStringNotFound(t *testing.T) {
	_, err := String(strings.NewReader(`{"other":"value"}`), "shortForecast")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestScanStringEmptySource(t *testing.T) {
	_, err := String(strings.NewReader(""), "anything")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty source, got %v", err)
	}
}

func TestScanTerminatesOnLongStreamWithoutKey(t *testing.T) {
	// 1 MiB of noise, key never present. Must finish and report not found.
	r := &chunkedReader{data: []byte(strings.Repeat(`{"a":"b"}`, 1<<17)), size: 512}
	_, err := String(r, "shortForecast")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestWindowDiscardsOldBytes(t *testing.T) {
	// The key appears early but its value begins more than a window later.
	// By the time the value is readable the key has scrolled out of the
	// retained suffix, so nothing matches.
	doc := `"shortForecast":` + strings.Repeat(" ", 10000) + `"Late"`
	s := NewScanner(strings.NewReader(doc), WithWindow(128), WithChunk(32))
	_, err := s.ScanString("shortForecast")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound once key scrolled out of window, got %v", err)
	}
}

func TestScanStringKeyWithinWindowOfEnd(t *testing.T) {
	// Key within the last window bytes of a long stream is always found.
	doc := strings.Repeat("n", 50000) + `"stationIdentifier": "KDXR"`
	s := NewScanner(&chunkedReader{data: []byte(doc), size: 333}, WithWindow(4096), WithChunk(256))
	got, err := s.ScanString("stationIdentifier")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "KDXR" {
		t.Errorf("got %q", got)
	}
}

func TestScanNumberNested(t *testing.T) {
	doc := `{"properties":{"temperature":{"unitCode":"wmoUnit:degC","value":21.7,"qualityControl":"V"}}}`
	got, err := Number(strings.NewReader(doc), nestedTempRe)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 21.7 {
		t.Errorf("expected 21.7, got %v", got)
	}
}

func TestScanNumberNegative(t *testing.T) {
	doc := `{"temperature":{"value":-3.5}}`
	got, err := Number(strings.NewReader(doc), nestedTempRe)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != -3.5 {
		t.Errorf("expected -3.5, got %v", got)
	}
}

func TestScanNumberNullValueNotMatched(t *testing.T) {
	// NWS reports null for missing observations; the pattern requires digits.
	doc := `{"temperature":{"unitCode":"wmoUnit:degC","value":null}}`
	_, err := Number(strings.NewReader(doc), nestedTempRe)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for null value, got %v", err)
	}
}

func TestScanNumberChunkSizeInvariance(t *testing.T) {
	doc := strings.Repeat(`{"pad":1},`, 300) + `{"temperature":{"value":18.3}}`
	for _, size := range []int{1, 5, 17, 256, 2048} {
		r := &chunkedReader{data: []byte(doc), size: size}
		got, err := Number(r, nestedTempRe)
		if err != nil {
			t.Fatalf("chunk size %d: unexpected error: %v", size, err)
		}
		if got != 18.3 {
			t.Errorf("chunk size %d: got %v", size, got)
		}
	}
}

func TestScanPatternSingleGroup(t *testing.T) {
	re := regexp.MustCompile(`"id"\s*:\s*"([^"]*/stations/[^"]*)"`)
	doc := `{"features":[{"id":"https://api.weather.gov/stations/KDXR","properties":{}}]}`
	got, err := Pattern(strings.NewReader(doc), re)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://api.weather.gov/stations/KDXR" {
		t.Errorf("got %q", got)
	}
}

func TestScanStopsReadingAfterMatch(t *testing.T) {
	// A reader that fails after the matching chunk proves we stop early.
	doc := `{"shortForecast":"Sunny"}`
	r := io.MultiReader(strings.NewReader(doc), failReader{})
	got, err := String(r, "shortForecast")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Sunny" {
		t.Errorf("got %q", got)
	}
}

type failReader struct{}

func (failReader) Read([]byte) (int, error) {
	return 0, errors.New("source read past match")
}
