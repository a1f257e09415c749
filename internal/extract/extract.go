// Package extract locates single fields inside byte streams while holding
// only a bounded trailing window in memory. It exists because the weather
// API returns documents far larger than the values we need from them, and
// the device cannot afford to buffer a whole response.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
)

// ErrNotFound is returned when the source ends before the target field is
// seen. An empty or already-closed source reports the same way; callers
// treat both as "field unavailable", never as a fatal condition.
var ErrNotFound = errors.New("extract: field not found")

// Default buffer sizing. The window must be larger than the maximum
// expected distance between a key's first byte and its value's last byte;
// this is a caller obligation, not something the scanner can enforce.
const (
	DefaultWindow = 4096
	DefaultChunk  = 256
)

// Scanner reads a byte source in small chunks, keeping at most a
// window-sized suffix of everything read so far. A Scanner consumes its
// source; use one Scanner per extraction.
type Scanner struct {
	r      io.Reader
	window int
	chunk  int
	buf    []byte
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithWindow overrides the rolling-window cap.
func WithWindow(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.window = n
		}
	}
}

// WithChunk overrides the per-read chunk size.
func WithChunk(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.chunk = n
		}
	}
}

// NewScanner creates a Scanner over r with the default window and chunk
// sizes unless overridden.
func NewScanner(r io.Reader, opts ...Option) *Scanner {
	s := &Scanner{
		r:      r,
		window: DefaultWindow,
		chunk:  DefaultChunk,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.buf = make([]byte, 0, s.window+s.chunk)
	return s
}

// scan drives the read loop: append a chunk, trim to the newest window
// bytes, try the matcher against the whole current buffer, and return on
// the first hit. The source is not read past the chunk that produced the
// match.
func (s *Scanner) scan(match func([]byte) (string, bool)) (string, error) {
	chunk := make([]byte, s.chunk)
	for {
		n, err := s.r.Read(chunk)
		if n > 0 {
			s.buf = append(s.buf, chunk[:n]...)
			if excess := len(s.buf) - s.window; excess > 0 {
				s.buf = append(s.buf[:0], s.buf[excess:]...)
			}
			if v, ok := match(s.buf); ok {
				return v, nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return "", ErrNotFound
			}
			return "", fmt.Errorf("extract: read source: %w", err)
		}
	}
}

// ScanString returns the first quoted string value following the literal
// JSON key. This is the fast path: no compiled pattern, just three index
// lookups. A match is only reported once the value's closing quote is in
// the window, so a key split across the trailing edge resolves on a later
// chunk.
func (s *Scanner) ScanString(key string) (string, error) {
	needle := []byte(`"` + key + `"`)
	return s.scan(func(buf []byte) (string, bool) {
		i := bytes.Index(buf, needle)
		if i < 0 {
			return "", false
		}
		rest := buf[i+len(needle):]
		open := bytes.IndexByte(rest, '"')
		if open < 0 {
			return "", false
		}
		rest = rest[open+1:]
		end := bytes.IndexByte(rest, '"')
		if end < 0 {
			return "", false
		}
		return string(rest[:end]), true
	})
}

// ScanPattern returns the first capture group of re. The pattern must have
// exactly one capture group.
func (s *Scanner) ScanPattern(re *regexp.Regexp) (string, error) {
	return s.scan(func(buf []byte) (string, bool) {
		m := re.FindSubmatch(buf)
		if len(m) < 2 {
			return "", false
		}
		return string(m[1]), true
	})
}

// ScanNumber returns the first capture group of re parsed as a float.
// This is the slow path used for numeric fields nested one object level
// deep in observation payloads.
func (s *Scanner) ScanNumber(re *regexp.Regexp) (float64, error) {
	raw, err := s.ScanPattern(re)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("extract: parse %q: %w", raw, err)
	}
	return v, nil
}

// String is a convenience wrapper: scan r for the first string value of key
// using default sizing.
func String(r io.Reader, key string, opts ...Option) (string, error) {
	return NewScanner(r, opts...).ScanString(key)
}

// Pattern is a convenience wrapper around Scanner.ScanPattern.
func Pattern(r io.Reader, re *regexp.Regexp, opts ...Option) (string, error) {
	return NewScanner(r, opts...).ScanPattern(re)
}

// Number is a convenience wrapper around Scanner.ScanNumber.
func Number(r io.Reader, re *regexp.Regexp, opts ...Option) (float64, error) {
	return NewScanner(r, opts...).ScanNumber(re)
}
