package clock

import (
	"context"
	"fmt"
	"time"

	"github.com/beevik/ntp"
)

// DefaultNTPHost is the pool used when none is configured.
const DefaultNTPHost = "pool.ntp.org"

// NTPSyncer queries an NTP server. It implements Syncer.
type NTPSyncer struct {
	Host    string
	Timeout time.Duration
}

// Now queries the server once. The library has no context support; the
// deadline is enforced through its query timeout, derived from ctx when a
// deadline is set.
func (s *NTPSyncer) Now(ctx context.Context) (time.Time, error) {
	host := s.Host
	if host == "" {
		host = DefaultNTPHost
	}
	timeout := s.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); timeout <= 0 || d < timeout {
			timeout = d
		}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	resp, err := ntp.QueryWithOptions(host, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return time.Time{}, fmt.Errorf("clock: query %s: %w", host, err)
	}
	if err := resp.Validate(); err != nil {
		return time.Time{}, fmt.Errorf("clock: invalid response from %s: %w", host, err)
	}
	return time.Now().Add(resp.ClockOffset), nil
}
