package keepalive

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidQuietHours is returned for a malformed quiet_hours window.
var ErrInvalidQuietHours = errors.New("keepalive: invalid quiet hours")

// QuietHours is a daily window during which no pings are sent, letting the
// host idle the service. Start and End are offsets from midnight; a window
// with Start > End wraps past midnight.
type QuietHours struct {
	Start time.Duration
	End   time.Duration
}

// ParseQuietHours parses "HH:MM-HH:MM" (24-hour clock).
func ParseQuietHours(s string) (QuietHours, error) {
	from, to, ok := strings.Cut(s, "-")
	if !ok {
		return QuietHours{}, fmt.Errorf("%w: expected HH:MM-HH:MM, got %q", ErrInvalidQuietHours, s)
	}

	start, err := parseClock(strings.TrimSpace(from))
	if err != nil {
		return QuietHours{}, fmt.Errorf("%w: start: %w", ErrInvalidQuietHours, err)
	}
	end, err := parseClock(strings.TrimSpace(to))
	if err != nil {
		return QuietHours{}, fmt.Errorf("%w: end: %w", ErrInvalidQuietHours, err)
	}
	if start == end {
		return QuietHours{}, fmt.Errorf("%w: empty window %q", ErrInvalidQuietHours, s)
	}
	return QuietHours{Start: start, End: end}, nil
}

func parseClock(s string) (time.Duration, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("invalid hour %q", hh)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("invalid minute %q", mm)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("out of range: %02d:%02d", h, m)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// Contains reports whether t's wall-clock time falls inside the window.
// The caller converts t to the desired location.
func (q QuietHours) Contains(t time.Time) bool {
	offset := time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second

	if q.Start <= q.End {
		return offset >= q.Start && offset < q.End
	}
	return offset >= q.Start || offset < q.End
}

func (q QuietHours) String() string {
	clock := func(d time.Duration) string {
		return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
	}
	return clock(q.Start) + "-" + clock(q.End)
}
