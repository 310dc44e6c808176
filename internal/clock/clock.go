// Package clock owns the application's single fixed timezone and the notion
// of "now" used by the reminder pipeline.
//
// WHY ONE FIXED ZONE?
// Every scheduled time is stored as an ISO-8601 string carrying the same
// offset (IST, +05:30, unless configured otherwise). Keeping one zone means
// stored strings have a fixed width and sort the same way lexically as they
// do chronologically. The due-reminder query does NOT rely on that: it
// compares Unix instants. The fixed width only keeps listings readable.
package clock

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// StorageLayout is the on-disk format for scheduled times.
// Seconds precision, explicit offset, always the same width.
const StorageLayout = "2006-01-02T15:04:05-07:00"

// DisplayLayout is used when rendering a scheduled time for a human.
const DisplayLayout = "2006-01-02 15:04:05 MST"

// Zone is the fixed timezone all timestamps are normalized to.
type Zone struct {
	loc *time.Location
}

// IST is the default zone (India Standard Time, UTC+05:30).
var IST = Zone{loc: time.FixedZone("IST", 5*3600+30*60)}

// NewZone builds a fixed-offset zone from a name and an offset such as
// "+05:30" or "-0700".
func NewZone(name, offset string) (Zone, error) {
	secs, err := parseOffset(offset)
	if err != nil {
		return Zone{}, fmt.Errorf("clock: invalid offset %q: %w", offset, err)
	}
	if name == "" {
		name = "UTC" + offset
	}
	return Zone{loc: time.FixedZone(name, secs)}, nil
}

func parseOffset(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "Z" {
		return 0, nil
	}
	sign := 1
	switch s[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return 0, fmt.Errorf("offset must start with + or -")
	}
	digits := strings.ReplaceAll(s[1:], ":", "")
	if len(digits) != 4 {
		return 0, fmt.Errorf("offset must be HH:MM")
	}
	hh, err := strconv.Atoi(digits[:2])
	if err != nil {
		return 0, err
	}
	mm, err := strconv.Atoi(digits[2:])
	if err != nil {
		return 0, err
	}
	if hh > 14 || mm > 59 {
		return 0, fmt.Errorf("offset out of range")
	}
	return sign * (hh*3600 + mm*60), nil
}

// Location returns the underlying *time.Location.
func (z Zone) Location() *time.Location {
	if z.loc == nil {
		return IST.loc
	}
	return z.loc
}

// Normalize converts t into the zone and formats it for storage.
// Sub-second precision is dropped.
func (z Zone) Normalize(t time.Time) string {
	return t.In(z.Location()).Truncate(time.Second).Format(StorageLayout)
}

// Parse reads a stored timestamp. Fractional seconds are accepted so rows
// written by older tools (microsecond ISO strings) still parse.
func (z Zone) Parse(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("clock: parsing %q: %w", s, err)
	}
	return t.In(z.Location()), nil
}

// Display renders a stored timestamp for humans, e.g.
// "2025-06-01 10:00:00 IST". Unparsable input is returned unchanged.
func (z Zone) Display(stored string) string {
	t, err := z.Parse(stored)
	if err != nil {
		return stored
	}
	return t.Format(DisplayLayout)
}

// Clock supplies the current instant. The reminder selector and dispatcher
// take one so tests can pin "now".
type Clock interface {
	Now() time.Time
}

// Real reads the system clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Stub is a settable clock for tests.
type Stub struct {
	mu  sync.Mutex
	now time.Time
}

// NewStub returns a Stub fixed at now.
func NewStub(now time.Time) *Stub {
	return &Stub{now: now}
}

func (s *Stub) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Set moves the clock to now.
func (s *Stub) Set(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Advance moves the clock forward by d.
func (s *Stub) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}
