package clock

import (
	"fmt"
	"time"
)

// Clock supplies the current instant already shifted into the hotel's
// timezone. Expiry math, the issuance window and the "today" key for
// consumption checks all flow through this one source so tests can pin time.
type Clock interface {
	Now() time.Time
}

// Today formats a civil date (YYYY-MM-DD) from an instant. Callers must
// pass a time already in the hotel location, i.e. one from a Clock.
func Today(t time.Time) string {
	return t.Format("2006-01-02")
}

type System struct {
	loc *time.Location
}

// NewSystem builds a Clock over the named IANA timezone. The conversion
// must be calendar-aware, not a fixed UTC offset: the locale observes
// calendar-correct local time year-round.
func NewSystem(timezone string) (*System, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &System{loc: loc}, nil
}

func (s *System) Now() time.Time {
	return time.Now().In(s.loc)
}

// Fixed is a test clock pinned to one instant.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }

var (
	_ Clock = (*System)(nil)
	_ Clock = Fixed{}
)
