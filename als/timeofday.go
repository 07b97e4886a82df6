package als

import (
	"fmt"
	"sort"
	"time"
)

// Time is a Source that synthesizes an ambient-light curve from the wall
// clock instead of reading a sensor — useful on laptops without an ALS, or
// for testing the predictor without hardware.
//
// Thresholds maps a time of day ("HH:MM", 24h) to the lux value that holds
// from that moment until the next configured threshold, wrapping around
// midnight. At least one threshold is required.
type Time struct {
	// Now returns the current time; defaults to time.Now. Exposed so tests
	// can drive the curve deterministically.
	Now func() time.Time

	minutes []int
	lux     []uint64
}

// NewTime builds a Time source from a "HH:MM" -> lux map.
func NewTime(thresholds map[string]uint64) (*Time, error) {
	if len(thresholds) == 0 {
		return nil, fmt.Errorf("als-time: at least one threshold is required")
	}

	type entry struct {
		minute int
		lux    uint64
	}
	entries := make([]entry, 0, len(thresholds))
	for hhmm, lux := range thresholds {
		m, err := parseHHMM(hhmm)
		if err != nil {
			return nil, fmt.Errorf("als-time: %v", err)
		}
		entries = append(entries, entry{minute: m, lux: lux})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].minute < entries[j].minute })

	t := &Time{Now: time.Now}
	for _, e := range entries {
		t.minutes = append(t.minutes, e.minute)
		t.lux = append(t.lux, e.lux)
	}
	return t, nil
}

func parseHHMM(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q: %v", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return h*60 + m, nil
}

// Get returns the lux value of the most recently passed threshold,
// wrapping around midnight to the last threshold of the previous day.
func (t *Time) Get() (uint64, error) {
	now := t.Now()
	minute := now.Hour()*60 + now.Minute()

	// Find the last threshold at or before minute; if none, use the last
	// threshold of the day (we've wrapped past midnight).
	idx := -1
	for i, m := range t.minutes {
		if m <= minute {
			idx = i
		}
	}
	if idx == -1 {
		idx = len(t.minutes) - 1
	}
	return t.lux[idx], nil
}

var _ Source = (*Time)(nil)
