// Package conflict decides whether a candidate interval collides with
// existing reservations on the same resource.
//
// Intervals are half-open: [Start, End). Two intervals overlap iff
// a.Start < b.End && b.Start < a.End. Touching intervals do not overlap.
package conflict

import (
	"errors"
	"time"
)

var ErrEmptyInterval = errors.New("interval end must be after start")

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval validates that end is strictly after start.
func NewInterval(start, end time.Time) (Interval, error) {
	if !end.After(start) {
		return Interval{}, ErrEmptyInterval
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps reports whether a and b share any instant.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Duration returns the length of the interval.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Contains reports whether t lies inside the interval.
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Candidate is an existing reservation as seen by the detector.
// Active is true for reservations that hold their slot (pending or approved).
type Candidate struct {
	ID         string
	ResourceID string
	Interval   Interval
	Active     bool
}

// Conflicts returns every active candidate on resourceID that overlaps
// interval, ignoring the candidate whose ID equals excludeID.
func Conflicts(candidates []Candidate, resourceID string, interval Interval, excludeID string) []Candidate {
	var out []Candidate
	for _, c := range candidates {
		if !c.Active || c.ResourceID != resourceID {
			continue
		}
		if excludeID != "" && c.ID == excludeID {
			continue
		}
		if Overlaps(c.Interval, interval) {
			out = append(out, c)
		}
	}
	return out
}

// HasConflict is Conflicts without collecting the matches.
func HasConflict(candidates []Candidate, resourceID string, interval Interval, excludeID string) bool {
	for _, c := range candidates {
		if !c.Active || c.ResourceID != resourceID {
			continue
		}
		if excludeID != "" && c.ID == excludeID {
			continue
		}
		if Overlaps(c.Interval, interval) {
			return true
		}
	}
	return false
}
