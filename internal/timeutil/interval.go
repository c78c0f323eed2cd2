package timeutil

import (
	"fmt"
	"time"
)

// Interval is an absolute UTC time window. All conflict detection and
// business-hours arithmetic downstream operates on intervals, never on
// wall-clock strings.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds an interval after checking that the start lies strictly
// before the end.
func NewInterval(start, end time.Time) (Interval, error) {
	if !start.Before(end) {
		return Interval{}, fmt.Errorf("interval start %s must be before end %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return Interval{Start: start.UTC(), End: end.UTC()}, nil
}

// ResolveInterval converts a local (date, start, end-or-duration) request in
// the given location into a UTC interval. Date rollover from a duration end
// token is preserved.
func ResolveInterval(date Date, start Clock, end TimeOrDuration, loc *time.Location) (Interval, error) {
	endDate, endClock := ResolveEnd(date, start, end)
	return NewInterval(ToUTC(date, start, loc), ToUTC(endDate, endClock, loc))
}

// Duration returns the length of the interval.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether the two intervals share any instant.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

func (iv Interval) String() string {
	return iv.Start.Format(time.RFC3339) + "/" + iv.End.Format(time.RFC3339)
}
