// Package daterange implements closed calendar-day intervals.
//
// All comparisons happen at day granularity: the clock part of a time.Time is
// ignored and only (year, month, day) in the value's own location is used.
package daterange

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// DateLayout is the wire format for dates (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// ErrInvalidArgument is returned for zero dates, inverted ranges and unparsable input.
var ErrInvalidArgument = errors.New("invalid argument")

// Range is a closed interval of calendar days [Start, End].
type Range struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// New builds a validated Range.
func New(start, end time.Time) (Range, error) {
	r := Range{Start: Day(start), End: Day(end)}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

// Parse builds a Range from two YYYY-MM-DD strings.
func Parse(start, end string) (Range, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Range{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return Range{}, err
	}
	return New(s, e)
}

// ParseDate parses a YYYY-MM-DD string in UTC.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidArgument, value)
	}
	return t, nil
}

// Day truncates t to midnight of its calendar day, keeping the location.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Validate reports whether both bounds are set and Start <= End.
func (r Range) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidArgument)
	}
	if compareDays(r.Start, r.End) > 0 {
		return fmt.Errorf("%w: start date %s is after end date %s",
			ErrInvalidArgument, r.Start.Format(DateLayout), r.End.Format(DateLayout))
	}
	return nil
}

// Overlaps reports whether r and other share at least one day.
// Both ranges are assumed valid.
func (r Range) Overlaps(other Range) bool {
	return compareDays(r.Start, other.End) <= 0 && compareDays(r.End, other.Start) >= 0
}

// Contains reports whether date falls inside r, bounds included.
func (r Range) Contains(date time.Time) bool {
	return compareDays(r.Start, date) <= 0 && compareDays(r.End, date) >= 0
}

// Days returns the number of calendar days in r, counting both ends.
func (r Range) Days() int {
	start := civil(r.Start)
	end := civil(r.End)
	// Unix seconds; time.Duration saturates past ~292 years
	return int((end.Unix()-start.Unix())/86400) + 1
}

// Intersect returns the shared part of r and other.
func (r Range) Intersect(other Range) (Range, bool) {
	if !r.Overlaps(other) {
		return Range{}, false
	}
	out := r
	if compareDays(other.Start, out.Start) > 0 {
		out.Start = other.Start
	}
	if compareDays(other.End, out.End) < 0 {
		out.End = other.End
	}
	return out, true
}

// EachDay calls fn for every day in r in ascending order until fn returns false.
func (r Range) EachDay(fn func(time.Time) bool) {
	for d := Day(r.Start); compareDays(d, r.End) <= 0; d = d.AddDate(0, 0, 1) {
		if !fn(d) {
			return
		}
	}
}

func (r Range) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

// Overlaps reports whether the closed intervals [aStart, aEnd] and [bStart, bEnd]
// share at least one day.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) (bool, error) {
	a, err := New(aStart, aEnd)
	if err != nil {
		return false, err
	}
	b, err := New(bStart, bEnd)
	if err != nil {
		return false, err
	}
	return a.Overlaps(b), nil
}

// Contains reports whether date lies in [start, end], bounds included.
func Contains(start, end, date time.Time) (bool, error) {
	r, err := New(start, end)
	if err != nil {
		return false, err
	}
	if date.IsZero() {
		return false, fmt.Errorf("%w: date is required", ErrInvalidArgument)
	}
	return r.Contains(date), nil
}

// Common returns the intersection of all ranges. It returns false when ranges
// is empty or when any two of them are disjoint.
func Common(ranges []Range) (Range, bool) {
	if len(ranges) == 0 {
		return Range{}, false
	}
	out := ranges[0]
	for _, r := range ranges[1:] {
		var ok bool
		if out, ok = out.Intersect(r); !ok {
			return Range{}, false
		}
	}
	return out, true
}

// Merge sorts ranges by start and coalesces ranges that overlap or fall on
// consecutive days. The result is disjoint and ascending; ranges is not modified.
func Merge(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}
	sorted := append([]Range(nil), ranges...)
	sort.Slice(sorted, func(i, j int) bool {
		return compareDays(sorted[i].Start, sorted[j].Start) < 0
	})

	out := []Range{sorted[0]}
	for _, r := range sorted[1:] {
		last := &out[len(out)-1]
		if compareDays(r.Start, civil(last.End).AddDate(0, 0, 1)) <= 0 {
			if compareDays(r.End, last.End) > 0 {
				last.End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// IntersectSorted returns the days shared by a and b. Both lists must be
// disjoint and ascending, as returned by Merge; so is the result.
func IntersectSorted(a, b []Range) []Range {
	var out []Range
	for i, j := 0, 0; i < len(a) && j < len(b); {
		if r, ok := a[i].Intersect(b[j]); ok {
			out = append(out, r)
		}
		if compareDays(a[i].End, b[j].End) < 0 {
			i++
		} else {
			j++
		}
	}
	return out
}

// civil maps t onto a UTC midnight with the same calendar date so that day
// arithmetic is immune to DST shifts and differing locations.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func compareDays(a, b time.Time) int {
	return civil(a).Compare(civil(b))
}
