// Package filter implements the listing matching engine shared by the API
// query path and the subscription notifier.
package filter

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"estate_bot/internal/model"
)

// ErrMalformedRange is returned when a range token has a non-numeric bound.
var ErrMalformedRange = errors.New("malformed range")

// Range is an inclusive numeric interval. A nil bound is unbounded.
type Range struct {
	Min *float64
	Max *float64
}

// Contains reports whether v lies within the range, bounds inclusive.
func (r Range) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// Unbounded reports whether the range has neither bound.
func (r Range) Unbounded() bool {
	return r.Min == nil && r.Max == nil
}

// String renders the range back into "min:max" syntax.
func (r Range) String() string {
	var b strings.Builder
	if r.Min != nil {
		b.WriteString(strconv.FormatFloat(*r.Min, 'f', -1, 64))
	}
	b.WriteByte(':')
	if r.Max != nil {
		b.WriteString(strconv.FormatFloat(*r.Max, 'f', -1, 64))
	}
	return b.String()
}

// ParseRange parses a "min:max" token keeping floating point precision.
// Either side may be empty; a token without a separator has only a lower bound.
func ParseRange(token string) (Range, error) {
	left, right, _ := strings.Cut(strings.TrimSpace(token), ":")

	var r Range
	if left = strings.TrimSpace(left); left != "" {
		v, err := parseBound(left)
		if err != nil {
			return Range{}, fmt.Errorf("%w %q: lower bound: %w", ErrMalformedRange, token, err)
		}
		r.Min = &v
	}
	if right = strings.TrimSpace(right); right != "" {
		v, err := parseBound(right)
		if err != nil {
			return Range{}, fmt.Errorf("%w %q: upper bound: %w", ErrMalformedRange, token, err)
		}
		r.Max = &v
	}
	return r, nil
}

// ParsePriceRange parses a "min:max" token and truncates both bounds to
// integers, prices being whole dollars.
func ParsePriceRange(token string) (Range, error) {
	r, err := ParseRange(token)
	if err != nil {
		return Range{}, err
	}
	if r.Min != nil {
		v := math.Trunc(*r.Min)
		r.Min = &v
	}
	if r.Max != nil {
		v := math.Trunc(*r.Max)
		r.Max = &v
	}
	return r, nil
}

func parseBound(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("bound %q is not finite", s)
	}
	return v, nil
}

// Ranges is a union of ranges.
type Ranges []Range

// Contains reports whether v falls in any of the ranges.
// An empty union contains everything.
func (rs Ranges) Contains(v float64) bool {
	if len(rs) == 0 {
		return true
	}
	for _, r := range rs {
		if r.Contains(v) {
			return true
		}
	}
	return false
}

// Unconstrained reports whether the union admits every value.
func (rs Ranges) Unconstrained() bool {
	return len(rs) == 0 || slices.ContainsFunc(rs, Range.Unbounded)
}

// ParseRanges parses every token with parse and silently drops malformed ones.
func ParseRanges(tokens []string, parse func(string) (Range, error)) Ranges {
	var rs Ranges
	for _, t := range tokens {
		r, err := parse(t)
		if err != nil {
			continue
		}
		rs = append(rs, r)
	}
	return rs
}

// Allows reports whether v passes a discrete facet. Any always passes, and an
// empty selection means nothing was chosen yet, not that nothing is allowed.
func Allows[T comparable](c model.Choice[T], v T) bool {
	if c.Any || len(c.Values) == 0 {
		return true
	}
	return slices.Contains(c.Values, v)
}

// RangesFor returns the constraint a stored numeric facet imposes.
// Any, or no parseable ranges, yields an empty union.
func RangesFor(f model.RangeFacet, parse func(string) (Range, error)) Ranges {
	if f.Any {
		return nil
	}
	return ParseRanges(f.Ranges, parse)
}

// Match checks whether a listing satisfies a stored filter set.
// Facets combine with AND, values within a facet with OR.
func Match(l model.Listing, fs model.FilterSet) bool {
	if !Allows(fs.Type, l.Type) {
		return false
	}
	if !Allows(fs.District, l.District) {
		return false
	}
	if !Allows(fs.Condition, l.Condition) {
		return false
	}
	if !Allows(fs.Rooms, l.Rooms) {
		return false
	}
	// A facet without ranges never excludes a listing.
	if !RangesFor(fs.Area, ParseRange).Contains(l.Area) {
		return false
	}
	if !RangesFor(fs.Price, ParsePriceRange).Contains(float64(l.Price)) {
		return false
	}
	return true
}

// ValidateRange checks whether a token parses as a range.
func ValidateRange(token string) error {
	_, err := ParseRange(token)
	return err
}
