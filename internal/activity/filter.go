package activity

import (
	"fmt"
	"strings"
)

// Combinator selects how the active filter predicates are combined.
type Combinator int

const (
	And Combinator = iota
	Or
)

func (c Combinator) String() string {
	if c == Or {
		return "or"
	}
	return "and"
}

// ParseCombinator accepts "and" or "or", ignoring case. The empty string
// means the default, And.
func ParseCombinator(s string) (Combinator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "and":
		return And, nil
	case "or":
		return Or, nil
	default:
		return And, fmt.Errorf("%w: unknown combinator %q", ErrInvalidFilter, s)
	}
}

// FilterSpec holds the user-supplied selection criteria. A zero value for a
// field means the corresponding predicate is inactive and takes no part in
// the combination.
type FilterSpec struct {
	// Names are case-insensitive substrings matched against the activity
	// name. Multiple substrings are OR-combined regardless of the outer
	// combinator.
	Names []string

	// Type is matched against the activity type, case-insensitive, exact.
	Type string

	// Radius in kilometers around Center. Must be non-negative.
	Radius *float64

	// Center is the reference coordinate for Radius. When nil and Radius is
	// set, the start coordinate of the most recent activity is used.
	Center *Coordinate

	// SkipTypes are never selected, whatever the combinator says.
	SkipTypes []string
}

// Validate rejects malformed specs. It runs before any network activity.
func (s FilterSpec) Validate() error {
	if s.Radius != nil && *s.Radius < 0 {
		return fmt.Errorf("%w: radius must be non-negative, got %g", ErrInvalidFilter, *s.Radius)
	}
	if s.Center != nil && s.Radius == nil {
		return fmt.Errorf("%w: a reference coordinate requires a radius", ErrInvalidFilter)
	}
	return nil
}

type predicate func(Activity) bool

// Filter selects the activities matching spec, combining the active
// predicates with comb. The input must be ordered most recent first: when a
// radius is given without a center, the reference coordinate is resolved
// from the first activity of the unfiltered list before any predicate runs.
// The input slice is never modified and relative order is preserved.
func Filter(activities []Activity, spec FilterSpec, comb Combinator) ([]Activity, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	preds, err := spec.predicates(activities)
	if err != nil {
		return nil, err
	}

	selected := make([]Activity, 0, len(activities))
	for _, a := range activities {
		if spec.skipped(a) {
			continue
		}
		if matches(a, preds, comb) {
			selected = append(selected, a)
		}
	}

	return selected, nil
}

func (s FilterSpec) predicates(activities []Activity) ([]predicate, error) {
	var preds []predicate

	if len(s.Names) > 0 {
		names := s.Names
		preds = append(preds, func(a Activity) bool {
			name := strings.ToLower(a.Name)
			for _, n := range names {
				if strings.Contains(name, strings.ToLower(n)) {
					return true
				}
			}
			return false
		})
	}

	if s.Type != "" {
		typ := s.Type
		preds = append(preds, func(a Activity) bool {
			return strings.EqualFold(a.Type, typ)
		})
	}

	if s.Radius != nil {
		ref, err := s.referenceCoordinate(activities)
		if err != nil {
			return nil, err
		}
		radius := *s.Radius
		preds = append(preds, func(a Activity) bool {
			return Distance(ref, a.Start) <= radius
		})
	}

	return preds, nil
}

func (s FilterSpec) referenceCoordinate(activities []Activity) (Coordinate, error) {
	if s.Center != nil {
		return *s.Center, nil
	}
	if len(activities) == 0 {
		return Coordinate{}, fmt.Errorf("%w: no activities to derive a reference coordinate from", ErrInsufficientData)
	}
	return activities[0].Start, nil
}

func (s FilterSpec) skipped(a Activity) bool {
	for _, t := range s.SkipTypes {
		if strings.EqualFold(a.Type, t) {
			return true
		}
	}
	return false
}

func matches(a Activity, preds []predicate, comb Combinator) bool {
	if len(preds) == 0 {
		return true
	}
	for _, p := range preds {
		ok := p(a)
		if comb == And && !ok {
			return false
		}
		if comb == Or && ok {
			return true
		}
	}
	return comb == And
}
