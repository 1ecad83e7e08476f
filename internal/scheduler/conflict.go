package scheduler

import "strings"

// Conflict details an existing booking that overlaps a candidate.
type Conflict struct {
	With  Booking
	Index int
}

// Validator decides whether two bookings collide.
type Validator struct {
	// ExemptSameContact treats bookings sharing a non-empty ContactKey as the
	// same requester, so they never conflict with each other.
	ExemptSameContact bool
}

// DefaultValidator returns the validator matching legacy behavior.
func DefaultValidator() Validator {
	return Validator{ExemptSameContact: true}
}

// SameScope reports whether two bookings compete for the same resource.
// Bookings without a resource only compete with other resource-less bookings.
func SameScope(a, b Booking) bool {
	return strings.TrimSpace(a.ResourceID) == strings.TrimSpace(b.ResourceID)
}

// Conflicts reports whether a and b overlap on the same resource. Touching
// endpoints do not overlap.
func (v Validator) Conflicts(a, b Booking) (bool, error) {
	aStart, aEnd, err := Window(a)
	if err != nil {
		return false, err
	}
	bStart, bEnd, err := Window(b)
	if err != nil {
		return false, err
	}

	if !SameScope(a, b) {
		return false, nil
	}
	if v.ExemptSameContact && sameContact(a, b) {
		return false, nil
	}

	return aStart.Before(bEnd) && bStart.Before(aEnd), nil
}

// FirstConflict scans existing in order and returns the first booking that
// conflicts with candidate. Entries for which skip returns true are ignored.
// A malformed entry aborts the scan with its ParseError.
func (v Validator) FirstConflict(existing []Booking, candidate Booking, skip func(int) bool) (*Conflict, error) {
	for i, current := range existing {
		if skip != nil && skip(i) {
			continue
		}
		hit, err := v.Conflicts(candidate, current)
		if err != nil {
			return nil, err
		}
		if hit {
			return &Conflict{With: current.Clone(), Index: i}, nil
		}
	}
	return nil, nil
}

// DetectConflicts returns every existing booking that conflicts with candidate.
func (v Validator) DetectConflicts(existing []Booking, candidate Booking) ([]Conflict, error) {
	var conflicts []Conflict
	for i, current := range existing {
		hit, err := v.Conflicts(candidate, current)
		if err != nil {
			return nil, err
		}
		if hit {
			conflicts = append(conflicts, Conflict{With: current.Clone(), Index: i})
		}
	}
	return conflicts, nil
}

func sameContact(a, b Booking) bool {
	ak := strings.TrimSpace(a.ContactKey)
	return ak != "" && ak == strings.TrimSpace(b.ContactKey)
}
