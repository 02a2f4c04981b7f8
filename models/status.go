package models

// ComponentStatus is the closed review-state enumeration for a component.
// A component starts pending and can only ever move along the edges
// returned by CanTransitionTo; in particular nothing ever returns to
// pending.
type ComponentStatus string

const (
	StatusPending  ComponentStatus = "pending"
	StatusAccepted ComponentStatus = "accepted"
	StatusRejected ComponentStatus = "rejected"
)

// Valid reports whether s is one of the three known statuses.
func (s ComponentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether the edge s -> target is legal:
//
//	pending  -> accepted | rejected
//	accepted -> rejected  (re-review)
//	rejected -> accepted  (re-review)
func (s ComponentStatus) CanTransitionTo(target ComponentStatus) bool {
	if !s.Valid() || !target.Valid() || s == target {
		return false
	}
	// every legal edge ends outside pending
	return target != StatusPending
}

// Reviewed reports whether s is a post-review state.
func (s ComponentStatus) Reviewed() bool {
	return s == StatusAccepted || s == StatusRejected
}
