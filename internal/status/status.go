// Package status encodes the application review lifecycle: the states an
// application can be in, which transitions are legal, and which actor may
// trigger each one. It is pure logic with no I/O; callers consult it before
// issuing any transition to the backend.
package status

// Status is the review state of an application. Exactly one value is active
// at any time.
type Status string

const (
	Draft         Status = "draft"
	Submitted     Status = "submitted"
	UnderReview   Status = "under_review"
	Approved      Status = "approved"
	Rejected      Status = "rejected"
	InfoRequested Status = "info_requested"
)

// Actor identifies who is requesting a transition.
type Actor int

const (
	// ActorSystem is the automatic actor: the review workspace applies
	// submitted -> under_review eagerly whenever it observes a submitted
	// application.
	ActorSystem Actor = iota
	// ActorAdmin is an admin reviewer acting on an application.
	ActorAdmin
)

// transitions is the single source of truth for legal status changes.
// Anything outside this table is rejected locally and never sent to the
// backend. Draft appears in the type but has no producer: applications are
// created already submitted.
var transitions = map[Status]map[Status]Actor{
	Submitted: {
		UnderReview: ActorSystem,
	},
	UnderReview: {
		Approved:      ActorAdmin,
		Rejected:      ActorAdmin,
		InfoRequested: ActorAdmin,
	},
}

var all = []Status{Draft, Submitted, UnderReview, Approved, Rejected, InfoRequested}

// All returns every known status in declaration order.
func All() []Status {
	out := make([]Status, len(all))
	copy(out, all)
	return out
}

// Valid reports whether s is a known status value.
func Valid(s Status) bool {
	for _, v := range all {
		if v == s {
			return true
		}
	}
	return false
}

// Initial is the state an application is created in.
func Initial() Status { return Submitted }

// Terminal reports whether no further transitions are modeled from s.
// info_requested is terminal here: the backend exposes no forward transition
// back to under_review once more information has been supplied.
func Terminal(s Status) bool {
	switch s {
	case Approved, Rejected, InfoRequested:
		return true
	}
	return false
}

// CanTransition reports whether actor may move an application from one
// status to another.
func CanTransition(from, to Status, actor Actor) bool {
	targets, ok := transitions[from]
	if !ok {
		return false
	}
	required, ok := targets[to]
	if !ok {
		return false
	}
	// Admins may also trigger the automatic transition by hand.
	return actor == required || (actor == ActorAdmin && required == ActorSystem)
}

// AdminTargets returns the statuses an admin may move an application to from
// its current state. These are exactly the actions a review surface offers;
// an empty result means no transition control is rendered.
func AdminTargets(from Status) []Status {
	if from != UnderReview {
		return nil
	}
	return []Status{Approved, Rejected, InfoRequested}
}

// TransitionTargets returns every status reachable from any state. Used to
// bound what the client will ever send in a status update request.
func TransitionTargets() []Status {
	return []Status{UnderReview, Approved, Rejected, InfoRequested}
}

// IsTransitionTarget reports whether s ever appears as a transition target.
func IsTransitionTarget(s Status) bool {
	for _, t := range TransitionTargets() {
		if t == s {
			return true
		}
	}
	return false
}
