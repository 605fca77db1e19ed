package library

// transitions lists the moves offered from each shelf. A finished book
// cannot be moved back, so READ has no targets.
var transitions = map[Status][]Status{
	StatusToRead:    {StatusRead, StatusAbandoned},
	StatusRead:      nil,
	StatusAbandoned: {StatusToRead, StatusRead},
}

// LegalTargets returns the statuses a record in from may be moved to. The
// result is a fresh slice in display order.
func LegalTargets(from Status) []Status {
	targets := transitions[from]
	if len(targets) == 0 {
		return nil
	}
	return append([]Status(nil), targets...)
}

// CanTransition reports whether moving from one status to another is offered.
// The mutator does not enforce this; callers decide which actions to show.
func CanTransition(from, to Status) bool {
	for _, target := range transitions[from] {
		if target == to {
			return true
		}
	}
	return false
}
