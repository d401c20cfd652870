package workflow

import (
	"slices"

	"github.com/jonathan/jobni/internal/types"
)

// transitions lists the statuses reachable from each status. Statuses
// without an entry are terminal.
var transitions = map[types.ApplicationStatus][]types.ApplicationStatus{
	types.StatusPending:  {types.StatusAccepted, types.StatusRejected},
	types.StatusAccepted: {types.StatusCompleted},
}

// CanTransition reports whether an application in status from may be moved
// to status to. Re-applying the current status is always allowed.
func CanTransition(from, to types.ApplicationStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	return from == to || slices.Contains(transitions[from], to)
}

// Sources returns every status from which to may be reached, including to
// itself.
func Sources(to types.ApplicationStatus) []types.ApplicationStatus {
	out := []types.ApplicationStatus{to}
	for from, targets := range transitions {
		if slices.Contains(targets, to) {
			out = append(out, from)
		}
	}
	return out
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s types.ApplicationStatus) bool {
	return len(transitions[s]) == 0
}
