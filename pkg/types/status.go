package types

// Form statuses. A form progresses through these statuses during its
// lifecycle; archived is terminal.
const (
	StatusDraft     = "draft"
	StatusCompleted = "completed"
	StatusFinal     = "final"
	StatusArchived  = "archived"
)

// validStatuses is the set of recognized status values.
var validStatuses = map[string]bool{
	StatusDraft:     true,
	StatusCompleted: true,
	StatusFinal:     true,
	StatusArchived:  true,
}

// transitions maps each status to the targets it may move to, in the
// order they are reported to callers. completed may return to draft for
// corrections; archived permits nothing.
var transitions = map[string][]string{
	StatusDraft:     {StatusCompleted},
	StatusCompleted: {StatusFinal, StatusDraft},
	StatusFinal:     {StatusArchived},
	StatusArchived:  {},
}

// ValidStatus reports whether s is a recognized status value.
func ValidStatus(s string) bool {
	return validStatuses[s]
}

// TransitionsFrom returns the statuses reachable from the given status.
// The returned slice is a copy; callers may mutate it.
func TransitionsFrom(status string) []string {
	targets := transitions[status]
	out := make([]string, len(targets))
	copy(out, targets)
	return out
}

// CanTransition reports whether the state machine permits moving from
// one status to another.
func CanTransition(from, to string) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// CanEdit reports whether forms in the given status accept body edits.
func CanEdit(status string) bool {
	return status == StatusDraft || status == StatusCompleted
}
