package domain

import (
	"sort"
	"time"

	"github.com/spec-kit/support-desk/pkg/id"
)

// allowedTransitions is the single source of truth for status legality.
// It is never written after package init.
var allowedTransitions = map[Status]map[Status]struct{}{
	StatusOpen: {
		StatusInProgress: {},
	},
	StatusInProgress: {
		StatusResolved: {},
	},
	StatusResolved: {
		StatusClosed:   {},
		StatusReopened: {},
	},
	StatusReopened: {
		StatusInProgress: {},
	},
	StatusClosed: {},
}

// CanTransition reports whether the table allows from -> to.
func CanTransition(from, to Status) bool {
	_, ok := allowedTransitions[from][to]
	return ok
}

// AllowedTargets lists the statuses reachable from the given status, sorted.
func AllowedTargets(from Status) []Status {
	targets := make([]Status, 0, len(allowedTransitions[from]))
	for to := range allowedTransitions[from] {
		targets = append(targets, to)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
	return targets
}

// TransitionRequest carries a requested status change. Expert is the already
// resolved expert (nil when the id was absent or unknown); Expert and
// Priority only matter when Target is IN_PROGRESS.
type TransitionRequest struct {
	Target   Status
	Expert   *Expert
	Priority *Priority
	Role     Role
	At       time.Time
}

// Transition validates req against the ticket's current status and, when
// legal, appends the new entry and applies the IN_PROGRESS side effects.
// On error the ticket is left untouched.
func (t *Ticket) Transition(req TransitionRequest) (TicketStatus, error) {
	current, ok := t.CurrentStatus()
	if !ok {
		return TicketStatus{}, ErrIllegalStatusChange.WithMessage("ticket %d has no status history", t.ID)
	}
	if !CanTransition(current.Status, req.Target) {
		return TicketStatus{}, ErrIllegalStatusChange.
			WithMessage("can't go from %s to %s", current.Status, req.Target).
			WithDetails(map[string]any{"current": current.Status, "requested": req.Target})
	}

	var expertID *int64
	if req.Target == StatusInProgress {
		if req.Expert == nil {
			return TicketStatus{}, ErrExpertNotFound
		}
		if req.Priority == nil || !req.Priority.Assignable() {
			return TicketStatus{}, ErrIllegalPriority
		}
		eid := req.Expert.ID
		expertID = &eid
	}

	at := req.At
	if at.IsZero() {
		at = time.Now()
	}
	// keep the history ordered so the appended entry becomes current
	if at.Before(current.Timestamp) {
		at = current.Timestamp
	}
	role := req.Role
	if role == "" {
		role = RoleUnknown
	}

	entry := TicketStatus{
		ID:        id.New(),
		TicketID:  t.ID,
		Status:    req.Target,
		Timestamp: at,
		Role:      role,
		ExpertID:  expertID,
	}
	t.History = append(t.History, entry)
	if req.Target == StatusInProgress {
		t.Priority = *req.Priority
		assigned := *expertID
		t.ExpertID = &assigned
	}
	return entry, nil
}
