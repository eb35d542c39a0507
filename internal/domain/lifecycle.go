package domain

import "fmt"

// Precondition names the requirement a refused transition failed.
type Precondition string

const (
	PreconditionRule      Precondition = "no_such_transition"
	PreconditionRole      Precondition = "role_not_allowed"
	PreconditionOwnership Precondition = "not_request_owner"
	PreconditionDocument  Precondition = "missing_document"
	PreconditionReason    Precondition = "reason_required"
)

// TransitionError describes why a status change was refused. The request is
// never modified when one is returned.
type TransitionError struct {
	From   RequestStatus
	To     RequestStatus
	Unmet  Precondition
	Detail string
}

func (e *TransitionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("transition %s -> %s refused: %s (%s)", e.From, e.To, e.Unmet, e.Detail)
	}
	return fmt.Sprintf("transition %s -> %s refused: %s", e.From, e.To, e.Unmet)
}

// transitionRule captures who may perform a transition and what must be in
// place before it runs.
type transitionRule struct {
	roles        []Role
	ownerOnly    []Role // subset of roles that may only act on their own requests
	requiredSlot DocumentSlot
	needsReason  bool
}

func (r transitionRule) allows(role Role) bool {
	for _, allowed := range r.roles {
		if allowed == role {
			return true
		}
	}
	return false
}

func (r transitionRule) requiresOwnership(role Role) bool {
	for _, restricted := range r.ownerOnly {
		if restricted == role {
			return true
		}
	}
	return false
}

// transitions is the complete lifecycle. Anything absent is forbidden.
var transitions = map[RequestStatus]map[RequestStatus]transitionRule{
	StatusPending: {
		StatusApproved: {
			roles:        []Role{RoleApprover, RoleAdmin},
			requiredSlot: SlotQuotation,
		},
		StatusRejected: {
			roles:       []Role{RoleApprover, RoleAdmin},
			needsReason: true,
		},
		StatusCancelled: {
			roles:     []Role{RoleUser, RoleAdmin},
			ownerOnly: []Role{RoleUser},
		},
	},
	StatusApproved: {
		StatusOrdered: {
			roles:     []Role{RoleUser, RoleAdmin},
			ownerOnly: []Role{RoleUser},
		},
	},
	StatusOrdered: {
		StatusCompleted: {
			roles:        []Role{RoleUser, RoleAdmin},
			ownerOnly:    []Role{RoleUser},
			requiredSlot: SlotSignedQuotation,
		},
	},
}

// ValidateTransition checks a proposed status change against the lifecycle
// rules. It is pure: callers persist the change only after it returns nil.
// Unknown or unlisted transitions fail closed.
func ValidateTransition(req *Request, to RequestStatus, role Role, actorID string, reason string) error {
	rule, ok := transitions[req.Status][to]
	if !ok {
		return &TransitionError{From: req.Status, To: to, Unmet: PreconditionRule}
	}
	if !rule.allows(role) {
		return &TransitionError{From: req.Status, To: to, Unmet: PreconditionRole, Detail: string(role)}
	}
	if rule.requiresOwnership(role) && !req.IsOwnedBy(actorID) {
		return &TransitionError{From: req.Status, To: to, Unmet: PreconditionOwnership}
	}
	if rule.requiredSlot != "" && !req.HasDocument(rule.requiredSlot) {
		return &TransitionError{From: req.Status, To: to, Unmet: PreconditionDocument, Detail: string(rule.requiredSlot)}
	}
	if rule.needsReason && reason == "" {
		return &TransitionError{From: req.Status, To: to, Unmet: PreconditionReason}
	}
	return nil
}

// RequiredDocument returns the slot a transition into the given status
// depends on, if any.
func RequiredDocument(from, to RequestStatus) (DocumentSlot, bool) {
	rule, ok := transitions[from][to]
	if !ok || rule.requiredSlot == "" {
		return "", false
	}
	return rule.requiredSlot, true
}

// StatusTimestampColumn maps a target status to the column recording when the
// request entered it.
func StatusTimestampColumn(to RequestStatus) (string, bool) {
	switch to {
	case StatusApproved:
		return "approved_at", true
	case StatusOrdered:
		return "ordered_at", true
	case StatusCompleted:
		return "completed_at", true
	case StatusCancelled:
		return "cancelled_at", true
	}
	return "", false
}
