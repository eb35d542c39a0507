package domain

import (
	"errors"
	"testing"
)

func request(status RequestStatus, ownerID string, docs ...DocumentSlot) *Request {
	req := &Request{Status: status, CreatedByID: ownerID}
	for _, slot := range docs {
		switch slot {
		case SlotQuotation:
			req.QuotationPath = "documents/quotation.pdf"
			req.QuotationName = "quotation.pdf"
		case SlotSignedQuotation:
			req.SignedQuotationPath = "documents/signed.pdf"
			req.SignedQuotationName = "signed.pdf"
		}
	}
	return req
}

func TestValidateTransition(t *testing.T) {
	const owner = "owner-1"
	const other = "other-1"

	tests := []struct {
		name    string
		req     *Request
		to      RequestStatus
		role    Role
		actorID string
		reason  string
		unmet   Precondition // empty means the transition must be allowed
	}{
		{
			name: "approver approves pending with quotation",
			req:  request(StatusPending, owner, SlotQuotation),
			to:   StatusApproved, role: RoleApprover, actorID: other,
		},
		{
			name: "admin approves pending with quotation",
			req:  request(StatusPending, owner, SlotQuotation),
			to:   StatusApproved, role: RoleAdmin, actorID: other,
		},
		{
			name: "approve without quotation refused",
			req:  request(StatusPending, owner),
			to:   StatusApproved, role: RoleApprover, actorID: other,
			unmet: PreconditionDocument,
		},
		{
			name: "requester cannot approve own request",
			req:  request(StatusPending, owner, SlotQuotation),
			to:   StatusApproved, role: RoleUser, actorID: owner,
			unmet: PreconditionRole,
		},
		{
			name: "reject with reason",
			req:  request(StatusPending, owner),
			to:   StatusRejected, role: RoleApprover, actorID: other, reason: "over budget",
		},
		{
			name: "reject without reason refused",
			req:  request(StatusPending, owner),
			to:   StatusRejected, role: RoleApprover, actorID: other,
			unmet: PreconditionReason,
		},
		{
			name: "owner cancels own pending request",
			req:  request(StatusPending, owner),
			to:   StatusCancelled, role: RoleUser, actorID: owner,
		},
		{
			name: "user cannot cancel someone else's request",
			req:  request(StatusPending, owner),
			to:   StatusCancelled, role: RoleUser, actorID: other,
			unmet: PreconditionOwnership,
		},
		{
			name: "admin cancels any pending request",
			req:  request(StatusPending, owner),
			to:   StatusCancelled, role: RoleAdmin, actorID: other,
		},
		{
			name: "approver cannot cancel",
			req:  request(StatusPending, owner),
			to:   StatusCancelled, role: RoleApprover, actorID: other,
			unmet: PreconditionRole,
		},
		{
			name: "owner marks approved request ordered",
			req:  request(StatusApproved, owner),
			to:   StatusOrdered, role: RoleUser, actorID: owner,
		},
		{
			name: "approver cannot mark ordered",
			req:  request(StatusApproved, owner),
			to:   StatusOrdered, role: RoleApprover, actorID: other,
			unmet: PreconditionRole,
		},
		{
			name: "owner completes ordered request with signed quotation",
			req:  request(StatusOrdered, owner, SlotSignedQuotation),
			to:   StatusCompleted, role: RoleUser, actorID: owner,
		},
		{
			name: "complete without signed quotation refused",
			req:  request(StatusOrdered, owner),
			to:   StatusCompleted, role: RoleUser, actorID: owner,
			unmet: PreconditionDocument,
		},
		{
			name: "cannot skip from pending to ordered",
			req:  request(StatusPending, owner, SlotQuotation),
			to:   StatusOrdered, role: RoleAdmin, actorID: other,
			unmet: PreconditionRule,
		},
		{
			name: "cannot reopen a rejected request",
			req:  request(StatusRejected, owner),
			to:   StatusPending, role: RoleAdmin, actorID: other,
			unmet: PreconditionRule,
		},
		{
			name: "cannot approve twice",
			req:  request(StatusApproved, owner, SlotQuotation),
			to:   StatusApproved, role: RoleApprover, actorID: other,
			unmet: PreconditionRule,
		},
		{
			name: "cancelled is terminal",
			req:  request(StatusCancelled, owner),
			to:   StatusOrdered, role: RoleAdmin, actorID: other,
			unmet: PreconditionRule,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTransition(tc.req, tc.to, tc.role, tc.actorID, tc.reason)
			if tc.unmet == "" {
				if err != nil {
					t.Fatalf("expected transition to be allowed, got %v", err)
				}
				return
			}
			var terr *TransitionError
			if !errors.As(err, &terr) {
				t.Fatalf("expected *TransitionError, got %v", err)
			}
			if terr.Unmet != tc.unmet {
				t.Errorf("unmet = %q, want %q", terr.Unmet, tc.unmet)
			}
			if terr.From != tc.req.Status || terr.To != tc.to {
				t.Errorf("error names %s -> %s, want %s -> %s", terr.From, terr.To, tc.req.Status, tc.to)
			}
		})
	}
}

func TestTerminalStatusesHaveNoTransitions(t *testing.T) {
	all := []RequestStatus{StatusPending, StatusApproved, StatusRejected, StatusOrdered, StatusCompleted, StatusCancelled}
	for _, from := range all {
		if !from.IsTerminal() {
			continue
		}
		for _, to := range all {
			err := ValidateTransition(request(from, "x"), to, RoleAdmin, "y", "reason")
			if err == nil {
				t.Errorf("terminal status %s allowed transition to %s", from, to)
			}
		}
	}
}

func TestRequiredDocument(t *testing.T) {
	slot, ok := RequiredDocument(StatusPending, StatusApproved)
	if !ok || slot != SlotQuotation {
		t.Errorf("approval gate = (%q, %v), want (quotation, true)", slot, ok)
	}
	slot, ok = RequiredDocument(StatusOrdered, StatusCompleted)
	if !ok || slot != SlotSignedQuotation {
		t.Errorf("completion gate = (%q, %v), want (signed_quotation, true)", slot, ok)
	}
	if _, ok := RequiredDocument(StatusPending, StatusRejected); ok {
		t.Error("rejection should not require a document")
	}
}

func TestComputeTotal(t *testing.T) {
	req := &Request{
		Items: []RequestItem{
			{Name: "Laptop", Quantity: 2, EstimatedPrice: 25000},
			{Name: "Dock", Quantity: 3, EstimatedPrice: 1500},
		},
	}
	if got := req.ComputeTotal(); got != 54500 {
		t.Errorf("ComputeTotal() = %v, want 54500", got)
	}

	empty := &Request{}
	if got := empty.ComputeTotal(); got != 0 {
		t.Errorf("ComputeTotal() on empty request = %v, want 0", got)
	}
}

func TestStatusTimestampColumn(t *testing.T) {
	tests := []struct {
		to     RequestStatus
		column string
		ok     bool
	}{
		{StatusApproved, "approved_at", true},
		{StatusOrdered, "ordered_at", true},
		{StatusCompleted, "completed_at", true},
		{StatusCancelled, "cancelled_at", true},
		{StatusRejected, "", false},
		{StatusPending, "", false},
	}
	for _, tc := range tests {
		column, ok := StatusTimestampColumn(tc.to)
		if column != tc.column || ok != tc.ok {
			t.Errorf("StatusTimestampColumn(%s) = (%q, %v), want (%q, %v)", tc.to, column, ok, tc.column, tc.ok)
		}
	}
}
