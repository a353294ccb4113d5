package approval

import (
	"fmt"

	"github.com/orbiterp/be-approvals/internal/apperrors"
)

// Classification is the single authority behind the pending / approved /
// rejected / completed UI tabs. Callers must never reimplement the
// predicate; tab counts derive from Classify alone.
type Classification string

const (
	ClassPending   Classification = "pending"
	ClassApproved  Classification = "approved"
	ClassRejected  Classification = "rejected"
	ClassCompleted Classification = "completed"
)

// IsTerminal reports whether the document can no longer accept approval
// actions: any rejection, or the completed payment state.
func IsTerminal(doc Document) bool {
	if doc.Status == StatusRejected || doc.Status == StatusCompleted {
		return true
	}
	if doc.anyRejection() {
		return true
	}
	if doc.Type == DocTypeMemo && doc.FinanceActioned {
		return true
	}
	return false
}

// NextEligibleRole returns the chain role whose approval is due next.
// ok is false when the chain is fully approved or the document was
// rejected — there is nothing left to solicit.
func NextEligibleRole(doc Document) (role Role, ok bool, err error) {
	chain, err := ResolveChain(doc.Type, doc.Department)
	if err != nil {
		return "", false, err
	}
	if doc.anyRejection() || doc.Status == StatusRejected {
		return "", false, nil
	}
	i := leadingApprovals(chain, doc)
	if i >= len(chain) {
		return "", false, nil
	}
	return chain[i], true, nil
}

// leadingApprovals counts consecutive true approval flags from the start
// of the chain. The result is the index of the next pending seat.
func leadingApprovals(chain []Role, doc Document) int {
	i := 0
	for i < len(chain) && doc.Approvals[chain[i]] {
		i++
	}
	return i
}

// fullyApproved reports whether every seat in the chain has approved.
func fullyApproved(chain []Role, doc Document) bool {
	return leadingApprovals(chain, doc) == len(chain)
}

// chairmanMayAct is the one place the chairman's queue bypass lives.
// Observed backend behavior: the chairman is gated only on "has not yet
// acted", not on chain position. Kept as-is rather than silently fixed;
// see DESIGN.md before touching this.
func chairmanMayAct(doc Document) bool {
	return !doc.Approvals[RoleChairman] && !doc.Rejections[RoleChairman]
}

// CanAct reports whether the acting role may approve or reject the
// document right now. The raw role string is normalized before the
// comparison.
func CanAct(doc Document, actingRole string) (bool, error) {
	if IsTerminal(doc) {
		return false, nil
	}
	role := NormalizeRole(actingRole)
	if role == RoleChairman {
		chain, err := ResolveChain(doc.Type, doc.Department)
		if err != nil {
			return false, err
		}
		if chainIndex(chain, RoleChairman) >= 0 && chairmanMayAct(doc) {
			return true, nil
		}
		return false, nil
	}
	next, ok, err := NextEligibleRole(doc)
	if err != nil {
		return false, err
	}
	return ok && role == next, nil
}

// Classify buckets the document for one viewer. Exactly one bucket
// applies; when conditions overlap the priority is
// completed > rejected > approved > pending.
//
// The creator only sees "approved" once the chain is complete and, for
// memos, finance has paid — which for memos means the record jumps from
// pending straight to completed. Chain participants see "approved" as
// soon as their own seat has acted or the chain finished.
func Classify(doc Document, viewerID, viewerRole string) (Classification, error) {
	chain, err := ResolveChain(doc.Type, doc.Department)
	if err != nil {
		return "", err
	}

	if doc.Status == StatusCompleted {
		return ClassCompleted, nil
	}
	if doc.anyRejection() || doc.Status == StatusRejected {
		return ClassRejected, nil
	}

	full := fullyApproved(chain, doc)

	if viewerID == doc.CreatedBy {
		if full && (doc.Type != DocTypeMemo || doc.FinanceActioned) {
			return ClassApproved, nil
		}
		return ClassPending, nil
	}

	role := NormalizeRole(viewerRole)
	if chainIndex(chain, role) >= 0 {
		if doc.Approvals[role] || full {
			return ClassApproved, nil
		}
		return ClassPending, nil
	}

	if full {
		return ClassApproved, nil
	}
	return ClassPending, nil
}

// Approve records the acting role's approval and returns the updated
// document. The input is never mutated.
func Approve(doc Document, actingRole, actingUserID string) (Document, error) {
	if IsTerminal(doc) {
		return Document{}, apperrors.TerminalState(
			fmt.Sprintf("document %s is already %s", doc.ID, doc.Status))
	}
	ok, err := CanAct(doc, actingRole)
	if err != nil {
		return Document{}, err
	}
	role := NormalizeRole(actingRole)
	if !ok {
		return Document{}, apperrors.NotEligible(
			fmt.Sprintf("role %q is not the next approver for document %s", role, doc.ID))
	}

	out := doc.Clone()
	out.Approvals[role] = true
	delete(out.Rejections, role) // per-role flags stay mutually exclusive

	chain, err := ResolveChain(out.Type, out.Department)
	if err != nil {
		return Document{}, err
	}
	if fullyApproved(chain, out) {
		out.Status = StatusApproved
	}
	return out, nil
}

// Reject records the acting role's rejection. Rejection is terminal: the
// chain halts and no further approvals are solicited.
func Reject(doc Document, actingRole, actingUserID string) (Document, error) {
	if IsTerminal(doc) {
		return Document{}, apperrors.TerminalState(
			fmt.Sprintf("document %s is already %s", doc.ID, doc.Status))
	}
	ok, err := CanAct(doc, actingRole)
	if err != nil {
		return Document{}, err
	}
	role := NormalizeRole(actingRole)
	if !ok {
		return Document{}, apperrors.NotEligible(
			fmt.Sprintf("role %q is not the next approver for document %s", role, doc.ID))
	}

	out := doc.Clone()
	out.Rejections[role] = true
	delete(out.Approvals, role)
	out.Status = StatusRejected
	return out, nil
}

// Pay executes finance's terminal payment step on a fully approved memo.
func Pay(doc Document, actingUserID string) (Document, error) {
	if doc.Type != DocTypeMemo {
		return Document{}, apperrors.PreconditionFailed(
			fmt.Sprintf("payment is not defined for %s documents", doc.Type))
	}
	if doc.FinanceActioned {
		return Document{}, apperrors.PreconditionFailed(
			fmt.Sprintf("memo %s has already been paid", doc.ID))
	}
	if doc.Status != StatusApproved {
		return Document{}, apperrors.PreconditionFailed(
			fmt.Sprintf("memo %s is not fully approved (status: %s)", doc.ID, doc.Status))
	}

	out := doc.Clone()
	out.FinanceActioned = true
	out.Status = StatusCompleted
	return out, nil
}
