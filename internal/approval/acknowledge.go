package approval

import (
	"fmt"
	"strings"
	"time"

	"github.com/orbiterp/be-approvals/internal/apperrors"
)

// Acknowledgment tracking for report memos. This is deliberately not part
// of the approval chain: it is plain set membership over recipients, with
// a parallel list of roles that still owe an acknowledgment.

// IsAcknowledgedBy reports whether the user has acknowledged the memo.
func IsAcknowledgedBy(doc Document, userID string) bool {
	for _, a := range doc.Acknowledgments {
		if a.UserID == userID {
			return true
		}
	}
	return false
}

// RecordAcknowledgment appends an acknowledgment entry for the user and
// drops their role from the still-pending list. Idempotent: a repeat call
// for the same user returns the memo unchanged rather than duplicating
// the entry — the backend does not enforce this, so it is guaranteed here.
func RecordAcknowledgment(doc Document, userID, role, department string) (Document, error) {
	if doc.Type != DocTypeMemo || doc.MemoKind != MemoKindReport {
		return Document{}, apperrors.PreconditionFailed(
			fmt.Sprintf("acknowledgments are only tracked on report memos, got %s/%s",
				doc.Type, doc.MemoKind))
	}
	if IsAcknowledgedBy(doc, userID) {
		return doc, nil
	}

	out := doc.Clone()
	out.Acknowledgments = append(out.Acknowledgments, Acknowledgment{
		UserID:     userID,
		Role:       NormalizeRole(role),
		Department: department,
		Timestamp:  time.Now().UTC(),
	})
	out.PendingAckRoles = removeRole(out.PendingAckRoles, role)
	return out, nil
}

// removeRole filters raw role entries that normalize to the same seat.
func removeRole(pending []string, role string) []string {
	target := NormalizeRole(role)
	out := pending[:0]
	for _, p := range pending {
		if NormalizeRole(p) != target && !strings.EqualFold(p, role) {
			out = append(out, p)
		}
	}
	return out
}
