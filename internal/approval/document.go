package approval

import "time"

// DocType discriminates the three document variants that share the
// approval machinery.
type DocType string

const (
	DocTypeMemo        DocType = "memo"
	DocTypeLeave       DocType = "leave"
	DocTypeRequisition DocType = "requisition"
)

// Status is the coarse document label kept alongside the per-role flags.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSubmitted Status = "submitted"
	StatusInReview  Status = "in_review"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// MemoKind distinguishes ordinary memos from report memos, which carry
// recipient acknowledgments instead of a payment step audience.
type MemoKind string

const (
	MemoKindStandard MemoKind = "standard"
	MemoKindReport   MemoKind = "report"
)

// Acknowledgment records one recipient's acknowledgment of a report memo.
type Acknowledgment struct {
	UserID     string    `json:"user_id"`
	Role       Role      `json:"role"`
	Department string    `json:"department"`
	Timestamp  time.Time `json:"timestamp"`
}

// Document is the normalized projection of a backend record that the
// state machine operates on. Per-role flags live in maps keyed by
// canonical Role — never in dynamically named fields.
type Document struct {
	ID         string
	Type       DocType
	CreatedBy  string
	Department string
	Status     Status

	// Approvals and Rejections are mutually exclusive per role: at most
	// one of the two may be true for any role at any time.
	Approvals  map[Role]bool
	Rejections map[Role]bool

	// FinanceActioned is the memo-only terminal payment flag. Once true
	// the approval flags are immutable.
	FinanceActioned bool

	MemoKind        MemoKind
	Recipients      []string
	CC              []string
	Acknowledgments []Acknowledgment
	PendingAckRoles []string
}

// Clone returns a deep copy. Transition functions never mutate their
// input; they clone, modify the clone and return it.
func (d Document) Clone() Document {
	out := d
	out.Approvals = make(map[Role]bool, len(d.Approvals))
	for k, v := range d.Approvals {
		out.Approvals[k] = v
	}
	out.Rejections = make(map[Role]bool, len(d.Rejections))
	for k, v := range d.Rejections {
		out.Rejections[k] = v
	}
	out.Recipients = append([]string(nil), d.Recipients...)
	out.CC = append([]string(nil), d.CC...)
	out.Acknowledgments = append([]Acknowledgment(nil), d.Acknowledgments...)
	out.PendingAckRoles = append([]string(nil), d.PendingAckRoles...)
	return out
}

// ApprovedBy reports whether the given canonical role has approved.
func (d Document) ApprovedBy(role Role) bool { return d.Approvals[role] }

// RejectedBy reports whether the given canonical role has rejected.
func (d Document) RejectedBy(role Role) bool { return d.Rejections[role] }

// anyRejection reports whether any role has rejected the document.
func (d Document) anyRejection() bool {
	for _, v := range d.Rejections {
		if v {
			return true
		}
	}
	return false
}
