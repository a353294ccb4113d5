// Package adapter translates raw ERP backend records into the normalized
// approval.Document model and back into the field deltas the backend
// expects. All role-string and representation quirks of the backend are
// absorbed here, at the boundary, so the core never sees them.
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/orbiterp/be-approvals/internal/apperrors"
	"github.com/orbiterp/be-approvals/internal/approval"
)

// DirectoryLookup resolves a creator's profile when the record itself
// carries no department. Implemented by client.DirectoryClient.
type DirectoryLookup interface {
	GetUserDepartment(ctx context.Context, userID string) (string, error)
}

// Adapter parses raw records for all three document types.
type Adapter struct {
	directory DirectoryLookup
}

// New creates an Adapter. directory may be nil, in which case records
// without a department fall back to the short default chain.
func New(directory DirectoryLookup) *Adapter {
	return &Adapter{directory: directory}
}

// Parse dispatches on document type.
func (a *Adapter) Parse(ctx context.Context, docType approval.DocType, raw []byte) (approval.Document, error) {
	switch docType {
	case approval.DocTypeMemo:
		return a.ParseMemo(ctx, raw)
	case approval.DocTypeLeave:
		return a.ParseLeave(ctx, raw)
	case approval.DocTypeRequisition:
		return a.ParseRequisition(ctx, raw)
	}
	return approval.Document{}, apperrors.Configuration(
		fmt.Sprintf("unknown document type %q", docType))
}

const (
	approvedPrefix = "approved_by_"
	rejectedPrefix = "rejected_by_"
)

// parseCommon handles the fields shared by every document type.
func (a *Adapter) parseCommon(ctx context.Context, docType approval.DocType, raw []byte) (approval.Document, map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return approval.Document{}, nil, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput,
			"malformed document record")
	}

	doc := approval.Document{
		Type:       docType,
		ID:         stringField(fields, "id"),
		CreatedBy:  stringField(fields, "created_by"),
		Department: stringField(fields, "department"),
		Status:     approval.Status(strings.ToLower(stringField(fields, "status"))),
		Approvals:  map[approval.Role]bool{},
		Rejections: map[approval.Role]bool{},
	}
	if doc.Status == "" {
		doc.Status = approval.StatusSubmitted
	}

	for key, val := range fields {
		switch {
		case strings.HasPrefix(key, approvedPrefix):
			if truthy(val) {
				doc.Approvals[approval.NormalizeRole(strings.TrimPrefix(key, approvedPrefix))] = true
			}
		case strings.HasPrefix(key, rejectedPrefix):
			if truthy(val) {
				doc.Rejections[approval.NormalizeRole(strings.TrimPrefix(key, rejectedPrefix))] = true
			}
		}
	}

	// Records created before the department column existed carry none;
	// fall back to the creator's directory profile.
	if doc.Department == "" && doc.CreatedBy != "" && a.directory != nil {
		dept, err := a.directory.GetUserDepartment(ctx, doc.CreatedBy)
		if err != nil {
			return approval.Document{}, nil, apperrors.Wrap(err, apperrors.ErrCodeInternal,
				fmt.Sprintf("department lookup for creator %s failed", doc.CreatedBy))
		}
		doc.Department = dept
	}

	return doc, fields, nil
}

// ParseLeave adapts a raw leave-request record.
func (a *Adapter) ParseLeave(ctx context.Context, raw []byte) (approval.Document, error) {
	doc, _, err := a.parseCommon(ctx, approval.DocTypeLeave, raw)
	return doc, err
}

// ParseRequisition adapts a raw requisition record. The creator's
// department (own field or directory fallback) selects the chain variant.
func (a *Adapter) ParseRequisition(ctx context.Context, raw []byte) (approval.Document, error) {
	doc, _, err := a.parseCommon(ctx, approval.DocTypeRequisition, raw)
	return doc, err
}

// Delta computes the backend PATCH body for a single transition: only the
// fields the transition changed, in the backend's own vocabulary.
func Delta(before, after approval.Document) map[string]any {
	delta := map[string]any{}

	for role, v := range after.Approvals {
		if v && !before.Approvals[role] {
			delta[approvedPrefix+string(role)] = true
		}
	}
	for role, v := range after.Rejections {
		if v && !before.Rejections[role] {
			delta[rejectedPrefix+string(role)] = true
		}
	}
	if after.Status != before.Status {
		delta["status"] = string(after.Status)
	}
	if after.FinanceActioned && !before.FinanceActioned {
		delta["paid_by_finance"] = true
	}
	if len(after.Acknowledgments) != len(before.Acknowledgments) {
		delta["acknowledgments"] = after.Acknowledgments
		delta["pending_ack_roles"] = after.PendingAckRoles
	}
	return delta
}

// ── field helpers ────────────────────────────────────────────────────────────

// stringField reads a field that may arrive as a JSON string or number.
func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// truthy interprets the backend's assorted flag encodings: bool, 0/1
// numbers and "true"/"1" strings all appear in practice.
func truthy(raw json.RawMessage) bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n != 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.ToLower(strings.TrimSpace(s))
		return s == "true" || s == "1" || s == "yes"
	}
	return false
}

// stringList reads a field that may be a native JSON array (of strings or
// numbers) or a JSON-encoded string containing such an array. Malformed
// input degrades to nil — list fields are display data, never fatal.
func stringList(fields map[string]json.RawMessage, key string) []string {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	if items := decodeList(raw); items != nil {
		return items
	}
	// JSON-string-encoded array, e.g. "\"[5,9]\""
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return decodeList([]byte(s))
	}
	return nil
}

func decodeList(raw []byte) []string {
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case string:
			out = append(out, v)
		case float64:
			out = append(out, strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	return out
}
