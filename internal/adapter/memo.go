package adapter

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/orbiterp/be-approvals/internal/approval"
)

// ParseMemo adapts a raw memo record. On top of the shared fields it
// carries the finance payment flag, the memo kind, and — for report
// memos — recipients, cc and acknowledgments, any of which may arrive
// either as a native JSON array or as a JSON-encoded string depending on
// which backend code path produced the record.
func (a *Adapter) ParseMemo(ctx context.Context, raw []byte) (approval.Document, error) {
	doc, fields, err := a.parseCommon(ctx, approval.DocTypeMemo, raw)
	if err != nil {
		return approval.Document{}, err
	}

	if v, ok := fields["paid_by_finance"]; ok {
		doc.FinanceActioned = truthy(v)
	}

	doc.MemoKind = approval.MemoKindStandard
	if strings.EqualFold(stringField(fields, "memo_type"), string(approval.MemoKindReport)) {
		doc.MemoKind = approval.MemoKindReport
	}

	doc.Recipients = stringList(fields, "recipients")
	doc.CC = stringList(fields, "cc")
	doc.PendingAckRoles = stringList(fields, "pending_ack_roles")
	doc.Acknowledgments = parseAcknowledgments(fields["acknowledgments"])

	return doc, nil
}

// parseAcknowledgments handles the JSON-or-native ambiguity for the
// acknowledgments field. Malformed input yields an empty collection —
// acknowledgment display is non-critical and must never fail a parse.
func parseAcknowledgments(raw json.RawMessage) []approval.Acknowledgment {
	if len(raw) == 0 {
		return nil
	}
	if acks := decodeAcknowledgments(raw); acks != nil {
		return acks
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return decodeAcknowledgments([]byte(s))
	}
	return nil
}

func decodeAcknowledgments(raw []byte) []approval.Acknowledgment {
	var entries []map[string]any
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}
	out := make([]approval.Acknowledgment, 0, len(entries))
	for _, e := range entries {
		id := asString(e["user_id"])
		if id == "" {
			id = asString(e["acknowledger_id"]) // legacy field name
		}
		if id == "" {
			continue
		}
		out = append(out, approval.Acknowledgment{
			UserID:     id,
			Role:       approval.NormalizeRole(asString(e["role"])),
			Department: asString(e["department"]),
			Timestamp:  parseTimestamp(asString(e["timestamp"])),
		})
	}
	return out
}

// asString renders a decoded JSON scalar (string or number) as a string.
func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

// parseTimestamp accepts RFC 3339 with or without sub-second precision;
// anything else yields the zero time.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts
	}
	if ts, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return ts
	}
	return time.Time{}
}
