package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbiterp/be-approvals/internal/adapter"
	"github.com/orbiterp/be-approvals/internal/apperrors"
	"github.com/orbiterp/be-approvals/internal/approval"
	"github.com/orbiterp/be-approvals/internal/client"
)

// fakeDocs is an in-memory stand-in for the ERP backend.
type fakeDocs struct {
	records   map[approval.DocType]map[string]map[string]any
	applyErr  error
	lastDelta map[string]any
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{records: map[approval.DocType]map[string]map[string]any{}}
}

func (f *fakeDocs) put(docType approval.DocType, id string, record map[string]any) {
	if f.records[docType] == nil {
		f.records[docType] = map[string]map[string]any{}
	}
	record["id"] = id
	f.records[docType][id] = record
}

func (f *fakeDocs) List(_ context.Context, docType approval.DocType) ([]json.RawMessage, error) {
	var out []json.RawMessage
	for _, rec := range f.records[docType] {
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

func (f *fakeDocs) Get(_ context.Context, docType approval.DocType, id string) (json.RawMessage, error) {
	rec, ok := f.records[docType][id]
	if !ok {
		return nil, apperrors.NotFound(string(docType), id)
	}
	return json.Marshal(rec)
}

func (f *fakeDocs) ApplyDelta(_ context.Context, docType approval.DocType, id string, delta map[string]any) (json.RawMessage, error) {
	if f.applyErr != nil {
		return nil, f.applyErr
	}
	rec, ok := f.records[docType][id]
	if !ok {
		return nil, apperrors.NotFound(string(docType), id)
	}
	f.lastDelta = delta
	for k, v := range delta {
		rec[k] = v
	}
	return json.Marshal(rec)
}

// fakeDirectory serves canned profiles.
type fakeDirectory struct {
	profiles map[string]*client.UserProfile
}

func (f *fakeDirectory) GetUserProfile(_ context.Context, userID string) (*client.UserProfile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, apperrors.NotFound("user", userID)
	}
	return p, nil
}

func (f *fakeDirectory) GetUserDepartment(ctx context.Context, userID string) (string, error) {
	p, err := f.GetUserProfile(ctx, userID)
	if err != nil {
		return "", err
	}
	return p.Department, nil
}

// fakePublisher records published events.
type fakePublisher struct {
	events []string
}

func (f *fakePublisher) PublishDocumentEvent(eventType string, _ approval.DocType, _, _ string, _ []string, _ map[string]any) {
	f.events = append(f.events, eventType)
}

func newTestService(docs *fakeDocs, dir *fakeDirectory, pub *fakePublisher) *ApprovalService {
	if dir == nil {
		dir = &fakeDirectory{profiles: map[string]*client.UserProfile{}}
	}
	return NewApprovalService(docs, dir, adapter.New(dir), pub, zerolog.Nop())
}

func TestApprove_PersistsDeltaAndReconciles(t *testing.T) {
	docs := newFakeDocs()
	docs.put(approval.DocTypeMemo, "m-1", map[string]any{
		"created_by": "u-1",
		"department": "accounts",
		"status":     "submitted",
	})
	pub := &fakePublisher{}
	svc := newTestService(docs, nil, pub)

	view, err := svc.Approve(context.Background(), approval.DocTypeMemo, "m-1", "u-fin", "finance")
	require.NoError(t, err)

	assert.True(t, view.Document.ApprovedBy(approval.RoleFinance))
	assert.Equal(t, map[string]any{"approved_by_finance": true}, docs.lastDelta)
	assert.Equal(t, approval.RoleGMD, view.NextRole)
	assert.Equal(t, []string{"document_approved"}, pub.events)

	// The backend record now carries the flag for the next fetch.
	raw, err := docs.Get(context.Background(), approval.DocTypeMemo, "m-1")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"approved_by_finance":true`)
}

func TestApprove_BackendConflictSurfacesAsCodedError(t *testing.T) {
	// Another approver won the race: the backend answers 409 and the
	// client maps it onto a terminal-state error.
	docs := newFakeDocs()
	docs.put(approval.DocTypeLeave, "l-1", map[string]any{
		"created_by": "u-1",
		"department": "ops",
		"status":     "submitted",
	})
	docs.applyErr = apperrors.TerminalState("leave l-1 was rejected concurrently")
	svc := newTestService(docs, nil, nil)

	_, err := svc.Approve(context.Background(), approval.DocTypeLeave, "l-1", "u-mgr", "manager")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTerminalState, apperrors.CodeOf(err))
}

func TestApprove_NotEligibleNeverReachesBackend(t *testing.T) {
	docs := newFakeDocs()
	docs.put(approval.DocTypeRequisition, "r-1", map[string]any{
		"created_by": "u-1",
		"department": "ict",
		"status":     "submitted",
	})
	svc := newTestService(docs, nil, nil)

	_, err := svc.Approve(context.Background(), approval.DocTypeRequisition, "r-1", "u-fin", "finance")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeNotEligible, apperrors.CodeOf(err))
	assert.Nil(t, docs.lastDelta, "ineligible actions must not hit the backend")
}

func TestReject_TerminalAfterPersist(t *testing.T) {
	docs := newFakeDocs()
	docs.put(approval.DocTypeLeave, "l-2", map[string]any{
		"created_by": "u-1",
		"department": "ops",
		"status":     "submitted",
	})
	pub := &fakePublisher{}
	svc := newTestService(docs, nil, pub)

	view, err := svc.Reject(context.Background(), approval.DocTypeLeave, "l-2", "u-mgr", "manager")
	require.NoError(t, err)
	assert.Equal(t, approval.StatusRejected, view.Document.Status)
	assert.Equal(t, []string{"document_rejected"}, pub.events)

	_, err = svc.Approve(context.Background(), approval.DocTypeLeave, "l-2", "u-exec", "executive")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTerminalState, apperrors.CodeOf(err))
}

func TestPay_CompletesApprovedMemo(t *testing.T) {
	docs := newFakeDocs()
	docs.put(approval.DocTypeMemo, "m-2", map[string]any{
		"created_by":           "u-1",
		"department":           "accounts",
		"status":               "approved",
		"approved_by_finance":  true,
		"approved_by_gmd":      true,
		"approved_by_chairman": true,
	})
	pub := &fakePublisher{}
	svc := newTestService(docs, nil, pub)

	view, err := svc.Pay(context.Background(), "m-2", "u-fin")
	require.NoError(t, err)
	assert.Equal(t, approval.StatusCompleted, view.Document.Status)
	assert.True(t, view.Document.FinanceActioned)
	assert.Equal(t, []string{"document_paid"}, pub.events)

	_, err = svc.Pay(context.Background(), "m-2", "u-fin")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodePrecondition, apperrors.CodeOf(err))
}

func TestAcknowledge_ResolvesProfileFromDirectory(t *testing.T) {
	docs := newFakeDocs()
	docs.put(approval.DocTypeMemo, "m-3", map[string]any{
		"created_by":        "u-1",
		"department":        "accounts",
		"status":            "submitted",
		"memo_type":         "report",
		"recipients":        []any{"5", "9"},
		"pending_ack_roles": []any{"finance"},
	})
	dir := &fakeDirectory{profiles: map[string]*client.UserProfile{
		"5": {ID: "5", Role: "finance", Department: "accounts"},
	}}
	pub := &fakePublisher{}
	svc := newTestService(docs, dir, pub)

	view, err := svc.Acknowledge(context.Background(), "m-3", "5", "", "")
	require.NoError(t, err)
	assert.True(t, approval.IsAcknowledgedBy(view.Document, "5"))
	assert.False(t, approval.IsAcknowledgedBy(view.Document, "9"))
	assert.Equal(t, []string{"report_acknowledged"}, pub.events)

	// Repeat acknowledgment is a quiet no-op with no second persist.
	docs.lastDelta = nil
	_, err = svc.Acknowledge(context.Background(), "m-3", "5", "finance", "accounts")
	require.NoError(t, err)
	assert.Nil(t, docs.lastDelta)
}

func TestListDocuments_TabsDeriveFromOneClassifyPass(t *testing.T) {
	docs := newFakeDocs()
	docs.put(approval.DocTypeLeave, "l-10", map[string]any{
		"created_by": "u-1", "department": "ops", "status": "submitted",
	})
	docs.put(approval.DocTypeLeave, "l-11", map[string]any{
		"created_by": "u-2", "department": "ops", "status": "submitted",
		"approved_by_manager": true,
	})
	docs.put(approval.DocTypeLeave, "l-12", map[string]any{
		"created_by": "u-3", "department": "ops", "status": "rejected",
		"approved_by_manager": true, "rejected_by_executive": true,
	})
	svc := newTestService(docs, nil, nil)

	// Viewer is the manager: l-11 carries their approval, l-10 awaits it.
	result, err := svc.ListDocuments(context.Background(), approval.DocTypeLeave, "u-mgr", "manager", "")
	require.NoError(t, err)
	assert.Len(t, result.Items, 3)
	assert.Equal(t, map[approval.Classification]int{
		approval.ClassPending:  1,
		approval.ClassApproved: 1,
		approval.ClassRejected: 1,
	}, result.Counts)

	// Tab filtering narrows items but keeps full counts.
	filtered, err := svc.ListDocuments(context.Background(), approval.DocTypeLeave, "u-mgr", "manager", approval.ClassRejected)
	require.NoError(t, err)
	require.Len(t, filtered.Items, 1)
	assert.Equal(t, "l-12", filtered.Items[0].Document.ID)
	assert.Equal(t, result.Counts, filtered.Counts)
}

func TestPendingForUser_SpansDocumentTypes(t *testing.T) {
	docs := newFakeDocs()
	docs.put(approval.DocTypeLeave, "l-20", map[string]any{
		"created_by": "u-1", "department": "ops", "status": "submitted",
	})
	docs.put(approval.DocTypeMemo, "m-20", map[string]any{
		"created_by": "u-2", "department": "accounts", "status": "submitted",
	})
	docs.put(approval.DocTypeRequisition, "r-20", map[string]any{
		"created_by": "u-3", "department": "ops", "status": "submitted",
	})
	svc := newTestService(docs, nil, nil)

	// Finance is first on non-ICT memo and requisition chains, but the
	// leave chain starts at the manager.
	pending, err := svc.PendingForUser(context.Background(), "u-fin", "finance")
	require.NoError(t, err)

	ids := make([]string, 0, len(pending))
	for _, v := range pending {
		ids = append(ids, v.Document.ID)
	}
	assert.ElementsMatch(t, []string{"m-20", "r-20"}, ids)
}
