// Package service orchestrates approval transitions: fetch the raw
// record, adapt it, run the pure state machine, push the delta to the
// backend, and reconcile from the backend's returned record.
package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/orbiterp/be-approvals/internal/adapter"
	"github.com/orbiterp/be-approvals/internal/apperrors"
	"github.com/orbiterp/be-approvals/internal/approval"
	"github.com/orbiterp/be-approvals/internal/client"
	"github.com/orbiterp/be-approvals/internal/metrics"
)

// ApprovalService wires the pure approval core to its collaborators.
type ApprovalService struct {
	docs      client.DocumentsAPI
	directory client.DirectoryAPI
	adapter   *adapter.Adapter
	notifier  client.EventPublisher
	log       zerolog.Logger
}

// NewApprovalService creates a new ApprovalService.
func NewApprovalService(
	docs client.DocumentsAPI,
	directory client.DirectoryAPI,
	adp *adapter.Adapter,
	notifier client.EventPublisher,
	log zerolog.Logger,
) *ApprovalService {
	return &ApprovalService{
		docs:      docs,
		directory: directory,
		adapter:   adp,
		notifier:  notifier,
		log:       log,
	}
}

// DocumentView is a document plus everything the UI needs to render it
// for one viewer: its tab bucket and the actions open to that viewer.
type DocumentView struct {
	Document       approval.Document       `json:"document"`
	Classification approval.Classification `json:"classification"`
	NextRole       approval.Role           `json:"next_role,omitempty"`
	ViewerCanAct   bool                    `json:"viewer_can_act"`
}

// ListResult is a filtered document list with tab counts. Counts always
// cover the full set, not just the requested tab, so every tab header
// derives from the same Classify pass.
type ListResult struct {
	Items  []DocumentView                  `json:"items"`
	Counts map[approval.Classification]int `json:"counts"`
}

// buildView computes the viewer-specific projection of one document.
func (s *ApprovalService) buildView(doc approval.Document, viewerID, viewerRole string) (DocumentView, error) {
	class, err := approval.Classify(doc, viewerID, viewerRole)
	if err != nil {
		return DocumentView{}, err
	}
	view := DocumentView{Document: doc, Classification: class}
	if next, ok, err := approval.NextEligibleRole(doc); err == nil && ok {
		view.NextRole = next
	} else if err != nil {
		return DocumentView{}, err
	}
	canAct, err := approval.CanAct(doc, viewerRole)
	if err != nil {
		return DocumentView{}, err
	}
	view.ViewerCanAct = canAct
	return view, nil
}

// ListDocuments fetches and classifies every record of a type for one
// viewer. tab filters the returned items; pass "" for all tabs.
func (s *ApprovalService) ListDocuments(ctx context.Context, docType approval.DocType, viewerID, viewerRole string, tab approval.Classification) (*ListResult, error) {
	raws, err := s.docs.List(ctx, docType)
	if err != nil {
		return nil, err
	}

	result := &ListResult{
		Items:  []DocumentView{},
		Counts: map[approval.Classification]int{},
	}
	for _, raw := range raws {
		doc, err := s.adapter.Parse(ctx, docType, raw)
		if err != nil {
			s.log.Warn().Err(err).Str("document_type", string(docType)).
				Msg("Skipping unparseable document record")
			continue
		}
		view, err := s.buildView(doc, viewerID, viewerRole)
		if err != nil {
			return nil, err
		}
		result.Counts[view.Classification]++
		metrics.RecordClassification(string(docType), string(view.Classification))
		if tab == "" || view.Classification == tab {
			result.Items = append(result.Items, view)
		}
	}
	return result, nil
}

// GetDocument fetches and classifies one record.
func (s *ApprovalService) GetDocument(ctx context.Context, docType approval.DocType, id, viewerID, viewerRole string) (*DocumentView, error) {
	doc, err := s.fetch(ctx, docType, id)
	if err != nil {
		return nil, err
	}
	view, err := s.buildView(doc, viewerID, viewerRole)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Approve runs the approve transition for one actor and persists it.
func (s *ApprovalService) Approve(ctx context.Context, docType approval.DocType, id, actorID, actorRole string) (*DocumentView, error) {
	view, err := s.transition(ctx, docType, id, actorID, actorRole, "approve",
		func(doc approval.Document) (approval.Document, error) {
			return approval.Approve(doc, actorRole, actorID)
		})
	if err != nil {
		return nil, err
	}

	s.notify("document_approved", docType, id, actorID, view.Document)
	s.log.Info().
		Str("document_type", string(docType)).
		Str("document_id", id).
		Str("actor_role", string(approval.NormalizeRole(actorRole))).
		Str("status", string(view.Document.Status)).
		Msg("Document approved")
	return view, nil
}

// Reject runs the reject transition for one actor and persists it.
func (s *ApprovalService) Reject(ctx context.Context, docType approval.DocType, id, actorID, actorRole string) (*DocumentView, error) {
	view, err := s.transition(ctx, docType, id, actorID, actorRole, "reject",
		func(doc approval.Document) (approval.Document, error) {
			return approval.Reject(doc, actorRole, actorID)
		})
	if err != nil {
		return nil, err
	}

	s.notify("document_rejected", docType, id, actorID, view.Document)
	s.log.Info().
		Str("document_type", string(docType)).
		Str("document_id", id).
		Str("actor_role", string(approval.NormalizeRole(actorRole))).
		Msg("Document rejected")
	return view, nil
}

// Pay executes finance's terminal payment step on a fully approved memo.
func (s *ApprovalService) Pay(ctx context.Context, id, actorID string) (*DocumentView, error) {
	view, err := s.transition(ctx, approval.DocTypeMemo, id, actorID, string(approval.RoleFinance), "pay",
		func(doc approval.Document) (approval.Document, error) {
			return approval.Pay(doc, actorID)
		})
	if err != nil {
		return nil, err
	}

	s.notify("document_paid", approval.DocTypeMemo, id, actorID, view.Document)
	s.log.Info().
		Str("document_id", id).
		Str("actor_id", actorID).
		Msg("Memo payment recorded")
	return view, nil
}

// Acknowledge records one recipient's acknowledgment of a report memo.
// Role and department default to the user's directory profile when the
// caller does not supply them.
func (s *ApprovalService) Acknowledge(ctx context.Context, memoID, userID, role, department string) (*DocumentView, error) {
	if role == "" || department == "" {
		profile, err := s.directory.GetUserProfile(ctx, userID)
		if err != nil {
			metrics.RecordAction(string(approval.DocTypeMemo), "acknowledge", string(apperrors.CodeOf(err)))
			return nil, err
		}
		if role == "" {
			role = profile.Role
		}
		if department == "" {
			department = profile.Department
		}
	}

	view, err := s.transition(ctx, approval.DocTypeMemo, memoID, userID, role, "acknowledge",
		func(doc approval.Document) (approval.Document, error) {
			return approval.RecordAcknowledgment(doc, userID, role, department)
		})
	if err != nil {
		return nil, err
	}

	s.notify("report_acknowledged", approval.DocTypeMemo, memoID, userID, view.Document)
	return view, nil
}

// PendingForUser returns, across all three document types, the documents
// currently awaiting the caller's action.
func (s *ApprovalService) PendingForUser(ctx context.Context, viewerID, viewerRole string) ([]DocumentView, error) {
	types := []approval.DocType{approval.DocTypeMemo, approval.DocTypeLeave, approval.DocTypeRequisition}

	pending := []DocumentView{}
	for _, docType := range types {
		raws, err := s.docs.List(ctx, docType)
		if err != nil {
			return nil, err
		}
		for _, raw := range raws {
			doc, err := s.adapter.Parse(ctx, docType, raw)
			if err != nil {
				continue
			}
			canAct, err := approval.CanAct(doc, viewerRole)
			if err != nil {
				return nil, err
			}
			if !canAct {
				continue
			}
			view, err := s.buildView(doc, viewerID, viewerRole)
			if err != nil {
				return nil, err
			}
			pending = append(pending, view)
		}
	}
	return pending, nil
}

// ResolveChain exposes the chain for a type/department, for UI previews.
func (s *ApprovalService) ResolveChain(docType approval.DocType, department string) ([]approval.Role, error) {
	return approval.ResolveChain(docType, department)
}

// ── internals ────────────────────────────────────────────────────────────────

// transition is the shared fetch → transition → persist → reconcile path.
// The document returned reflects the backend's post-update record, not
// the locally computed one: the backend stays the source of truth and a
// concurrent approver losing the race surfaces as a normal coded error.
func (s *ApprovalService) transition(
	ctx context.Context,
	docType approval.DocType,
	id, actorID, actorRole, action string,
	apply func(approval.Document) (approval.Document, error),
) (*DocumentView, error) {
	before, err := s.fetch(ctx, docType, id)
	if err != nil {
		metrics.RecordAction(string(docType), action, string(apperrors.CodeOf(err)))
		return nil, err
	}

	after, err := apply(before)
	if err != nil {
		metrics.RecordAction(string(docType), action, string(apperrors.CodeOf(err)))
		return nil, err
	}

	delta := adapter.Delta(before, after)
	if len(delta) == 0 {
		// Idempotent no-op (e.g. repeated acknowledgment): nothing to persist.
		view, err := s.buildView(after, actorID, actorRole)
		if err != nil {
			return nil, err
		}
		metrics.RecordAction(string(docType), action, "success")
		return &view, nil
	}

	updated, err := s.docs.ApplyDelta(ctx, docType, id, delta)
	if err != nil {
		metrics.RecordAction(string(docType), action, string(apperrors.CodeOf(err)))
		return nil, err
	}

	reconciled, err := s.adapter.Parse(ctx, docType, updated)
	if err != nil {
		metrics.RecordAction(string(docType), action, string(apperrors.CodeOf(err)))
		return nil, fmt.Errorf("backend returned unparseable %s record after %s: %w", docType, action, err)
	}

	view, err := s.buildView(reconciled, actorID, actorRole)
	if err != nil {
		return nil, err
	}
	metrics.RecordAction(string(docType), action, "success")
	return &view, nil
}

func (s *ApprovalService) fetch(ctx context.Context, docType approval.DocType, id string) (approval.Document, error) {
	raw, err := s.docs.Get(ctx, docType, id)
	if err != nil {
		return approval.Document{}, err
	}
	return s.adapter.Parse(ctx, docType, raw)
}

// notify publishes an approval event; failures are the publisher's
// problem, never the caller's.
func (s *ApprovalService) notify(eventType string, docType approval.DocType, id, actorID string, doc approval.Document) {
	if s.notifier == nil {
		return
	}
	recipients := []string{doc.CreatedBy}
	payload := map[string]any{"status": string(doc.Status)}
	if next, ok, err := approval.NextEligibleRole(doc); err == nil && ok {
		payload["next_role"] = string(next)
	}
	s.notifier.PublishDocumentEvent(eventType, docType, id, actorID, recipients, payload)
}
