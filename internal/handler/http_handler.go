// Package handler exposes the approval service over HTTP.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/orbiterp/be-approvals/internal/apperrors"
	"github.com/orbiterp/be-approvals/internal/approval"
	"github.com/orbiterp/be-approvals/internal/service"
)

// HTTPHandler handles HTTP requests.
type HTTPHandler struct {
	service *service.ApprovalService
	log     zerolog.Logger
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(service *service.ApprovalService, log zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		service: service,
		log:     log,
	}
}

// docTypeParam validates the type query/body parameter.
func docTypeParam(raw string) (approval.DocType, error) {
	switch approval.DocType(raw) {
	case approval.DocTypeMemo, approval.DocTypeLeave, approval.DocTypeRequisition:
		return approval.DocType(raw), nil
	}
	return "", apperrors.InvalidInput("type", "must be one of memo, leave, requisition")
}

// ListDocuments handles the tabbed document list.
// GET /api/v1/documents?type=&viewer_id=&viewer_role=&tab=
func (h *HTTPHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	docType, err := docTypeParam(r.URL.Query().Get("type"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	viewerID := r.URL.Query().Get("viewer_id")
	viewerRole := r.URL.Query().Get("viewer_role")
	tab := approval.Classification(r.URL.Query().Get("tab"))
	switch tab {
	case "", approval.ClassPending, approval.ClassApproved, approval.ClassRejected, approval.ClassCompleted:
	default:
		h.writeError(w, apperrors.InvalidInput("tab", "must be one of pending, approved, rejected, completed"))
		return
	}

	result, err := h.service.ListDocuments(r.Context(), docType, viewerID, viewerRole, tab)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// GetDocument handles single-document fetches.
// GET /api/v1/documents/get?type=&id=&viewer_id=&viewer_role=
func (h *HTTPHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	docType, err := docTypeParam(r.URL.Query().Get("type"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		h.writeError(w, apperrors.InvalidInput("id", "document ID is required"))
		return
	}

	view, err := h.service.GetDocument(r.Context(), docType, id,
		r.URL.Query().Get("viewer_id"), r.URL.Query().Get("viewer_role"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// ResolveChain handles chain previews.
// GET /api/v1/documents/chain?type=&department=
func (h *HTTPHandler) ResolveChain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	docType, err := docTypeParam(r.URL.Query().Get("type"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	chain, err := h.service.ResolveChain(docType, r.URL.Query().Get("department"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"chain": chain})
}

// actionRequest is the shared approve/reject request body.
type actionRequest struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	ActorRole string `json:"actor_role"`
}

func (h *HTTPHandler) decodeAction(w http.ResponseWriter, r *http.Request) (*actionRequest, approval.DocType, bool) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperrors.InvalidInput("body", "invalid request body"))
		return nil, "", false
	}
	docType, err := docTypeParam(req.Type)
	if err != nil {
		h.writeError(w, err)
		return nil, "", false
	}
	if req.ID == "" || req.ActorID == "" || req.ActorRole == "" {
		h.writeError(w, apperrors.InvalidInput("body", "id, actor_id and actor_role are required"))
		return nil, "", false
	}
	return &req, docType, true
}

// ApproveDocument handles POST /api/v1/documents/approve.
func (h *HTTPHandler) ApproveDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, docType, ok := h.decodeAction(w, r)
	if !ok {
		return
	}

	view, err := h.service.Approve(r.Context(), docType, req.ID, req.ActorID, req.ActorRole)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// RejectDocument handles POST /api/v1/documents/reject.
func (h *HTTPHandler) RejectDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, docType, ok := h.decodeAction(w, r)
	if !ok {
		return
	}

	view, err := h.service.Reject(r.Context(), docType, req.ID, req.ActorID, req.ActorRole)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// PayMemo handles POST /api/v1/documents/pay.
func (h *HTTPHandler) PayMemo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ID      string `json:"id"`
		ActorID string `json:"actor_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperrors.InvalidInput("body", "invalid request body"))
		return
	}
	if req.ID == "" || req.ActorID == "" {
		h.writeError(w, apperrors.InvalidInput("body", "id and actor_id are required"))
		return
	}

	view, err := h.service.Pay(r.Context(), req.ID, req.ActorID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// AcknowledgeMemo handles POST /api/v1/documents/acknowledge.
func (h *HTTPHandler) AcknowledgeMemo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ID         string `json:"id"`
		UserID     string `json:"user_id"`
		Role       string `json:"role"`
		Department string `json:"department"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperrors.InvalidInput("body", "invalid request body"))
		return
	}
	if req.ID == "" || req.UserID == "" {
		h.writeError(w, apperrors.InvalidInput("body", "id and user_id are required"))
		return
	}

	view, err := h.service.Acknowledge(r.Context(), req.ID, req.UserID, req.Role, req.Department)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// PendingApprovals handles GET /api/v1/documents/pending?viewer_id=&viewer_role=.
func (h *HTTPHandler) PendingApprovals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	viewerRole := r.URL.Query().Get("viewer_role")
	if viewerRole == "" {
		h.writeError(w, apperrors.InvalidInput("viewer_role", "viewer role is required"))
		return
	}

	pending, err := h.service.PendingForUser(r.Context(), r.URL.Query().Get("viewer_id"), viewerRole)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"items": pending, "total": len(pending)})
}

// ── response helpers ─────────────────────────────────────────────────────────

func (h *HTTPHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= 500 {
		h.log.Error().Err(err).Msg("Request failed")
	}
	h.writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  string(apperrors.CodeOf(err)),
	})
}
