package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/orbiterp/be-approvals/internal/apperrors"
	"github.com/orbiterp/be-approvals/internal/approval"
)

// DocumentsClient talks to the ERP backend that owns the memo, leave and
// requisition records. Records travel as raw JSON: the adapter package,
// not this client, interprets their fields.
type DocumentsClient struct {
	client *HTTPClient
}

// NewDocumentsClient creates a documents client for the ERP backend.
func NewDocumentsClient(baseURL string, timeout time.Duration) *DocumentsClient {
	return &DocumentsClient{client: NewHTTPClient(baseURL, timeout)}
}

// collectionPath maps a document type to its backend collection.
func collectionPath(docType approval.DocType) (string, error) {
	switch docType {
	case approval.DocTypeMemo:
		return "/api/v1/memos", nil
	case approval.DocTypeLeave:
		return "/api/v1/leave-requests", nil
	case approval.DocTypeRequisition:
		return "/api/v1/requisitions", nil
	}
	return "", apperrors.Configuration(fmt.Sprintf("unknown document type %q", docType))
}

// listResponse is the backend's list envelope.
type listResponse struct {
	Items []json.RawMessage `json:"items"`
	Total int64             `json:"total"`
}

// List fetches all records of a type, newest first per backend ordering.
func (c *DocumentsClient) List(ctx context.Context, docType approval.DocType) ([]json.RawMessage, error) {
	path, err := collectionPath(docType)
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := c.client.Get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("failed to list %s records: %w", docType, err)
	}
	return resp.Items, nil
}

// Get fetches one raw record.
func (c *DocumentsClient) Get(ctx context.Context, docType approval.DocType, id string) (json.RawMessage, error) {
	path, err := collectionPath(docType)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := c.client.Get(ctx, fmt.Sprintf("%s/get?id=%s", path, url.QueryEscape(id)), &raw); err != nil {
		return nil, fmt.Errorf("failed to get %s %s: %w", docType, id, err)
	}
	return raw, nil
}

// ApplyDelta PATCHes a transition's field deltas onto a record and
// returns the updated raw record as the backend now sees it.
func (c *DocumentsClient) ApplyDelta(ctx context.Context, docType approval.DocType, id string, delta map[string]any) (json.RawMessage, error) {
	path, err := collectionPath(docType)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := c.client.Patch(ctx, fmt.Sprintf("%s/update?id=%s", path, url.QueryEscape(id)), delta, &raw); err != nil {
		return nil, fmt.Errorf("failed to update %s %s: %w", docType, id, err)
	}
	return raw, nil
}
