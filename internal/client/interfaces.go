package client

import (
	"context"
	"encoding/json"

	"github.com/orbiterp/be-approvals/internal/approval"
)

// DocumentsAPI is the interface the service layer consumes for document
// records; implemented by DocumentsClient and by test fakes.
type DocumentsAPI interface {
	List(ctx context.Context, docType approval.DocType) ([]json.RawMessage, error)
	Get(ctx context.Context, docType approval.DocType, id string) (json.RawMessage, error)
	ApplyDelta(ctx context.Context, docType approval.DocType, id string, delta map[string]any) (json.RawMessage, error)
}

// DirectoryAPI is the interface for user profile lookups.
type DirectoryAPI interface {
	GetUserProfile(ctx context.Context, userID string) (*UserProfile, error)
	GetUserDepartment(ctx context.Context, userID string) (string, error)
}

// EventPublisher is the interface for approval event notifications.
type EventPublisher interface {
	PublishDocumentEvent(eventType string, docType approval.DocType, docID, actorID string, recipients []string, payload map[string]any)
}
