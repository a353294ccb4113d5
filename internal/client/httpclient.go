// Package client holds the collaborators of the approval core: the ERP
// backend that owns the documents, the directory service for user
// profiles, and the NATS notification publisher.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/orbiterp/be-approvals/internal/apperrors"
	"github.com/orbiterp/be-approvals/internal/metrics"
)

// HTTPClient is a thin JSON client bound to one base URL.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient creates a client for the given base URL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Get issues a GET and decodes the JSON response into out.
func (c *HTTPClient) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST with a JSON body and decodes the response into out.
func (c *HTTPClient) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Patch issues a PATCH with a JSON body and decodes the response into out.
func (c *HTTPClient) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to encode request body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveBackendRequest(method, 0, time.Since(start))
		return apperrors.Wrap(err, apperrors.ErrCodeInternal,
			fmt.Sprintf("%s %s failed", method, path))
	}
	defer resp.Body.Close()
	metrics.ObserveBackendRequest(method, resp.StatusCode, time.Since(start))

	if resp.StatusCode >= 400 {
		return c.statusError(resp, method, path)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal,
			fmt.Sprintf("failed to decode %s %s response", method, path))
	}
	return nil
}

// statusError maps backend failure statuses onto the core's error codes.
// The backend is the source of truth: a 403/409 here usually means another
// approver won a race, and callers surface it exactly like a local
// eligibility failure.
func (c *HTTPClient) statusError(resp *http.Response, method, path string) error {
	msg := readErrorMessage(resp.Body)
	if msg == "" {
		msg = fmt.Sprintf("%s %s returned %d", method, path, resp.StatusCode)
	}
	switch resp.StatusCode {
	case http.StatusBadRequest:
		return apperrors.New(apperrors.ErrCodeInvalidInput, msg)
	case http.StatusForbidden:
		return apperrors.NotEligible(msg)
	case http.StatusNotFound:
		return apperrors.New(apperrors.ErrCodeNotFound, msg)
	case http.StatusConflict:
		return apperrors.TerminalState(msg)
	default:
		return apperrors.New(apperrors.ErrCodeInternal, msg)
	}
}

func readErrorMessage(body io.Reader) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}
