package client

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// UserProfile is the directory service's view of a user.
type UserProfile struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

// DirectoryClient resolves user profiles from the directory service.
// The adapter uses it for creator lookups on records that carry no
// department of their own.
type DirectoryClient struct {
	client *HTTPClient
}

// NewDirectoryClient creates a directory client.
func NewDirectoryClient(baseURL string, timeout time.Duration) *DirectoryClient {
	return &DirectoryClient{client: NewHTTPClient(baseURL, timeout)}
}

// GetUserProfile fetches one user's profile.
func (c *DirectoryClient) GetUserProfile(ctx context.Context, userID string) (*UserProfile, error) {
	var profile UserProfile
	path := fmt.Sprintf("/api/v1/users/get?id=%s", url.QueryEscape(userID))
	if err := c.client.Get(ctx, path, &profile); err != nil {
		return nil, fmt.Errorf("failed to fetch user %s: %w", userID, err)
	}
	return &profile, nil
}

// GetUserDepartment implements adapter.DirectoryLookup.
func (c *DirectoryClient) GetUserDepartment(ctx context.Context, userID string) (string, error) {
	profile, err := c.GetUserProfile(ctx, userID)
	if err != nil {
		return "", err
	}
	return profile.Department, nil
}
