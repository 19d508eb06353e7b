// Package filestore is the client for the external document storage service.
// The backend only handles opaque storage IDs; file content never passes
// through here.
package filestore

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/imroc/req/v3"

	"github.com/grad-lab/capstone-backend/pkg/apperror"
)

type Client struct {
	http *req.Client
}

func NewClient(baseURL, token string) *Client {
	c := req.C().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second)
	if token != "" {
		c.SetCommonBearerAuthToken(token)
	}
	return &Client{http: c}
}

// NewID issues a fresh opaque storage ID for an upcoming upload.
func (c *Client) NewID() string {
	return uuid.NewString()
}

// Stat verifies that a storage ID exists in the storage service.
func (c *Client) Stat(ctx context.Context, storageID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Head(fmt.Sprintf("/files/%s", storageID))
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNotFound {
		return apperror.NotFound("file %s does not exist in storage", storageID)
	}
	if resp.IsErrorState() {
		return fmt.Errorf("storage service returned %d for file %s", resp.StatusCode, storageID)
	}
	return nil
}
