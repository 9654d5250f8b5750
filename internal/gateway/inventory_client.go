package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/noah-isme/drive-backup-api/internal/models"
)

// InventoryClient lists drive contents by owner identity. The listing is a
// fresh remote call every time; results are not restartable mid-stream.
type InventoryClient struct {
	client *Client
}

// NewInventoryClient builds the inventory collaborator.
func NewInventoryClient(client *Client) *InventoryClient {
	return &InventoryClient{client: client}
}

type listFilesResponse struct {
	Files []struct {
		ID       string `json:"id"`
		IsFolder bool   `json:"isFolder"`
	} `json:"files"`
}

// ListFiles returns every entry owned by the identity (a user email or a
// shared drive ID).
func (c *InventoryClient) ListFiles(ctx context.Context, owner string) ([]models.FileEntry, error) {
	var resp listFilesResponse
	path := "/v1/files?owner=" + url.QueryEscape(owner)
	if err := c.client.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	entries := make([]models.FileEntry, 0, len(resp.Files))
	for _, f := range resp.Files {
		entries = append(entries, models.FileEntry{ID: f.ID, IsFolder: f.IsFolder})
	}
	return entries, nil
}
