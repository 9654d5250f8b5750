package gateway

import (
	"context"
	"net/http"
)

// BackupClient hands admitted users to the per-user copy executor. The copy
// itself (file trees, ACLs, OU moves) happens on the proxy side.
type BackupClient struct {
	client *Client
}

// NewBackupClient builds the copy dispatch collaborator.
func NewBackupClient(client *Client) *BackupClient {
	return &BackupClient{client: client}
}

type dispatchPayload struct {
	Owner  string `json:"owner"`
	PoolID string `json:"poolId"`
}

// Dispatch starts the backup copy of one user's drive into the target pool.
func (c *BackupClient) Dispatch(ctx context.Context, owner, poolID string) error {
	return c.client.doJSON(ctx, http.MethodPost, "/v1/backups", dispatchPayload{Owner: owner, PoolID: poolID}, nil)
}
