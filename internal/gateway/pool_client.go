package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	appErrors "github.com/noah-isme/drive-backup-api/pkg/errors"
)

// PoolClient provisions and administers shared storage pools.
type PoolClient struct {
	client *Client
}

// NewPoolClient builds the pool provider collaborator.
func NewPoolClient(client *Client) *PoolClient {
	return &PoolClient{client: client}
}

type poolPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type findPoolsResponse struct {
	Pools []poolPayload `json:"pools"`
}

// CreatePool provisions a new pool and returns its external ID.
func (c *PoolClient) CreatePool(ctx context.Context, name string) (string, error) {
	var resp poolPayload
	if err := c.client.doJSON(ctx, http.MethodPost, "/v1/pools", poolPayload{Name: name}, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", appErrors.Clone(appErrors.ErrTransport, "drive proxy returned empty pool id")
	}
	return resp.ID, nil
}

// FindPool looks a pool up by exact name. Used to detect a pool that was
// provisioned by an interrupted rotation but never registered.
func (c *PoolClient) FindPool(ctx context.Context, name string) (string, bool, error) {
	var resp findPoolsResponse
	path := "/v1/pools?name=" + url.QueryEscape(name)
	if err := c.client.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		if appErrors.HasCode(err, appErrors.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	for _, pool := range resp.Pools {
		if pool.Name == name {
			return pool.ID, true, nil
		}
	}
	return "", false, nil
}

// SetPoolAttribute patches a single pool attribute.
func (c *PoolClient) SetPoolAttribute(ctx context.Context, poolID, attr, value string) error {
	path := fmt.Sprintf("/v1/pools/%s", url.PathEscape(poolID))
	return c.client.doJSON(ctx, http.MethodPatch, path, map[string]string{attr: value}, nil)
}

// GrantRole grants an identity a role on the pool.
func (c *PoolClient) GrantRole(ctx context.Context, poolID, identity, role string) error {
	path := fmt.Sprintf("/v1/pools/%s/permissions", url.PathEscape(poolID))
	payload := map[string]string{"email": identity, "role": role}
	return c.client.doJSON(ctx, http.MethodPost, path, payload, nil)
}
