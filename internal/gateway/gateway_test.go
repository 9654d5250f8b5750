package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/drive-backup-api/pkg/errors"
)

func TestInventoryClientListFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/files", r.URL.Path)
		assert.Equal(t, "alice@example.com", r.URL.Query().Get("owner"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"files": []map[string]interface{}{
				{"id": "f1", "isFolder": false},
				{"id": "d1", "isFolder": true},
			},
		})
	}))
	defer srv.Close()

	inv := NewInventoryClient(NewClient(srv.URL, time.Second))
	entries, err := inv.ListFiles(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.False(t, entries[0].IsFolder)
	assert.True(t, entries[1].IsFolder)
}

func TestInventoryClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	inv := NewInventoryClient(NewClient(srv.URL, time.Second))
	_, err := inv.ListFiles(context.Background(), "alice@example.com")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTransport.Code, appErrors.FromError(err).Code)
}

func TestPoolClientCreateAndFind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/pools":
			var payload map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			json.NewEncoder(w).Encode(map[string]string{"id": "pool-123", "name": payload["name"]})
		case r.Method == http.MethodGet && r.URL.Path == "/v1/pools":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"pools": []map[string]string{{"id": "pool-123", "name": "Legacydrivebackup2"}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	pools := NewPoolClient(NewClient(srv.URL, time.Second))

	id, err := pools.CreatePool(context.Background(), "Legacydrivebackup2")
	require.NoError(t, err)
	assert.Equal(t, "pool-123", id)

	id, found, err := pools.FindPool(context.Background(), "Legacydrivebackup2")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "pool-123", id)

	_, found, err = pools.FindPool(context.Background(), "Other")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPoolClientGrantRole(t *testing.T) {
	var granted map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/pools/pool-123/permissions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&granted))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	pools := NewPoolClient(NewClient(srv.URL, time.Second))
	require.NoError(t, pools.GrantRole(context.Background(), "pool-123", "admin@example.com", "organizer"))
	assert.Equal(t, "organizer", granted["role"])
}

func TestBackupClientDispatch(t *testing.T) {
	var payload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/backups", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	backups := NewBackupClient(NewClient(srv.URL, time.Second))
	require.NoError(t, backups.Dispatch(context.Background(), "alice@example.com", "pool-123"))
	assert.Equal(t, "pool-123", payload["poolId"])
}

func TestWebhookNotifier(t *testing.T) {
	var payload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	notifier := NewWebhookNotifier(srv.URL, time.Second)
	require.NoError(t, notifier.Notify(context.Background(), "rotation fired", "details", "ops@example.com"))
	assert.Equal(t, "rotation fired", payload["subject"])

	unconfigured := NewWebhookNotifier("", time.Second)
	assert.Error(t, unconfigured.Notify(context.Background(), "s", "b", ""))
}
