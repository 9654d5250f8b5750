package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drive-backup-api/internal/models"
	"github.com/noah-isme/drive-backup-api/internal/repository"
	"github.com/noah-isme/drive-backup-api/internal/service"
	"github.com/noah-isme/drive-backup-api/internal/store"
	"github.com/noah-isme/drive-backup-api/pkg/config"
)

type fakeInventory struct {
	files map[string][]models.FileEntry
}

func (f *fakeInventory) ListFiles(_ context.Context, owner string) ([]models.FileEntry, error) {
	return f.files[owner], nil
}

type fakePoolProvider struct{}

func (f *fakePoolProvider) CreatePool(context.Context, string) (string, error) {
	return "pool-next", nil
}

func (f *fakePoolProvider) FindPool(context.Context, string) (string, bool, error) {
	return "", false, nil
}

func (f *fakePoolProvider) SetPoolAttribute(context.Context, string, string, string) error {
	return nil
}

func (f *fakePoolProvider) GrantRole(context.Context, string, string, string) error {
	return nil
}

type fakeDispatcher struct {
	owners []string
}

func (f *fakeDispatcher) Dispatch(_ context.Context, owner, _ string) error {
	f.owners = append(f.owners, owner)
	return nil
}

type fakeAlertSink struct{}

func (f *fakeAlertSink) Alert(string, string) {}

type envelope struct {
	Data  map[string]interface{} `json:"data"`
	Error map[string]interface{} `json:"error"`
}

type listEnvelope struct {
	Data []map[string]interface{} `json:"data"`
}

func newTestRouter(t *testing.T) (*gin.Engine, *fakeDispatcher) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tabular := store.NewMemoryStore()
	tabular.Seed("backup-registry", "PoolRegistry", store.Table{
		Headers: []string{"DriveName", "DriveID", "IsFull", "LastUpdated"},
		Rows: []map[string]string{
			{"DriveName": "Legacydrivebackup", "DriveID": "pool-1", "IsFull": "FALSE"},
		},
	})
	tabular.Seed("backup-registry", "Candidates", store.Table{
		Headers: []string{"UserEmail", "FileCount", "SuspendedSince"},
		Rows: []map[string]string{
			{"UserEmail": "a@example.com", "FileCount": "100", "SuspendedSince": "2024-01-01"},
		},
	})

	registry := repository.NewRegistryRepository(tabular, "backup-registry", "PoolRegistry", nil)
	batches := repository.NewBatchRepository(tabular, "backup-registry", repository.BatchSheets{
		Candidates: "Candidates",
		Oversized:  "OversizedUsers",
		Eligible:   "EligibleBatch",
	}, nil)

	inventory := &fakeInventory{files: map[string][]models.FileEntry{
		"pool-1":        {{ID: "f1"}, {ID: "f2", IsFolder: true}},
		"a@example.com": {{ID: "f3"}},
	}}
	projector := service.NewProjectorService(inventory, nil, 400000, 20000, nil)
	rotator := service.NewRotatorService(registry, &fakePoolProvider{}, 80, "Legacydrivebackup", nil, nil)
	planner := service.NewPlannerService(service.NewEstimatorService(1.2), nil, nil)
	reports := service.NewReportService(nil, 0, nil)
	dispatcher := &fakeDispatcher{}

	cfg := config.EngineConfig{MaxMinutes: 360, RotationThresholdPct: 80}
	cycles := service.NewCycleService(cfg, registry, batches, planner, projector,
		rotator, dispatcher, &fakeAlertSink{}, reports, nil, nil)

	cycleHandler := NewCycleHandler(cycles, reports)
	registryHandler := NewRegistryHandler(cycles)

	router := gin.New()
	router.POST("/cycles", cycleHandler.Start)
	router.GET("/cycles/last", cycleHandler.Last)
	router.GET("/cycles/last/report", cycleHandler.LastReport)
	router.GET("/pools", registryHandler.Pools)
	router.GET("/projection", registryHandler.Projection)
	return router, dispatcher
}

func do(router *gin.Engine, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestCycleHandlerStart(t *testing.T) {
	router, dispatcher := newTestRouter(t)

	rec := do(router, http.MethodPost, "/cycles")
	require.Equal(t, http.StatusOK, rec.Code)

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "COMPLETED", body.Data["status"])
	assert.Equal(t, "Legacydrivebackup", body.Data["activePool"])
	assert.Equal(t, float64(1), body.Data["admitted"])
	assert.Equal(t, []string{"a@example.com"}, dispatcher.owners)
}

func TestCycleHandlerLastBeforeAnyRun(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodGet, "/cycles/last")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCycleHandlerLastAfterRun(t *testing.T) {
	router, _ := newTestRouter(t)

	require.Equal(t, http.StatusOK, do(router, http.MethodPost, "/cycles").Code)

	rec := do(router, http.MethodGet, "/cycles/last")
	require.Equal(t, http.StatusOK, rec.Code)

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "COMPLETED", body.Data["status"])
}

func TestCycleHandlerReportDownload(t *testing.T) {
	router, _ := newTestRouter(t)
	require.Equal(t, http.StatusOK, do(router, http.MethodPost, "/cycles").Code)

	rec := do(router, http.MethodGet, "/cycles/last/report?format=csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), "Field,Value")
	assert.Contains(t, rec.Body.String(), "Admitted:a@example.com")
}

func TestCycleHandlerReportRejectsUnknownFormat(t *testing.T) {
	router, _ := newTestRouter(t)
	require.Equal(t, http.StatusOK, do(router, http.MethodPost, "/cycles").Code)

	rec := do(router, http.MethodGet, "/cycles/last/report?format=xlsx")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCycleHandlerReportBeforeAnyRun(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodGet, "/cycles/last/report")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegistryHandlerPools(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodGet, "/pools")
	require.Equal(t, http.StatusOK, rec.Code)

	var body listEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Legacydrivebackup", body.Data[0]["driveName"])
	assert.Equal(t, false, body.Data[0]["isFull"])
}

func TestRegistryHandlerProjection(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodGet, "/projection")
	require.Equal(t, http.StatusOK, rec.Code)

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Legacydrivebackup", body.Data["activePool"])
	projection, ok := body.Data["projection"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), projection["currentItems"])
	assert.Equal(t, float64(3), projection["projectedItems"])
}
