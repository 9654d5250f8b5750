package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/drive-backup-api/internal/dto"
	"github.com/noah-isme/drive-backup-api/internal/service"
	"github.com/noah-isme/drive-backup-api/pkg/response"
)

// RegistryHandler exposes the pool registry and occupancy projection.
type RegistryHandler struct {
	cycles *service.CycleService
}

// NewRegistryHandler constructs a RegistryHandler.
func NewRegistryHandler(cycles *service.CycleService) *RegistryHandler {
	return &RegistryHandler{cycles: cycles}
}

// Pools godoc
// @Summary List pool registry records
// @Tags Pools
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /pools [get]
func (h *RegistryHandler) Pools(c *gin.Context) {
	records, err := h.cycles.Pools(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewPoolResponses(records))
}

// Projection godoc
// @Summary Project active pool occupancy without running a cycle
// @Tags Pools
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /projection [get]
func (h *RegistryHandler) Projection(c *gin.Context) {
	activePool, projection, err := h.cycles.PreviewProjection(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ProjectionResponse{
		ActivePool: activePool,
		Projection: dto.NewProjectionBody(projection),
	})
}
