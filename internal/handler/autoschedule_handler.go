package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/camp-autoscheduler/internal/dto"
	"github.com/noah-isme/camp-autoscheduler/internal/models"
	"github.com/noah-isme/camp-autoscheduler/internal/service"
	appErrors "github.com/noah-isme/camp-autoscheduler/pkg/errors"
	"github.com/noah-isme/camp-autoscheduler/pkg/response"
)

type autoScheduler interface {
	Calculate(ctx context.Context, req dto.CalculateAutoScheduleRequest) (*dto.AutoScheduleRunResponse, error)
	Enqueue(ctx context.Context, req dto.CalculateAutoScheduleRequest) (*dto.AutoScheduleJobResponse, error)
	Recalculate(ctx context.Context, req dto.RecalculateAutoScheduleRequest) (*dto.AutoScheduleRunResponse, error)
	Diff(ctx context.Context, fromID, toID string) (*dto.AutoScheduleDiffResponse, error)
	Apply(ctx context.Context, id string) (*dto.ApplyAutoScheduleResponse, error)
	Get(ctx context.Context, id string) (*dto.AutoScheduleDetailResponse, error)
	List(ctx context.Context, campID string) ([]models.AutoScheduleMeta, error)
	Delete(ctx context.Context, id string) error
	Export(ctx context.Context, id string, query dto.AutoScheduleExportQuery) (*dto.AutoScheduleExport, error)
}

// AutoScheduleHandler exposes camp autoscheduling endpoints.
type AutoScheduleHandler struct {
	service autoScheduler
}

// NewAutoScheduleHandler constructs the handler.
func NewAutoScheduleHandler(svc *service.AutoScheduleService) *AutoScheduleHandler {
	return &AutoScheduleHandler{service: svc}
}

// Calculate godoc
// @Summary Calculate a fresh camp schedule
// @Description Places every autoscheduled event of the given types. With async=true the run is queued and 202 is returned.
// @Tags Autoschedule
// @Accept json
// @Produce json
// @Param campId path string true "Camp ID"
// @Param async query bool false "Queue the calculation"
// @Param payload body dto.CalculateAutoScheduleRequest true "Calculate payload"
// @Success 201 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /camps/{campId}/autoschedule/calculate [post]
func (h *AutoScheduleHandler) Calculate(c *gin.Context) {
	var req dto.CalculateAutoScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid calculate payload"))
		return
	}
	req.CampID = c.Param("campId")
	req.RequestedBy = requesterID(c)

	if async, _ := strconv.ParseBool(c.DefaultQuery("async", "false")); async {
		job, err := h.service.Enqueue(c.Request.Context(), req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Accepted(c, job)
		return
	}

	result, err := h.service.Calculate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Recalculate godoc
// @Summary Recalculate a camp schedule with minimal changes
// @Description Re-solves against the current program, staying as close as possible to the base version (latest by default).
// @Tags Autoschedule
// @Accept json
// @Produce json
// @Param campId path string true "Camp ID"
// @Param payload body dto.RecalculateAutoScheduleRequest false "Recalculate payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /camps/{campId}/autoschedule/recalculate [post]
func (h *AutoScheduleHandler) Recalculate(c *gin.Context) {
	var req dto.RecalculateAutoScheduleRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid recalculate payload"))
			return
		}
	}
	req.CampID = c.Param("campId")
	req.RequestedBy = requesterID(c)

	result, err := h.service.Recalculate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, withRecalculateContext(err))
		return
	}
	status := http.StatusCreated
	if req.InPlace {
		status = http.StatusOK
	}
	response.JSON(c, status, result, nil)
}

// List godoc
// @Summary List schedule versions of a camp
// @Tags Autoschedule
// @Produce json
// @Param campId path string true "Camp ID"
// @Success 200 {object} response.Envelope
// @Router /camps/{campId}/autoschedule [get]
func (h *AutoScheduleHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context(), c.Param("campId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil, map[string]interface{}{"total": len(items)})
}

// Get godoc
// @Summary Get a schedule version with its placements
// @Tags Autoschedule
// @Produce json
// @Param id path string true "Schedule version ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /autoschedule/{id} [get]
func (h *AutoScheduleHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Diff godoc
// @Summary Compare two schedule versions
// @Tags Autoschedule
// @Produce json
// @Param id path string true "Old schedule version ID"
// @Param otherId path string true "New schedule version ID"
// @Success 200 {object} response.Envelope
// @Router /autoschedule/{id}/diff/{otherId} [get]
func (h *AutoScheduleHandler) Diff(c *gin.Context) {
	diff, err := h.service.Diff(c.Request.Context(), c.Param("id"), c.Param("otherId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, diff, nil, map[string]interface{}{
		"slotChanges":  len(diff.Slots),
		"eventChanges": len(diff.Events),
	})
}

// Apply godoc
// @Summary Apply a schedule version to the camp program
// @Description Replaces the autoscheduled placements of the version's event types. Applied versions become read-only.
// @Tags Autoschedule
// @Produce json
// @Param id path string true "Schedule version ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /autoschedule/{id}/apply [post]
func (h *AutoScheduleHandler) Apply(c *gin.Context) {
	result, err := h.service.Apply(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Export a schedule version
// @Tags Autoschedule
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Schedule version ID"
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Router /autoschedule/{id}/export [get]
func (h *AutoScheduleHandler) Export(c *gin.Context) {
	var query dto.AutoScheduleExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	file, err := h.service.Export(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Content)
}

// Delete godoc
// @Summary Delete a draft schedule version
// @Tags Autoschedule
// @Param id path string true "Schedule version ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /autoschedule/{id} [delete]
func (h *AutoScheduleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// withRecalculateContext prefixes failure messages so users can tell a
// failed recalculation from other errors.
func withRecalculateContext(err error) error {
	appErr := appErrors.FromError(err)
	if appErr.Code == appErrors.ErrReadOnly.Code {
		return appErr
	}
	return appErrors.Clone(appErr, "recalculation failed: "+appErr.Message)
}
