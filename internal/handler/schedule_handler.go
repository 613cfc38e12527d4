package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/etesthub-backend/internal/middleware"
	"github.com/stemsi/etesthub-backend/internal/model"
	"github.com/stemsi/etesthub-backend/internal/response"
	"github.com/stemsi/etesthub-backend/internal/service"
)

// ScheduleHandler handles exam schedule administration.
type ScheduleHandler struct {
	scheduleService *service.ScheduleService
	log             zerolog.Logger
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(scheduleService *service.ScheduleService, log zerolog.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleService: scheduleService,
		log:             log.With().Str("component", "schedule_handler").Logger(),
	}
}

// Create godoc
// POST /api/v1/teacher/schedules
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req model.CreateScheduleRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.scheduleService.Create(c.Request.Context(), middleware.GetCredential(c), req)
	if err != nil {
		fail(c, h.log, zerolog.ErrorLevel, err, response.ErrPersistenceFailed)
		return
	}
	response.Success(c, http.StatusCreated, view)
}

// Get godoc
// GET /api/v1/teacher/schedules/:id
func (h *ScheduleHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	view, err := h.scheduleService.Get(c.Request.Context(), middleware.GetCredential(c), id)
	if err != nil {
		fail(c, h.log, zerolog.ErrorLevel, err, response.ErrPersistenceFailed)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// Update godoc
// PUT /api/v1/teacher/schedules/:id
func (h *ScheduleHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req model.UpdateScheduleRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.scheduleService.Update(c.Request.Context(), middleware.GetCredential(c), id, req)
	if err != nil {
		fail(c, h.log, zerolog.ErrorLevel, err, response.ErrPersistenceFailed)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// SetClosed godoc
// PATCH /api/v1/teacher/schedules/:id/closed
func (h *ScheduleHandler) SetClosed(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req model.SetClosedRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.scheduleService.SetClosed(c.Request.Context(), middleware.GetCredential(c), id, *req.Closed)
	if err != nil {
		fail(c, h.log, zerolog.ErrorLevel, err, response.ErrPersistenceFailed)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// Delete godoc
// DELETE /api/v1/teacher/schedules/:id
func (h *ScheduleHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.scheduleService.Delete(c.Request.Context(), middleware.GetCredential(c), id); err != nil {
		fail(c, h.log, zerolog.ErrorLevel, err, response.ErrPersistenceFailed)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}

// ListByExam godoc
// GET /api/v1/teacher/exams/:exam_id/schedules
func (h *ScheduleHandler) ListByExam(c *gin.Context) {
	examID, ok := idParam(c, "exam_id")
	if !ok {
		return
	}

	views, err := h.scheduleService.ListByExam(c.Request.Context(), middleware.GetCredential(c), examID)
	if err != nil {
		fail(c, h.log, zerolog.ErrorLevel, err, response.ErrPersistenceFailed)
		return
	}
	response.Success(c, http.StatusOK, views)
}

// ListByClass godoc
// GET /api/v1/teacher/classes/:class_id/schedules
func (h *ScheduleHandler) ListByClass(c *gin.Context) {
	classID, ok := idParam(c, "class_id")
	if !ok {
		return
	}

	views, err := h.scheduleService.ListByClass(c.Request.Context(), middleware.GetCredential(c), classID)
	if err != nil {
		fail(c, h.log, zerolog.ErrorLevel, err, response.ErrPersistenceFailed)
		return
	}
	response.Success(c, http.StatusOK, views)
}
