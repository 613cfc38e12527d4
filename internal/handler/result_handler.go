package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/etesthub-backend/internal/middleware"
	"github.com/stemsi/etesthub-backend/internal/response"
	"github.com/stemsi/etesthub-backend/internal/service"
)

// ResultHandler serves grading reports to teachers.
type ResultHandler struct {
	resultService *service.ResultService
	log           zerolog.Logger
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(resultService *service.ResultService, log zerolog.Logger) *ResultHandler {
	return &ResultHandler{
		resultService: resultService,
		log:           log.With().Str("component", "result_handler").Logger(),
	}
}

// ExamResults godoc
// GET /api/v1/teacher/exams/:exam_id/results
func (h *ResultHandler) ExamResults(c *gin.Context) {
	examID, ok := idParam(c, "exam_id")
	if !ok {
		return
	}

	res, err := h.resultService.ExamResults(c.Request.Context(), middleware.GetCredential(c), examID)
	if err != nil {
		fail(c, h.log, zerolog.ErrorLevel, err, response.ErrPersistenceFailed)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// SubmissionDetail godoc
// GET /api/v1/teacher/submissions/:id
func (h *ResultHandler) SubmissionDetail(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.resultService.SubmissionDetail(c.Request.Context(), middleware.GetCredential(c), id, middleware.GetUser(c))
	if err != nil {
		fail(c, h.log, zerolog.ErrorLevel, err, response.ErrPersistenceFailed)
		return
	}
	response.Success(c, http.StatusOK, detail)
}
