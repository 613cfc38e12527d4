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

// StudentPortalHandler handles the student exam flow.
type StudentPortalHandler struct {
	sessionService    *service.ExamSessionService
	submissionService *service.SubmissionService
	resultService     *service.ResultService
	log               zerolog.Logger
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(
	sessionService *service.ExamSessionService,
	submissionService *service.SubmissionService,
	resultService *service.ResultService,
	log zerolog.Logger,
) *StudentPortalHandler {
	return &StudentPortalHandler{
		sessionService:    sessionService,
		submissionService: submissionService,
		resultService:     resultService,
		log:               log.With().Str("component", "student_portal_handler").Logger(),
	}
}

// GetLobby godoc
// GET /api/v1/student/lobby
// Returns the exams scheduled for the student's classes.
func (h *StudentPortalHandler) GetLobby(c *gin.Context) {
	lobby, err := h.sessionService.Lobby(c.Request.Context(), middleware.GetCredential(c), middleware.GetUser(c))
	if err != nil {
		fail(c, h.log, zerolog.ErrorLevel, err, response.ErrPersistenceFailed)
		return
	}
	response.Success(c, http.StatusOK, lobby)
}

// Enter godoc
// POST /api/v1/student/schedules/:schedule_id/enter
// Starts or resumes the attempt and returns the questions.
func (h *StudentPortalHandler) Enter(c *gin.Context) {
	scheduleID, ok := idParam(c, "schedule_id")
	if !ok {
		return
	}

	sess, err := h.sessionService.Enter(c.Request.Context(), middleware.GetCredential(c), scheduleID, middleware.GetUser(c))
	if err != nil {
		fail(c, h.log, zerolog.ErrorLevel, err, response.ErrPersistenceFailed)
		return
	}
	response.Success(c, http.StatusOK, sess)
}

// GetState godoc
// GET /api/v1/student/schedules/:schedule_id/state
func (h *StudentPortalHandler) GetState(c *gin.Context) {
	scheduleID, ok := idParam(c, "schedule_id")
	if !ok {
		return
	}

	sess, err := h.sessionService.State(c.Request.Context(), middleware.GetCredential(c), scheduleID, middleware.GetUser(c))
	if err != nil {
		fail(c, h.log, zerolog.ErrorLevel, err, response.ErrPersistenceFailed)
		return
	}
	response.Success(c, http.StatusOK, sess)
}

// SaveAnswers godoc
// PUT /api/v1/student/schedules/:schedule_id/answers
// Replaces the attempt's answers. Scores sent by clients are ignored.
func (h *StudentPortalHandler) SaveAnswers(c *gin.Context) {
	scheduleID, ok := idParam(c, "schedule_id")
	if !ok {
		return
	}
	var req model.SaveAnswersRequest
	if !bindJSON(c, &req) {
		return
	}

	sub, err := h.sessionService.Autosave(c.Request.Context(), middleware.GetCredential(c), scheduleID, middleware.GetUser(c), req.ToAnswers())
	if err != nil {
		fail(c, h.log, zerolog.WarnLevel, err, response.ErrAutosaveFailed)
		return
	}
	response.Success(c, http.StatusOK, sub)
}

// Submit godoc
// POST /api/v1/student/schedules/:schedule_id/submit
// Finalizes the attempt with its last answers.
func (h *StudentPortalHandler) Submit(c *gin.Context) {
	scheduleID, ok := idParam(c, "schedule_id")
	if !ok {
		return
	}
	var req model.SaveAnswersRequest
	if !bindJSON(c, &req) {
		return
	}

	sub, err := h.sessionService.Submit(c.Request.Context(), middleware.GetCredential(c), scheduleID, middleware.GetUser(c), req.ToAnswers())
	if err != nil {
		fail(c, h.log, zerolog.ErrorLevel, err, response.ErrSubmitFailed)
		return
	}
	response.Success(c, http.StatusOK, sub)
}

// ListMySubmissions godoc
// GET /api/v1/student/submissions
func (h *StudentPortalHandler) ListMySubmissions(c *gin.Context) {
	user := middleware.GetUser(c)
	subs, err := h.submissionService.ListByStudent(c.Request.Context(), middleware.GetCredential(c), user.ID)
	if err != nil {
		fail(c, h.log, zerolog.ErrorLevel, err, response.ErrPersistenceFailed)
		return
	}
	if subs == nil {
		subs = []model.Submission{}
	}
	response.Success(c, http.StatusOK, subs)
}

// GetSubmission godoc
// GET /api/v1/student/submissions/:id
// Students only see their own submissions.
func (h *StudentPortalHandler) GetSubmission(c *gin.Context) {
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
