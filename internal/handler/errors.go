package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/etesthub-backend/internal/response"
	"github.com/stemsi/etesthub-backend/internal/service"
	"github.com/stemsi/etesthub-backend/internal/validator"
)

// serviceErrors maps domain errors onto HTTP status and error code.
var serviceErrors = []struct {
	err    error
	status int
	code   response.ErrCode
}{
	{service.ErrInvalidIdentifier, http.StatusBadRequest, response.ErrInvalidID},
	{service.ErrInvalidWindow, http.StatusBadRequest, response.ErrInvalidWindow},
	{service.ErrUnknownQuestion, http.StatusBadRequest, response.ErrUnknownQuestion},
	{service.ErrDuplicateAnswer, http.StatusBadRequest, response.ErrDuplicateAnswer},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, response.ErrInvalidCredentials},
	{service.ErrSessionExpired, http.StatusUnauthorized, response.ErrSessionInvalidated},
	{service.ErrForbidden, http.StatusForbidden, response.ErrForbidden},
	{service.ErrNotEnrolled, http.StatusForbidden, response.ErrNotEnrolled},
	{service.ErrExamNotPublished, http.StatusForbidden, response.ErrExamNotPublished},
	{service.ErrScheduleNotFound, http.StatusNotFound, response.ErrScheduleNotFound},
	{service.ErrExamNotFound, http.StatusNotFound, response.ErrExamNotFound},
	{service.ErrSubmissionNotFound, http.StatusNotFound, response.ErrSubmissionNotFound},
	{service.ErrWindowUpcoming, http.StatusConflict, response.ErrWindowUpcoming},
	{service.ErrWindowClosed, http.StatusConflict, response.ErrWindowClosed},
	{service.ErrAlreadySubmitted, http.StatusConflict, response.ErrAlreadySubmitted},
	{service.ErrNoAttempt, http.StatusConflict, response.ErrNoAttempt},
}

// classify returns the HTTP status and code for err. persistCode is used for
// data-service failures so each operation can report its own retry code.
func classify(err error, persistCode response.ErrCode) (int, response.ErrCode) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	var perr *service.PersistenceError
	if errors.As(err, &perr) {
		return http.StatusBadGateway, persistCode
	}
	return http.StatusInternalServerError, response.ErrInternal
}

// fail writes err as an API error. Unexpected failures are logged at level.
func fail(c *gin.Context, log zerolog.Logger, level zerolog.Level, err error, persistCode response.ErrCode) {
	status, code := classify(err, persistCode)
	if status >= http.StatusInternalServerError {
		log.WithLevel(level).Err(err).
			Str("request_id", response.RequestID(c)).
			Str("path", c.FullPath()).
			Msg("Request failed")
	}
	response.Fail(c, status, code)
}

// bindJSON binds and validates the body, writing a 400 on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if fields := validator.Bind(c, dst); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return false
	}
	return true
}

// idParam reads a data-service identifier path parameter, writing a 400 if
// it is malformed.
func idParam(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if !validator.ValidID(id) {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return "", false
	}
	return id, true
}
