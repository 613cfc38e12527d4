package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestFail_MarksRetryableCodes(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/retry", func(c *gin.Context) { Fail(c, http.StatusBadGateway, ErrAutosaveFailed) })
	r.GET("/final", func(c *gin.Context) { Fail(c, http.StatusConflict, ErrAlreadySubmitted) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/retry", nil)
	req.Header.Set("X-Request-ID", "req-123")
	r.ServeHTTP(w, req)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, ErrAutosaveFailed, body.Error.Code)
	assert.True(t, body.Error.Retryable)
	assert.Equal(t, "req-123", body.Metadata.RequestID)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/final", nil))
	body = Response{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Error.Retryable)
	assert.NotEmpty(t, body.Metadata.RequestID)
}

func TestRequestIDMiddleware_ReplacesOversizedHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { Success(c, http.StatusOK, nil) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 200))
	r.ServeHTTP(w, req)

	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}

func TestGetMessage_EveryCodeHasText(t *testing.T) {
	codes := []ErrCode{
		ErrInvalidCredentials, ErrSessionInvalidated, ErrTokenRequired, ErrTokenInvalid,
		ErrForbidden, ErrStudentAccessOnly, ErrTeacherAccessOnly,
		ErrValidation, ErrInvalidID, ErrInvalidPayload, ErrInvalidWindow,
		ErrNotFound, ErrScheduleNotFound, ErrExamNotFound, ErrSubmissionNotFound,
		ErrNotEnrolled, ErrExamNotPublished, ErrWindowUpcoming, ErrWindowClosed,
		ErrAlreadySubmitted, ErrNoAttempt, ErrUnknownQuestion, ErrDuplicateAnswer,
		ErrPersistenceFailed, ErrAutosaveFailed, ErrSubmitFailed,
		ErrRateLimitExceeded, ErrInternal,
	}
	for _, code := range codes {
		assert.NotEqual(t, GetMessage("UNKNOWN"), GetMessage(code), code)
	}
}
