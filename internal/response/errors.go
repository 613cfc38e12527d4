package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrTeacherAccessOnly ErrCode = "TEACHER_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrInvalidWindow  ErrCode = "INVALID_WINDOW"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound           ErrCode = "NOT_FOUND"
	ErrScheduleNotFound   ErrCode = "SCHEDULE_NOT_FOUND"
	ErrExamNotFound       ErrCode = "EXAM_NOT_FOUND"
	ErrSubmissionNotFound ErrCode = "SUBMISSION_NOT_FOUND"

	// ─── Exam-specific ─────────────────────────────────────────────────
	ErrNotEnrolled      ErrCode = "NOT_ENROLLED"
	ErrExamNotPublished ErrCode = "EXAM_NOT_PUBLISHED"
	ErrWindowUpcoming   ErrCode = "WINDOW_UPCOMING"
	ErrWindowClosed     ErrCode = "WINDOW_CLOSED"
	ErrAlreadySubmitted ErrCode = "ALREADY_SUBMITTED"
	ErrNoAttempt        ErrCode = "NO_ATTEMPT"
	ErrUnknownQuestion  ErrCode = "UNKNOWN_QUESTION"
	ErrDuplicateAnswer  ErrCode = "DUPLICATE_ANSWER"

	// ─── Data service ──────────────────────────────────────────────────
	ErrPersistenceFailed ErrCode = "PERSISTENCE_FAILED"
	ErrAutosaveFailed    ErrCode = "AUTOSAVE_FAILED"
	ErrSubmitFailed      ErrCode = "SUBMIT_FAILED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// Retryable reports whether the client may repeat the request unchanged.
func Retryable(code ErrCode) bool {
	switch code {
	case ErrPersistenceFailed, ErrAutosaveFailed, ErrSubmitFailed, ErrRateLimitExceeded:
		return true
	default:
		return false
	}
}

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid email or password."
	case ErrSessionInvalidated:
		return "Your session has ended. Please sign in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid or expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrTeacherAccessOnly:
		return "This resource is restricted to teachers and administrators."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid identifier format."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrInvalidWindow:
		return "The end time must be after the start time."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrScheduleNotFound:
		return "Exam schedule not found."
	case ErrExamNotFound:
		return "Exam not found."
	case ErrSubmissionNotFound:
		return "Submission not found."

	// ─── Exam-specific ─────────────────────────────────────────────────
	case ErrNotEnrolled:
		return "You are not enrolled in the class this exam is scheduled for."
	case ErrExamNotPublished:
		return "This exam has not been published."
	case ErrWindowUpcoming:
		return "This exam has not opened yet."
	case ErrWindowClosed:
		return "This exam is closed."
	case ErrAlreadySubmitted:
		return "You have already submitted this exam."
	case ErrNoAttempt:
		return "Start the exam before saving answers."
	case ErrUnknownQuestion:
		return "An answer refers to a question that is not part of this exam."
	case ErrDuplicateAnswer:
		return "Each question can only be answered once."

	// ─── Data service ──────────────────────────────────────────────────
	case ErrPersistenceFailed:
		return "Could not reach the exam data service. Please try again."
	case ErrAutosaveFailed:
		return "Your answers could not be saved. Please try again."
	case ErrSubmitFailed:
		return "Your exam could not be submitted. Please try again."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
