package remote

import (
	"context"
	"errors"
	"net/http"

	"github.com/stemsi/etesthub-backend/internal/model"
)

// ErrMissingID is returned when a create call succeeds without an identifier.
var ErrMissingID = errors.New("remote: created resource has no id")

// CreateSubmission POSTs a new attempt and returns the stored record.
func (c *Client) CreateSubmission(ctx context.Context, cred model.Credential, s *model.Submission) (*model.Submission, error) {
	in := submissionDTO{
		ExamID:      s.ExamID,
		StudentID:   s.StudentID,
		Answers:     answersToDTO(s.Answers),
		Score:       s.Score,
		Status:      string(s.Status),
		IsGraded:    s.IsGraded,
		SubmittedAt: s.SubmittedAt,
	}
	var out submissionDTO
	if err := c.do(ctx, cred.Token, http.MethodPost, "submissions", in, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, ErrMissingID
	}
	return out.toModel(), nil
}

// UpdateSubmission PUTs a partial update. Answers are always sent and replace
// the stored list. When the service answers without a body the record is re-read.
func (c *Client) UpdateSubmission(ctx context.Context, cred model.Credential, id string, upd model.SubmissionUpdate) (*model.Submission, error) {
	in := submissionPatchDTO{
		Answers:     answersToDTO(upd.Answers),
		IsGraded:    upd.IsGraded,
		Score:       upd.Score,
		SubmittedAt: upd.SubmittedAt,
	}
	if upd.Status != nil {
		status := string(*upd.Status)
		in.Status = &status
	}

	var out submissionDTO
	if err := c.do(ctx, cred.Token, http.MethodPut, "submissions/"+segment(id), in, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return c.GetSubmission(ctx, cred, id)
	}
	return out.toModel(), nil
}

// GetSubmission fetches one attempt by id.
func (c *Client) GetSubmission(ctx context.Context, cred model.Credential, id string) (*model.Submission, error) {
	var out submissionDTO
	if err := c.do(ctx, cred.Token, http.MethodGet, "submissions/"+segment(id), nil, &out); err != nil {
		return nil, err
	}
	return out.toModel(), nil
}

// ListSubmissionsByStudent lists every attempt of a student.
func (c *Client) ListSubmissionsByStudent(ctx context.Context, cred model.Credential, studentID string) ([]model.Submission, error) {
	var out []submissionDTO
	if err := c.do(ctx, cred.Token, http.MethodGet, "submissions/user/"+segment(studentID), nil, &out); err != nil {
		return nil, err
	}
	return submissionsToModel(out), nil
}

// ListSubmissionsByExam lists every attempt of an exam.
func (c *Client) ListSubmissionsByExam(ctx context.Context, cred model.Credential, examID string) ([]model.Submission, error) {
	var out []submissionDTO
	if err := c.do(ctx, cred.Token, http.MethodGet, "submissions/exam/"+segment(examID), nil, &out); err != nil {
		return nil, err
	}
	return submissionsToModel(out), nil
}
