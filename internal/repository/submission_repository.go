package repository

import (
	"context"

	"github.com/stemsi/etesthub-backend/internal/model"
	"github.com/stemsi/etesthub-backend/internal/remote"
)

// SubmissionRepository stores submissions in the remote data service.
type SubmissionRepository struct {
	client *remote.Client
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(client *remote.Client) *SubmissionRepository {
	return &SubmissionRepository{client: client}
}

// Create inserts a new submission and returns it with its generated id.
func (r *SubmissionRepository) Create(ctx context.Context, cred model.Credential, s *model.Submission) (*model.Submission, error) {
	created, err := r.client.CreateSubmission(ctx, cred, s)
	return created, fromRemote(err)
}

// Update applies a partial update and returns the stored record. The data
// service has no conditional write, so upd.Unfinalized is checked with a read
// just before the PUT.
func (r *SubmissionRepository) Update(ctx context.Context, cred model.Credential, id string, upd model.SubmissionUpdate) (*model.Submission, error) {
	if upd.Unfinalized {
		current, err := r.GetByID(ctx, cred, id)
		if err != nil {
			return nil, err
		}
		if current.Finalized() {
			return nil, ErrFinalized
		}
	}
	s, err := r.client.UpdateSubmission(ctx, cred, id, upd)
	return s, fromRemote(err)
}

// GetByID retrieves a submission by id.
func (r *SubmissionRepository) GetByID(ctx context.Context, cred model.Credential, id string) (*model.Submission, error) {
	s, err := r.client.GetSubmission(ctx, cred, id)
	return s, fromRemote(err)
}

// GetByExamAndStudent finds the attempt for an (exam, student) pair. The data
// service has no pair lookup, so the exam's submissions are filtered here.
// If a concurrent start left two records, the finalized one wins, then the oldest.
func (r *SubmissionRepository) GetByExamAndStudent(ctx context.Context, cred model.Credential, examID, studentID string) (*model.Submission, error) {
	all, err := r.client.ListSubmissionsByExam(ctx, cred, examID)
	if err != nil {
		return nil, fromRemote(err)
	}

	var found *model.Submission
	for i := range all {
		s := &all[i]
		if s.StudentID != studentID {
			continue
		}
		if found == nil || preferSubmission(s, found) {
			found = s
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func preferSubmission(a, b *model.Submission) bool {
	if a.IsGraded != b.IsGraded {
		return a.IsGraded
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// ListByStudent retrieves all submissions of a student.
func (r *SubmissionRepository) ListByStudent(ctx context.Context, cred model.Credential, studentID string) ([]model.Submission, error) {
	list, err := r.client.ListSubmissionsByStudent(ctx, cred, studentID)
	if err != nil {
		if err = fromRemote(err); err == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return list, nil
}

// ListByExam retrieves all submissions of an exam.
func (r *SubmissionRepository) ListByExam(ctx context.Context, cred model.Credential, examID string) ([]model.Submission, error) {
	list, err := r.client.ListSubmissionsByExam(ctx, cred, examID)
	if err != nil {
		if err = fromRemote(err); err == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return list, nil
}
