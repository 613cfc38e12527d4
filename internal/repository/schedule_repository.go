package repository

import (
	"context"

	"github.com/stemsi/etesthub-backend/internal/model"
	"github.com/stemsi/etesthub-backend/internal/remote"
)

// ScheduleRepository stores exam schedules in the remote data service.
type ScheduleRepository struct {
	client *remote.Client
}

// NewScheduleRepository creates a new ScheduleRepository.
func NewScheduleRepository(client *remote.Client) *ScheduleRepository {
	return &ScheduleRepository{client: client}
}

// Create inserts a new schedule.
func (r *ScheduleRepository) Create(ctx context.Context, cred model.Credential, s *model.ExamSchedule) (*model.ExamSchedule, error) {
	created, err := r.client.CreateSchedule(ctx, cred, s)
	return created, fromRemote(err)
}

// Update replaces a schedule's window and closed flag.
func (r *ScheduleRepository) Update(ctx context.Context, cred model.Credential, s *model.ExamSchedule) (*model.ExamSchedule, error) {
	updated, err := r.client.UpdateSchedule(ctx, cred, s)
	return updated, fromRemote(err)
}

// Delete removes a schedule.
func (r *ScheduleRepository) Delete(ctx context.Context, cred model.Credential, id string) error {
	return fromRemote(r.client.DeleteSchedule(ctx, cred, id))
}

// GetByID retrieves a schedule by id.
func (r *ScheduleRepository) GetByID(ctx context.Context, cred model.Credential, id string) (*model.ExamSchedule, error) {
	s, err := r.client.GetSchedule(ctx, cred, id)
	return s, fromRemote(err)
}

// ListByClass retrieves the schedules assigned to a class.
func (r *ScheduleRepository) ListByClass(ctx context.Context, cred model.Credential, classID string) ([]model.ExamSchedule, error) {
	list, err := r.client.ListSchedulesByClass(ctx, cred, classID)
	if err = fromRemote(err); err == ErrNotFound {
		return nil, nil
	}
	return list, err
}

// ListByExam retrieves the schedules of an exam.
func (r *ScheduleRepository) ListByExam(ctx context.Context, cred model.Credential, examID string) ([]model.ExamSchedule, error) {
	list, err := r.client.ListSchedulesByExam(ctx, cred, examID)
	if err = fromRemote(err); err == ErrNotFound {
		return nil, nil
	}
	return list, err
}
