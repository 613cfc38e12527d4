package remote

import (
	"context"
	"net/http"

	"github.com/stemsi/etesthub-backend/internal/model"
)

// CreateSchedule POSTs a new exam schedule.
func (c *Client) CreateSchedule(ctx context.Context, cred model.Credential, s *model.ExamSchedule) (*model.ExamSchedule, error) {
	var out scheduleDTO
	if err := c.do(ctx, cred.Token, http.MethodPost, "schedules", scheduleFromModel(s), &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, ErrMissingID
	}
	return out.toModel(), nil
}

// UpdateSchedule replaces a schedule's window and closed flag.
func (c *Client) UpdateSchedule(ctx context.Context, cred model.Credential, s *model.ExamSchedule) (*model.ExamSchedule, error) {
	var out scheduleDTO
	if err := c.do(ctx, cred.Token, http.MethodPut, "schedules/"+segment(s.ID), scheduleFromModel(s), &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return c.GetSchedule(ctx, cred, s.ID)
	}
	return out.toModel(), nil
}

// DeleteSchedule removes a schedule.
func (c *Client) DeleteSchedule(ctx context.Context, cred model.Credential, id string) error {
	return c.do(ctx, cred.Token, http.MethodDelete, "schedules/"+segment(id), nil, nil)
}

// GetSchedule fetches one schedule by id.
func (c *Client) GetSchedule(ctx context.Context, cred model.Credential, id string) (*model.ExamSchedule, error) {
	var out scheduleDTO
	if err := c.do(ctx, cred.Token, http.MethodGet, "schedules/"+segment(id), nil, &out); err != nil {
		return nil, err
	}
	return out.toModel(), nil
}

// ListSchedulesByClass lists the schedules assigned to a class.
func (c *Client) ListSchedulesByClass(ctx context.Context, cred model.Credential, classID string) ([]model.ExamSchedule, error) {
	var out []scheduleDTO
	if err := c.do(ctx, cred.Token, http.MethodGet, "schedules/class/"+segment(classID), nil, &out); err != nil {
		return nil, err
	}
	return schedulesToModel(out), nil
}

// ListSchedulesByExam lists the schedules of an exam.
func (c *Client) ListSchedulesByExam(ctx context.Context, cred model.Credential, examID string) ([]model.ExamSchedule, error) {
	var out []scheduleDTO
	if err := c.do(ctx, cred.Token, http.MethodGet, "schedules/exam/"+segment(examID), nil, &out); err != nil {
		return nil, err
	}
	return schedulesToModel(out), nil
}
