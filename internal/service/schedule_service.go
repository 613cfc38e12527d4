package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/etesthub-backend/internal/model"
	"github.com/stemsi/etesthub-backend/internal/repository"
)

// ScheduleService handles exam schedule administration.
type ScheduleService struct {
	store   ScheduleStore
	catalog Catalog
	log     zerolog.Logger
	now     func() time.Time
}

// NewScheduleService creates a new ScheduleService.
func NewScheduleService(store ScheduleStore, catalog Catalog, log zerolog.Logger) *ScheduleService {
	return &ScheduleService{
		store:   store,
		catalog: catalog,
		log:     log.With().Str("component", "schedule_service").Logger(),
		now:     time.Now,
	}
}

// ScheduleView is a schedule with its derived window status.
type ScheduleView struct {
	model.ExamSchedule
	Window WindowStatus `json:"window"`
}

func (s *ScheduleService) view(sched *model.ExamSchedule) *ScheduleView {
	return &ScheduleView{ExamSchedule: *sched, Window: DescribeWindow(sched, s.now())}
}

func (s *ScheduleService) views(scheds []model.ExamSchedule) []ScheduleView {
	now := s.now()
	out := make([]ScheduleView, 0, len(scheds))
	for i := range scheds {
		out = append(out, ScheduleView{ExamSchedule: scheds[i], Window: DescribeWindow(&scheds[i], now)})
	}
	return out
}

// Create assigns an existing exam to a class for a window.
func (s *ScheduleService) Create(ctx context.Context, cred model.Credential, req model.CreateScheduleRequest) (*ScheduleView, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, ErrInvalidWindow
	}

	if _, err := s.catalog.GetExam(ctx, cred, req.ExamID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, persistErr("get exam", err)
	}

	created, err := s.store.Create(ctx, cred, &model.ExamSchedule{
		ExamID:    req.ExamID,
		ClassID:   req.ClassID,
		StartTime: req.StartTime.UTC(),
		EndTime:   req.EndTime.UTC(),
	})
	if err != nil {
		return nil, s.storeErr("create schedule", err)
	}

	s.log.Info().
		Str("schedule_id", created.ID).
		Str("exam_id", created.ExamID).
		Str("class_id", created.ClassID).
		Time("start_time", created.StartTime).
		Time("end_time", created.EndTime).
		Msg("Schedule created")
	return s.view(created), nil
}

// Update moves a schedule's window.
func (s *ScheduleService) Update(ctx context.Context, cred model.Credential, id string, req model.UpdateScheduleRequest) (*ScheduleView, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, ErrInvalidWindow
	}

	sched, err := s.get(ctx, cred, id)
	if err != nil {
		return nil, err
	}
	sched.StartTime = req.StartTime.UTC()
	sched.EndTime = req.EndTime.UTC()

	updated, err := s.store.Update(ctx, cred, sched)
	if err != nil {
		return nil, s.storeErr("update schedule", err)
	}

	s.log.Info().Str("schedule_id", id).Msg("Schedule window updated")
	return s.view(updated), nil
}

// SetClosed sets or clears the manual closed flag.
func (s *ScheduleService) SetClosed(ctx context.Context, cred model.Credential, id string, closed bool) (*ScheduleView, error) {
	sched, err := s.get(ctx, cred, id)
	if err != nil {
		return nil, err
	}
	sched.IsClosed = closed

	updated, err := s.store.Update(ctx, cred, sched)
	if err != nil {
		return nil, s.storeErr("update schedule", err)
	}

	s.log.Info().Str("schedule_id", id).Bool("closed", closed).Msg("Schedule closed flag changed")
	return s.view(updated), nil
}

// Delete removes a schedule. Submissions made under it are kept.
func (s *ScheduleService) Delete(ctx context.Context, cred model.Credential, id string) error {
	if err := s.store.Delete(ctx, cred, id); err != nil {
		return s.storeErr("delete schedule", err)
	}
	s.log.Info().Str("schedule_id", id).Msg("Schedule deleted")
	return nil
}

// Get returns one schedule with its window status.
func (s *ScheduleService) Get(ctx context.Context, cred model.Credential, id string) (*ScheduleView, error) {
	sched, err := s.get(ctx, cred, id)
	if err != nil {
		return nil, err
	}
	return s.view(sched), nil
}

func (s *ScheduleService) ListByExam(ctx context.Context, cred model.Credential, examID string) ([]ScheduleView, error) {
	scheds, err := s.store.ListByExam(ctx, cred, examID)
	if err != nil {
		return nil, persistErr("list schedules", err)
	}
	return s.views(scheds), nil
}

func (s *ScheduleService) ListByClass(ctx context.Context, cred model.Credential, classID string) ([]ScheduleView, error) {
	scheds, err := s.store.ListByClass(ctx, cred, classID)
	if err != nil {
		return nil, persistErr("list schedules", err)
	}
	return s.views(scheds), nil
}

func (s *ScheduleService) get(ctx context.Context, cred model.Credential, id string) (*model.ExamSchedule, error) {
	sched, err := s.store.GetByID(ctx, cred, id)
	if err != nil {
		return nil, s.storeErr("get schedule", err)
	}
	return sched, nil
}

func (s *ScheduleService) storeErr(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrScheduleNotFound
	case errors.Is(err, repository.ErrCheckViolation):
		return ErrInvalidWindow
	default:
		return persistErr(op, err)
	}
}
