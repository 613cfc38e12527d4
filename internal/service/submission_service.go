package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/etesthub-backend/internal/events"
	"github.com/stemsi/etesthub-backend/internal/model"
	"github.com/stemsi/etesthub-backend/internal/repository"
)

// SubmissionStore persists submissions. Implementations return
// repository.ErrNotFound for missing records and repository.ErrDuplicate when
// a submission already exists for the (exam, student) pair.
type SubmissionStore interface {
	Create(ctx context.Context, cred model.Credential, s *model.Submission) (*model.Submission, error)
	Update(ctx context.Context, cred model.Credential, id string, upd model.SubmissionUpdate) (*model.Submission, error)
	GetByID(ctx context.Context, cred model.Credential, id string) (*model.Submission, error)
	GetByExamAndStudent(ctx context.Context, cred model.Credential, examID, studentID string) (*model.Submission, error)
	ListByStudent(ctx context.Context, cred model.Credential, studentID string) ([]model.Submission, error)
	ListByExam(ctx context.Context, cred model.Credential, examID string) ([]model.Submission, error)
}

// SubmissionService manages the lifecycle of one student's attempt at one exam:
// start, any number of autosaves, then a single final submit.
type SubmissionService struct {
	store     SubmissionStore
	grader    Grader
	publisher events.Publisher
	log       zerolog.Logger
	now       func() time.Time

	submitting keyedMutex
}

// NewSubmissionService creates a new SubmissionService. publisher may be nil.
func NewSubmissionService(store SubmissionStore, grader Grader, publisher events.Publisher, log zerolog.Logger) *SubmissionService {
	if grader == nil {
		grader = RemoteGrader{}
	}
	return &SubmissionService{
		store:     store,
		grader:    grader,
		publisher: publisher,
		log:       log.With().Str("component", "submission_service").Logger(),
		now:       time.Now,
	}
}

// StartAttempt returns the student's existing submission for the exam, or
// creates a fresh in-progress one. Repeated and concurrent calls converge on a
// single record.
func (s *SubmissionService) StartAttempt(ctx context.Context, cred model.Credential, examID, studentID string) (*model.Submission, error) {
	if examID == "" || studentID == "" {
		return nil, ErrInvalidIdentifier
	}

	existing, err := s.GetAttempt(ctx, cred, examID, studentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	created, err := s.store.Create(ctx, cred, &model.Submission{
		ExamID:    examID,
		StudentID: studentID,
		Answers:   []model.Answer{},
		Status:    model.SubmissionStatusInProgress,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// Lost the race with a concurrent start.
		winner, err := s.store.GetByExamAndStudent(ctx, cred, examID, studentID)
		if err != nil {
			return nil, persistErr("start attempt", err)
		}
		return winner, nil
	}
	if err != nil {
		return nil, persistErr("start attempt", err)
	}
	if created == nil || created.ID == "" {
		return nil, persistErr("start attempt", errors.New("store returned no submission id"))
	}

	s.log.Info().
		Str("submission_id", created.ID).
		Str("exam_id", examID).
		Str("student_id", studentID).
		Msg("Attempt started")
	s.publish(ctx, events.TypeAttemptStarted, created)

	return created, nil
}

// SaveAnswers replaces the attempt's answer list. Status, score and submission
// time are left untouched.
func (s *SubmissionService) SaveAnswers(ctx context.Context, cred model.Credential, submissionID string, answers []model.Answer) (*model.Submission, error) {
	if submissionID == "" {
		return nil, ErrInvalidIdentifier
	}

	updated, err := s.store.Update(ctx, cred, submissionID, model.SubmissionUpdate{
		Answers: unscored(answers),
	})
	if err != nil {
		return nil, persistErr("save answers", err)
	}
	return updated, nil
}

// SubmitAttempt finalizes the attempt with its last answers. A finalized
// attempt is never finalized again.
func (s *SubmissionService) SubmitAttempt(ctx context.Context, cred model.Credential, submissionID string, answers []model.Answer) (*model.Submission, error) {
	if submissionID == "" {
		return nil, ErrInvalidIdentifier
	}

	unlock := s.submitting.Lock(submissionID)
	defer unlock()

	current, err := s.GetByID(ctx, cred, submissionID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrSubmissionNotFound
	}
	if current.Finalized() {
		return nil, ErrAlreadySubmitted
	}

	grade, err := s.grader.Grade(ctx, cred, current.ExamID, answers)
	if err != nil {
		return nil, persistErr("grade attempt", err)
	}

	status := model.SubmissionStatusGraded
	graded := true
	now := s.now().UTC()

	updated, err := s.store.Update(ctx, cred, submissionID, model.SubmissionUpdate{
		Answers:     grade.Answers,
		Status:      &status,
		IsGraded:    &graded,
		Score:       grade.Score,
		SubmittedAt: &now,
		Unfinalized: true,
	})
	if errors.Is(err, repository.ErrFinalized) {
		return nil, ErrAlreadySubmitted
	}
	if err != nil {
		return nil, persistErr("submit attempt", err)
	}

	s.log.Info().
		Str("submission_id", updated.ID).
		Str("exam_id", updated.ExamID).
		Str("student_id", updated.StudentID).
		Float64("score", updated.Score).
		Msg("Attempt submitted")
	s.publish(ctx, events.TypeAttemptSubmitted, updated)

	return updated, nil
}

// HasSubmitted reports whether the student has a finalized submission for the exam.
func (s *SubmissionService) HasSubmitted(ctx context.Context, cred model.Credential, examID, studentID string) (bool, error) {
	sub, err := s.GetAttempt(ctx, cred, examID, studentID)
	if err != nil {
		return false, err
	}
	return sub.Finalized(), nil
}

// GetAttempt returns the student's submission for the exam, or nil if none exists.
func (s *SubmissionService) GetAttempt(ctx context.Context, cred model.Credential, examID, studentID string) (*model.Submission, error) {
	sub, err := s.store.GetByExamAndStudent(ctx, cred, examID, studentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, persistErr("get attempt", err)
	}
	return sub, nil
}

// GetByID returns a submission, or nil if none exists.
func (s *SubmissionService) GetByID(ctx context.Context, cred model.Credential, submissionID string) (*model.Submission, error) {
	sub, err := s.store.GetByID(ctx, cred, submissionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, persistErr("get submission", err)
	}
	return sub, nil
}

// ListByStudent returns every submission of the student.
func (s *SubmissionService) ListByStudent(ctx context.Context, cred model.Credential, studentID string) ([]model.Submission, error) {
	subs, err := s.store.ListByStudent(ctx, cred, studentID)
	if err != nil {
		return nil, persistErr("list submissions by student", err)
	}
	return subs, nil
}

// ListByExam returns every submission made for the exam.
func (s *SubmissionService) ListByExam(ctx context.Context, cred model.Credential, examID string) ([]model.Submission, error) {
	subs, err := s.store.ListByExam(ctx, cred, examID)
	if err != nil {
		return nil, persistErr("list submissions by exam", err)
	}
	return subs, nil
}

func (s *SubmissionService) publish(ctx context.Context, t events.Type, sub *model.Submission) {
	if s.publisher == nil {
		return
	}
	evt := events.NewSubmissionEvent(t, sub, s.now())
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.log.Warn().Err(err).
			Str("event_type", string(t)).
			Str("submission_id", sub.ID).
			Msg("Failed to publish submission event")
	}
}

func unscored(answers []model.Answer) []model.Answer {
	out := make([]model.Answer, len(answers))
	for i, a := range answers {
		out[i] = model.Answer{QuestionID: a.QuestionID, SelectedOption: a.SelectedOption}
	}
	return out
}

// keyedMutex serializes callers per key within this process. Entries are
// dropped once nobody holds or waits for them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
