package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/etesthub-backend/internal/model"
	"github.com/stemsi/etesthub-backend/internal/repository"
)

// ScheduleStore persists exam schedules. Missing records are reported as
// repository.ErrNotFound.
type ScheduleStore interface {
	Create(ctx context.Context, cred model.Credential, s *model.ExamSchedule) (*model.ExamSchedule, error)
	Update(ctx context.Context, cred model.Credential, s *model.ExamSchedule) (*model.ExamSchedule, error)
	Delete(ctx context.Context, cred model.Credential, id string) error
	GetByID(ctx context.Context, cred model.Credential, id string) (*model.ExamSchedule, error)
	ListByClass(ctx context.Context, cred model.Credential, classID string) ([]model.ExamSchedule, error)
	ListByExam(ctx context.Context, cred model.Credential, examID string) ([]model.ExamSchedule, error)
}

// ExamSessionService gates a student's exam attempt by schedule window and
// submission state.
type ExamSessionService struct {
	schedules   ScheduleStore
	catalog     Catalog
	submissions *SubmissionService
	log         zerolog.Logger
	now         func() time.Time
}

// NewExamSessionService creates a new ExamSessionService.
func NewExamSessionService(schedules ScheduleStore, catalog Catalog, submissions *SubmissionService, log zerolog.Logger) *ExamSessionService {
	return &ExamSessionService{
		schedules:   schedules,
		catalog:     catalog,
		submissions: submissions,
		log:         log.With().Str("component", "exam_session_service").Logger(),
		now:         time.Now,
	}
}

// LobbyStatus represents the concrete state of a schedule in the lobby.
type LobbyStatus string

const (
	LobbyStatusUpcoming   LobbyStatus = "UPCOMING"
	LobbyStatusAvailable  LobbyStatus = "AVAILABLE"
	LobbyStatusInProgress LobbyStatus = "IN_PROGRESS"
	LobbyStatusCompleted  LobbyStatus = "COMPLETED"
	LobbyStatusMissed     LobbyStatus = "MISSED"
)

// LobbyEntry is one scheduled exam as displayed in the student lobby.
type LobbyEntry struct {
	Schedule         model.ExamSchedule      `json:"schedule"`
	ExamTitle        string                  `json:"exam_title"`
	DurationMinutes  int                     `json:"duration_minutes"`
	Window           WindowStatus            `json:"window"`
	LobbyStatus      LobbyStatus             `json:"lobby_status"`
	SubmissionID     string                  `json:"submission_id,omitempty"`
	SubmissionStatus *model.SubmissionStatus `json:"submission_status,omitempty"`
	Score            *float64                `json:"score,omitempty"`
}

// ExamSession is the student's view of one scheduled exam.
type ExamSession struct {
	Schedule         model.ExamSchedule `json:"schedule"`
	Exam             model.Exam         `json:"exam"`
	Window           WindowStatus       `json:"window"`
	Submission       *model.Submission  `json:"submission,omitempty"`
	RemainingSeconds int64              `json:"remaining_seconds"`
	Questions        []model.Question   `json:"questions,omitempty"`
}

// Lobby lists the published exams scheduled for the student's classes.
func (s *ExamSessionService) Lobby(ctx context.Context, cred model.Credential, user *model.User) ([]LobbyEntry, error) {
	now := s.now()
	exams := make(map[string]*model.Exam)
	lobby := make([]LobbyEntry, 0)

	for _, classID := range user.ClassIDs {
		scheds, err := s.schedules.ListByClass(ctx, cred, classID)
		if err != nil {
			return nil, persistErr("list schedules", err)
		}

		for i := range scheds {
			sched := scheds[i]

			exam, ok := exams[sched.ExamID]
			if !ok {
				exam, err = s.catalog.GetExam(ctx, cred, sched.ExamID)
				if errors.Is(err, repository.ErrNotFound) {
					exams[sched.ExamID] = nil
					continue // Skip if exam was deleted
				}
				if err != nil {
					return nil, persistErr("get exam", err)
				}
				exams[sched.ExamID] = exam
			}
			if exam == nil || !exam.IsPublished {
				continue
			}

			attempt, err := s.submissions.GetAttempt(ctx, cred, sched.ExamID, user.ID)
			if err != nil {
				return nil, err
			}

			entry := LobbyEntry{
				Schedule:        sched,
				ExamTitle:       exam.Title,
				DurationMinutes: exam.DurationMinutes,
				Window:          DescribeWindow(&sched, now),
			}
			if attempt != nil {
				entry.SubmissionID = attempt.ID
				entry.SubmissionStatus = &attempt.Status
				if attempt.IsGraded {
					score := attempt.Score
					entry.Score = &score
				}
			}
			entry.LobbyStatus = lobbyStatus(entry.Window.State, attempt)

			lobby = append(lobby, entry)
		}
	}

	sort.SliceStable(lobby, func(i, j int) bool {
		return lobby[i].Schedule.StartTime.Before(lobby[j].Schedule.StartTime)
	})
	return lobby, nil
}

func lobbyStatus(state WindowState, attempt *model.Submission) LobbyStatus {
	switch {
	case attempt.Finalized():
		return LobbyStatusCompleted
	case state == WindowUpcoming:
		return LobbyStatusUpcoming
	case state == WindowClosed:
		return LobbyStatusMissed
	case attempt != nil:
		return LobbyStatusInProgress
	default:
		return LobbyStatusAvailable
	}
}

// Enter starts (or resumes) the student's attempt for a schedule and returns
// the session with its questions.
func (s *ExamSessionService) Enter(ctx context.Context, cred model.Credential, scheduleID string, user *model.User) (*ExamSession, error) {
	sched, exam, err := s.load(ctx, cred, scheduleID, user)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := windowErr(EvaluateWindow(sched, now)); err != nil {
		return nil, err
	}

	done, err := s.submissions.HasSubmitted(ctx, cred, exam.ID, user.ID)
	if err != nil {
		return nil, err
	}
	if done {
		return nil, ErrAlreadySubmitted
	}

	sub, err := s.submissions.StartAttempt(ctx, cred, exam.ID, user.ID)
	if err != nil {
		return nil, err
	}

	questions, err := s.questions(ctx, cred, exam)
	if err != nil {
		return nil, err
	}

	sess := s.session(sched, exam, sub, now)
	sess.Questions = questions
	return sess, nil
}

// State reports the window, the attempt and the time left for a schedule
// without changing anything.
func (s *ExamSessionService) State(ctx context.Context, cred model.Credential, scheduleID string, user *model.User) (*ExamSession, error) {
	sched, exam, err := s.load(ctx, cred, scheduleID, user)
	if err != nil {
		return nil, err
	}

	sub, err := s.submissions.GetAttempt(ctx, cred, exam.ID, user.ID)
	if err != nil {
		return nil, err
	}
	return s.session(sched, exam, sub, s.now()), nil
}

// Autosave replaces the answers of the student's open attempt.
func (s *ExamSessionService) Autosave(ctx context.Context, cred model.Credential, scheduleID string, user *model.User, answers []model.Answer) (*model.Submission, error) {
	attempt, err := s.gate(ctx, cred, scheduleID, user, answers)
	if err != nil {
		return nil, err
	}
	return s.submissions.SaveAnswers(ctx, cred, attempt.ID, answers)
}

// Submit finalizes the student's open attempt.
func (s *ExamSessionService) Submit(ctx context.Context, cred model.Credential, scheduleID string, user *model.User, answers []model.Answer) (*model.Submission, error) {
	attempt, err := s.gate(ctx, cred, scheduleID, user, answers)
	if err != nil {
		return nil, err
	}
	return s.submissions.SubmitAttempt(ctx, cred, attempt.ID, answers)
}

// gate allows writes only inside the window, on an unfinalized attempt, with
// at most one answer per question of the exam.
func (s *ExamSessionService) gate(ctx context.Context, cred model.Credential, scheduleID string, user *model.User, answers []model.Answer) (*model.Submission, error) {
	sched, exam, err := s.load(ctx, cred, scheduleID, user)
	if err != nil {
		return nil, err
	}

	if err := windowErr(EvaluateWindow(sched, s.now())); err != nil {
		return nil, err
	}

	attempt, err := s.submissions.GetAttempt(ctx, cred, exam.ID, user.ID)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, ErrNoAttempt
	}
	if attempt.Finalized() {
		return nil, ErrAlreadySubmitted
	}

	seen := make(map[string]struct{}, len(answers))
	for _, a := range answers {
		if !exam.HasQuestion(a.QuestionID) {
			return nil, ErrUnknownQuestion
		}
		if _, dup := seen[a.QuestionID]; dup {
			return nil, ErrDuplicateAnswer
		}
		seen[a.QuestionID] = struct{}{}
	}
	return attempt, nil
}

func (s *ExamSessionService) load(ctx context.Context, cred model.Credential, scheduleID string, user *model.User) (*model.ExamSchedule, *model.Exam, error) {
	sched, err := s.schedules.GetByID(ctx, cred, scheduleID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrScheduleNotFound
	}
	if err != nil {
		return nil, nil, persistErr("get schedule", err)
	}

	if !user.InClass(sched.ClassID) {
		return nil, nil, ErrNotEnrolled
	}

	exam, err := s.catalog.GetExam(ctx, cred, sched.ExamID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrExamNotFound
	}
	if err != nil {
		return nil, nil, persistErr("get exam", err)
	}
	if !exam.IsPublished {
		return nil, nil, ErrExamNotPublished
	}
	return sched, exam, nil
}

// questions returns the exam's questions in exam order.
func (s *ExamSessionService) questions(ctx context.Context, cred model.Credential, exam *model.Exam) ([]model.Question, error) {
	byID, err := s.catalog.GetQuestions(ctx, cred, exam.QuestionIDs)
	if err != nil {
		return nil, persistErr("get questions", err)
	}
	out := make([]model.Question, 0, len(byID))
	for _, id := range exam.QuestionIDs {
		if q, ok := byID[id]; ok {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (s *ExamSessionService) session(sched *model.ExamSchedule, exam *model.Exam, sub *model.Submission, now time.Time) *ExamSession {
	sess := &ExamSession{
		Schedule:   *sched,
		Exam:       *exam,
		Window:     DescribeWindow(sched, now),
		Submission: sub,
	}
	if sess.Window.State == WindowInProgress && !sub.Finalized() {
		sess.RemainingSeconds = RemainingSeconds(sched, exam, sub, now)
	}
	return sess
}

// RemainingSeconds is the time left on an attempt: the earlier of its personal
// deadline (start + exam duration) and the schedule end, floored at zero. With
// no attempt yet, the personal deadline is counted from now.
func RemainingSeconds(sched *model.ExamSchedule, exam *model.Exam, sub *model.Submission, now time.Time) int64 {
	deadline := sched.EndTime
	if exam.DurationMinutes > 0 {
		started := now
		if sub != nil && !sub.CreatedAt.IsZero() {
			started = sub.CreatedAt
		}
		if personal := started.Add(time.Duration(exam.DurationMinutes) * time.Minute); personal.Before(deadline) {
			deadline = personal
		}
	}
	remaining := int64(deadline.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func windowErr(state WindowState) error {
	switch state {
	case WindowUpcoming:
		return ErrWindowUpcoming
	case WindowClosed:
		return ErrWindowClosed
	default:
		return nil
	}
}
