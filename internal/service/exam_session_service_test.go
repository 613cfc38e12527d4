package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/etesthub-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	svc       *ExamSessionService
	subs      *SubmissionService
	store     *memStore
	schedules *memSchedules
	catalog   *fakeCatalog
	student   *model.User
	clock     time.Time
}

func (f *sessionFixture) setNow(t time.Time) {
	f.clock = t
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		store: newMemStore(),
		schedules: newMemSchedules(
			window("08:00:00", "10:00:00", false),
			&model.ExamSchedule{ID: "sched-other", ExamID: "exam-1", ClassID: "class-2", StartTime: at("08:00:00"), EndTime: at("10:00:00")},
			&model.ExamSchedule{ID: "sched-draft", ExamID: "exam-draft", ClassID: "class-1", StartTime: at("08:00:00"), EndTime: at("10:00:00")},
		),
		catalog: &fakeCatalog{
			exams: map[string]*model.Exam{
				"exam-1":     {ID: "exam-1", Title: "Algebra", DurationMinutes: 90, QuestionIDs: []string{"q1", "q2"}, IsPublished: true, PassingScore: 1},
				"exam-draft": {ID: "exam-draft", Title: "Draft", QuestionIDs: []string{"q9"}},
			},
			questions: map[string]*model.Question{
				"q1": {ID: "q1", Content: "1+1?", Options: []string{"1", "2"}, CorrectAnswer: "2"},
				"q2": {ID: "q2", Content: "2+2?", Options: []string{"3", "4"}, CorrectAnswer: "4"},
			},
		},
		student: &model.User{ID: "student-1", Role: model.RoleStudent, ClassIDs: []string{"class-1"}},
		clock:   at("09:00:00"),
	}
	clock := func() time.Time { return f.clock }
	f.store.clock = clock

	f.subs = NewSubmissionService(f.store, NewAnswerKeyGrader(f.catalog), nil, zerolog.Nop())
	f.subs.now = clock
	f.svc = NewExamSessionService(f.schedules, f.catalog, f.subs, zerolog.Nop())
	f.svc.now = clock
	return f
}

func TestExamSession_EndToEndScenario(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	sess, err := f.svc.Enter(ctx, testCred, "sched-1", f.student)
	require.NoError(t, err)
	require.NotNil(t, sess.Submission)
	assert.Equal(t, model.SubmissionStatusInProgress, sess.Submission.Status)
	assert.Equal(t, WindowInProgress, sess.Window.State)
	assert.Len(t, sess.Questions, 2)
	assert.Equal(t, int64(3600), sess.RemainingSeconds)

	again, err := f.svc.Enter(ctx, testCred, "sched-1", f.student)
	require.NoError(t, err)
	assert.Equal(t, sess.Submission.ID, again.Submission.ID)

	f.setNow(at("09:10:00"))
	saved, err := f.svc.Autosave(ctx, testCred, "sched-1", f.student, []model.Answer{{QuestionID: "q1", SelectedOption: "2"}})
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionStatusInProgress, saved.Status)

	f.setNow(at("09:20:00"))
	final, err := f.svc.Submit(ctx, testCred, "sched-1", f.student, []model.Answer{
		{QuestionID: "q1", SelectedOption: "2"},
		{QuestionID: "q2", SelectedOption: "3"},
	})
	require.NoError(t, err)
	assert.True(t, final.IsGraded)
	assert.Equal(t, model.SubmissionStatusGraded, final.Status)
	assert.Equal(t, 1.0, final.Score)

	_, err = f.svc.Autosave(ctx, testCred, "sched-1", f.student, nil)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	_, err = f.svc.Submit(ctx, testCred, "sched-1", f.student, nil)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	_, err = f.svc.Enter(ctx, testCred, "sched-1", f.student)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	state, err := f.svc.State(ctx, testCred, "sched-1", f.student)
	require.NoError(t, err)
	assert.True(t, state.Submission.Finalized())
	assert.Zero(t, state.RemainingSeconds)
	assert.Equal(t, 1, f.store.count())
}

func TestExamSession_WindowGate(t *testing.T) {
	ctx := context.Background()

	t.Run("before start", func(t *testing.T) {
		f := newSessionFixture(t)
		f.setNow(at("07:59:59"))
		_, err := f.svc.Enter(ctx, testCred, "sched-1", f.student)
		assert.ErrorIs(t, err, ErrWindowUpcoming)
	})

	t.Run("after end", func(t *testing.T) {
		f := newSessionFixture(t)
		_, err := f.svc.Enter(ctx, testCred, "sched-1", f.student)
		require.NoError(t, err)

		f.setNow(at("10:00:01"))
		_, err = f.svc.Autosave(ctx, testCred, "sched-1", f.student, nil)
		assert.ErrorIs(t, err, ErrWindowClosed)
		_, err = f.svc.Submit(ctx, testCred, "sched-1", f.student, nil)
		assert.ErrorIs(t, err, ErrWindowClosed)
	})

	t.Run("submit exactly at end", func(t *testing.T) {
		f := newSessionFixture(t)
		_, err := f.svc.Enter(ctx, testCred, "sched-1", f.student)
		require.NoError(t, err)

		f.setNow(at("10:00:00"))
		_, err = f.svc.Submit(ctx, testCred, "sched-1", f.student, nil)
		assert.NoError(t, err)
	})

	t.Run("closed flag", func(t *testing.T) {
		f := newSessionFixture(t)
		_, err := f.svc.Enter(ctx, testCred, "sched-1", f.student)
		require.NoError(t, err)

		f.schedules.recs["sched-1"].IsClosed = true
		_, err = f.svc.Submit(ctx, testCred, "sched-1", f.student, nil)
		assert.ErrorIs(t, err, ErrWindowClosed)
	})
}

func TestExamSession_AccessChecks(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	_, err := f.svc.Enter(ctx, testCred, "missing", f.student)
	assert.ErrorIs(t, err, ErrScheduleNotFound)

	_, err = f.svc.Enter(ctx, testCred, "sched-other", f.student)
	assert.ErrorIs(t, err, ErrNotEnrolled)

	_, err = f.svc.Enter(ctx, testCred, "sched-draft", f.student)
	assert.ErrorIs(t, err, ErrExamNotPublished)

	_, err = f.svc.Autosave(ctx, testCred, "sched-1", f.student, nil)
	assert.ErrorIs(t, err, ErrNoAttempt)

	_, err = f.svc.Enter(ctx, testCred, "sched-1", f.student)
	require.NoError(t, err)
	_, err = f.svc.Autosave(ctx, testCred, "sched-1", f.student, []model.Answer{{QuestionID: "q-foreign", SelectedOption: "A"}})
	assert.ErrorIs(t, err, ErrUnknownQuestion)
}

func TestExamSession_RepeatedQuestionIsRejected(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	_, err := f.svc.Enter(ctx, testCred, "sched-1", f.student)
	require.NoError(t, err)

	repeated := make([]model.Answer, 10)
	for i := range repeated {
		repeated[i] = model.Answer{QuestionID: "q1", SelectedOption: "2"}
	}
	_, err = f.svc.Autosave(ctx, testCred, "sched-1", f.student, repeated)
	assert.ErrorIs(t, err, ErrDuplicateAnswer)
	_, err = f.svc.Submit(ctx, testCred, "sched-1", f.student, repeated)
	assert.ErrorIs(t, err, ErrDuplicateAnswer)

	attempt, err := f.subs.GetAttempt(ctx, testCred, "exam-1", "student-1")
	require.NoError(t, err)
	assert.False(t, attempt.Finalized())
	assert.Empty(t, attempt.Answers)

	final, err := f.svc.Submit(ctx, testCred, "sched-1", f.student, []model.Answer{{QuestionID: "q1", SelectedOption: "2"}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, final.Score)
}

func TestAnswerKeyGrader_CountsEachQuestionOnce(t *testing.T) {
	f := newSessionFixture(t)

	grade, err := NewAnswerKeyGrader(f.catalog).Grade(context.Background(), testCred, "exam-1", []model.Answer{
		{QuestionID: "q1", SelectedOption: "2"},
		{QuestionID: "q1", SelectedOption: "2"},
		{QuestionID: "q2", SelectedOption: "4"},
		{QuestionID: "q2", SelectedOption: "4"},
	})
	require.NoError(t, err)
	require.NotNil(t, grade.Score)
	assert.Equal(t, 2.0, *grade.Score)
	assert.Equal(t, 1.0, grade.Answers[0].Score)
	assert.Zero(t, grade.Answers[1].Score)
	assert.Zero(t, grade.Answers[3].Score)
}

func TestExamSession_StoreFailureSurfacesAsPersistenceError(t *testing.T) {
	f := newSessionFixture(t)
	f.catalog.err = errors.New("remote unavailable")

	_, err := f.svc.Enter(context.Background(), testCred, "sched-1", f.student)
	var perr *PersistenceError
	assert.ErrorAs(t, err, &perr)
}

func TestExamSession_Lobby(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	lobby, err := f.svc.Lobby(ctx, testCred, f.student)
	require.NoError(t, err)
	require.Len(t, lobby, 1)
	assert.Equal(t, "Algebra", lobby[0].ExamTitle)
	assert.Equal(t, LobbyStatusAvailable, lobby[0].LobbyStatus)

	_, err = f.svc.Enter(ctx, testCred, "sched-1", f.student)
	require.NoError(t, err)
	lobby, err = f.svc.Lobby(ctx, testCred, f.student)
	require.NoError(t, err)
	assert.Equal(t, LobbyStatusInProgress, lobby[0].LobbyStatus)
	assert.Nil(t, lobby[0].Score)

	_, err = f.svc.Submit(ctx, testCred, "sched-1", f.student, []model.Answer{{QuestionID: "q1", SelectedOption: "2"}})
	require.NoError(t, err)
	lobby, err = f.svc.Lobby(ctx, testCred, f.student)
	require.NoError(t, err)
	assert.Equal(t, LobbyStatusCompleted, lobby[0].LobbyStatus)
	require.NotNil(t, lobby[0].Score)
	assert.Equal(t, 1.0, *lobby[0].Score)
}

func TestLobbyStatus(t *testing.T) {
	graded := &model.Submission{IsGraded: true}
	open := &model.Submission{Status: model.SubmissionStatusInProgress}

	assert.Equal(t, LobbyStatusUpcoming, lobbyStatus(WindowUpcoming, nil))
	assert.Equal(t, LobbyStatusAvailable, lobbyStatus(WindowInProgress, nil))
	assert.Equal(t, LobbyStatusInProgress, lobbyStatus(WindowInProgress, open))
	assert.Equal(t, LobbyStatusMissed, lobbyStatus(WindowClosed, open))
	assert.Equal(t, LobbyStatusCompleted, lobbyStatus(WindowClosed, graded))
}

func TestRemainingSeconds(t *testing.T) {
	sched := window("08:00:00", "10:00:00", false)
	exam := &model.Exam{DurationMinutes: 30}

	started := &model.Submission{CreatedAt: at("09:00:00")}
	assert.Equal(t, int64(1200), RemainingSeconds(sched, exam, started, at("09:10:00")))

	late := &model.Submission{CreatedAt: at("09:50:00")}
	assert.Equal(t, int64(300), RemainingSeconds(sched, exam, late, at("09:55:00")))

	assert.Equal(t, int64(1800), RemainingSeconds(sched, exam, nil, at("09:00:00")))
	assert.Zero(t, RemainingSeconds(sched, exam, started, at("09:45:00")))

	assert.Equal(t, int64(600), RemainingSeconds(sched, &model.Exam{}, nil, at("09:50:00")))
}
