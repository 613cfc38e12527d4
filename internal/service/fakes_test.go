package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/stemsi/etesthub-backend/internal/events"
	"github.com/stemsi/etesthub-backend/internal/model"
	"github.com/stemsi/etesthub-backend/internal/repository"
	"github.com/stretchr/testify/mock"
)

var testCred = model.Credential{UserID: "user-1", Token: "remote-token"}

// memStore is an in-memory SubmissionStore that enforces one record per
// (exam, student) pair the way the data service does.
type memStore struct {
	mu    sync.Mutex
	seq   int
	clock func() time.Time
	subs  map[string]*model.Submission
}

func newMemStore() *memStore {
	return &memStore{subs: map[string]*model.Submission{}, clock: time.Now}
}

func clone(s *model.Submission) *model.Submission {
	c := *s
	c.Answers = append([]model.Answer(nil), s.Answers...)
	if c.Answers == nil {
		c.Answers = []model.Answer{}
	}
	return &c
}

func (m *memStore) Create(_ context.Context, _ model.Credential, s *model.Submission) (*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.subs {
		if existing.ExamID == s.ExamID && existing.StudentID == s.StudentID {
			return nil, repository.ErrDuplicate
		}
	}
	m.seq++
	rec := clone(s)
	rec.ID = fmt.Sprintf("sub-%d", m.seq)
	rec.CreatedAt = m.clock()
	m.subs[rec.ID] = rec
	return clone(rec), nil
}

func (m *memStore) Update(_ context.Context, _ model.Credential, id string, upd model.SubmissionUpdate) (*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.subs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if upd.Unfinalized && rec.IsGraded {
		return nil, repository.ErrFinalized
	}
	rec.Answers = append([]model.Answer{}, upd.Answers...)
	if upd.Status != nil {
		rec.Status = *upd.Status
	}
	if upd.IsGraded != nil {
		rec.IsGraded = *upd.IsGraded
	}
	if upd.Score != nil {
		rec.Score = *upd.Score
	}
	if upd.SubmittedAt != nil {
		t := *upd.SubmittedAt
		rec.SubmittedAt = &t
	}
	return clone(rec), nil
}

func (m *memStore) GetByID(_ context.Context, _ model.Credential, id string) (*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.subs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return clone(rec), nil
}

func (m *memStore) GetByExamAndStudent(_ context.Context, _ model.Credential, examID, studentID string) (*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.subs {
		if rec.ExamID == examID && rec.StudentID == studentID {
			return clone(rec), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) list(match func(*model.Submission) bool) []model.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Submission
	for _, rec := range m.subs {
		if match(rec) {
			out = append(out, *clone(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStore) ListByStudent(_ context.Context, _ model.Credential, studentID string) ([]model.Submission, error) {
	return m.list(func(s *model.Submission) bool { return s.StudentID == studentID }), nil
}

func (m *memStore) ListByExam(_ context.Context, _ model.Credential, examID string) ([]model.Submission, error) {
	return m.list(func(s *model.Submission) bool { return s.ExamID == examID }), nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// mockStore is a testify mock for failure paths.
type mockStore struct {
	mock.Mock
}

func submissionArg(args mock.Arguments, i int) *model.Submission {
	if s, ok := args.Get(i).(*model.Submission); ok {
		return s
	}
	return nil
}

func (m *mockStore) Create(ctx context.Context, cred model.Credential, s *model.Submission) (*model.Submission, error) {
	args := m.Called(ctx, cred, s)
	return submissionArg(args, 0), args.Error(1)
}

func (m *mockStore) Update(ctx context.Context, cred model.Credential, id string, upd model.SubmissionUpdate) (*model.Submission, error) {
	args := m.Called(ctx, cred, id, upd)
	return submissionArg(args, 0), args.Error(1)
}

func (m *mockStore) GetByID(ctx context.Context, cred model.Credential, id string) (*model.Submission, error) {
	args := m.Called(ctx, cred, id)
	return submissionArg(args, 0), args.Error(1)
}

func (m *mockStore) GetByExamAndStudent(ctx context.Context, cred model.Credential, examID, studentID string) (*model.Submission, error) {
	args := m.Called(ctx, cred, examID, studentID)
	return submissionArg(args, 0), args.Error(1)
}

func (m *mockStore) ListByStudent(ctx context.Context, cred model.Credential, studentID string) ([]model.Submission, error) {
	args := m.Called(ctx, cred, studentID)
	subs, _ := args.Get(0).([]model.Submission)
	return subs, args.Error(1)
}

func (m *mockStore) ListByExam(ctx context.Context, cred model.Credential, examID string) ([]model.Submission, error) {
	args := m.Called(ctx, cred, examID)
	subs, _ := args.Get(0).([]model.Submission)
	return subs, args.Error(1)
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	err    error
	events []events.SubmissionEvent
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.SubmissionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// fakeCatalog serves exams and questions from maps.
type fakeCatalog struct {
	exams     map[string]*model.Exam
	questions map[string]*model.Question
	err       error
}

func (c *fakeCatalog) GetExam(_ context.Context, _ model.Credential, id string) (*model.Exam, error) {
	if c.err != nil {
		return nil, c.err
	}
	e, ok := c.exams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return e, nil
}

func (c *fakeCatalog) GetQuestions(_ context.Context, _ model.Credential, ids []string) (map[string]*model.Question, error) {
	if c.err != nil {
		return nil, c.err
	}
	out := make(map[string]*model.Question, len(ids))
	for _, id := range ids {
		if q, ok := c.questions[id]; ok {
			out[id] = q
		}
	}
	return out, nil
}

// memSchedules is an in-memory ScheduleStore.
type memSchedules struct {
	mu   sync.Mutex
	seq  int
	recs map[string]*model.ExamSchedule
}

func newMemSchedules(scheds ...*model.ExamSchedule) *memSchedules {
	m := &memSchedules{recs: map[string]*model.ExamSchedule{}}
	for _, s := range scheds {
		c := *s
		m.recs[s.ID] = &c
	}
	return m
}

func (m *memSchedules) Create(_ context.Context, _ model.Credential, s *model.ExamSchedule) (*model.ExamSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	c := *s
	c.ID = fmt.Sprintf("sched-new-%d", m.seq)
	m.recs[c.ID] = &c
	out := c
	return &out, nil
}

func (m *memSchedules) Update(_ context.Context, _ model.Credential, s *model.ExamSchedule) (*model.ExamSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recs[s.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	c := *s
	m.recs[s.ID] = &c
	out := c
	return &out, nil
}

func (m *memSchedules) Delete(_ context.Context, _ model.Credential, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.recs, id)
	return nil
}

func (m *memSchedules) GetByID(_ context.Context, _ model.Credential, id string) (*model.ExamSchedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.recs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *s
	return &out, nil
}

func (m *memSchedules) list(match func(*model.ExamSchedule) bool) []model.ExamSchedule {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ExamSchedule
	for _, s := range m.recs {
		if match(s) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memSchedules) ListByClass(_ context.Context, _ model.Credential, classID string) ([]model.ExamSchedule, error) {
	return m.list(func(s *model.ExamSchedule) bool { return s.ClassID == classID }), nil
}

func (m *memSchedules) ListByExam(_ context.Context, _ model.Credential, examID string) ([]model.ExamSchedule, error) {
	return m.list(func(s *model.ExamSchedule) bool { return s.ExamID == examID }), nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
