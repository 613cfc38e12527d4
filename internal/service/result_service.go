package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/stemsi/etesthub-backend/internal/model"
	"github.com/stemsi/etesthub-backend/internal/repository"
)

// ResultService builds grading reports from stored submissions.
type ResultService struct {
	submissions *SubmissionService
	catalog     Catalog
}

// NewResultService creates a new ResultService.
func NewResultService(submissions *SubmissionService, catalog Catalog) *ResultService {
	return &ResultService{submissions: submissions, catalog: catalog}
}

// AnswerResult is one answer with its display correctness.
type AnswerResult struct {
	model.Answer
	Correct bool `json:"correct"`
}

// SubmissionDetail is a submission with per-answer correctness. Correctness is
// only filled in once the submission is graded.
type SubmissionDetail struct {
	model.Submission
	ExamTitle    string         `json:"exam_title"`
	CorrectCount int            `json:"correct_count"`
	TotalCount   int            `json:"total_count"`
	Passed       *bool          `json:"passed,omitempty"`
	Results      []AnswerResult `json:"results"`
}

// ExamResults summarises every graded submission of an exam.
type ExamResults struct {
	Exam         model.Exam         `json:"exam"`
	Submissions  []SubmissionDetail `json:"submissions"`
	GradedCount  int                `json:"graded_count"`
	PendingCount int                `json:"pending_count"`
	AverageScore float64            `json:"average_score"`
	PassedCount  int                `json:"passed_count"`
}

// ExamResults reports the submissions of an exam with aggregate statistics.
func (s *ResultService) ExamResults(ctx context.Context, cred model.Credential, examID string) (*ExamResults, error) {
	var (
		exam    *model.Exam
		subs    []model.Submission
		examErr error
		subsErr error
		wg      sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		exam, examErr = s.catalog.GetExam(ctx, cred, examID)
	}()
	go func() {
		defer wg.Done()
		subs, subsErr = s.submissions.ListByExam(ctx, cred, examID)
	}()
	wg.Wait()

	if errors.Is(examErr, repository.ErrNotFound) {
		return nil, ErrExamNotFound
	}
	if examErr != nil {
		return nil, persistErr("get exam", examErr)
	}
	if subsErr != nil {
		return nil, subsErr
	}

	questions, err := s.catalog.GetQuestions(ctx, cred, exam.QuestionIDs)
	if err != nil {
		return nil, persistErr("get questions", err)
	}

	res := &ExamResults{Exam: *exam, Submissions: make([]SubmissionDetail, 0, len(subs))}
	var total float64
	for i := range subs {
		d := detail(&subs[i], exam, questions)
		res.Submissions = append(res.Submissions, d)

		if !subs[i].IsGraded {
			res.PendingCount++
			continue
		}
		res.GradedCount++
		total += subs[i].Score
		if d.Passed != nil && *d.Passed {
			res.PassedCount++
		}
	}
	if res.GradedCount > 0 {
		res.AverageScore = total / float64(res.GradedCount)
	}

	sort.SliceStable(res.Submissions, func(i, j int) bool {
		return res.Submissions[i].Score > res.Submissions[j].Score
	})
	return res, nil
}

// SubmissionDetail returns one submission with correctness. Students may only
// read their own submissions.
func (s *ResultService) SubmissionDetail(ctx context.Context, cred model.Credential, submissionID string, viewer *model.User) (*SubmissionDetail, error) {
	sub, err := s.submissions.GetByID(ctx, cred, submissionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrSubmissionNotFound
	}
	if viewer.Role == model.RoleStudent && sub.StudentID != viewer.ID {
		return nil, ErrForbidden
	}

	exam, err := s.catalog.GetExam(ctx, cred, sub.ExamID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrExamNotFound
	}
	if err != nil {
		return nil, persistErr("get exam", err)
	}

	var questions map[string]*model.Question
	if sub.IsGraded {
		questions, err = s.catalog.GetQuestions(ctx, cred, exam.QuestionIDs)
		if err != nil {
			return nil, persistErr("get questions", err)
		}
	}

	d := detail(sub, exam, questions)
	return &d, nil
}

// detail recomputes display correctness from the answer key. It never changes
// the stored score.
func detail(sub *model.Submission, exam *model.Exam, questions map[string]*model.Question) SubmissionDetail {
	d := SubmissionDetail{
		Submission: *sub,
		ExamTitle:  exam.Title,
		TotalCount: len(exam.QuestionIDs),
		Results:    make([]AnswerResult, 0, len(sub.Answers)),
	}
	counted := make(map[string]bool, len(sub.Answers))
	for _, a := range sub.Answers {
		r := AnswerResult{Answer: a}
		if sub.IsGraded && !counted[a.QuestionID] {
			counted[a.QuestionID] = true
			r.Correct = IsCorrect(questions[a.QuestionID], a.SelectedOption)
			if r.Correct {
				d.CorrectCount++
			}
		}
		d.Results = append(d.Results, r)
	}
	if sub.IsGraded {
		passed := sub.Score >= exam.PassingScore
		d.Passed = &passed
	}
	return d
}
