package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/stemsi/etesthub-backend/internal/model"
)

// Catalog reads exam reference data.
type Catalog interface {
	GetExam(ctx context.Context, cred model.Credential, id string) (*model.Exam, error)
	GetQuestions(ctx context.Context, cred model.Credential, ids []string) (map[string]*model.Question, error)
}

// Grade is the outcome of scoring final answers. A nil Score leaves scoring to the store.
type Grade struct {
	Answers []model.Answer
	Score   *float64
}

// Grader scores the final answers of an attempt.
type Grader interface {
	Grade(ctx context.Context, cred model.Credential, examID string, answers []model.Answer) (Grade, error)
}

// RemoteGrader sends answers unscored; the data service computes the score.
type RemoteGrader struct{}

func (RemoteGrader) Grade(_ context.Context, _ model.Credential, _ string, answers []model.Answer) (Grade, error) {
	return Grade{Answers: unscored(answers)}, nil
}

// AnswerKeyGrader scores answers against the questions' correct answers.
type AnswerKeyGrader struct {
	catalog Catalog
}

// NewAnswerKeyGrader creates a new AnswerKeyGrader.
func NewAnswerKeyGrader(catalog Catalog) *AnswerKeyGrader {
	return &AnswerKeyGrader{catalog: catalog}
}

func (g *AnswerKeyGrader) Grade(ctx context.Context, cred model.Credential, examID string, answers []model.Answer) (Grade, error) {
	exam, err := g.catalog.GetExam(ctx, cred, examID)
	if err != nil {
		return Grade{}, fmt.Errorf("get exam: %w", err)
	}

	questions, err := g.catalog.GetQuestions(ctx, cred, exam.QuestionIDs)
	if err != nil {
		return Grade{}, fmt.Errorf("get questions: %w", err)
	}

	out := make([]model.Answer, len(answers))
	scored := make(map[string]bool, len(answers))
	var total float64
	for i, a := range answers {
		out[i] = model.Answer{QuestionID: a.QuestionID, SelectedOption: a.SelectedOption}
		// Only the first answer to a question counts.
		if scored[a.QuestionID] {
			continue
		}
		scored[a.QuestionID] = true
		if q, ok := questions[a.QuestionID]; ok && IsCorrect(q, a.SelectedOption) {
			out[i].Score = q.Weight()
			total += out[i].Score
		}
	}
	return Grade{Answers: out, Score: &total}, nil
}

// IsCorrect compares a selected option with the question's key, ignoring case
// and surrounding whitespace. An empty selection is never correct.
func IsCorrect(q *model.Question, selected string) bool {
	selected = strings.TrimSpace(selected)
	if selected == "" || q == nil {
		return false
	}
	return strings.EqualFold(selected, strings.TrimSpace(q.CorrectAnswer))
}
