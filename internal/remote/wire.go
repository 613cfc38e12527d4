package remote

import (
	"time"

	"github.com/stemsi/etesthub-backend/internal/model"
)

// The data service speaks camelCase JSON; these DTOs map it to model types.

type answerDTO struct {
	QuestionID     string  `json:"questionId"`
	SelectedOption string  `json:"selectedOption"`
	Score          float64 `json:"score"`
}

type submissionDTO struct {
	ID          string      `json:"id,omitempty"`
	ExamID      string      `json:"examId"`
	StudentID   string      `json:"studentId"`
	Answers     []answerDTO `json:"answers"`
	Score       float64     `json:"score"`
	Status      string      `json:"status"`
	IsGraded    bool        `json:"isGraded"`
	CreatedAt   *time.Time  `json:"createdAt,omitempty"`
	SubmittedAt *time.Time  `json:"submittedAt"`
}

type submissionPatchDTO struct {
	Answers     []answerDTO `json:"answers"`
	Status      *string     `json:"status,omitempty"`
	IsGraded    *bool       `json:"isGraded,omitempty"`
	Score       *float64    `json:"score,omitempty"`
	SubmittedAt *time.Time  `json:"submittedAt,omitempty"`
}

type scheduleDTO struct {
	ID        string    `json:"id,omitempty"`
	ExamID    string    `json:"examId"`
	ClassID   string    `json:"classId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	IsClosed  bool      `json:"isClosed"`
}

type examDTO struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	SubjectID    string   `json:"subjectId"`
	Duration     int      `json:"duration"`
	QuestionIDs  []string `json:"questionIds"`
	PassingScore float64  `json:"passingScore"`
	IsPublished  bool     `json:"isPublished"`
	IsLocked     bool     `json:"isLocked"`
}

type questionDTO struct {
	ID            string   `json:"id"`
	Content       string   `json:"content"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Points        float64  `json:"points"`
}

type userDTO struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Role     string   `json:"role"`
	ClassIDs []string `json:"classIds"`
}

func answersToDTO(answers []model.Answer) []answerDTO {
	out := make([]answerDTO, 0, len(answers))
	for _, a := range answers {
		out = append(out, answerDTO{QuestionID: a.QuestionID, SelectedOption: a.SelectedOption, Score: a.Score})
	}
	return out
}

func (d *submissionDTO) toModel() *model.Submission {
	s := &model.Submission{
		ID:          d.ID,
		ExamID:      d.ExamID,
		StudentID:   d.StudentID,
		Answers:     make([]model.Answer, 0, len(d.Answers)),
		Status:      model.SubmissionStatus(d.Status),
		IsGraded:    d.IsGraded,
		Score:       d.Score,
		SubmittedAt: d.SubmittedAt,
	}
	if d.CreatedAt != nil {
		s.CreatedAt = *d.CreatedAt
	}
	for _, a := range d.Answers {
		s.Answers = append(s.Answers, model.Answer{QuestionID: a.QuestionID, SelectedOption: a.SelectedOption, Score: a.Score})
	}
	return s
}

func submissionsToModel(dtos []submissionDTO) []model.Submission {
	out := make([]model.Submission, 0, len(dtos))
	for i := range dtos {
		out = append(out, *dtos[i].toModel())
	}
	return out
}

func scheduleFromModel(s *model.ExamSchedule) scheduleDTO {
	return scheduleDTO{
		ExamID:    s.ExamID,
		ClassID:   s.ClassID,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		IsClosed:  s.IsClosed,
	}
}

func (d *scheduleDTO) toModel() *model.ExamSchedule {
	return &model.ExamSchedule{
		ID:        d.ID,
		ExamID:    d.ExamID,
		ClassID:   d.ClassID,
		StartTime: d.StartTime,
		EndTime:   d.EndTime,
		IsClosed:  d.IsClosed,
	}
}

func schedulesToModel(dtos []scheduleDTO) []model.ExamSchedule {
	out := make([]model.ExamSchedule, 0, len(dtos))
	for i := range dtos {
		out = append(out, *dtos[i].toModel())
	}
	return out
}

func (d *examDTO) toModel() *model.Exam {
	return &model.Exam{
		ID:              d.ID,
		Title:           d.Title,
		SubjectID:       d.SubjectID,
		DurationMinutes: d.Duration,
		QuestionIDs:     d.QuestionIDs,
		PassingScore:    d.PassingScore,
		IsPublished:     d.IsPublished,
		IsLocked:        d.IsLocked,
	}
}

func (d *questionDTO) toModel() *model.Question {
	return &model.Question{
		ID:            d.ID,
		Content:       d.Content,
		Options:       d.Options,
		CorrectAnswer: d.CorrectAnswer,
		Points:        d.Points,
	}
}

func (d *userDTO) toModel() *model.User {
	return &model.User{
		ID:       d.ID,
		Name:     d.Name,
		Email:    d.Email,
		Role:     model.Role(d.Role),
		ClassIDs: d.ClassIDs,
	}
}
