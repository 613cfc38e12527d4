package model

import (
	"time"
)

// SubmissionStatus enumerates the status tag of an exam attempt.
type SubmissionStatus string

const (
	SubmissionStatusPending    SubmissionStatus = "pending"
	SubmissionStatusInProgress SubmissionStatus = "in-progress"
	SubmissionStatusSubmitted  SubmissionStatus = "submitted"
	SubmissionStatusGraded     SubmissionStatus = "graded"
)

// Answer is one (question, selected option, score) record of an attempt.
type Answer struct {
	QuestionID     string  `json:"question_id"`
	SelectedOption string  `json:"selected_option"`
	Score          float64 `json:"score"`
}

// Submission is one student's attempt at one exam. At most one exists per
// (ExamID, StudentID); Score is meaningful only once IsGraded is true.
type Submission struct {
	ID          string           `json:"id"`
	ExamID      string           `json:"exam_id"`
	StudentID   string           `json:"student_id"`
	Answers     []Answer         `json:"answers"`
	Status      SubmissionStatus `json:"status"`
	IsGraded    bool             `json:"is_graded"`
	Score       float64          `json:"score"`
	CreatedAt   time.Time        `json:"created_at"`
	SubmittedAt *time.Time       `json:"submitted_at,omitempty"`
}

// Finalized reports whether the attempt has been submitted and graded.
func (s *Submission) Finalized() bool {
	return s != nil && s.IsGraded
}

// SubmissionUpdate is a partial update sent to a store. Nil fields are left untouched.
// Answers always replace the stored list in full.
type SubmissionUpdate struct {
	Answers     []Answer
	Status      *SubmissionStatus
	IsGraded    *bool
	Score       *float64
	SubmittedAt *time.Time
	// Unfinalized makes the update conditional on the record not being graded yet.
	Unfinalized bool
}

// AnswerInput is a single answer as sent by a student. Scores are never
// accepted from clients.
type AnswerInput struct {
	QuestionID     string `json:"question_id" binding:"required,objectid"`
	SelectedOption string `json:"selected_option" binding:"max=255"`
}

// SaveAnswersRequest is the payload for autosave and final submit.
type SaveAnswersRequest struct {
	Answers []AnswerInput `json:"answers" binding:"omitempty,max=500,unique=QuestionID,dive"`
}

// ToAnswers converts client input to zero-scored answer records.
func (r *SaveAnswersRequest) ToAnswers() []Answer {
	answers := make([]Answer, 0, len(r.Answers))
	for _, in := range r.Answers {
		answers = append(answers, Answer{QuestionID: in.QuestionID, SelectedOption: in.SelectedOption})
	}
	return answers
}
