package model

// Exam is reference data owned by the remote data service. Only the fields the
// exam-taking flow reads are mapped.
type Exam struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	SubjectID       string   `json:"subject_id,omitempty"`
	DurationMinutes int      `json:"duration_minutes"`
	QuestionIDs     []string `json:"question_ids"`
	PassingScore    float64  `json:"passing_score"`
	IsPublished     bool     `json:"is_published"`
	IsLocked        bool     `json:"is_locked"`
}

// HasQuestion reports whether questionID belongs to the exam.
func (e *Exam) HasQuestion(questionID string) bool {
	for _, id := range e.QuestionIDs {
		if id == questionID {
			return true
		}
	}
	return false
}
