package model

// Question represents a single multiple-choice question from the question bank.
type Question struct {
	ID            string   `json:"id"`
	Content       string   `json:"content"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"-"`
	Points        float64  `json:"points"`
}

// Weight returns the points awarded for a correct answer; unset means 1.
func (q *Question) Weight() float64 {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}
