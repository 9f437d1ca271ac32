package model

// Question is a single multiple-choice question. CorrectOption is the
// index into Options. The client treats the whole struct as read-only
// reference data during an attempt.
type Question struct {
	ID            int64    `json:"questionId"`
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctAnswer"`
	Marks         float64  `json:"marks"`
}

// MarksFor returns the marks awarded for the given selected option index.
func (q *Question) MarksFor(selected int) float64 {
	if selected == q.CorrectOption {
		return q.Marks
	}
	return 0
}
