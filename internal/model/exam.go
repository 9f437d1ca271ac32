package model

// Exam is the portal's exam metadata as served by GET /exams/{id}.
// It is immutable once loaded into an attempt session.
type Exam struct {
	ID              int64   `json:"examId"`
	Title           string  `json:"title"`
	Description     string  `json:"description,omitempty"`
	DurationMinutes int     `json:"duration"`
	TotalMarks      float64 `json:"totalMarks"`
	QuestionIDs     []int64 `json:"questionIds"`
}

// DurationSeconds returns the attempt time budget in seconds.
func (e *Exam) DurationSeconds() int {
	return e.DurationMinutes * 60
}
