package model

// Result is the server-computed outcome of a finalized attempt.
type Result struct {
	ID            int64   `json:"resultId"`
	ExamID        int64   `json:"examId"`
	UserID        int64   `json:"userId"`
	MarksObtained float64 `json:"marksObtained"`
	TotalMarks    float64 `json:"totalMarks"`
	Feedback      string  `json:"feedback,omitempty"`
}
