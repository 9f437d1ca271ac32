package model

// Response is the server-persisted record of one user's answer to one
// question within one attempt. Answer is the selected option index.
// A zero ID means the record has not been created server-side yet;
// the API client then creates instead of updating.
type Response struct {
	ID            int64   `json:"responseId,omitempty"`
	ExamID        int64   `json:"examId"`
	UserID        int64   `json:"userId"`
	QuestionID    int64   `json:"questionId"`
	Answer        int     `json:"answer"`
	MarksObtained float64 `json:"marksObtained"`
	Submitted     bool    `json:"submitted"`
}
