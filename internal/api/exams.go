package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/exam-portal/portal-client/internal/model"
)

// ListExams returns every exam visible to the authenticated user.
func (c *Client) ListExams(ctx context.Context) ([]model.Exam, error) {
	var exams []model.Exam
	if err := c.do(ctx, http.MethodGet, "/exams", nil, nil, &exams); err != nil {
		return nil, err
	}
	return exams, nil
}

// GetExam fetches one exam's metadata by identifier.
func (c *Client) GetExam(ctx context.Context, examID int64) (*model.Exam, error) {
	var exam model.Exam
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/exams/%d", examID), nil, nil, &exam); err != nil {
		return nil, err
	}
	return &exam, nil
}
