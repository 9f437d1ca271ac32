package api

import (
	"context"
	"net/http"

	"github.com/exam-portal/portal-client/internal/model"
)

// ListQuestions returns the full question bank. Callers filter by an
// exam's declared question IDs; the API has no per-exam question route.
func (c *Client) ListQuestions(ctx context.Context) ([]model.Question, error) {
	var questions []model.Question
	if err := c.do(ctx, http.MethodGet, "/questions", nil, nil, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}
