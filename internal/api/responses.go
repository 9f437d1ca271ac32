package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/exam-portal/portal-client/internal/model"
)

// ListResponses returns the saved responses for one (exam, user) pair.
func (c *Client) ListResponses(ctx context.Context, examID, userID int64) ([]model.Response, error) {
	q := url.Values{}
	q.Set("examId", strconv.FormatInt(examID, 10))
	q.Set("userId", strconv.FormatInt(userID, 10))

	var responses []model.Response
	if err := c.do(ctx, http.MethodGet, "/responses", q, nil, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}

// SaveResponse upserts one response record: POST when the record has no
// server identifier yet, PUT thereafter. Returns the saved record,
// whose ID the caller must carry into later updates.
func (c *Client) SaveResponse(ctx context.Context, r *model.Response) (*model.Response, error) {
	method := http.MethodPost
	if r.ID != 0 {
		method = http.MethodPut
	}

	var saved model.Response
	if err := c.do(ctx, method, "/responses", nil, r, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// SubmitExam finalizes the attempt server-side. The returned summary
// may be nil when the server omits it.
func (c *Client) SubmitExam(ctx context.Context, examID int64) (*model.Result, error) {
	var result model.Result
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/submit-exam/%d", examID), nil, nil, &result); err != nil {
		return nil, err
	}
	if result.ExamID == 0 && result.UserID == 0 {
		return nil, nil
	}
	return &result, nil
}
