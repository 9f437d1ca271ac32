package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/exam-portal/portal-client/internal/model"
)

// GetResult returns the finalized result for one (exam, user) pair.
func (c *Client) GetResult(ctx context.Context, examID, userID int64) (*model.Result, error) {
	q := url.Values{}
	q.Set("examId", strconv.FormatInt(examID, 10))
	q.Set("userId", strconv.FormatInt(userID, 10))

	var result model.Result
	if err := c.do(ctx, http.MethodGet, "/results", q, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListResultsByUser returns every finalized result for one user.
func (c *Client) ListResultsByUser(ctx context.Context, userID int64) ([]model.Result, error) {
	q := url.Values{}
	q.Set("userId", strconv.FormatInt(userID, 10))

	var results []model.Result
	if err := c.do(ctx, http.MethodGet, "/results", q, nil, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// ListAllResults returns every result on the portal. Admin/examiner only.
func (c *Client) ListAllResults(ctx context.Context) ([]model.Result, error) {
	var results []model.Result
	if err := c.do(ctx, http.MethodGet, "/results", nil, nil, &results); err != nil {
		return nil, err
	}
	return results, nil
}
