package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/kaayjang/kaayjang-web/internal/app/models"
)

// Branches lists the education branches. The endpoint is public.
func (c *Client) Branches(ctx context.Context) ([]models.Branch, error) {
	var out []models.Branch
	err := c.do(ctx, call{
		op:     "branches.list",
		method: http.MethodGet,
		path:   "/branches",
		out:    &out,
	})
	return out, err
}

// Levels lists the levels of a branch, or every level when branchID is "".
func (c *Client) Levels(ctx context.Context, branchID string) ([]models.Level, error) {
	path := "/levels"
	if branchID != "" {
		path += "?" + url.Values{"branch_id": {branchID}}.Encode()
	}
	var out []models.Level
	err := c.do(ctx, call{
		op:     "levels.list",
		method: http.MethodGet,
		path:   path,
		out:    &out,
	})
	return out, err
}

// Subjects lists every subject. The endpoint is public.
func (c *Client) Subjects(ctx context.Context) ([]models.Subject, error) {
	var out []models.Subject
	err := c.do(ctx, call{
		op:     "subjects.list",
		method: http.MethodGet,
		path:   "/subjects",
		out:    &out,
	})
	return out, err
}
