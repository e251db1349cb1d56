package backend

import (
	"context"
	"net/http"

	"github.com/kaayjang/kaayjang-web/internal/app/models"
)

// Assignments lists the assignments visible to the caller. The backend
// scopes them by role: a teacher's own, or a student's level.
func (c *Client) Assignments(ctx context.Context, token string) ([]models.Assignment, error) {
	var out []models.Assignment
	err := c.do(ctx, call{
		op:     "assignments.list",
		method: http.MethodGet,
		path:   "/assignments",
		token:  token,
		out:    &out,
	})
	return out, err
}
