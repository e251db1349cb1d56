package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/kaayjang/kaayjang-web/internal/app/models"
)

// Stats returns the dashboard counters for role. Each role has its own
// endpoint and the backend refuses the others.
func (c *Client) Stats(ctx context.Context, token string, role models.Role) (models.Stats, error) {
	if !role.Valid() {
		return nil, &models.APIError{Status: http.StatusBadRequest, Message: "unknown role " + string(role)}
	}
	out := models.Stats{}
	err := c.do(ctx, call{
		op:     "stats." + string(role),
		method: http.MethodGet,
		path:   "/" + string(role) + "/stats",
		token:  token,
		out:    &out,
	})
	return out, err
}

// PendingTeachers lists teacher accounts awaiting validation. Admin only.
func (c *Client) PendingTeachers(ctx context.Context, token string) ([]models.User, error) {
	var out []models.User
	err := c.do(ctx, call{
		op:     "admin.pending_teachers",
		method: http.MethodGet,
		path:   "/admin/pending-teachers",
		token:  token,
		out:    &out,
	})
	return out, err
}

func (c *Client) ValidateTeacher(ctx context.Context, token, teacherID string) error {
	return c.do(ctx, call{
		op:     "admin.validate_teacher",
		method: http.MethodPut,
		path:   "/admin/validate-teacher/" + url.PathEscape(teacherID),
		token:  token,
	})
}
