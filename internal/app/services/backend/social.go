package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/kaayjang/kaayjang-web/internal/app/models"
)

func (c *Client) User(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := c.do(ctx, call{
		op:     "users.get",
		method: http.MethodGet,
		path:   "/users/" + url.PathEscape(id),
		out:    &user,
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Follow(ctx context.Context, token, userID string) error {
	return c.do(ctx, call{
		op:     "follows.create",
		method: http.MethodPost,
		path:   "/follows?" + url.Values{"followed_id": {userID}}.Encode(),
		token:  token,
	})
}

func (c *Client) Unfollow(ctx context.Context, token, userID string) error {
	return c.do(ctx, call{
		op:     "follows.delete",
		method: http.MethodDelete,
		path:   "/follows/" + url.PathEscape(userID),
		token:  token,
	})
}

func (c *Client) IsFollowing(ctx context.Context, token, userID string) (bool, error) {
	var out models.FollowStatus
	err := c.do(ctx, call{
		op:     "follows.is_following",
		method: http.MethodGet,
		path:   "/follows/is-following/" + url.PathEscape(userID),
		token:  token,
		out:    &out,
	})
	return out.IsFollowing, err
}

type countResponse struct {
	Count int `json:"count"`
}

// FollowCounts returns how many users follow userID and how many userID
// follows. Both endpoints are public.
func (c *Client) FollowCounts(ctx context.Context, userID string) (models.FollowCounts, error) {
	var followers, following countResponse
	err := c.do(ctx, call{
		op:     "follows.followers",
		method: http.MethodGet,
		path:   "/follows/followers/" + url.PathEscape(userID),
		out:    &followers,
	})
	if err != nil {
		return models.FollowCounts{}, err
	}
	err = c.do(ctx, call{
		op:     "follows.following",
		method: http.MethodGet,
		path:   "/follows/following/" + url.PathEscape(userID),
		out:    &following,
	})
	if err != nil {
		return models.FollowCounts{}, err
	}
	return models.FollowCounts{Followers: followers.Count, Following: following.Count}, nil
}

// TopicFilter narrows the forum topic list. Empty fields are ignored.
type TopicFilter struct {
	BranchID  string
	LevelID   string
	SubjectID string
}

func (f TopicFilter) query() string {
	v := url.Values{}
	if f.BranchID != "" {
		v.Set("branch_id", f.BranchID)
	}
	if f.LevelID != "" {
		v.Set("level_id", f.LevelID)
	}
	if f.SubjectID != "" {
		v.Set("subject_id", f.SubjectID)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

func (c *Client) Topics(ctx context.Context, token string, filter TopicFilter) ([]models.Topic, error) {
	var out []models.Topic
	err := c.do(ctx, call{
		op:     "topics.list",
		method: http.MethodGet,
		path:   "/topics" + filter.query(),
		token:  token,
		out:    &out,
	})
	return out, err
}
