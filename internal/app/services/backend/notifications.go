package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/kaayjang/kaayjang-web/internal/app/models"
)

// UnreadCount returns the number of unread notifications.
func (c *Client) UnreadCount(ctx context.Context, token string) (int, error) {
	var out models.UnreadCount
	err := c.do(ctx, call{
		op:     "notifications.unread_count",
		method: http.MethodGet,
		path:   "/notifications/unread-count",
		token:  token,
		out:    &out,
	})
	if err != nil {
		return 0, err
	}
	return out.Count, nil
}

// Notifications returns the latest notifications, newest first.
func (c *Client) Notifications(ctx context.Context, token string) ([]models.Notification, error) {
	var out []models.Notification
	err := c.do(ctx, call{
		op:     "notifications.list",
		method: http.MethodGet,
		path:   "/notifications",
		token:  token,
		out:    &out,
	})
	return out, err
}

func (c *Client) MarkNotificationRead(ctx context.Context, token, id string) error {
	return c.do(ctx, call{
		op:     "notifications.mark_read",
		method: http.MethodPut,
		path:   "/notifications/" + url.PathEscape(id) + "/read",
		token:  token,
	})
}

// NotificationSettings returns the delivery preferences of the signed-in
// user.
func (c *Client) NotificationSettings(ctx context.Context, token string) (*models.NotificationSettings, error) {
	var out models.NotificationSettings
	err := c.do(ctx, call{
		op:     "notification_settings.get",
		method: http.MethodGet,
		path:   "/notification-settings",
		token:  token,
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateNotificationSettings replaces every switch and returns the settings
// as stored.
func (c *Client) UpdateNotificationSettings(ctx context.Context, token string, settings models.NotificationSettings) (*models.NotificationSettings, error) {
	var out models.NotificationSettings
	err := c.do(ctx, call{
		op:     "notification_settings.update",
		method: http.MethodPut,
		path:   "/notification-settings",
		token:  token,
		body:   settings,
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AdBanners returns the active promotional banners. No authentication.
func (c *Client) AdBanners(ctx context.Context) ([]models.AdBanner, error) {
	var out []models.AdBanner
	err := c.do(ctx, call{
		op:     "banners.list",
		method: http.MethodGet,
		path:   "/ad-banners",
		out:    &out,
	})
	return out, err
}
