package rest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/moalmobayed/barq-dashboard-sub001/internal/model"
)

type notificationPageResponse struct {
	Data []model.Notification `json:"data"`
	Meta model.Page           `json:"meta"`
}

// ListNotifications fetches one feed page. A page past the end comes back as
// an empty data array, not an error.
func (c *Client) ListNotifications(ctx context.Context, page, itemsPerPage int) ([]model.Notification, model.Page, error) {
	var resp notificationPageResponse
	path := fmt.Sprintf("/notifications?page=%d&itemsPerPage=%d", page, itemsPerPage)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, model.Page{}, err
	}
	if resp.Data == nil {
		resp.Data = []model.Notification{}
	}
	return resp.Data, resp.Meta, nil
}

func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var resp struct {
		Data int `json:"data"`
	}
	if err := c.get(ctx, "/notifications/unread-count", &resp); err != nil {
		return 0, err
	}
	return resp.Data, nil
}

// MarkSeen flips a notification to seen on the backend. The operation is
// one-way and idempotent server-side.
func (c *Client) MarkSeen(ctx context.Context, id uuid.UUID) error {
	return c.patch(ctx, "/notifications/"+id.String()+"/seen", nil, nil)
}

type SendNotificationRequest struct {
	TitleAr   string `json:"titleAr"`
	TitleEn   string `json:"titleEn"`
	ContentAr string `json:"contentAr"`
	ContentEn string `json:"contentEn"`
}

func (c *Client) SendNotification(ctx context.Context, req SendNotificationRequest) error {
	return c.post(ctx, "/notifications", req, nil)
}

// UpdateProfileToken submits the push token to the backend profile record,
// which is the single source of truth for it.
func (c *Client) UpdateProfileToken(ctx context.Context, token string) error {
	return c.patch(ctx, "/profile", map[string]string{"fcmToken": token}, nil)
}
