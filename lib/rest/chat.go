package rest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/moalmobayed/barq-dashboard-sub001/internal/model"
)

type threadPageResponse struct {
	Data     []model.ChatThread `json:"data"`
	Metadata struct {
		Pages int `json:"pages"`
	} `json:"metadata"`
}

// ListThreads fetches one page of support chat threads.
func (c *Client) ListThreads(ctx context.Context, page int) ([]model.ChatThread, int, error) {
	var resp threadPageResponse
	if err := c.get(ctx, fmt.Sprintf("/chats?page=%d", page), &resp); err != nil {
		return nil, 0, err
	}
	if resp.Data == nil {
		resp.Data = []model.ChatThread{}
	}
	return resp.Data, resp.Metadata.Pages, nil
}

// ListReplies fetches up to limit messages of a thread, newest first. Callers
// re-sort ascending before display; delivery order is never trusted.
func (c *Client) ListReplies(ctx context.Context, threadID uuid.UUID, limit int) ([]model.ChatMessage, error) {
	var resp struct {
		Data []model.ChatMessage `json:"data"`
	}
	path := fmt.Sprintf("/chats/%s/replies?limit=%d", threadID, limit)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		resp.Data = []model.ChatMessage{}
	}
	return resp.Data, nil
}

func (c *Client) CreateReply(ctx context.Context, threadID uuid.UUID, body string) error {
	return c.post(ctx, "/chats/"+threadID.String()+"/replies", map[string]string{"body": body}, nil)
}
