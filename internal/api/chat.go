package api

import (
	"context"
	"strings"

	apierrors "github.com/bizcopilot/copilot/internal/errors"
	"github.com/bizcopilot/copilot/internal/models"
)

// Chat sends one conversational turn
func (c *Client) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, apierrors.ErrEmptyMessage
	}
	if req.Mode == "" {
		req.Mode = models.DefaultMode
	}

	var resp models.ChatResponse
	if err := c.PostJSON(ctx, models.PathChat, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health queries the backend liveness endpoint
func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	var resp models.HealthResponse
	if err := c.GetJSON(ctx, models.PathHealth, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
