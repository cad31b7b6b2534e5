package pocketbot

import (
	"context"
	"fmt"
	"net/http"
)

// RegisterPushToken registers a device push-notification token with the
// server. Acquiring the token is the host platform's concern; the client
// only reports it.
func (c *Client) RegisterPushToken(ctx context.Context, token, platform string) error {
	if token == "" {
		return fmt.Errorf("push token is required")
	}
	_, err := c.doRequest(ctx, http.MethodPost, "/api/push/register", map[string]string{
		"token":    token,
		"platform": platform,
	})
	return err
}
