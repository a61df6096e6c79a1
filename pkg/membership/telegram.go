package membership

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/subgate/subgate/pkg/types"
)

// Checker answers whether a user currently belongs to the gated channel.
type Checker interface {
	Check(ctx context.Context, userID types.UserID) (bool, error)
}

// TelegramChecker queries the Telegram Bot API getChatMember method.
type TelegramChecker struct {
	// APIBase is the Bot API root (e.g. "https://api.telegram.org")
	APIBase string

	// Token is the bot token used to authenticate the call
	Token string

	// ChatID is the gated channel, as "@username" or a numeric chat id
	ChatID string

	// Client is the HTTP client to use (allows custom configuration)
	Client *http.Client
}

// NewTelegramChecker creates a checker with a bounded request timeout so a
// single unresponsive lookup can never stall a reconciliation sweep.
func NewTelegramChecker(apiBase, token, chatID string, timeout time.Duration) *TelegramChecker {
	return &TelegramChecker{
		APIBase: apiBase,
		Token:   token,
		ChatID:  chatID,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

// chatMemberResponse is the subset of the Bot API response we care about.
type chatMemberResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		Status string `json:"status"`
	} `json:"result"`
}

// Check reports whether the user holds one of the member roles in the
// channel. Transport and API errors are returned to the caller; the
// FailClosed wrapper decides what to make of them.
func (c *TelegramChecker) Check(ctx context.Context, userID types.UserID) (bool, error) {
	endpoint := fmt.Sprintf("%s/bot%s/getChatMember?chat_id=%s&user_id=%d",
		c.APIBase, c.Token, url.QueryEscape(c.ChatID), userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return false, fmt.Errorf("getChatMember request failed: %w", err)
	}
	defer resp.Body.Close()

	var body chatMemberResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("failed to decode getChatMember response: %w", err)
	}

	if !body.OK {
		return false, fmt.Errorf("getChatMember returned HTTP %d: %s", resp.StatusCode, body.Description)
	}

	return isMemberStatus(body.Result.Status), nil
}

// isMemberStatus reports whether a chat member status counts as subscribed.
// "left" and "kicked" do not; neither does "restricted".
func isMemberStatus(status string) bool {
	switch status {
	case "creator", "administrator", "member":
		return true
	default:
		return false
	}
}
