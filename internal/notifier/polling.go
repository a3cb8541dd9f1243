package notifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(ctx context.Context, command string) string

const (
	pollTimeoutSeconds = 30
	pollRetryDelay     = 5 * time.Second
)

// telegramUpdate represents a Telegram update from long polling.
type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

type updatesResponse struct {
	OK     bool             `json:"ok"`
	Result []telegramUpdate `json:"result"`
}

// StartPolling begins long-polling for Telegram commands. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	offset := 0
	for {
		if ctx.Err() != nil {
			t.log.Info("telegram polling stopped")
			return
		}

		next, err := t.poll(ctx, offset, handler)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			t.log.WithError(err).Warn("polling request failed")
			select {
			case <-ctx.Done():
			case <-time.After(pollRetryDelay):
			}
			continue
		}
		offset = next
	}
}

// poll fetches one batch of updates, answers commands from the configured
// chat and returns the next offset.
func (t *TelegramNotifier) poll(ctx context.Context, offset int, handler CommandHandler) (int, error) {
	var result updatesResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"offset":  strconv.Itoa(offset),
			"timeout": strconv.Itoa(pollTimeoutSeconds),
		}).
		SetResult(&result).
		Get(t.method("getUpdates"))
	if err != nil {
		return offset, err
	}
	if resp.IsError() || !result.OK {
		return offset, fmt.Errorf("getUpdates: status %d", resp.StatusCode())
	}

	for _, update := range result.Result {
		offset = update.UpdateID + 1
		msg := update.Message
		if msg == nil || msg.Text == "" {
			continue
		}
		if strconv.FormatInt(msg.Chat.ID, 10) != t.ChatID {
			t.log.WithField("chat_id", msg.Chat.ID).Warn("ignoring command from unknown chat")
			continue
		}
		text := strings.TrimSpace(msg.Text)
		t.log.WithField("command", text).Info("received command")
		if reply := handler(ctx, text); reply != "" {
			if err := t.Send(ctx, reply); err != nil {
				t.log.WithError(err).Error("send reply")
			}
		}
	}
	return offset, nil
}
