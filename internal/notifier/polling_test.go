package notifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoll_AnswersConfiguredChatOnly(t *testing.T) {
	api := &fakeBotAPI{updates: `{"ok":true,"result":[
		{"update_id":7,"message":{"text":"/status","chat":{"id":42}}},
		{"update_id":8,"message":{"text":"/run","chat":{"id":99}}},
		{"update_id":9}
	]}`}
	n := newTestNotifier(t, api)

	var seen []string
	next, err := n.poll(context.Background(), 0, func(_ context.Context, cmd string) string {
		seen = append(seen, cmd)
		return "reply to " + cmd
	})
	require.NoError(t, err)
	assert.Equal(t, 10, next)
	assert.Equal(t, []string{"/status"}, seen)

	msgs := api.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "reply to /status", msgs[0]["text"])
}

func TestPoll_NotOK(t *testing.T) {
	api := &fakeBotAPI{updates: `{"ok":false,"result":[]}`}
	n := newTestNotifier(t, api)

	next, err := n.poll(context.Background(), 5, func(context.Context, string) string { return "" })
	assert.Error(t, err)
	assert.Equal(t, 5, next)
}

func TestStartPolling_StopsOnCancel(t *testing.T) {
	api := &fakeBotAPI{updates: `{"ok":true,"result":[]}`}
	n := newTestNotifier(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, func(context.Context, string) string { return "" })
		close(done)
	}()
	cancel()
	<-done
}
