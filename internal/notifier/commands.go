package notifier

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"SentimentWatch/internal/model"
	"SentimentWatch/internal/recorder"
	"SentimentWatch/internal/scheduler"
)

const defaultChangesShown = 10

// Runner is the scheduler surface the bot commands need.
type Runner interface {
	RunOnce(ctx context.Context) error
	State() scheduler.State
	Stats() scheduler.Stats
	NextRun() time.Time
}

// History is the pipeline surface the bot commands need.
type History interface {
	RecentChanges(n int) []model.SignalChangeEvent
	Latest() []model.CurrencyPairData
	LastRun() *recorder.RunReport
}

// Commands answers /run, /status and /changes.
type Commands struct {
	Runner  Runner
	History History
	Now     func() time.Time
}

func (c *Commands) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Commands) status() string {
	return FormatStatus(StatusView{
		State:   c.Runner.State(),
		Stats:   c.Runner.Stats(),
		NextRun: c.Runner.NextRun(),
		LastRun: c.History.LastRun(),
		Latest:  c.History.Latest(),
	})
}

// Handle implements CommandHandler.
func (c *Commands) Handle(ctx context.Context, text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	cmd := fields[0]
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}

	switch cmd {
	case "/run":
		if err := c.Runner.RunOnce(ctx); err != nil {
			return fmt.Sprintf("❌ Run failed: %s\n\n%s", html.EscapeString(err.Error()), c.status())
		}
		return "✅ Run finished\n\n" + c.status()
	case "/status":
		return c.status()
	case "/changes":
		n := defaultChangesShown
		if len(fields) > 1 {
			if v, err := strconv.Atoi(fields[1]); err == nil && v > 0 {
				n = v
			}
		}
		return FormatRecentChanges(c.History.RecentChanges(n), c.now())
	default:
		return "Commands:\n/run - fetch now\n/status - scheduler and latest readings\n/changes [n] - recent signal changes"
	}
}
