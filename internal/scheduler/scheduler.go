package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"SentimentWatch/internal/logger"
)

// ErrSchedule is returned when the periodic trigger cannot be armed.
var ErrSchedule = errors.New("cannot arm schedule")

const (
	defaultPeriod   = time.Hour
	defaultGrace    = 30 * time.Second
	defaultHardWait = 5 * time.Second
)

// Task is one pipeline cycle.
type Task func(ctx context.Context) error

type State int

const (
	StateStopped State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "RUNNING"
	}
	return "STOPPED"
}

// Stats counts task executions, scheduled and manual.
type Stats struct {
	Runs      int
	Failures  int
	LastError error
	LastRun   time.Time
}

// Scheduler drives one Task on a fixed cadence. A failing or panicking run
// is logged and counted; it never stops the schedule. Scheduled ticks that
// arrive while a run is still in flight are skipped.
type Scheduler struct {
	task     Task
	log      *logrus.Entry
	grace    time.Duration
	hardWait time.Duration

	mu        sync.Mutex
	cron      *cron.Cron
	entry     cron.EntryID
	cancelRun context.CancelFunc

	statsMu sync.Mutex
	stats   Stats
}

type Option func(*Scheduler)

// WithGracePeriod bounds how long Stop waits before cancelling an in-flight run.
func WithGracePeriod(d time.Duration) Option {
	return func(s *Scheduler) { s.grace = d }
}

// WithHardWait bounds how long Stop waits after the forced cancellation.
func WithHardWait(d time.Duration) Option {
	return func(s *Scheduler) { s.hardWait = d }
}

func WithLogger(l *logrus.Entry) Option {
	return func(s *Scheduler) { s.log = l }
}

func New(task Task, opts ...Option) *Scheduler {
	s := &Scheduler{
		task:     task,
		log:      logger.Component("scheduler"),
		grace:    defaultGrace,
		hardWait: defaultHardWait,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// StartAtNextHourBoundary runs the task at the top of every wall-clock hour.
func (s *Scheduler) StartAtNextHourBoundary() error {
	sched, err := cron.ParseStandard("@hourly")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchedule, err)
	}
	return s.start(sched, "hourly")
}

// StartImmediately runs the task now and then every hour.
func (s *Scheduler) StartImmediately() error {
	return s.startEvery(defaultPeriod)
}

// StartWithCustomInterval runs the task now and then every minutes.
func (s *Scheduler) StartWithCustomInterval(minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %d minutes", ErrSchedule, minutes)
	}
	return s.startEvery(time.Duration(minutes) * time.Minute)
}

func (s *Scheduler) startEvery(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %s", ErrSchedule, d)
	}
	return s.start(&fixedRate{anchor: time.Now(), interval: d, immediate: true}, "every "+d.String())
}

func (s *Scheduler) start(sched cron.Schedule, desc string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		s.log.Debug("start ignored, already running")
		return nil
	}

	cl := logger.CronLogger(s.log)
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	runCtx, cancel := context.WithCancel(context.Background())
	s.entry = c.Schedule(sched, cron.FuncJob(func() {
		if err := s.execute(runCtx); err != nil {
			s.log.WithError(err).Error("scheduled run failed")
		}
	}))
	c.Start()

	s.cron = c
	s.cancelRun = cancel
	s.log.WithField("schedule", desc).Info("scheduler started")
	return nil
}

// Stop cancels future ticks, waits up to the grace period for an in-flight
// run, then cancels its context and waits up to the hard wait before giving up.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c, cancel := s.cron, s.cancelRun
	s.cron, s.cancelRun = nil, nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	defer cancel()

	done := c.Stop().Done()
	select {
	case <-done:
		s.log.Info("scheduler stopped")
		return
	case <-time.After(s.grace):
	}

	s.log.WithField("grace", s.grace).Warn("in-flight run exceeded grace period, cancelling")
	cancel()
	select {
	case <-done:
		s.log.Info("scheduler stopped after cancellation")
	case <-time.After(s.hardWait):
		s.log.Error("in-flight run ignored cancellation, giving up")
	}
}

// RunOnce executes the task outside the schedule and returns its error.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	return s.execute(ctx)
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return StateStopped
	}
	return StateRunning
}

func (s *Scheduler) Stats() Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

// NextRun reports when the next tick fires; zero when stopped.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

func (s *Scheduler) execute(ctx context.Context) (err error) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panic: %v", r)
		}
		s.statsMu.Lock()
		s.stats.Runs++
		s.stats.LastRun = started
		s.stats.LastError = err
		if err != nil {
			s.stats.Failures++
		}
		s.statsMu.Unlock()
	}()
	return s.task(ctx)
}

// fixedRate fires at anchor+k*interval. With immediate set the first call
// to Next returns its argument so the first run has no delay.
type fixedRate struct {
	anchor    time.Time
	interval  time.Duration
	immediate bool
	started   bool
}

func (f *fixedRate) Next(t time.Time) time.Time {
	if f.immediate && !f.started {
		f.started = true
		return t
	}
	if t.Before(f.anchor) {
		return f.anchor
	}
	k := t.Sub(f.anchor) / f.interval
	return f.anchor.Add((k + 1) * f.interval)
}
