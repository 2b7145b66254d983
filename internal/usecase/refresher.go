package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MacroPulse/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Warmer recomputes and stores the default snapshot.
type Warmer interface {
	Warm(ctx context.Context) error
}

// Refresher keeps the default snapshot warm on a fixed interval.
// Start and Stop are idempotent.
type Refresher struct {
	warmer  Warmer
	timeout time.Duration
	log     *logger.Logger

	mu       sync.Mutex
	cron     *cron.Cron
	interval time.Duration
	kickoff  sync.WaitGroup
}

func NewRefresher(w Warmer, timeout time.Duration, log *logger.Logger) *Refresher {
	if timeout <= 0 {
		timeout = defaultBudget
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Refresher{warmer: w, timeout: timeout, log: log}
}

// Start schedules a warm every interval and runs one right away. Calling Start while
// running with the same interval is a no-op; a different interval reschedules.
func (r *Refresher) Start(interval time.Duration) error {
	if interval < time.Second {
		return fmt.Errorf("refresh interval %s below 1s", interval)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cron != nil {
		if r.interval == interval {
			return nil
		}
		r.stopLocked()
	}

	c := cron.New(
		cron.WithLogger(cronLogger{r.log}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{r.log})),
	)
	c.Schedule(cron.Every(interval), cron.FuncJob(r.run))
	c.Start()

	r.cron = c
	r.interval = interval
	r.kickoff.Add(1)
	go func() {
		defer r.kickoff.Done()
		r.run()
	}()

	r.log.Info("snapshot refresher started", logger.Duration("interval_ms", interval))
	return nil
}

// Stop cancels the schedule and waits for a running warm to finish.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

// Running reports whether a schedule is active.
func (r *Refresher) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cron != nil
}

func (r *Refresher) stopLocked() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	r.kickoff.Wait()
	r.cron = nil
	r.interval = 0
	r.log.Info("snapshot refresher stopped")
}

func (r *Refresher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.warmer.Warm(ctx); err != nil {
		r.log.Warn("snapshot warm failed", logger.Error(err))
	}
}

// cronLogger adapts the application logger to cron.Logger.
type cronLogger struct {
	l *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, logger.Any("kv", keysAndValues))
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, logger.Error(err), logger.Any("kv", keysAndValues))
}
