// Package scheduler activates and deactivates workflow triggers: cron-style
// daily/weekly schedules via robfig/cron, and simple interval/once timers
// for schedules that don't fit a cron expression. Grounded on the
// original Python implementation's activate_workflow/deactivate_workflow
// pair, which stored an opaque scheduler job id per workflow and tore it
// down on deactivation or workflow deletion.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/openalgoflow/engine/pkg/logging"
)

// RunFunc executes one workflow; the scheduler doesn't know about the
// orchestrator's internals, only that it can be asked to run a workflow
// by id with an empty trigger payload.
type RunFunc func(ctx context.Context, workflowID string)

// Kind selects how a Schedule is interpreted.
type Kind string

const (
	KindCron     Kind = "cron"     // a six-field cron expression, seconds first (daily/weekly/custom)
	KindInterval Kind = "interval" // fire every Every duration
	KindOnce     Kind = "once"     // fire a single time at At
)

// Schedule describes when a workflow should run.
type Schedule struct {
	Kind       Kind
	CronExpr   string
	Every      time.Duration
	At         time.Time
	WorkflowID string
}

// Scheduler owns one cron.Cron instance plus ad-hoc timers for interval
// and once schedules, and tracks the job id activating each workflow so
// it can be torn down independently later.
type Scheduler struct {
	cron   *cron.Cron
	run    RunFunc
	logger *logging.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID   // workflowID -> cron entry, for KindCron
	timers  map[string]*time.Timer    // workflowID -> timer, for KindOnce
	tickers map[string]*time.Ticker   // workflowID -> ticker, for KindInterval
	stopped map[string]chan struct{} // workflowID -> stop signal for ticker goroutines
}

// New builds a Scheduler. run is invoked (in its own goroutine) whenever
// an activated schedule fires.
func New(run RunFunc, logger *logging.Logger) *Scheduler {
	s := &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		run:     run,
		logger:  logger,
		entries: make(map[string]cron.EntryID),
		timers:  make(map[string]*time.Timer),
		tickers: make(map[string]*time.Ticker),
		stopped: make(map[string]chan struct{}),
	}
	s.cron.Start()
	return s
}

// Activate schedules sched, replacing any existing schedule previously
// activated for the same workflow id.
func (s *Scheduler) Activate(sched Schedule) (jobID string, err error) {
	s.Deactivate(sched.WorkflowID)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch sched.Kind {
	case KindCron:
		entryID, err := s.cron.AddFunc(sched.CronExpr, func() {
			s.run(context.Background(), sched.WorkflowID)
		})
		if err != nil {
			return "", fmt.Errorf("scheduler: invalid cron expression %q: %w", sched.CronExpr, err)
		}
		s.entries[sched.WorkflowID] = entryID
		return fmt.Sprintf("cron:%d", entryID), nil

	case KindInterval:
		if sched.Every <= 0 {
			return "", fmt.Errorf("scheduler: interval schedule requires Every > 0")
		}
		ticker := time.NewTicker(sched.Every)
		stop := make(chan struct{})
		s.tickers[sched.WorkflowID] = ticker
		s.stopped[sched.WorkflowID] = stop
		go func() {
			for {
				select {
				case <-ticker.C:
					s.run(context.Background(), sched.WorkflowID)
				case <-stop:
					return
				}
			}
		}()
		return fmt.Sprintf("interval:%s", sched.Every), nil

	case KindOnce:
		delay := time.Until(sched.At)
		if delay < 0 {
			delay = 0
		}
		timer := time.AfterFunc(delay, func() {
			s.run(context.Background(), sched.WorkflowID)
		})
		s.timers[sched.WorkflowID] = timer
		return fmt.Sprintf("once:%s", sched.At.Format(time.RFC3339)), nil

	default:
		return "", fmt.Errorf("scheduler: unknown schedule kind %q", sched.Kind)
	}
}

// Deactivate tears down whatever schedule (if any) is active for
// workflowID. Safe to call on a workflow with no active schedule.
func (s *Scheduler) Deactivate(workflowID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.entries[workflowID]; ok {
		s.cron.Remove(entryID)
		delete(s.entries, workflowID)
	}
	if timer, ok := s.timers[workflowID]; ok {
		timer.Stop()
		delete(s.timers, workflowID)
	}
	if ticker, ok := s.tickers[workflowID]; ok {
		ticker.Stop()
		close(s.stopped[workflowID])
		delete(s.tickers, workflowID)
		delete(s.stopped, workflowID)
	}
}

// Stop tears down the underlying cron runner and every active timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	workflowIDs := make([]string, 0, len(s.entries)+len(s.timers)+len(s.tickers))
	for id := range s.entries {
		workflowIDs = append(workflowIDs, id)
	}
	for id := range s.timers {
		workflowIDs = append(workflowIDs, id)
	}
	for id := range s.tickers {
		workflowIDs = append(workflowIDs, id)
	}
	s.mu.Unlock()

	for _, id := range workflowIDs {
		s.Deactivate(id)
	}
	<-s.cron.Stop().Done()
}

// CronExprForFrequency translates the editor-facing schedule shape
// (daily at HH:MM, weekly on a weekday at HH:MM) into a six-field cron
// expression with a leading seconds field (daily 09:30 is "0 30 9 * * *"),
// mirroring the original's activate_workflow frequency
// handling.
func CronExprForFrequency(frequency string, hour, minute int, weekday time.Weekday) (string, error) {
	switch frequency {
	case "daily":
		return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
	case "weekly":
		return fmt.Sprintf("0 %d %d * * %d", minute, hour, int(weekday)), nil
	default:
		return "", fmt.Errorf("scheduler: unsupported frequency %q", frequency)
	}
}

// CronExprForWeekdays builds a weekly cron expression firing at hour:minute
// on every listed weekday, for the "days subset of Mon..Sun" weekly
// schedule shape. weekdays must be non-empty.
func CronExprForWeekdays(hour, minute int, weekdays []time.Weekday) (string, error) {
	if len(weekdays) == 0 {
		return "", fmt.Errorf("scheduler: weekly schedule requires at least one weekday")
	}
	days := make([]string, len(weekdays))
	for i, wd := range weekdays {
		days[i] = fmt.Sprintf("%d", int(wd))
	}
	dayList := days[0]
	for _, d := range days[1:] {
		dayList += "," + d
	}
	return fmt.Sprintf("0 %d %d * * %s", minute, hour, dayList), nil
}
