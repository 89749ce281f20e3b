package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/orders_etl/config"
	"github.com/mmdatafocus/orders_etl/models"
	"github.com/mmdatafocus/orders_etl/utils"
	"github.com/sirupsen/logrus"
)

// Runner executes one pipeline run. *Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, kind models.RunKind, trigger models.RunTrigger) (*RunReport, error)
}

var ErrQueueFull = errors.New("manual run queue is full")

const runLockKey = "etl:run-lock"

// Trigger is a recurring schedule entry: either a daily wall-clock time in a
// location or a fixed interval.
type Trigger struct {
	Name     string
	Kind     models.RunKind
	Hour     int
	Minute   int
	Location *time.Location
	Interval time.Duration

	LastFired time.Time
	NextDue   time.Time
}

// DailyAt fires once a day at hour:minute in loc.
func DailyAt(kind models.RunKind, hour, minute int, loc *time.Location) *Trigger {
	if loc == nil {
		loc = time.UTC
	}
	return &Trigger{Name: fmt.Sprintf("%s daily at %02d:%02d", kind, hour, minute), Kind: kind, Hour: hour, Minute: minute, Location: loc}
}

// Every fires every interval, measured from the end of the previous run.
func Every(kind models.RunKind, interval time.Duration) *Trigger {
	return &Trigger{Name: fmt.Sprintf("%s every %s", kind, interval), Kind: kind, Interval: interval}
}

// next returns the first due time strictly after now.
func (t *Trigger) next(now time.Time) time.Time {
	if t.Interval > 0 {
		return now.Add(t.Interval)
	}
	local := now.In(t.Location)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), t.Hour, t.Minute, 0, 0, t.Location)
	if !candidate.After(local) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

func (t *Trigger) due(now time.Time) bool {
	return !t.NextDue.IsZero() && !now.Before(t.NextDue)
}

// TriggerStatus is a read-only copy of a trigger's timestamps.
type TriggerStatus struct {
	Name      string         `json:"name"`
	Kind      models.RunKind `json:"kind"`
	LastFired *time.Time     `json:"last_fired,omitempty"`
	NextDue   time.Time      `json:"next_due"`
}

// Scheduler is a single-goroutine loop: poll, run whatever is due one run at a
// time, sleep. A run that fails is logged and the loop continues.
type Scheduler struct {
	Runner       Runner
	Triggers     []*Trigger
	PollInterval time.Duration
	// MaxIterations bounds the number of polls; 0 means until ctx is cancelled.
	MaxIterations int

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error

	// Locker, when set, holds a redis lease for the duration of each run.
	Locker  *redislock.Client
	LockTTL time.Duration

	Logger *logrus.Logger

	mu     sync.Mutex
	manual chan models.RunKind
	wake   chan struct{}
}

func NewScheduler(runner Runner, logger *logrus.Logger, triggers ...*Trigger) *Scheduler {
	if logger == nil {
		logger = config.GetLogger()
	}
	s := &Scheduler{
		Runner:       runner,
		Triggers:     triggers,
		PollInterval: 60 * time.Second,
		Now:          func() time.Time { return time.Now().UTC() },
		LockTTL:      2 * time.Hour,
		Logger:       logger,
		manual:       make(chan models.RunKind, 16),
		wake:         make(chan struct{}, 1),
	}
	s.Sleep = s.sleep
	return s
}

// NewSchedulerFromSettings builds the daily full trigger and the incremental interval trigger.
func NewSchedulerFromSettings(runner Runner, settings *config.Settings, logger *logrus.Logger) (*Scheduler, error) {
	hour, minute, err := config.ParseClock(settings.FullRunAt)
	if err != nil {
		return nil, err
	}
	loc, err := settings.Location()
	if err != nil {
		return nil, err
	}
	s := NewScheduler(runner, logger,
		DailyAt(models.RunKindFull, hour, minute, loc),
		Every(models.RunKindIncremental, settings.IncrementalInterval),
	)
	s.PollInterval = settings.PollInterval
	s.LockTTL = settings.RunLockTTL
	return s, nil
}

// Enqueue requests a manual run; it is executed by the loop at the next poll.
func (s *Scheduler) Enqueue(kind models.RunKind) error {
	select {
	case s.manual <- kind:
	default:
		return ErrQueueFull
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

func (s *Scheduler) Status() []TriggerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TriggerStatus, 0, len(s.Triggers))
	for _, t := range s.Triggers {
		st := TriggerStatus{Name: t.Name, Kind: t.Kind, NextDue: t.NextDue}
		if !t.LastFired.IsZero() {
			last := t.LastFired
			st.LastFired = &last
		}
		out = append(out, st)
	}
	return out
}

func (s *Scheduler) init(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.Triggers {
		if t.NextDue.IsZero() {
			t.NextDue = t.next(now)
		}
	}
}

// RunPending executes every due trigger, then every queued manual run, in order.
// It returns the number of runs attempted.
func (s *Scheduler) RunPending(ctx context.Context) int {
	s.init(s.Now())

	runs := 0
	for _, t := range s.Triggers {
		if ctx.Err() != nil {
			return runs
		}
		s.mu.Lock()
		isDue := t.due(s.Now())
		s.mu.Unlock()
		if !isDue {
			continue
		}
		s.execute(ctx, t.Kind, models.RunTriggerSchedule)
		runs++

		finished := s.Now()
		s.mu.Lock()
		t.LastFired = finished
		t.NextDue = t.next(finished)
		s.mu.Unlock()
	}

	for {
		select {
		case kind := <-s.manual:
			if ctx.Err() != nil {
				return runs
			}
			s.execute(ctx, kind, models.RunTriggerManual)
			runs++
		default:
			return runs
		}
	}
}

// Run polls until ctx is cancelled or MaxIterations polls have happened.
// It returns ctx.Err() on cancellation and nil when the iteration bound is reached.
func (s *Scheduler) Run(ctx context.Context) error {
	s.init(s.Now())
	for _, st := range s.Status() {
		s.Logger.WithFields(logrus.Fields{
			"field":    "Scheduler",
			"trigger":  st.Name,
			"next_due": st.NextDue,
		}).Info("trigger scheduled")
	}

	for i := 0; s.MaxIterations <= 0 || i < s.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.RunPending(ctx)
		if s.MaxIterations > 0 && i == s.MaxIterations-1 {
			break
		}
		if err := s.Sleep(ctx, s.PollInterval); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.wake:
		return nil
	case <-time.After(d):
		return nil
	}
}

// execute runs one pipeline run and never lets its failure escape the loop.
func (s *Scheduler) execute(ctx context.Context, kind models.RunKind, trigger models.RunTrigger) {
	defer func() {
		if rec := recover(); rec != nil {
			config.LogError(s.Logger, "workflow", "Scheduler.execute", "run panicked; scheduler continues",
				map[string]any{"kind": kind, "trigger": trigger}, fmt.Errorf("panic: %v", rec))
		}
	}()

	if s.Locker != nil {
		lock, err := s.Locker.Obtain(ctx, runLockKey, s.LockTTL, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			s.Logger.WithFields(logrus.Fields{
				"field":   "Scheduler",
				"kind":    kind,
				"trigger": trigger,
			}).Warn("run lease held by another process; skipping run")
			return
		} else if err != nil {
			s.Logger.WithFields(logrus.Fields{
				"field": "Scheduler",
				"kind":  kind,
			}).Warn("error obtaining run lease; proceeding without lease: " + err.Error())
		} else {
			defer func() {
				if releaseErr := lock.Release(context.Background()); releaseErr != nil {
					s.Logger.WithFields(logrus.Fields{"field": "Scheduler", "kind": kind}).
						Warn("failed to release run lease: " + releaseErr.Error())
				}
			}()
		}
	}

	report, err := s.Runner.Run(ctx, kind, trigger)
	if err == nil {
		return
	}
	data := map[string]any{"kind": kind, "trigger": trigger, "code": utils.ErrorCode(err)}
	if report != nil {
		data["run_id"] = report.RunId
		data["failed_stage"] = report.FailedStage
	}
	var rf *utils.RefreshFailure
	if errors.As(err, &rf) {
		config.LogError(s.Logger, "workflow", "Scheduler.execute", "summary refresh failed; waiting for next trigger", data, err)
		return
	}
	config.LogError(s.Logger, "workflow", "Scheduler.execute", "run failed; waiting for next trigger", data, err)
}
