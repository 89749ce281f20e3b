package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmdatafocus/orders_etl/config"
	"github.com/mmdatafocus/orders_etl/models"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runCall struct {
	kind    models.RunKind
	trigger models.RunTrigger
	at      time.Time
}

type fakeRunner struct {
	clock *fakeClock
	calls []runCall
	err   error
	panic bool
}

func (r *fakeRunner) Run(ctx context.Context, kind models.RunKind, trigger models.RunTrigger) (*RunReport, error) {
	r.calls = append(r.calls, runCall{kind: kind, trigger: trigger, at: r.clock.now})
	if r.panic {
		panic("unexpected nil table")
	}
	if r.err != nil {
		return &RunReport{RunId: "failed", Kind: kind, State: StateFailed}, r.err
	}
	return &RunReport{Kind: kind, State: StateDone}, nil
}

type fakeClock struct {
	now    time.Time
	sleeps int
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps++
	c.now = c.now.Add(d)
	return nil
}

func newTestScheduler(start time.Time) (*Scheduler, *fakeRunner, *fakeClock) {
	clock := &fakeClock{now: start}
	runner := &fakeRunner{clock: clock}
	logger, _ := test.NewNullLogger()
	s := NewScheduler(runner, logger,
		DailyAt(models.RunKindFull, 2, 0, time.UTC),
		Every(models.RunKindIncremental, time.Hour),
	)
	s.PollInterval = time.Minute
	s.Now = clock.Now
	s.Sleep = clock.Sleep
	return s, runner, clock
}

func TestDailyTriggerNext(t *testing.T) {
	trig := DailyAt(models.RunKindFull, 2, 0, time.UTC)
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, day.Add(2*time.Hour), trig.next(day.Add(time.Hour)))
	assert.Equal(t, day.AddDate(0, 0, 1).Add(2*time.Hour), trig.next(day.Add(2*time.Hour)))
	assert.Equal(t, day.AddDate(0, 0, 1).Add(2*time.Hour), trig.next(day.Add(3*time.Hour)))
}

func TestDailyTriggerHonoursLocation(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	trig := DailyAt(models.RunKindFull, 2, 0, loc)

	// 18:00 UTC is 01:00 local, so the next run is one hour later.
	now := time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC)
	assert.True(t, trig.next(now).Equal(now.Add(time.Hour)))
}

func TestIntervalTriggerNext(t *testing.T) {
	trig := Every(models.RunKindIncremental, time.Hour)
	now := time.Date(2024, 1, 10, 5, 17, 0, 0, time.UTC)
	assert.Equal(t, now.Add(time.Hour), trig.next(now))
}

func TestSchedulerRunsDueTriggers(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 30, 0, 0, time.UTC)
	s, runner, clock := newTestScheduler(start)
	s.MaxIterations = 180

	require.NoError(t, s.Run(context.Background()))

	require.Len(t, runner.calls, 3)
	assert.Equal(t, models.RunKindIncremental, runner.calls[0].kind)
	assert.Equal(t, start.Add(time.Hour), runner.calls[0].at)
	assert.Equal(t, models.RunKindFull, runner.calls[1].kind)
	assert.Equal(t, time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC), runner.calls[1].at)
	assert.Equal(t, models.RunKindIncremental, runner.calls[2].kind)
	for _, c := range runner.calls {
		assert.Equal(t, models.RunTriggerSchedule, c.trigger)
	}
	assert.Equal(t, 179, clock.sleeps)
}

func TestSchedulerContinuesAfterFailures(t *testing.T) {
	s, runner, _ := newTestScheduler(time.Date(2024, 1, 1, 0, 30, 0, 0, time.UTC))
	runner.err = errors.New("stage Loading failed")
	s.MaxIterations = 180

	require.NoError(t, s.Run(context.Background()))
	assert.Len(t, runner.calls, 3)
}

func TestSchedulerSurvivesPanic(t *testing.T) {
	s, runner, _ := newTestScheduler(time.Date(2024, 1, 1, 0, 30, 0, 0, time.UTC))
	runner.panic = true
	s.MaxIterations = 180

	require.NoError(t, s.Run(context.Background()))
	assert.Len(t, runner.calls, 3)
}

func TestSchedulerStopsOnCancel(t *testing.T) {
	s, runner, _ := newTestScheduler(time.Date(2024, 1, 1, 0, 30, 0, 0, time.UTC))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Run(ctx), context.Canceled)
	assert.Empty(t, runner.calls)
}

func TestEnqueueRunsManually(t *testing.T) {
	s, runner, _ := newTestScheduler(time.Date(2024, 1, 1, 0, 30, 0, 0, time.UTC))

	require.NoError(t, s.Enqueue(models.RunKindFull))
	require.NoError(t, s.Enqueue(models.RunKindIncremental))

	assert.Equal(t, 2, s.RunPending(context.Background()))
	require.Len(t, runner.calls, 2)
	assert.Equal(t, models.RunKindFull, runner.calls[0].kind)
	assert.Equal(t, models.RunTriggerManual, runner.calls[0].trigger)
	assert.Equal(t, models.RunKindIncremental, runner.calls[1].kind)

	assert.Equal(t, 0, s.RunPending(context.Background()))
}

func TestEnqueueFullQueue(t *testing.T) {
	s, _, _ := newTestScheduler(time.Now())
	for i := 0; i < cap(s.manual); i++ {
		require.NoError(t, s.Enqueue(models.RunKindIncremental))
	}
	assert.ErrorIs(t, s.Enqueue(models.RunKindIncremental), ErrQueueFull)
}

func TestSchedulerStatus(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 30, 0, 0, time.UTC)
	s, _, _ := newTestScheduler(start)
	s.RunPending(context.Background())

	status := s.Status()
	require.Len(t, status, 2)
	assert.Equal(t, time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC), status[0].NextDue)
	assert.Nil(t, status[0].LastFired)
	assert.Equal(t, start.Add(time.Hour), status[1].NextDue)
}

func TestNewSchedulerFromSettings(t *testing.T) {
	settings := &config.Settings{
		FullRunAt:           "03:15",
		IncrementalInterval: 30 * time.Minute,
		PollInterval:        10 * time.Second,
		RunLockTTL:          time.Hour,
		ScheduleTimezone:    "UTC",
	}
	s, err := NewSchedulerFromSettings(&fakeRunner{clock: &fakeClock{}}, settings, nil)
	require.NoError(t, err)
	require.Len(t, s.Triggers, 2)
	assert.Equal(t, 3, s.Triggers[0].Hour)
	assert.Equal(t, 15, s.Triggers[0].Minute)
	assert.Equal(t, 30*time.Minute, s.Triggers[1].Interval)
	assert.Equal(t, 10*time.Second, s.PollInterval)
	assert.Equal(t, time.Hour, s.LockTTL)

	settings.FullRunAt = "25:00"
	_, err = NewSchedulerFromSettings(&fakeRunner{}, settings, nil)
	assert.Error(t, err)
}
