package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/angelmondragon/scoreboard-manager/pkg/logger"
)

type fakeLock struct {
	held     map[string]bool
	busy     map[string]bool
	released []string
	ttls     map[string]time.Duration
}

func newFakeLock() *fakeLock {
	return &fakeLock{held: map[string]bool{}, busy: map[string]bool{}, ttls: map[string]time.Duration{}}
}

func (f *fakeLock) Acquire(_ context.Context, job string, ttl time.Duration) (bool, error) {
	if f.busy[job] || f.held[job] {
		return false, nil
	}
	f.held[job] = true
	f.ttls[job] = ttl
	return true, nil
}

func (f *fakeLock) Release(_ context.Context, job string) error {
	delete(f.held, job)
	f.released = append(f.released, job)
	return nil
}

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestService(t *testing.T, lock Lock, clock *fakeClock) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger: logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Lock:   lock,
		Clock:  clock.Now,
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return svc
}

func TestServiceRunsAllDueJobsEvenOnFailure(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	lock := newFakeLock()
	svc := newTestService(t, lock, clock)
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	if err := svc.Register(success, time.Hour); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.Register(failure, time.Hour); err != nil {
		t.Fatalf("register: %v", err)
	}

	svc.runDue(context.Background())

	if success.runs != 1 || failure.runs != 1 {
		t.Fatalf("expected both jobs to run once, got %d and %d", success.runs, failure.runs)
	}
	if len(lock.released) != 2 {
		t.Fatalf("expected both locks released, got %v", lock.released)
	}
	if lock.ttls["success"] != time.Hour {
		t.Fatalf("lock ttl should follow the job interval, got %v", lock.ttls["success"])
	}
}

func TestServiceHonorsPerJobInterval(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	svc := newTestService(t, newFakeLock(), clock)
	hourly := &testJob{name: "hourly"}
	daily := &testJob{name: "daily"}
	_ = svc.Register(hourly, time.Hour)
	_ = svc.Register(daily, 24*time.Hour)

	svc.runDue(context.Background())
	clock.Advance(30 * time.Minute)
	svc.runDue(context.Background())
	clock.Advance(31 * time.Minute)
	svc.runDue(context.Background())

	if hourly.runs != 2 {
		t.Fatalf("expected hourly job to run twice, got %d", hourly.runs)
	}
	if daily.runs != 1 {
		t.Fatalf("expected daily job to run once, got %d", daily.runs)
	}
}

func TestServiceSkipsJobHeldElsewhere(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	lock := newFakeLock()
	lock.busy["reconcile"] = true
	svc := newTestService(t, lock, clock)
	job := &testJob{name: "reconcile"}
	_ = svc.Register(job, time.Hour)

	svc.runDue(context.Background())
	svc.runDue(context.Background())

	if job.runs != 0 {
		t.Fatalf("expected job to be skipped, ran %d", job.runs)
	}
	if len(lock.released) != 0 {
		t.Fatalf("skipped job must not release, got %v", lock.released)
	}
}

func TestServiceRegisterValidates(t *testing.T) {
	svc := newTestService(t, newFakeLock(), &fakeClock{now: time.Now()})
	if err := svc.Register(nil, time.Hour); err == nil {
		t.Fatal("expected nil job to be rejected")
	}
	if err := svc.Register(&testJob{name: "a"}, 0); err == nil {
		t.Fatal("expected zero interval to be rejected")
	}
	if err := svc.Register(&testJob{name: "a"}, time.Hour); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.Register(&testJob{name: "a"}, time.Hour); err == nil {
		t.Fatal("expected duplicate name to be rejected")
	}
	if names := svc.Jobs(); len(names) != 1 || names[0] != "a" {
		t.Fatalf("unexpected jobs %v", names)
	}
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	svc := newTestService(t, newFakeLock(), &fakeClock{now: time.Now()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
