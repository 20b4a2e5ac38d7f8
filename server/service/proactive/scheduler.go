package proactive

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/semaphore"

	"github.com/stridecoach/stride/store"
)

// maxConcurrentUsers bounds how many users one pass works on at once.
const maxConcurrentUsers = 4

// Scheduler drives the proactive engine on a cron timetable:
// check-in reminders every hour 8-22, reactivations at 10:00,
// celebrations at 18:00, all in the configured timezone.
type Scheduler struct {
	engine   *Engine
	store    *store.Store
	timezone *time.Location
	cron     *cron.Cron

	mu      sync.Mutex
	running map[string]bool
}

// NewScheduler creates a scheduler; Start registers the jobs.
func NewScheduler(engine *Engine, s *store.Store, timezone *time.Location) *Scheduler {
	if timezone == nil {
		timezone = time.Local
	}
	return &Scheduler{
		engine:   engine,
		store:    s,
		timezone: timezone,
		running:  map[string]bool{},
	}
}

// Start registers the cron jobs and launches the ticker.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron = cron.New(cron.WithLocation(s.timezone))

	jobs := []struct {
		name     string
		schedule string
		run      func(context.Context, time.Time)
	}{
		{"checkin_reminders", "0 8-22 * * *", s.runReminderPass},
		{"reactivations", "0 10 * * *", s.runReactivationPass},
		{"celebrations", "0 18 * * *", s.runCelebrationPass},
		{"weekly_summaries", "0 18 * * 0", s.runWeeklySummaryPass},
	}

	for _, job := range jobs {
		job := job
		if _, err := s.cron.AddFunc(job.schedule, func() {
			s.guarded(ctx, job.name, job.run)
		}); err != nil {
			return errors.Wrapf(err, "failed to register %s job", job.name)
		}
	}

	s.cron.Start()
	slog.Info("proactive scheduler started", "timezone", s.timezone.String())
	return nil
}

// Stop halts the cron ticker; running passes finish on their own.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	slog.Info("proactive scheduler stopped")
}

// guarded skips a tick when the previous run of the same job has not
// finished yet.
func (s *Scheduler) guarded(ctx context.Context, name string, run func(context.Context, time.Time)) {
	s.mu.Lock()
	if s.running[name] {
		s.mu.Unlock()
		slog.Warn("skipping overlapping scheduler run", "job", name)
		return
	}
	s.running[name] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running[name] = false
		s.mu.Unlock()
	}()

	run(ctx, time.Now().In(s.timezone))
}

// runReminderPass evaluates the full decision ladder for every active,
// onboarded user. Same-day dedupe keeps repeated hourly runs idempotent.
func (s *Scheduler) runReminderPass(ctx context.Context, now time.Time) {
	active, onboarded := true, true
	users, err := s.store.ListUsers(ctx, &store.FindUser{IsActive: &active, OnboardingComplete: &onboarded})
	if err != nil {
		slog.Error("reminder pass: failed to list users", "error", err)
		return
	}
	s.processUsers(ctx, now, "checkin_reminders", users)
}

// runReactivationPass targets users quiet for at least two days.
func (s *Scheduler) runReactivationPass(ctx context.Context, now time.Time) {
	active, onboarded := true, true
	cutoff := now.AddDate(0, 0, -reactivationMinDays).Unix()
	users, err := s.store.ListUsers(ctx, &store.FindUser{
		IsActive:           &active,
		OnboardingComplete: &onboarded,
		LastCheckInBefore:  &cutoff,
	})
	if err != nil {
		slog.Error("reactivation pass: failed to list users", "error", err)
		return
	}
	s.processUsers(ctx, now, "reactivations", users, store.ProactiveReactivation)
}

// runCelebrationPass targets users sitting on a milestone streak.
func (s *Scheduler) runCelebrationPass(ctx context.Context, now time.Time) {
	active, onboarded := true, true
	users, err := s.store.ListUsers(ctx, &store.FindUser{
		IsActive:           &active,
		OnboardingComplete: &onboarded,
		StreakIn:           milestones,
	})
	if err != nil {
		slog.Error("celebration pass: failed to list users", "error", err)
		return
	}
	s.processUsers(ctx, now, "celebrations", users, store.ProactiveCelebration)
}

// runWeeklySummaryPass sends the Sunday recap to every active,
// onboarded user.
func (s *Scheduler) runWeeklySummaryPass(ctx context.Context, now time.Time) {
	active, onboarded := true, true
	users, err := s.store.ListUsers(ctx, &store.FindUser{IsActive: &active, OnboardingComplete: &onboarded})
	if err != nil {
		slog.Error("weekly summary pass: failed to list users", "error", err)
		return
	}

	sem := semaphore.NewWeighted(maxConcurrentUsers)
	var wg sync.WaitGroup
	for _, user := range users {
		if err := sem.Acquire(ctx, 1); err != nil {
			slog.Warn("scheduler pass interrupted", "job", "weekly_summaries", "error", err)
			break
		}
		wg.Add(1)
		go func(user *store.User) {
			defer wg.Done()
			defer sem.Release(1)
			if err := s.engine.SendWeeklySummary(ctx, now, user); err != nil {
				slog.Error("failed to send weekly summary", "user", user.UID, "error", err)
			}
		}(user)
	}
	wg.Wait()

	slog.Info("scheduler pass finished", "job", "weekly_summaries", "users", len(users))
}

// processUsers runs the engine for each user with bounded parallelism.
// Per-user failures are logged and never abort the pass.
func (s *Scheduler) processUsers(ctx context.Context, now time.Time, job string, users []*store.User, allowed ...store.ProactiveMessageType) {
	sem := semaphore.NewWeighted(maxConcurrentUsers)
	var wg sync.WaitGroup
	var sent int64
	var sentMu sync.Mutex

	for _, user := range users {
		if err := sem.Acquire(ctx, 1); err != nil {
			slog.Warn("scheduler pass interrupted", "job", job, "error", err)
			break
		}
		wg.Add(1)
		go func(user *store.User) {
			defer wg.Done()
			defer sem.Release(1)

			if err := s.engine.Process(ctx, now, user, allowed...); err != nil {
				slog.Error("failed to process user", "job", job, "user", user.UID, "error", err)
				return
			}
			sentMu.Lock()
			sent++
			sentMu.Unlock()
		}(user)
	}
	wg.Wait()

	slog.Info("scheduler pass finished", "job", job, "users", len(users), "processed", sent)
}
