package proactive

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/stridecoach/stride/server/metrics"
	"github.com/stridecoach/stride/server/service/coach"
	"github.com/stridecoach/stride/store"
)

// Dispatcher sends an outbound message to a user's phone and returns
// the channel-side dispatch identifier for delivery correlation.
type Dispatcher interface {
	SendMessage(ctx context.Context, phone, content string) (string, error)
}

// milestones are the streak lengths worth a celebration. Beyond the
// set, every full week counts.
var milestones = []int32{7, 14, 21, 30, 60, 90}

// Reactivation window: quiet for fewer days is handled by the streak
// reminder, quiet for more is considered churned.
const (
	reactivationMinDays = 2
	reactivationMaxDays = 7
)

// Decision is the outcome of evaluating one user: which message to
// send, why, and the values that justified it.
type Decision struct {
	Type    store.ProactiveMessageType
	Reason  string
	Context any
}

type reactivationContext struct {
	DaysSinceLastCheckIn int   `json:"days_since_last_checkin"`
	CurrentStreak        int32 `json:"current_streak"`
	LongestStreak        int32 `json:"longest_streak"`
}

type celebrationContext struct {
	Streak    int32 `json:"streak"`
	Milestone int32 `json:"milestone"`
}

type streakReminderContext struct {
	CurrentStreak int32 `json:"current_streak"`
}

type progressContext struct {
	AverageEnergy float64 `json:"average_energy"`
	StreakTrend   string  `json:"streak_trend"`
}

type checkinReminderContext struct {
	PreferredHour int32 `json:"preferred_hour"`
}

type weeklySummaryContext struct {
	CheckIns int `json:"checkins_this_week"`
}

// Engine evaluates users against the proactive-messaging rules and
// dispatches at most one message per (user, type, day).
type Engine struct {
	store      *store.Store
	coach      *coach.Coach
	dispatcher Dispatcher
	limiter    *rate.Limiter
	timezone   *time.Location
}

// NewEngine creates an engine. Outbound sends are throttled to keep the
// bridge happy during batch passes.
func NewEngine(s *store.Store, c *coach.Coach, dispatcher Dispatcher, timezone *time.Location) *Engine {
	if timezone == nil {
		timezone = time.Local
	}
	return &Engine{
		store:      s,
		coach:      c,
		dispatcher: dispatcher,
		limiter:    rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
		timezone:   timezone,
	}
}

// Decide evaluates the rule ladder for one user. First match wins; nil
// means nothing to send right now.
func (e *Engine) Decide(ctx context.Context, now time.Time, user *store.User) (*Decision, error) {
	now = now.In(e.timezone)
	days := coach.DaysSinceLastCheckIn(now, user.LastCheckInTs)

	// 1. Quiet for a few days: win the user back.
	if days >= reactivationMinDays && days <= reactivationMaxDays {
		return &Decision{
			Type:   store.ProactiveReactivation,
			Reason: "no check-in for several days",
			Context: reactivationContext{
				DaysSinceLastCheckIn: days,
				CurrentStreak:        user.CurrentStreak,
				LongestStreak:        user.LongestStreak,
			},
		}, nil
	}

	// 2. A long streak one missed day away from breaking.
	if user.CurrentStreak >= 7 && days == 1 {
		return &Decision{
			Type:    store.ProactiveStreakReminder,
			Reason:  "long streak at risk",
			Context: streakReminderContext{CurrentStreak: user.CurrentStreak},
		}, nil
	}

	// 3. Milestone reached.
	if isMilestone(user.CurrentStreak) {
		return &Decision{
			Type:    store.ProactiveCelebration,
			Reason:  "streak milestone reached",
			Context: celebrationContext{Streak: user.CurrentStreak, Milestone: user.CurrentStreak},
		}, nil
	}

	patterns, err := e.analyze(ctx, now, user)
	if err != nil {
		return nil, err
	}

	// 4. Energy high and streak growing: reinforce.
	if patterns.AverageEnergy >= 4 && patterns.StreakTrend == coach.TrendImproving {
		return &Decision{
			Type:    store.ProactiveProgressCelebration,
			Reason:  "high energy with improving streak",
			Context: progressContext{AverageEnergy: patterns.AverageEnergy, StreakTrend: patterns.StreakTrend},
		}, nil
	}

	// 5. Daily reminder at the user's preferred hour.
	if days != 0 {
		hour := e.preferredHour(ctx, user.ID)
		if int32(now.Hour()) == hour {
			return &Decision{
				Type:    store.ProactiveCheckInReminder,
				Reason:  "preferred reminder hour, no check-in yet",
				Context: checkinReminderContext{PreferredHour: hour},
			}, nil
		}
	}

	return nil, nil
}

// Process runs the full cycle for one user: decide, dedupe, generate,
// dispatch, log. allowed restricts which message types this pass may
// emit; empty means all.
func (e *Engine) Process(ctx context.Context, now time.Time, user *store.User, allowed ...store.ProactiveMessageType) error {
	decision, err := e.Decide(ctx, now, user)
	if err != nil {
		return err
	}
	if decision == nil || !typeAllowed(decision.Type, allowed) {
		return nil
	}

	sent, err := e.sentToday(ctx, now, user.ID, decision.Type)
	if err != nil {
		return err
	}
	if sent {
		return nil
	}

	content := e.render(ctx, user, decision)
	return e.dispatch(ctx, user, decision, content)
}

// render produces the message body for a decision. LLM-backed types
// fall back to static text inside the coach; the rest are templated.
func (e *Engine) render(ctx context.Context, user *store.User, decision *Decision) string {
	switch decision.Type {
	case store.ProactiveReactivation:
		days := decision.Context.(reactivationContext).DaysSinceLastCheckIn
		return e.coach.GenerateReactivationMessage(ctx, user, days)
	case store.ProactiveCelebration:
		return CelebrationText(user.Name, decision.Context.(celebrationContext).Streak)
	case store.ProactiveStreakReminder:
		return StreakReminderText(user.Name, user.CurrentStreak)
	case store.ProactiveProgressCelebration:
		return ProgressCelebrationText(user.Name)
	default:
		return CheckInReminderText(user.Name)
	}
}

func (e *Engine) dispatch(ctx context.Context, user *store.User, decision *Decision, content string) error {
	if err := e.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limiter interrupted")
	}

	status := store.ProactiveStatusSent
	dispatchID, err := e.dispatcher.SendMessage(ctx, user.Phone, content)
	if err != nil {
		slog.Warn("proactive send failed", "user", user.UID, "type", decision.Type, "error", err)
		status = store.ProactiveStatusFailed
	}

	snapshot, _ := json.Marshal(decision.Context)
	if _, err := e.store.CreateProactiveMessage(ctx, &store.CreateProactiveMessage{
		UID:         uuid.NewString(),
		UserID:      user.ID,
		MessageType: decision.Type,
		Content:     content,
		Reason:      decision.Reason,
		Context:     string(snapshot),
		Status:      status,
		DispatchID:  dispatchID,
	}); err != nil {
		return errors.Wrap(err, "failed to log proactive message")
	}

	metrics.ProactiveMessagesSent.WithLabelValues(string(decision.Type), string(status)).Inc()
	slog.Info("proactive message sent", "user", user.UID, "type", decision.Type, "status", status)
	return nil
}

// SendWeeklySummary sends the Sunday recap to one user. Users with no
// check-ins this week are skipped; there is nothing to recap.
func (e *Engine) SendWeeklySummary(ctx context.Context, now time.Time, user *store.User) error {
	sent, err := e.sentToday(ctx, now, user.ID, store.ProactiveWeeklySummary)
	if err != nil {
		return err
	}
	if sent {
		return nil
	}

	since := now.AddDate(0, 0, -7).Unix()
	checkIns, err := e.store.ListCheckIns(ctx, &store.FindCheckIn{
		UserID:         &user.ID,
		CreatedTsAfter: &since,
	})
	if err != nil {
		return errors.Wrap(err, "failed to list weekly check-ins")
	}
	if len(checkIns) == 0 {
		return nil
	}

	// Oldest first, the way the recap reads.
	for i, j := 0, len(checkIns)-1; i < j; i, j = i+1, j-1 {
		checkIns[i], checkIns[j] = checkIns[j], checkIns[i]
	}

	decision := &Decision{
		Type:    store.ProactiveWeeklySummary,
		Reason:  "weekly recap",
		Context: weeklySummaryContext{CheckIns: len(checkIns)},
	}
	content := e.coach.GenerateWeeklySummary(ctx, user, checkIns)
	return e.dispatch(ctx, user, decision, content)
}

// sentToday reports whether a message of this type already went out to
// the user since local midnight.
func (e *Engine) sentToday(ctx context.Context, now time.Time, userID int32, messageType store.ProactiveMessageType) (bool, error) {
	now = now.In(e.timezone)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, e.timezone).Unix()
	limit := 1
	messages, err := e.store.ListProactiveMessages(ctx, &store.FindProactiveMessage{
		UserID:      &userID,
		MessageType: &messageType,
		SentTsAfter: &midnight,
		Limit:       &limit,
	})
	if err != nil {
		return false, errors.Wrap(err, "failed to query today's proactive messages")
	}
	return len(messages) > 0, nil
}

func (e *Engine) analyze(ctx context.Context, now time.Time, user *store.User) (*coach.Patterns, error) {
	since := now.AddDate(0, 0, -coach.PatternWindowDays).Unix()
	checkIns, err := e.store.ListCheckIns(ctx, &store.FindCheckIn{
		UserID:         &user.ID,
		CreatedTsAfter: &since,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list check-ins for analysis")
	}
	return coach.AnalyzePatterns(now, user, checkIns), nil
}

func (e *Engine) preferredHour(ctx context.Context, userID int32) int32 {
	prefs, err := e.store.GetUserPreferences(ctx, &store.FindUserPreferences{UserID: &userID})
	if err != nil {
		slog.Warn("failed to load preferences, using default hour", "user_id", userID, "error", err)
		return store.DefaultReminderHour
	}
	if prefs == nil {
		return store.DefaultReminderHour
	}
	return prefs.ReminderHour
}

func isMilestone(streak int32) bool {
	for _, m := range milestones {
		if streak == m {
			return true
		}
	}
	return streak > 90 && streak%7 == 0
}

func typeAllowed(messageType store.ProactiveMessageType, allowed []store.ProactiveMessageType) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, t := range allowed {
		if t == messageType {
			return true
		}
	}
	return false
}
