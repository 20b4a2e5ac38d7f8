package coach

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/stridecoach/stride/server/metrics"
	"github.com/stridecoach/stride/store"
)

// ErrAlreadyCheckedIn is returned when a user reports twice on the same
// calendar day. The UNIQUE(user_id, checkin_date) constraint backs the
// pre-check.
var ErrAlreadyCheckedIn = errors.New("check-in for today already exists")

// CheckInResult is the outcome of a completed daily check-in.
type CheckInResult struct {
	CheckIn *store.CheckIn
	User    *store.User
	// Reply is the coaching response to send back to the user.
	Reply string
	// NewRecord is true when the check-in pushed the longest streak.
	NewRecord bool
}

// CompleteCheckIn validates and persists a daily check-in, recomputes
// the user's streak, records analytics, logs the exchange, and returns
// the coaching reply. Scores outside 1-5 are clamped, mood is stored
// lowercase.
func (c *Coach) CompleteCheckIn(ctx context.Context, user *store.User, data *CheckInData) (*CheckInResult, error) {
	now := time.Now()

	data.Sleep = clampScore(data.Sleep)
	data.Energy = clampScore(data.Energy)
	data.Mood = strings.ToLower(strings.TrimSpace(data.Mood))
	if data.Mood == "" {
		data.Mood = "neutral"
	}

	if done, err := c.HasCheckInToday(ctx, user.ID, now); err != nil {
		return nil, err
	} else if done {
		return nil, ErrAlreadyCheckedIn
	}

	reply := c.GenerateCheckInReply(ctx, user, data)

	checkIn, err := c.store.CreateCheckIn(ctx, &store.CreateCheckIn{
		UserID:         user.ID,
		Sleep:          data.Sleep,
		Energy:         data.Energy,
		Mood:           data.Mood,
		TrainedToday:   data.WillTrain,
		Recommendation: reply,
		CheckinDate:    now.Format("2006-01-02"),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create check-in")
	}

	updated, newRecord, err := c.updateStreak(ctx, user, now)
	if err != nil {
		return nil, err
	}

	c.recordCheckInEvent(ctx, user.ID, data)
	c.logExchange(ctx, user.ID, data.Mood, reply)
	metrics.CheckInsCompleted.Inc()

	slog.Info("check-in completed",
		"user", user.UID,
		"streak", updated.CurrentStreak,
		"sleep", data.Sleep,
		"energy", data.Energy,
	)

	return &CheckInResult{
		CheckIn:   checkIn,
		User:      updated,
		Reply:     reply,
		NewRecord: newRecord,
	}, nil
}

// HasCheckInToday reports whether the user already checked in on the
// current calendar day.
func (c *Coach) HasCheckInToday(ctx context.Context, userID int32, now time.Time) (bool, error) {
	date := now.Format("2006-01-02")
	limit := 1
	checkIns, err := c.store.ListCheckIns(ctx, &store.FindCheckIn{
		UserID:      &userID,
		CheckinDate: &date,
		Limit:       &limit,
	})
	if err != nil {
		return false, errors.Wrap(err, "failed to query today's check-in")
	}
	return len(checkIns) > 0, nil
}

// updateStreak recomputes the streak over the full check-in history
// and persists CurrentStreak, LongestStreak and LastCheckInTs. The
// walk stops at the first gap on its own; a date window would cap
// streaks longer than the window.
func (c *Coach) updateStreak(ctx context.Context, user *store.User, now time.Time) (*store.User, bool, error) {
	checkIns, err := c.store.ListCheckIns(ctx, &store.FindCheckIn{
		UserID: &user.ID,
	})
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to list check-ins for streak")
	}

	times := make([]time.Time, 0, len(checkIns))
	for _, checkIn := range checkIns {
		times = append(times, time.Unix(checkIn.CreatedTs, 0))
	}

	streak := CalculateStreak(now, times)
	longest := user.LongestStreak
	newRecord := false
	if streak > longest {
		longest = streak
		newRecord = true
	}
	lastCheckInTs := now.Unix()

	updated, err := c.store.UpdateUser(ctx, &store.UpdateUser{
		ID:            user.ID,
		CurrentStreak: &streak,
		LongestStreak: &longest,
		LastCheckInTs: &lastCheckInTs,
	})
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to update streak")
	}
	return updated, newRecord, nil
}

func (c *Coach) recordCheckInEvent(ctx context.Context, userID int32, data *CheckInData) {
	metadata, _ := json.Marshal(map[string]any{
		"sleep":      data.Sleep,
		"energy":     data.Energy,
		"mood":       data.Mood,
		"will_train": data.WillTrain,
	})
	if _, err := c.store.CreateAnalyticsEvent(ctx, &store.CreateAnalyticsEvent{
		EventType: "checkin_completed",
		UserID:    &userID,
		Metadata:  string(metadata),
	}); err != nil {
		slog.Warn("failed to record check-in event", "user_id", userID, "error", err)
	}
}

// logExchange appends the check-in exchange to the conversation log so
// later prompts carry it as history.
func (c *Coach) logExchange(ctx context.Context, userID int32, userMessage, reply string) {
	for _, entry := range []struct {
		role    store.ConversationRole
		message string
	}{
		{store.ConversationRoleUser, userMessage},
		{store.ConversationRoleAssistant, reply},
	} {
		if _, err := c.store.CreateConversationMessage(ctx, &store.CreateConversationMessage{
			UserID:  userID,
			Role:    entry.role,
			Message: entry.message,
		}); err != nil {
			slog.Warn("failed to log conversation message", "user_id", userID, "error", err)
		}
	}
}

func clampScore(v int32) int32 {
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}
