package proactive

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridecoach/stride/ai/llm"
	"github.com/stridecoach/stride/internal/profile"
	"github.com/stridecoach/stride/server/service/coach"
	"github.com/stridecoach/stride/store"
)

// fakeDriver is a minimal in-memory store.Driver for engine tests.
type fakeDriver struct {
	users       []*store.User
	checkIns    []*store.CheckIn
	preferences map[int32]*store.UserPreferences
	proactive   []*store.ProactiveMessage
	nextID      int32
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{preferences: map[int32]*store.UserPreferences{}}
}

func (d *fakeDriver) id() int32 { d.nextID++; return d.nextID }

func (*fakeDriver) GetDB() *sql.DB                                  { return nil }
func (*fakeDriver) Close() error                                    { return nil }
func (*fakeDriver) IsInitialized(context.Context) (bool, error)     { return true, nil }
func (*fakeDriver) GetUserStats(context.Context) (*store.UserStats, error) { return nil, nil }

func (d *fakeDriver) CreateUser(_ context.Context, create *store.CreateUser) (*store.User, error) {
	user := &store.User{ID: d.id(), UID: create.UID, Phone: create.Phone, Name: create.Name, Goal: create.Goal, IsActive: true}
	d.users = append(d.users, user)
	return user, nil
}

func (d *fakeDriver) ListUsers(_ context.Context, find *store.FindUser) ([]*store.User, error) {
	result := []*store.User{}
	for _, user := range d.users {
		if find.Phone != nil && user.Phone != *find.Phone {
			continue
		}
		if len(find.StreakIn) > 0 {
			match := false
			for _, streak := range find.StreakIn {
				if user.CurrentStreak == streak {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		if find.LastCheckInBefore != nil {
			if user.LastCheckInTs != nil && *user.LastCheckInTs >= *find.LastCheckInBefore {
				continue
			}
		}
		result = append(result, user)
	}
	return result, nil
}

func (d *fakeDriver) UpdateUser(_ context.Context, update *store.UpdateUser) (*store.User, error) {
	for _, user := range d.users {
		if user.ID == update.ID {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (d *fakeDriver) CreateCheckIn(_ context.Context, create *store.CreateCheckIn) (*store.CheckIn, error) {
	checkIn := &store.CheckIn{ID: d.id(), UserID: create.UserID, Sleep: create.Sleep, Energy: create.Energy, Mood: create.Mood, TrainedToday: create.TrainedToday, CheckinDate: create.CheckinDate, CreatedTs: time.Now().Unix()}
	d.checkIns = append(d.checkIns, checkIn)
	return checkIn, nil
}

func (d *fakeDriver) ListCheckIns(_ context.Context, find *store.FindCheckIn) ([]*store.CheckIn, error) {
	result := []*store.CheckIn{}
	for _, checkIn := range d.checkIns {
		if find.UserID != nil && checkIn.UserID != *find.UserID {
			continue
		}
		if find.CreatedTsAfter != nil && checkIn.CreatedTs < *find.CreatedTsAfter {
			continue
		}
		result = append(result, checkIn)
	}
	return result, nil
}

func (*fakeDriver) GetCheckInStats(context.Context, int64) (*store.CheckInStats, error) {
	return nil, nil
}

func (d *fakeDriver) UpsertUserPreferences(_ context.Context, upsert *store.UpsertUserPreferences) (*store.UserPreferences, error) {
	prefs := &store.UserPreferences{UserID: upsert.UserID, ReminderHour: upsert.ReminderHour}
	d.preferences[upsert.UserID] = prefs
	return prefs, nil
}

func (d *fakeDriver) GetUserPreferences(_ context.Context, find *store.FindUserPreferences) (*store.UserPreferences, error) {
	if find.UserID == nil {
		return nil, nil
	}
	return d.preferences[*find.UserID], nil
}

func (d *fakeDriver) CreateProactiveMessage(_ context.Context, create *store.CreateProactiveMessage) (*store.ProactiveMessage, error) {
	message := &store.ProactiveMessage{ID: d.id(), UID: create.UID, UserID: create.UserID, MessageType: create.MessageType, Content: create.Content, Reason: create.Reason, Context: create.Context, Status: create.Status, DispatchID: create.DispatchID, SentTs: time.Now().Unix()}
	d.proactive = append(d.proactive, message)
	return message, nil
}

func (d *fakeDriver) ListProactiveMessages(_ context.Context, find *store.FindProactiveMessage) ([]*store.ProactiveMessage, error) {
	result := []*store.ProactiveMessage{}
	for _, message := range d.proactive {
		if find.UserID != nil && message.UserID != *find.UserID {
			continue
		}
		if find.MessageType != nil && message.MessageType != *find.MessageType {
			continue
		}
		if find.SentTsAfter != nil && message.SentTs < *find.SentTsAfter {
			continue
		}
		result = append(result, message)
	}
	return result, nil
}

func (*fakeDriver) UpdateProactiveMessageStatus(context.Context, *store.UpdateProactiveMessageStatus) error {
	return nil
}

func (*fakeDriver) CreateContent(context.Context, *store.CreateContent) (*store.Content, error) {
	return nil, nil
}
func (*fakeDriver) ListContents(context.Context, *store.FindContent) ([]*store.Content, error) {
	return nil, nil
}
func (*fakeDriver) UpdateContent(context.Context, *store.UpdateContent) (*store.Content, error) {
	return nil, nil
}
func (*fakeDriver) DeleteContent(context.Context, int32) error { return nil }
func (*fakeDriver) UpsertMessageTemplate(context.Context, *store.UpsertMessageTemplate) (*store.MessageTemplate, error) {
	return nil, nil
}
func (*fakeDriver) ListMessageTemplates(context.Context, *store.FindMessageTemplate) ([]*store.MessageTemplate, error) {
	return nil, nil
}
func (*fakeDriver) DeleteMessageTemplate(context.Context, int32) error { return nil }
func (*fakeDriver) CreateAnalyticsEvent(context.Context, *store.CreateAnalyticsEvent) (*store.AnalyticsEvent, error) {
	return nil, nil
}
func (*fakeDriver) ListAnalyticsEvents(context.Context, *store.FindAnalyticsEvent) ([]*store.AnalyticsEvent, error) {
	return nil, nil
}
func (*fakeDriver) CreateConversationMessage(context.Context, *store.CreateConversationMessage) (*store.ConversationMessage, error) {
	return nil, nil
}
func (*fakeDriver) ListConversationMessages(context.Context, *store.FindConversationMessage) ([]*store.ConversationMessage, error) {
	return nil, nil
}

// fakeLLM returns a canned reply or fails.
type fakeLLM struct {
	reply  string
	broken bool
}

func (f *fakeLLM) Chat(context.Context, []llm.Message) (string, *llm.CallStats, error) {
	if f.broken {
		return "", nil, fmt.Errorf("llm unavailable")
	}
	return f.reply, &llm.CallStats{}, nil
}

func (*fakeLLM) Warmup(context.Context) {}

// fakeDispatcher records outbound sends.
type fakeDispatcher struct {
	sent   []string
	failed bool
}

func (f *fakeDispatcher) SendMessage(_ context.Context, _, content string) (string, error) {
	if f.failed {
		return "", fmt.Errorf("bridge down")
	}
	f.sent = append(f.sent, content)
	return fmt.Sprintf("dispatch-%d", len(f.sent)), nil
}

func newTestEngine(llmService llm.Service) (*Engine, *fakeDriver, *fakeDispatcher) {
	driver := newFakeDriver()
	testStore := store.New(driver, &profile.Profile{})
	dispatcher := &fakeDispatcher{}
	engine := NewEngine(testStore, coach.New(testStore, llmService), dispatcher, time.UTC)
	return engine, driver, dispatcher
}

func lastCheckIn(now time.Time, daysAgo int) *int64 {
	ts := now.AddDate(0, 0, -daysAgo).Unix()
	return &ts
}

func TestDecidePriorities(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)
	engine, _, _ := newTestEngine(&fakeLLM{reply: "ok"})

	t.Run("reactivation wins over everything", func(t *testing.T) {
		user := &store.User{ID: 1, CurrentStreak: 7, LastCheckInTs: lastCheckIn(now, 3)}
		decision, err := engine.Decide(ctx, now, user)
		require.NoError(t, err)
		require.NotNil(t, decision)
		assert.Equal(t, store.ProactiveReactivation, decision.Type)
		assert.Equal(t, 3, decision.Context.(reactivationContext).DaysSinceLastCheckIn)
	})

	t.Run("quiet beyond a week is left alone", func(t *testing.T) {
		user := &store.User{ID: 1, LastCheckInTs: lastCheckIn(now, 10)}
		decision, err := engine.Decide(ctx, now, user)
		require.NoError(t, err)
		if decision != nil {
			assert.NotEqual(t, store.ProactiveReactivation, decision.Type)
		}
	})

	t.Run("never checked in gets no reactivation", func(t *testing.T) {
		user := &store.User{ID: 1}
		decision, err := engine.Decide(ctx, now, user)
		require.NoError(t, err)
		// Default reminder hour is 8, matching the pass hour.
		require.NotNil(t, decision)
		assert.Equal(t, store.ProactiveCheckInReminder, decision.Type)
	})

	t.Run("long streak at risk", func(t *testing.T) {
		user := &store.User{ID: 1, CurrentStreak: 8, LongestStreak: 8, LastCheckInTs: lastCheckIn(now, 1)}
		decision, err := engine.Decide(ctx, now, user)
		require.NoError(t, err)
		require.NotNil(t, decision)
		assert.Equal(t, store.ProactiveStreakReminder, decision.Type)
	})

	t.Run("milestone celebration", func(t *testing.T) {
		user := &store.User{ID: 1, CurrentStreak: 7, LongestStreak: 7, LastCheckInTs: lastCheckIn(now, 0)}
		decision, err := engine.Decide(ctx, now, user)
		require.NoError(t, err)
		require.NotNil(t, decision)
		assert.Equal(t, store.ProactiveCelebration, decision.Type)
		assert.Equal(t, int32(7), decision.Context.(celebrationContext).Milestone)
	})

	t.Run("nothing to send after today's check-in", func(t *testing.T) {
		user := &store.User{ID: 1, CurrentStreak: 3, LongestStreak: 10, LastCheckInTs: lastCheckIn(now, 0)}
		decision, err := engine.Decide(ctx, now, user)
		require.NoError(t, err)
		assert.Nil(t, decision)
	})
}

func TestDecideProgressCelebration(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 29, 14, 0, 0, 0, time.UTC)
	engine, driver, _ := newTestEngine(&fakeLLM{reply: "ok"})

	user := &store.User{ID: 1, CurrentStreak: 5, LongestStreak: 5, LastCheckInTs: lastCheckIn(now, 0)}
	for i := 0; i < 5; i++ {
		driver.checkIns = append(driver.checkIns, &store.CheckIn{
			UserID:    1,
			Sleep:     4,
			Energy:    5,
			Mood:      "bien",
			CreatedTs: now.AddDate(0, 0, -i).Unix(),
		})
	}

	decision, err := engine.Decide(ctx, now, user)
	require.NoError(t, err)
	require.NotNil(t, decision)
	assert.Equal(t, store.ProactiveProgressCelebration, decision.Type)
	assert.Equal(t, 5.0, decision.Context.(progressContext).AverageEnergy)
}

func TestDecideReminderHonorsPreferredHour(t *testing.T) {
	ctx := context.Background()
	engine, driver, _ := newTestEngine(&fakeLLM{reply: "ok"})

	driver.preferences[1] = &store.UserPreferences{UserID: 1, ReminderHour: 19}
	now := time.Date(2026, 8, 29, 19, 0, 0, 0, time.UTC)
	user := &store.User{ID: 1, CurrentStreak: 2, LongestStreak: 10, LastCheckInTs: lastCheckIn(now, 1)}

	decision, err := engine.Decide(ctx, now, user)
	require.NoError(t, err)
	require.NotNil(t, decision)
	assert.Equal(t, store.ProactiveCheckInReminder, decision.Type)

	// Off-hour: stay silent.
	offHour := time.Date(2026, 8, 29, 11, 0, 0, 0, time.UTC)
	decision, err = engine.Decide(ctx, offHour, user)
	require.NoError(t, err)
	assert.Nil(t, decision)
}

func TestProcessDedupesSameDay(t *testing.T) {
	ctx := context.Background()
	// Real wall clock so the logged SentTs lands inside today's window.
	now := time.Now().UTC()
	engine, driver, dispatcher := newTestEngine(&fakeLLM{reply: "ok"})

	user := &store.User{ID: 1, UID: "u1", Name: "Lucía", Phone: "549115555", CurrentStreak: 7, LongestStreak: 7, LastCheckInTs: lastCheckIn(now, 0)}

	require.NoError(t, engine.Process(ctx, now, user))
	require.NoError(t, engine.Process(ctx, now, user))

	assert.Len(t, dispatcher.sent, 1)
	require.Len(t, driver.proactive, 1)
	message := driver.proactive[0]
	assert.Equal(t, store.ProactiveCelebration, message.MessageType)
	assert.Equal(t, store.ProactiveStatusSent, message.Status)
	assert.Contains(t, message.Content, "7 días seguidos")
	assert.Contains(t, message.Context, `"milestone":7`)
	assert.NotEmpty(t, message.DispatchID)
}

func TestProcessAllowedTypesFilter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 29, 18, 0, 0, 0, time.UTC)
	engine, driver, dispatcher := newTestEngine(&fakeLLM{reply: "ok"})

	// Reactivation candidate, but the pass only allows celebrations.
	user := &store.User{ID: 1, UID: "u1", Phone: "549115555", LastCheckInTs: lastCheckIn(now, 3)}
	require.NoError(t, engine.Process(ctx, now, user, store.ProactiveCelebration))

	assert.Empty(t, dispatcher.sent)
	assert.Empty(t, driver.proactive)
}

func TestProcessLLMFailureStillSends(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	engine, driver, dispatcher := newTestEngine(&fakeLLM{broken: true})

	user := &store.User{ID: 1, UID: "u1", Name: "Lucía", Phone: "549115555", LongestStreak: 9, LastCheckInTs: lastCheckIn(now, 4)}
	require.NoError(t, engine.Process(ctx, now, user))

	require.Len(t, dispatcher.sent, 1)
	assert.Contains(t, dispatcher.sent[0], "Lucía")
	require.Len(t, driver.proactive, 1)
	assert.Equal(t, store.ProactiveReactivation, driver.proactive[0].MessageType)
	assert.Equal(t, store.ProactiveStatusSent, driver.proactive[0].Status)
}

func TestProcessDispatchFailureLoggedAsFailed(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	engine, driver, dispatcher := newTestEngine(&fakeLLM{reply: "volvé"})
	dispatcher.failed = true

	user := &store.User{ID: 1, UID: "u1", Name: "Lucía", Phone: "549115555", LastCheckInTs: lastCheckIn(now, 2)}
	require.NoError(t, engine.Process(ctx, now, user))

	require.Len(t, driver.proactive, 1)
	assert.Equal(t, store.ProactiveStatusFailed, driver.proactive[0].Status)
}

func TestSendWeeklySummary(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	engine, driver, dispatcher := newTestEngine(&fakeLLM{reply: "gran semana"})

	user := &store.User{ID: 1, UID: "u1", Name: "Lucía", Phone: "549115555", CurrentStreak: 4, LongestStreak: 4}
	for i := 0; i < 4; i++ {
		driver.checkIns = append(driver.checkIns, &store.CheckIn{
			UserID:    1,
			Sleep:     4,
			Energy:    4,
			Mood:      "bien",
			CreatedTs: now.AddDate(0, 0, -i).Unix(),
		})
	}

	require.NoError(t, engine.SendWeeklySummary(ctx, now, user))
	// Second run the same day is a no-op.
	require.NoError(t, engine.SendWeeklySummary(ctx, now, user))

	require.Len(t, dispatcher.sent, 1)
	assert.Equal(t, "gran semana", dispatcher.sent[0])
	require.Len(t, driver.proactive, 1)
	assert.Equal(t, store.ProactiveWeeklySummary, driver.proactive[0].MessageType)
}

func TestSendWeeklySummarySkipsEmptyWeek(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	engine, driver, dispatcher := newTestEngine(&fakeLLM{reply: "gran semana"})

	user := &store.User{ID: 1, UID: "u1", Name: "Lucía", Phone: "549115555"}
	require.NoError(t, engine.SendWeeklySummary(ctx, now, user))

	assert.Empty(t, dispatcher.sent)
	assert.Empty(t, driver.proactive)
}

func TestIsMilestone(t *testing.T) {
	for _, streak := range []int32{7, 14, 21, 30, 60, 90, 91, 98, 105} {
		assert.True(t, isMilestone(streak), "streak %d", streak)
	}
	for _, streak := range []int32{0, 1, 6, 8, 28, 92, 100} {
		assert.False(t, isMilestone(streak), "streak %d", streak)
	}
}

func TestCelebrationText(t *testing.T) {
	assert.Contains(t, CelebrationText("Lucía", 7), "primera semana")
	assert.Contains(t, CelebrationText("Lucía", 30), "UN MES ENTERO")
	assert.Contains(t, CelebrationText("Lucía", 63), "LEYENDA")
	assert.Contains(t, CelebrationText("Lucía", 7), "LUCÍA")
}
