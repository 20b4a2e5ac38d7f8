package coach

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/stridecoach/stride/ai/llm"
	"github.com/stridecoach/stride/internal/profile"
	"github.com/stridecoach/stride/store"
)

// fakeDriver is an in-memory store.Driver for service-level tests.
type fakeDriver struct {
	users         []*store.User
	checkIns      []*store.CheckIn
	preferences   map[int32]*store.UserPreferences
	proactive     []*store.ProactiveMessage
	events        []*store.AnalyticsEvent
	conversations []*store.ConversationMessage
	nextID        int32
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{preferences: map[int32]*store.UserPreferences{}}
}

func newTestStore() (*store.Store, *fakeDriver) {
	driver := newFakeDriver()
	return store.New(driver, &profile.Profile{}), driver
}

func (d *fakeDriver) id() int32 {
	d.nextID++
	return d.nextID
}

func (*fakeDriver) GetDB() *sql.DB { return nil }
func (*fakeDriver) Close() error   { return nil }

func (*fakeDriver) IsInitialized(context.Context) (bool, error) { return true, nil }

func (d *fakeDriver) CreateUser(_ context.Context, create *store.CreateUser) (*store.User, error) {
	user := &store.User{
		ID:           d.id(),
		UID:          create.UID,
		Phone:        create.Phone,
		Name:         create.Name,
		Goal:         create.Goal,
		Restrictions: create.Restrictions,
		IsActive:     true,
		RowStatus:    store.Normal,
		CreatedTs:    time.Now().Unix(),
		UpdatedTs:    time.Now().Unix(),
	}
	d.users = append(d.users, user)
	return user, nil
}

func (d *fakeDriver) ListUsers(_ context.Context, find *store.FindUser) ([]*store.User, error) {
	result := []*store.User{}
	for _, user := range d.users {
		if find.ID != nil && user.ID != *find.ID {
			continue
		}
		if find.Phone != nil && user.Phone != *find.Phone {
			continue
		}
		if find.IsActive != nil && user.IsActive != *find.IsActive {
			continue
		}
		if find.OnboardingComplete != nil && user.OnboardingComplete != *find.OnboardingComplete {
			continue
		}
		if len(find.StreakIn) > 0 {
			found := false
			for _, streak := range find.StreakIn {
				if user.CurrentStreak == streak {
					found = true
				}
			}
			if !found {
				continue
			}
		}
		if find.LastCheckInBefore != nil && user.LastCheckInTs != nil && *user.LastCheckInTs >= *find.LastCheckInBefore {
			continue
		}
		result = append(result, user)
	}
	if find.Limit != nil && len(result) > *find.Limit {
		result = result[:*find.Limit]
	}
	return result, nil
}

func (d *fakeDriver) UpdateUser(_ context.Context, update *store.UpdateUser) (*store.User, error) {
	for _, user := range d.users {
		if user.ID != update.ID {
			continue
		}
		if update.Name != nil {
			user.Name = *update.Name
		}
		if update.Goal != nil {
			user.Goal = *update.Goal
		}
		if update.Restrictions != nil {
			user.Restrictions = *update.Restrictions
		}
		if update.CurrentStreak != nil {
			user.CurrentStreak = *update.CurrentStreak
		}
		if update.LongestStreak != nil {
			user.LongestStreak = *update.LongestStreak
		}
		if update.LastCheckInTs != nil {
			user.LastCheckInTs = update.LastCheckInTs
		}
		if update.IsActive != nil {
			user.IsActive = *update.IsActive
		}
		if update.OnboardingComplete != nil {
			user.OnboardingComplete = *update.OnboardingComplete
		}
		user.UpdatedTs = time.Now().Unix()
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (d *fakeDriver) GetUserStats(context.Context) (*store.UserStats, error) {
	return &store.UserStats{Total: int64(len(d.users))}, nil
}

func (d *fakeDriver) CreateCheckIn(_ context.Context, create *store.CreateCheckIn) (*store.CheckIn, error) {
	checkIn := &store.CheckIn{
		ID:             d.id(),
		UserID:         create.UserID,
		Sleep:          create.Sleep,
		Energy:         create.Energy,
		Mood:           create.Mood,
		TrainedToday:   create.TrainedToday,
		Recommendation: create.Recommendation,
		CheckinDate:    create.CheckinDate,
		CreatedTs:      time.Now().Unix(),
	}
	d.checkIns = append(d.checkIns, checkIn)
	return checkIn, nil
}

func (d *fakeDriver) ListCheckIns(_ context.Context, find *store.FindCheckIn) ([]*store.CheckIn, error) {
	result := []*store.CheckIn{}
	for _, checkIn := range d.checkIns {
		if find.UserID != nil && checkIn.UserID != *find.UserID {
			continue
		}
		if find.CheckinDate != nil && checkIn.CheckinDate != *find.CheckinDate {
			continue
		}
		if find.CreatedTsAfter != nil && checkIn.CreatedTs < *find.CreatedTsAfter {
			continue
		}
		result = append(result, checkIn)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedTs > result[j].CreatedTs })
	if find.Limit != nil && len(result) > *find.Limit {
		result = result[:*find.Limit]
	}
	return result, nil
}

func (d *fakeDriver) GetCheckInStats(context.Context, int64) (*store.CheckInStats, error) {
	return &store.CheckInStats{Total: int64(len(d.checkIns))}, nil
}

func (d *fakeDriver) UpsertUserPreferences(_ context.Context, upsert *store.UpsertUserPreferences) (*store.UserPreferences, error) {
	prefs := &store.UserPreferences{
		UserID:       upsert.UserID,
		ReminderHour: upsert.ReminderHour,
		ReminderDays: upsert.ReminderDays,
		Language:     upsert.Language,
		Timezone:     upsert.Timezone,
	}
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
	message := &store.ProactiveMessage{
		ID:          d.id(),
		UID:         create.UID,
		UserID:      create.UserID,
		MessageType: create.MessageType,
		Content:     create.Content,
		Reason:      create.Reason,
		Context:     create.Context,
		Status:      create.Status,
		DispatchID:  create.DispatchID,
		SentTs:      time.Now().Unix(),
	}
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

func (d *fakeDriver) UpdateProactiveMessageStatus(_ context.Context, update *store.UpdateProactiveMessageStatus) error {
	for _, message := range d.proactive {
		if message.DispatchID == update.DispatchID {
			message.Status = update.Status
		}
	}
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

func (d *fakeDriver) CreateAnalyticsEvent(_ context.Context, create *store.CreateAnalyticsEvent) (*store.AnalyticsEvent, error) {
	event := &store.AnalyticsEvent{
		ID:        d.id(),
		EventType: create.EventType,
		UserID:    create.UserID,
		Metadata:  create.Metadata,
		CreatedTs: time.Now().Unix(),
	}
	d.events = append(d.events, event)
	return event, nil
}

func (d *fakeDriver) ListAnalyticsEvents(_ context.Context, find *store.FindAnalyticsEvent) ([]*store.AnalyticsEvent, error) {
	result := []*store.AnalyticsEvent{}
	for _, event := range d.events {
		if find.EventType != nil && event.EventType != *find.EventType {
			continue
		}
		result = append(result, event)
	}
	return result, nil
}

func (d *fakeDriver) CreateConversationMessage(_ context.Context, create *store.CreateConversationMessage) (*store.ConversationMessage, error) {
	message := &store.ConversationMessage{
		ID:        d.id(),
		UserID:    create.UserID,
		Role:      create.Role,
		Message:   create.Message,
		CreatedTs: time.Now().Unix(),
	}
	d.conversations = append(d.conversations, message)
	return message, nil
}

func (d *fakeDriver) ListConversationMessages(_ context.Context, find *store.FindConversationMessage) ([]*store.ConversationMessage, error) {
	result := []*store.ConversationMessage{}
	for _, message := range d.conversations {
		if find.UserID != nil && message.UserID != *find.UserID {
			continue
		}
		result = append(result, message)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if find.Limit != nil && len(result) > *find.Limit {
		result = result[:*find.Limit]
	}
	return result, nil
}

// fakeLLM returns a canned reply, or fails when broken.
type fakeLLM struct {
	reply        string
	broken       bool
	calls        int
	lastMessages []llm.Message
}

func (f *fakeLLM) Chat(_ context.Context, messages []llm.Message) (string, *llm.CallStats, error) {
	f.calls++
	f.lastMessages = messages
	if f.broken {
		return "", nil, errors.New("llm unavailable")
	}
	return f.reply, &llm.CallStats{TotalTokens: 42}, nil
}

func (*fakeLLM) Warmup(context.Context) {}
