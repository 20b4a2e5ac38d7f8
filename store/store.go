package store

import (
	"context"
	"fmt"
	"time"

	"github.com/stridecoach/stride/internal/profile"
	"github.com/stridecoach/stride/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// Caches
	userCache        *cache.Cache // cache for users, keyed by phone
	preferencesCache *cache.Cache // cache for user preferences, keyed by user id
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	cacheConfig := cache.Config{
		DefaultTTL:      10 * time.Minute,
		CleanupInterval: 5 * time.Minute,
		MaxItems:        1000,
	}

	return &Store{
		driver:           driver,
		profile:          profile,
		userCache:        cache.New(cacheConfig),
		preferencesCache: cache.New(cacheConfig),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	s.userCache.Close()
	s.preferencesCache.Close()
	return s.driver.Close()
}

func (s *Store) CreateUser(ctx context.Context, create *CreateUser) (*User, error) {
	user, err := s.driver.CreateUser(ctx, create)
	if err != nil {
		return nil, err
	}
	s.userCache.Set(user.Phone, user)
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context, find *FindUser) ([]*User, error) {
	return s.driver.ListUsers(ctx, find)
}

// GetUser returns the first user matching find, or nil if none match.
func (s *Store) GetUser(ctx context.Context, find *FindUser) (*User, error) {
	if find.Phone != nil && find.ID == nil && find.UID == nil {
		if v, ok := s.userCache.Get(*find.Phone); ok {
			if user, ok := v.(*User); ok {
				return user, nil
			}
		}
	}
	limit := 1
	find.Limit = &limit
	users, err := s.driver.ListUsers(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	user := users[0]
	s.userCache.Set(user.Phone, user)
	return user, nil
}

func (s *Store) UpdateUser(ctx context.Context, update *UpdateUser) (*User, error) {
	user, err := s.driver.UpdateUser(ctx, update)
	if err != nil {
		return nil, err
	}
	s.userCache.Set(user.Phone, user)
	return user, nil
}

func (s *Store) GetUserStats(ctx context.Context) (*UserStats, error) {
	return s.driver.GetUserStats(ctx)
}

func (s *Store) CreateCheckIn(ctx context.Context, create *CreateCheckIn) (*CheckIn, error) {
	return s.driver.CreateCheckIn(ctx, create)
}

func (s *Store) ListCheckIns(ctx context.Context, find *FindCheckIn) ([]*CheckIn, error) {
	return s.driver.ListCheckIns(ctx, find)
}

func (s *Store) GetCheckInStats(ctx context.Context, sinceTs int64) (*CheckInStats, error) {
	return s.driver.GetCheckInStats(ctx, sinceTs)
}

func (s *Store) UpsertUserPreferences(ctx context.Context, upsert *UpsertUserPreferences) (*UserPreferences, error) {
	prefs, err := s.driver.UpsertUserPreferences(ctx, upsert)
	if err != nil {
		return nil, err
	}
	s.preferencesCache.Set(fmt.Sprintf("%d", prefs.UserID), prefs)
	return prefs, nil
}

func (s *Store) GetUserPreferences(ctx context.Context, find *FindUserPreferences) (*UserPreferences, error) {
	if find.UserID != nil {
		if v, ok := s.preferencesCache.Get(fmt.Sprintf("%d", *find.UserID)); ok {
			if prefs, ok := v.(*UserPreferences); ok {
				return prefs, nil
			}
		}
	}
	prefs, err := s.driver.GetUserPreferences(ctx, find)
	if err != nil {
		return nil, err
	}
	if prefs != nil {
		s.preferencesCache.Set(fmt.Sprintf("%d", prefs.UserID), prefs)
	}
	return prefs, nil
}

func (s *Store) CreateProactiveMessage(ctx context.Context, create *CreateProactiveMessage) (*ProactiveMessage, error) {
	return s.driver.CreateProactiveMessage(ctx, create)
}

func (s *Store) ListProactiveMessages(ctx context.Context, find *FindProactiveMessage) ([]*ProactiveMessage, error) {
	return s.driver.ListProactiveMessages(ctx, find)
}

func (s *Store) UpdateProactiveMessageStatus(ctx context.Context, update *UpdateProactiveMessageStatus) error {
	return s.driver.UpdateProactiveMessageStatus(ctx, update)
}

func (s *Store) CreateContent(ctx context.Context, create *CreateContent) (*Content, error) {
	return s.driver.CreateContent(ctx, create)
}

func (s *Store) ListContents(ctx context.Context, find *FindContent) ([]*Content, error) {
	return s.driver.ListContents(ctx, find)
}

func (s *Store) UpdateContent(ctx context.Context, update *UpdateContent) (*Content, error) {
	return s.driver.UpdateContent(ctx, update)
}

func (s *Store) DeleteContent(ctx context.Context, id int32) error {
	return s.driver.DeleteContent(ctx, id)
}

func (s *Store) UpsertMessageTemplate(ctx context.Context, upsert *UpsertMessageTemplate) (*MessageTemplate, error) {
	return s.driver.UpsertMessageTemplate(ctx, upsert)
}

func (s *Store) ListMessageTemplates(ctx context.Context, find *FindMessageTemplate) ([]*MessageTemplate, error) {
	return s.driver.ListMessageTemplates(ctx, find)
}

func (s *Store) DeleteMessageTemplate(ctx context.Context, id int32) error {
	return s.driver.DeleteMessageTemplate(ctx, id)
}

func (s *Store) CreateAnalyticsEvent(ctx context.Context, create *CreateAnalyticsEvent) (*AnalyticsEvent, error) {
	return s.driver.CreateAnalyticsEvent(ctx, create)
}

func (s *Store) ListAnalyticsEvents(ctx context.Context, find *FindAnalyticsEvent) ([]*AnalyticsEvent, error) {
	return s.driver.ListAnalyticsEvents(ctx, find)
}

func (s *Store) CreateConversationMessage(ctx context.Context, create *CreateConversationMessage) (*ConversationMessage, error) {
	return s.driver.CreateConversationMessage(ctx, create)
}

func (s *Store) ListConversationMessages(ctx context.Context, find *FindConversationMessage) ([]*ConversationMessage, error) {
	return s.driver.ListConversationMessages(ctx, find)
}
