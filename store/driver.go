package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// User model.
	CreateUser(ctx context.Context, create *CreateUser) (*User, error)
	ListUsers(ctx context.Context, find *FindUser) ([]*User, error)
	UpdateUser(ctx context.Context, update *UpdateUser) (*User, error)
	GetUserStats(ctx context.Context) (*UserStats, error)

	// CheckIn model.
	CreateCheckIn(ctx context.Context, create *CreateCheckIn) (*CheckIn, error)
	ListCheckIns(ctx context.Context, find *FindCheckIn) ([]*CheckIn, error)
	GetCheckInStats(ctx context.Context, sinceTs int64) (*CheckInStats, error)

	// UserPreferences model.
	UpsertUserPreferences(ctx context.Context, upsert *UpsertUserPreferences) (*UserPreferences, error)
	GetUserPreferences(ctx context.Context, find *FindUserPreferences) (*UserPreferences, error)

	// ProactiveMessage model.
	CreateProactiveMessage(ctx context.Context, create *CreateProactiveMessage) (*ProactiveMessage, error)
	ListProactiveMessages(ctx context.Context, find *FindProactiveMessage) ([]*ProactiveMessage, error)
	UpdateProactiveMessageStatus(ctx context.Context, update *UpdateProactiveMessageStatus) error

	// Content model.
	CreateContent(ctx context.Context, create *CreateContent) (*Content, error)
	ListContents(ctx context.Context, find *FindContent) ([]*Content, error)
	UpdateContent(ctx context.Context, update *UpdateContent) (*Content, error)
	DeleteContent(ctx context.Context, id int32) error

	// MessageTemplate model.
	UpsertMessageTemplate(ctx context.Context, upsert *UpsertMessageTemplate) (*MessageTemplate, error)
	ListMessageTemplates(ctx context.Context, find *FindMessageTemplate) ([]*MessageTemplate, error)
	DeleteMessageTemplate(ctx context.Context, id int32) error

	// AnalyticsEvent model.
	CreateAnalyticsEvent(ctx context.Context, create *CreateAnalyticsEvent) (*AnalyticsEvent, error)
	ListAnalyticsEvents(ctx context.Context, find *FindAnalyticsEvent) ([]*AnalyticsEvent, error)

	// ConversationMessage model.
	CreateConversationMessage(ctx context.Context, create *CreateConversationMessage) (*ConversationMessage, error)
	ListConversationMessages(ctx context.Context, find *FindConversationMessage) ([]*ConversationMessage, error)
}
