package store

// AnalyticsEvent is an append-only product event (check-in completed,
// onboarding finished, proactive send, ...) used by the backoffice
// analytics page.
type AnalyticsEvent struct {
	ID        int32
	EventType string
	UserID    *int32
	// Metadata is a JSON payload with event-specific fields.
	Metadata  string
	CreatedTs int64
}

// FindAnalyticsEvent specifies the conditions for finding events.
type FindAnalyticsEvent struct {
	EventType      *string
	UserID         *int32
	CreatedTsAfter *int64
	Limit          *int
	Offset         *int
}

// CreateAnalyticsEvent specifies the data for recording an event.
type CreateAnalyticsEvent struct {
	EventType string
	UserID    *int32
	Metadata  string
}
