package store

// ProactiveMessageType is the category of an unsolicited outbound message.
type ProactiveMessageType string

const (
	ProactiveCheckInReminder     ProactiveMessageType = "checkin_reminder"
	ProactiveReactivation        ProactiveMessageType = "reactivation"
	ProactiveCelebration         ProactiveMessageType = "celebration"
	ProactiveProgressCelebration ProactiveMessageType = "progress_celebration"
	ProactiveStreakReminder      ProactiveMessageType = "streak_reminder"
	ProactiveWeeklySummary       ProactiveMessageType = "weekly_summary"
)

// IsValid checks if the message type is one of the known categories.
func (t ProactiveMessageType) IsValid() bool {
	switch t {
	case ProactiveCheckInReminder, ProactiveReactivation, ProactiveCelebration,
		ProactiveProgressCelebration, ProactiveStreakReminder, ProactiveWeeklySummary:
		return true
	default:
		return false
	}
}

// ProactiveMessageStatus tracks delivery of a proactive message.
// Transitions: sent -> delivered -> read. failed is terminal.
type ProactiveMessageStatus string

const (
	ProactiveStatusSent      ProactiveMessageStatus = "sent"
	ProactiveStatusDelivered ProactiveMessageStatus = "delivered"
	ProactiveStatusRead      ProactiveMessageStatus = "read"
	ProactiveStatusFailed    ProactiveMessageStatus = "failed"
)

// ProactiveMessage is the append-only audit record of one proactive
// send. Only the status field is ever mutated, driven by delivery
// callbacks from the chat channel.
type ProactiveMessage struct {
	ID          int32
	UID         string
	UserID      int32
	MessageType ProactiveMessageType
	Content     string
	Reason      string
	// Context is the serialized snapshot of the values that justified
	// the send (typed per message category at the service layer).
	Context string
	Status  ProactiveMessageStatus
	// DispatchID is the channel-side message identifier used to
	// correlate delivery-status callbacks.
	DispatchID string
	SentTs     int64
}

// FindProactiveMessage specifies the conditions for finding proactive
// messages. Results are ordered by sent_ts descending.
type FindProactiveMessage struct {
	ID          *int32
	UID         *string
	UserID      *int32
	MessageType *ProactiveMessageType
	DispatchID  *string
	// SentTsAfter filters messages sent at or after the given unix
	// timestamp; used for the one-per-day idempotency check.
	SentTsAfter *int64
	Limit       *int
	Offset      *int
}

// CreateProactiveMessage specifies the data for logging a proactive send.
type CreateProactiveMessage struct {
	UID         string
	UserID      int32
	MessageType ProactiveMessageType
	Content     string
	Reason      string
	Context     string
	Status      ProactiveMessageStatus
	DispatchID  string
}

// UpdateProactiveMessageStatus specifies a status transition keyed by
// the channel dispatch identifier.
type UpdateProactiveMessageStatus struct {
	DispatchID string
	Status     ProactiveMessageStatus
}
