package store

// ConversationRole identifies the author of a conversation message.
type ConversationRole string

const (
	ConversationRoleUser      ConversationRole = "user"
	ConversationRoleAssistant ConversationRole = "assistant"
)

// ConversationMessage is one logged exchange line between a user and
// the coach. Recent messages feed the LLM prompt history.
type ConversationMessage struct {
	ID        int32
	UserID    int32
	Role      ConversationRole
	Message   string
	CreatedTs int64
}

// FindConversationMessage specifies the conditions for finding
// conversation messages. Results are ordered by created_ts descending.
type FindConversationMessage struct {
	UserID *int32
	Limit  *int
}

// CreateConversationMessage specifies the data for logging a message.
type CreateConversationMessage struct {
	UserID  int32
	Role    ConversationRole
	Message string
}
