package store

// Content is an editorial piece (exercise, nutrition tip, article)
// managed from the backoffice and surfaced to users by the coach.
type Content struct {
	ID          int32
	Type        string
	Title       string
	Description string
	Body        string
	// Tags is a comma-separated tag list.
	Tags      string
	IsActive  bool
	CreatedTs int64
	UpdatedTs int64
}

// FindContent specifies the conditions for finding content.
type FindContent struct {
	ID       *int32
	Type     *string
	IsActive *bool
	Limit    *int
	Offset   *int
}

// CreateContent specifies the data for creating content.
type CreateContent struct {
	Type        string
	Title       string
	Description string
	Body        string
	Tags        string
}

// UpdateContent specifies the data for updating content.
type UpdateContent struct {
	ID          int32
	Type        *string
	Title       *string
	Description *string
	Body        *string
	Tags        *string
	IsActive    *bool
}

// MessageTemplate is a reusable outbound message with {{variable}}
// placeholders, editable from the backoffice.
type MessageTemplate struct {
	ID        int32
	Key       string
	Name      string
	Body      string
	Variables string
	CreatedTs int64
	UpdatedTs int64
}

// FindMessageTemplate specifies the conditions for finding templates.
type FindMessageTemplate struct {
	ID    *int32
	Key   *string
	Limit *int
}

// UpsertMessageTemplate specifies the data for upserting a template,
// keyed by the template key.
type UpsertMessageTemplate struct {
	Key       string
	Name      string
	Body      string
	Variables string
}
