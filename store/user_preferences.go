package store

// UserPreferences holds per-user delivery preferences for the coaching
// bot. Every user gets a row with defaults at onboarding.
type UserPreferences struct {
	UserID int32
	// ReminderHour is the local hour of day (0-23) the user prefers for
	// the daily check-in reminder.
	ReminderHour int32
	// ReminderDays is a comma-separated list of weekday names the
	// reminder fires on; empty means every day.
	ReminderDays string
	Language     string
	Timezone     string
	CreatedTs    int64
	UpdatedTs    int64
}

// FindUserPreferences specifies the conditions for finding preferences.
type FindUserPreferences struct {
	UserID *int32
}

// UpsertUserPreferences specifies the data for upserting preferences.
type UpsertUserPreferences struct {
	UserID       int32
	ReminderHour int32
	ReminderDays string
	Language     string
	Timezone     string
}

// DefaultReminderHour is used when a user has no stored preference.
const DefaultReminderHour = 8
