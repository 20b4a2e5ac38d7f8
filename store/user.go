package store

// RowStatus is the status of a row.
type RowStatus string

const (
	// Normal is the status for a normal row.
	Normal RowStatus = "NORMAL"
	// Archived is the status for an archived row.
	Archived RowStatus = "ARCHIVED"
)

func (s RowStatus) String() string {
	return string(s)
}

// User represents a coached individual, keyed by WhatsApp phone number.
type User struct {
	ID                 int32
	UID                string
	Phone              string
	Name               string
	Goal               string
	Restrictions       string
	CurrentStreak      int32
	LongestStreak      int32
	LastCheckInTs      *int64
	IsActive           bool
	IsPremium          bool
	OnboardingComplete bool
	RowStatus          RowStatus
	CreatedTs          int64
	UpdatedTs          int64
}

// FindUser specifies the conditions for finding users.
type FindUser struct {
	ID                 *int32
	UID                *string
	Phone              *string
	IsActive           *bool
	OnboardingComplete *bool
	// StreakIn filters users whose current streak is in the given set.
	StreakIn []int32
	// LastCheckInBefore filters users whose last check-in is strictly
	// before the given unix timestamp, including users who never
	// checked in.
	LastCheckInBefore *int64
	Limit             *int
	Offset            *int
}

// CreateUser specifies the data for creating a user.
type CreateUser struct {
	UID          string
	Phone        string
	Name         string
	Goal         string
	Restrictions string
}

// UpdateUser specifies the data for updating a user. Nil fields are
// left untouched.
type UpdateUser struct {
	ID                 int32
	Name               *string
	Goal               *string
	Restrictions       *string
	CurrentStreak      *int32
	LongestStreak      *int32
	LastCheckInTs      *int64
	IsActive           *bool
	IsPremium          *bool
	OnboardingComplete *bool
	RowStatus          *RowStatus
}

// UserStats is an aggregate over the user table for the backoffice.
type UserStats struct {
	Total              int64
	Active             int64
	Premium            int64
	OnboardingComplete int64
}
