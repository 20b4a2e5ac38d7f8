package store

// CheckIn represents one daily self-report. Immutable once created;
// the UNIQUE(user_id, checkin_date) constraint is the real guarantee
// that a user reports at most once per calendar day.
type CheckIn struct {
	ID           int32
	UserID       int32
	Sleep        int32
	Energy       int32
	Mood         string
	TrainedToday bool
	// Recommendation is a snapshot of the coaching reply generated for
	// this check-in, kept for the backoffice.
	Recommendation string
	// CheckinDate is the calendar date (YYYY-MM-DD, server local time)
	// the report belongs to.
	CheckinDate string
	CreatedTs   int64
}

// FindCheckIn specifies the conditions for finding check-ins.
// Results are always ordered by created_ts descending.
type FindCheckIn struct {
	ID     *int32
	UserID *int32
	// CreatedTsAfter filters check-ins created at or after the given
	// unix timestamp.
	CreatedTsAfter *int64
	// CheckinDate filters check-ins of one calendar day.
	CheckinDate *string
	Limit       *int
	Offset      *int
}

// CreateCheckIn specifies the data for creating a check-in.
type CreateCheckIn struct {
	UserID         int32
	Sleep          int32
	Energy         int32
	Mood           string
	TrainedToday   bool
	Recommendation string
	CheckinDate    string
}

// CheckInStats is an aggregate over the check-in table.
type CheckInStats struct {
	Total      int64
	TodayCount int64
}
