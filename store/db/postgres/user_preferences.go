package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/stridecoach/stride/store"
)

func (d *DB) UpsertUserPreferences(ctx context.Context, upsert *store.UpsertUserPreferences) (*store.UserPreferences, error) {
	stmt := `
		INSERT INTO user_preferences (user_id, reminder_hour, reminder_days, language, timezone, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			reminder_hour = EXCLUDED.reminder_hour,
			reminder_days = EXCLUDED.reminder_days,
			language = EXCLUDED.language,
			timezone = EXCLUDED.timezone,
			updated_ts = EXCLUDED.updated_ts
		RETURNING user_id, reminder_hour, reminder_days, language, timezone, created_ts, updated_ts
	`
	now := time.Now().Unix()
	preferences, err := scanUserPreferences(d.db.QueryRowContext(ctx, stmt,
		upsert.UserID,
		upsert.ReminderHour,
		upsert.ReminderDays,
		upsert.Language,
		upsert.Timezone,
		now,
		now,
	))
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert user preferences")
	}
	return preferences, nil
}

func (d *DB) GetUserPreferences(ctx context.Context, find *store.FindUserPreferences) (*store.UserPreferences, error) {
	if find.UserID == nil {
		return nil, errors.New("user id required")
	}

	stmt := `SELECT user_id, reminder_hour, reminder_days, language, timezone, created_ts, updated_ts
		FROM user_preferences
		WHERE user_id = $1`
	preferences, err := scanUserPreferences(d.db.QueryRowContext(ctx, stmt, *find.UserID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get user preferences")
	}
	return preferences, nil
}

func scanUserPreferences(row rowScanner) (*store.UserPreferences, error) {
	var preferences store.UserPreferences
	if err := row.Scan(
		&preferences.UserID,
		&preferences.ReminderHour,
		&preferences.ReminderDays,
		&preferences.Language,
		&preferences.Timezone,
		&preferences.CreatedTs,
		&preferences.UpdatedTs,
	); err != nil {
		return nil, err
	}
	return &preferences, nil
}
