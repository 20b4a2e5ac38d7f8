package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/stridecoach/stride/store"
)

func (d *DB) CreateUser(ctx context.Context, create *store.CreateUser) (*store.User, error) {
	stmt := `
		INSERT INTO "user" (uid, phone, name, goal, restrictions, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, uid, phone, name, goal, restrictions, current_streak, longest_streak,
			last_checkin_ts, is_active, is_premium, onboarding_complete, row_status, created_ts, updated_ts
	`
	now := time.Now().Unix()
	user, err := scanUser(d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.Phone,
		create.Name,
		create.Goal,
		create.Restrictions,
		now,
		now,
	))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create user")
	}
	return user, nil
}

func (d *DB) ListUsers(ctx context.Context, find *store.FindUser) ([]*store.User, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		args = append(args, *find.ID)
		where = append(where, "id = "+placeholder(len(args)))
	}
	if find.UID != nil {
		args = append(args, *find.UID)
		where = append(where, "uid = "+placeholder(len(args)))
	}
	if find.Phone != nil {
		args = append(args, *find.Phone)
		where = append(where, "phone = "+placeholder(len(args)))
	}
	if find.IsActive != nil {
		args = append(args, *find.IsActive)
		where = append(where, "is_active = "+placeholder(len(args)))
	}
	if find.OnboardingComplete != nil {
		args = append(args, *find.OnboardingComplete)
		where = append(where, "onboarding_complete = "+placeholder(len(args)))
	}
	if len(find.StreakIn) > 0 {
		placeholders := make([]string, len(find.StreakIn))
		for i, streak := range find.StreakIn {
			args = append(args, streak)
			placeholders[i] = placeholder(len(args))
		}
		where = append(where, fmt.Sprintf("current_streak IN (%s)", strings.Join(placeholders, ", ")))
	}
	if find.LastCheckInBefore != nil {
		args = append(args, *find.LastCheckInBefore)
		where = append(where, fmt.Sprintf("(last_checkin_ts IS NULL OR last_checkin_ts < %s)", placeholder(len(args))))
	}

	query := `SELECT id, uid, phone, name, goal, restrictions, current_streak, longest_streak,
			last_checkin_ts, is_active, is_premium, onboarding_complete, row_status, created_ts, updated_ts
		FROM "user"
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC`

	if find.Limit != nil {
		args = append(args, *find.Limit)
		query += " LIMIT " + placeholder(len(args))
	}
	if find.Offset != nil {
		args = append(args, *find.Offset)
		query += " OFFSET " + placeholder(len(args))
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}
	defer rows.Close()

	var users []*store.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan user")
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (d *DB) UpdateUser(ctx context.Context, update *store.UpdateUser) (*store.User, error) {
	set, args := []string{}, []any{}

	args = append(args, time.Now().Unix())
	set = append(set, "updated_ts = "+placeholder(len(args)))
	if update.Name != nil {
		args = append(args, *update.Name)
		set = append(set, "name = "+placeholder(len(args)))
	}
	if update.Goal != nil {
		args = append(args, *update.Goal)
		set = append(set, "goal = "+placeholder(len(args)))
	}
	if update.Restrictions != nil {
		args = append(args, *update.Restrictions)
		set = append(set, "restrictions = "+placeholder(len(args)))
	}
	if update.CurrentStreak != nil {
		args = append(args, *update.CurrentStreak)
		set = append(set, "current_streak = "+placeholder(len(args)))
	}
	if update.LongestStreak != nil {
		args = append(args, *update.LongestStreak)
		set = append(set, "longest_streak = "+placeholder(len(args)))
	}
	if update.LastCheckInTs != nil {
		args = append(args, *update.LastCheckInTs)
		set = append(set, "last_checkin_ts = "+placeholder(len(args)))
	}
	if update.IsActive != nil {
		args = append(args, *update.IsActive)
		set = append(set, "is_active = "+placeholder(len(args)))
	}
	if update.IsPremium != nil {
		args = append(args, *update.IsPremium)
		set = append(set, "is_premium = "+placeholder(len(args)))
	}
	if update.OnboardingComplete != nil {
		args = append(args, *update.OnboardingComplete)
		set = append(set, "onboarding_complete = "+placeholder(len(args)))
	}
	if update.RowStatus != nil {
		args = append(args, update.RowStatus.String())
		set = append(set, "row_status = "+placeholder(len(args)))
	}
	args = append(args, update.ID)

	stmt := `UPDATE "user" SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)) + `
		RETURNING id, uid, phone, name, goal, restrictions, current_streak, longest_streak,
			last_checkin_ts, is_active, is_premium, onboarding_complete, row_status, created_ts, updated_ts`
	user, err := scanUser(d.db.QueryRowContext(ctx, stmt, args...))
	if err != nil {
		return nil, errors.Wrap(err, "failed to update user")
	}
	return user, nil
}

func (d *DB) GetUserStats(ctx context.Context) (*store.UserStats, error) {
	stmt := `SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_active),
			COUNT(*) FILTER (WHERE is_premium),
			COUNT(*) FILTER (WHERE onboarding_complete)
		FROM "user"
		WHERE row_status = 'NORMAL'`
	var stats store.UserStats
	if err := d.db.QueryRowContext(ctx, stmt).Scan(
		&stats.Total,
		&stats.Active,
		&stats.Premium,
		&stats.OnboardingComplete,
	); err != nil {
		return nil, errors.Wrap(err, "failed to get user stats")
	}
	return &stats, nil
}

func scanUser(row rowScanner) (*store.User, error) {
	var user store.User
	var lastCheckInTs sql.NullInt64
	if err := row.Scan(
		&user.ID,
		&user.UID,
		&user.Phone,
		&user.Name,
		&user.Goal,
		&user.Restrictions,
		&user.CurrentStreak,
		&user.LongestStreak,
		&lastCheckInTs,
		&user.IsActive,
		&user.IsPremium,
		&user.OnboardingComplete,
		&user.RowStatus,
		&user.CreatedTs,
		&user.UpdatedTs,
	); err != nil {
		return nil, err
	}
	if lastCheckInTs.Valid {
		user.LastCheckInTs = &lastCheckInTs.Int64
	}
	return &user, nil
}
