package sqlite

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
		VALUES (?, ?, ?, ?, ?, ?, ?)
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
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = ?"), append(args, *find.UID)
	}
	if find.Phone != nil {
		where, args = append(where, "phone = ?"), append(args, *find.Phone)
	}
	if find.IsActive != nil {
		where, args = append(where, "is_active = ?"), append(args, boolToInt(*find.IsActive))
	}
	if find.OnboardingComplete != nil {
		where, args = append(where, "onboarding_complete = ?"), append(args, boolToInt(*find.OnboardingComplete))
	}
	if len(find.StreakIn) > 0 {
		placeholders := make([]string, len(find.StreakIn))
		for i, streak := range find.StreakIn {
			placeholders[i] = "?"
			args = append(args, streak)
		}
		where = append(where, fmt.Sprintf("current_streak IN (%s)", strings.Join(placeholders, ", ")))
	}
	if find.LastCheckInBefore != nil {
		where, args = append(where, "(last_checkin_ts IS NULL OR last_checkin_ts < ?)"), append(args, *find.LastCheckInBefore)
	}

	query := `SELECT id, uid, phone, name, goal, restrictions, current_streak, longest_streak,
			last_checkin_ts, is_active, is_premium, onboarding_complete, row_status, created_ts, updated_ts
		FROM "user"
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC`

	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
	}
	if find.Offset != nil {
		query += " OFFSET ?"
		args = append(args, *find.Offset)
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
	set, args := []string{"updated_ts = ?"}, []any{time.Now().Unix()}

	if update.Name != nil {
		set, args = append(set, "name = ?"), append(args, *update.Name)
	}
	if update.Goal != nil {
		set, args = append(set, "goal = ?"), append(args, *update.Goal)
	}
	if update.Restrictions != nil {
		set, args = append(set, "restrictions = ?"), append(args, *update.Restrictions)
	}
	if update.CurrentStreak != nil {
		set, args = append(set, "current_streak = ?"), append(args, *update.CurrentStreak)
	}
	if update.LongestStreak != nil {
		set, args = append(set, "longest_streak = ?"), append(args, *update.LongestStreak)
	}
	if update.LastCheckInTs != nil {
		set, args = append(set, "last_checkin_ts = ?"), append(args, *update.LastCheckInTs)
	}
	if update.IsActive != nil {
		set, args = append(set, "is_active = ?"), append(args, boolToInt(*update.IsActive))
	}
	if update.IsPremium != nil {
		set, args = append(set, "is_premium = ?"), append(args, boolToInt(*update.IsPremium))
	}
	if update.OnboardingComplete != nil {
		set, args = append(set, "onboarding_complete = ?"), append(args, boolToInt(*update.OnboardingComplete))
	}
	if update.RowStatus != nil {
		set, args = append(set, "row_status = ?"), append(args, update.RowStatus.String())
	}
	args = append(args, update.ID)

	stmt := `UPDATE "user" SET ` + strings.Join(set, ", ") + ` WHERE id = ?
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
			COALESCE(SUM(is_active), 0),
			COALESCE(SUM(is_premium), 0),
			COALESCE(SUM(onboarding_complete), 0)
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

type rowScanner interface {
	Scan(dest ...any) error
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

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
