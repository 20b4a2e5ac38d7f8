package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/stridecoach/stride/store"
)

func (d *DB) CreateCheckIn(ctx context.Context, create *store.CreateCheckIn) (*store.CheckIn, error) {
	stmt := `
		INSERT INTO check_in (user_id, sleep, energy, mood, trained_today, recommendation, checkin_date, created_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, user_id, sleep, energy, mood, trained_today, recommendation, checkin_date, created_ts
	`
	checkIn, err := scanCheckIn(d.db.QueryRowContext(ctx, stmt,
		create.UserID,
		create.Sleep,
		create.Energy,
		create.Mood,
		boolToInt(create.TrainedToday),
		create.Recommendation,
		create.CheckinDate,
		time.Now().Unix(),
	))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create check-in")
	}
	return checkIn, nil
}

func (d *DB) ListCheckIns(ctx context.Context, find *store.FindCheckIn) ([]*store.CheckIn, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
	}
	if find.CreatedTsAfter != nil {
		where, args = append(where, "created_ts >= ?"), append(args, *find.CreatedTsAfter)
	}
	if find.CheckinDate != nil {
		where, args = append(where, "checkin_date = ?"), append(args, *find.CheckinDate)
	}

	query := `SELECT id, user_id, sleep, energy, mood, trained_today, recommendation, checkin_date, created_ts
		FROM check_in
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
		return nil, errors.Wrap(err, "failed to list check-ins")
	}
	defer rows.Close()

	var checkIns []*store.CheckIn
	for rows.Next() {
		checkIn, err := scanCheckIn(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan check-in")
		}
		checkIns = append(checkIns, checkIn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return checkIns, nil
}

func (d *DB) GetCheckInStats(ctx context.Context, sinceTs int64) (*store.CheckInStats, error) {
	stmt := `SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN created_ts >= ? THEN 1 ELSE 0 END), 0)
		FROM check_in`
	var stats store.CheckInStats
	if err := d.db.QueryRowContext(ctx, stmt, sinceTs).Scan(&stats.Total, &stats.TodayCount); err != nil {
		return nil, errors.Wrap(err, "failed to get check-in stats")
	}
	return &stats, nil
}

func scanCheckIn(row rowScanner) (*store.CheckIn, error) {
	var checkIn store.CheckIn
	if err := row.Scan(
		&checkIn.ID,
		&checkIn.UserID,
		&checkIn.Sleep,
		&checkIn.Energy,
		&checkIn.Mood,
		&checkIn.TrainedToday,
		&checkIn.Recommendation,
		&checkIn.CheckinDate,
		&checkIn.CreatedTs,
	); err != nil {
		return nil, err
	}
	return &checkIn, nil
}
