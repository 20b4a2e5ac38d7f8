package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/stridecoach/stride/store"
)

func (d *DB) CreateAnalyticsEvent(ctx context.Context, create *store.CreateAnalyticsEvent) (*store.AnalyticsEvent, error) {
	stmt := `
		INSERT INTO analytics_event (event_type, user_id, metadata, created_ts)
		VALUES ($1, $2, $3, $4)
		RETURNING id, event_type, user_id, metadata, created_ts
	`
	var userID any
	if create.UserID != nil {
		userID = *create.UserID
	}
	event, err := scanAnalyticsEvent(d.db.QueryRowContext(ctx, stmt,
		create.EventType,
		userID,
		create.Metadata,
		time.Now().Unix(),
	))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create analytics event")
	}
	return event, nil
}

func (d *DB) ListAnalyticsEvents(ctx context.Context, find *store.FindAnalyticsEvent) ([]*store.AnalyticsEvent, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.EventType != nil {
		args = append(args, *find.EventType)
		where = append(where, "event_type = "+placeholder(len(args)))
	}
	if find.UserID != nil {
		args = append(args, *find.UserID)
		where = append(where, "user_id = "+placeholder(len(args)))
	}
	if find.CreatedTsAfter != nil {
		args = append(args, *find.CreatedTsAfter)
		where = append(where, "created_ts >= "+placeholder(len(args)))
	}

	query := `SELECT id, event_type, user_id, metadata, created_ts
		FROM analytics_event
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
		return nil, errors.Wrap(err, "failed to list analytics events")
	}
	defer rows.Close()

	var events []*store.AnalyticsEvent
	for rows.Next() {
		event, err := scanAnalyticsEvent(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan analytics event")
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func scanAnalyticsEvent(row rowScanner) (*store.AnalyticsEvent, error) {
	var event store.AnalyticsEvent
	var userID sql.NullInt32
	if err := row.Scan(
		&event.ID,
		&event.EventType,
		&userID,
		&event.Metadata,
		&event.CreatedTs,
	); err != nil {
		return nil, err
	}
	if userID.Valid {
		event.UserID = &userID.Int32
	}
	return &event, nil
}
