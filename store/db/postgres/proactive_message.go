package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/stridecoach/stride/store"
)

func (d *DB) CreateProactiveMessage(ctx context.Context, create *store.CreateProactiveMessage) (*store.ProactiveMessage, error) {
	stmt := `
		INSERT INTO proactive_message (uid, user_id, message_type, content, reason, context, status, dispatch_id, sent_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, uid, user_id, message_type, content, reason, context, status, dispatch_id, sent_ts
	`
	message, err := scanProactiveMessage(d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.UserID,
		string(create.MessageType),
		create.Content,
		create.Reason,
		create.Context,
		string(create.Status),
		create.DispatchID,
		time.Now().Unix(),
	))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create proactive message")
	}
	return message, nil
}

func (d *DB) ListProactiveMessages(ctx context.Context, find *store.FindProactiveMessage) ([]*store.ProactiveMessage, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		args = append(args, *find.ID)
		where = append(where, "id = "+placeholder(len(args)))
	}
	if find.UID != nil {
		args = append(args, *find.UID)
		where = append(where, "uid = "+placeholder(len(args)))
	}
	if find.UserID != nil {
		args = append(args, *find.UserID)
		where = append(where, "user_id = "+placeholder(len(args)))
	}
	if find.MessageType != nil {
		args = append(args, string(*find.MessageType))
		where = append(where, "message_type = "+placeholder(len(args)))
	}
	if find.DispatchID != nil {
		args = append(args, *find.DispatchID)
		where = append(where, "dispatch_id = "+placeholder(len(args)))
	}
	if find.SentTsAfter != nil {
		args = append(args, *find.SentTsAfter)
		where = append(where, "sent_ts >= "+placeholder(len(args)))
	}

	query := `SELECT id, uid, user_id, message_type, content, reason, context, status, dispatch_id, sent_ts
		FROM proactive_message
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY sent_ts DESC`

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
		return nil, errors.Wrap(err, "failed to list proactive messages")
	}
	defer rows.Close()

	var messages []*store.ProactiveMessage
	for rows.Next() {
		message, err := scanProactiveMessage(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan proactive message")
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

func (d *DB) UpdateProactiveMessageStatus(ctx context.Context, update *store.UpdateProactiveMessageStatus) error {
	stmt := `UPDATE proactive_message SET status = $1 WHERE dispatch_id = $2`
	if _, err := d.db.ExecContext(ctx, stmt, string(update.Status), update.DispatchID); err != nil {
		return errors.Wrap(err, "failed to update proactive message status")
	}
	return nil
}

func scanProactiveMessage(row rowScanner) (*store.ProactiveMessage, error) {
	var message store.ProactiveMessage
	if err := row.Scan(
		&message.ID,
		&message.UID,
		&message.UserID,
		&message.MessageType,
		&message.Content,
		&message.Reason,
		&message.Context,
		&message.Status,
		&message.DispatchID,
		&message.SentTs,
	); err != nil {
		return nil, err
	}
	return &message, nil
}
