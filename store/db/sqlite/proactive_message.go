package sqlite

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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
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
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = ?"), append(args, *find.UID)
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
	}
	if find.MessageType != nil {
		where, args = append(where, "message_type = ?"), append(args, string(*find.MessageType))
	}
	if find.DispatchID != nil {
		where, args = append(where, "dispatch_id = ?"), append(args, *find.DispatchID)
	}
	if find.SentTsAfter != nil {
		where, args = append(where, "sent_ts >= ?"), append(args, *find.SentTsAfter)
	}

	query := `SELECT id, uid, user_id, message_type, content, reason, context, status, dispatch_id, sent_ts
		FROM proactive_message
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY sent_ts DESC`

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
	stmt := `UPDATE proactive_message SET status = ? WHERE dispatch_id = ?`
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
