package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/stridecoach/stride/store"
)

func (d *DB) CreateConversationMessage(ctx context.Context, create *store.CreateConversationMessage) (*store.ConversationMessage, error) {
	stmt := `
		INSERT INTO conversation_message (user_id, role, message, created_ts)
		VALUES (?, ?, ?, ?)
		RETURNING id, user_id, role, message, created_ts
	`
	message, err := scanConversationMessage(d.db.QueryRowContext(ctx, stmt,
		create.UserID,
		string(create.Role),
		create.Message,
		time.Now().Unix(),
	))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create conversation message")
	}
	return message, nil
}

func (d *DB) ListConversationMessages(ctx context.Context, find *store.FindConversationMessage) ([]*store.ConversationMessage, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
	}

	query := `SELECT id, user_id, role, message, created_ts
		FROM conversation_message
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC`

	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list conversation messages")
	}
	defer rows.Close()

	var messages []*store.ConversationMessage
	for rows.Next() {
		message, err := scanConversationMessage(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan conversation message")
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

func scanConversationMessage(row rowScanner) (*store.ConversationMessage, error) {
	var message store.ConversationMessage
	if err := row.Scan(
		&message.ID,
		&message.UserID,
		&message.Role,
		&message.Message,
		&message.CreatedTs,
	); err != nil {
		return nil, err
	}
	return &message, nil
}
