package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/stridecoach/stride/store"
)

func (d *DB) CreateContent(ctx context.Context, create *store.CreateContent) (*store.Content, error) {
	stmt := `
		INSERT INTO content (type, title, description, body, tags, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id, type, title, description, body, tags, is_active, created_ts, updated_ts
	`
	now := time.Now().Unix()
	content, err := scanContent(d.db.QueryRowContext(ctx, stmt,
		create.Type,
		create.Title,
		create.Description,
		create.Body,
		create.Tags,
		now,
		now,
	))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create content")
	}
	return content, nil
}

func (d *DB) ListContents(ctx context.Context, find *store.FindContent) ([]*store.Content, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.Type != nil {
		where, args = append(where, "type = ?"), append(args, *find.Type)
	}
	if find.IsActive != nil {
		where, args = append(where, "is_active = ?"), append(args, boolToInt(*find.IsActive))
	}

	query := `SELECT id, type, title, description, body, tags, is_active, created_ts, updated_ts
		FROM content
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
		return nil, errors.Wrap(err, "failed to list contents")
	}
	defer rows.Close()

	var contents []*store.Content
	for rows.Next() {
		content, err := scanContent(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan content")
		}
		contents = append(contents, content)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return contents, nil
}

func (d *DB) UpdateContent(ctx context.Context, update *store.UpdateContent) (*store.Content, error) {
	set, args := []string{"updated_ts = ?"}, []any{time.Now().Unix()}

	if update.Type != nil {
		set, args = append(set, "type = ?"), append(args, *update.Type)
	}
	if update.Title != nil {
		set, args = append(set, "title = ?"), append(args, *update.Title)
	}
	if update.Description != nil {
		set, args = append(set, "description = ?"), append(args, *update.Description)
	}
	if update.Body != nil {
		set, args = append(set, "body = ?"), append(args, *update.Body)
	}
	if update.Tags != nil {
		set, args = append(set, "tags = ?"), append(args, *update.Tags)
	}
	if update.IsActive != nil {
		set, args = append(set, "is_active = ?"), append(args, boolToInt(*update.IsActive))
	}
	args = append(args, update.ID)

	stmt := `UPDATE content SET ` + strings.Join(set, ", ") + ` WHERE id = ?
		RETURNING id, type, title, description, body, tags, is_active, created_ts, updated_ts`
	content, err := scanContent(d.db.QueryRowContext(ctx, stmt, args...))
	if err != nil {
		return nil, errors.Wrap(err, "failed to update content")
	}
	return content, nil
}

func (d *DB) DeleteContent(ctx context.Context, id int32) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM content WHERE id = ?", id); err != nil {
		return errors.Wrap(err, "failed to delete content")
	}
	return nil
}

func scanContent(row rowScanner) (*store.Content, error) {
	var content store.Content
	if err := row.Scan(
		&content.ID,
		&content.Type,
		&content.Title,
		&content.Description,
		&content.Body,
		&content.Tags,
		&content.IsActive,
		&content.CreatedTs,
		&content.UpdatedTs,
	); err != nil {
		return nil, err
	}
	return &content, nil
}

func (d *DB) UpsertMessageTemplate(ctx context.Context, upsert *store.UpsertMessageTemplate) (*store.MessageTemplate, error) {
	stmt := `
		INSERT INTO message_template (key, name, body, variables, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			name = EXCLUDED.name,
			body = EXCLUDED.body,
			variables = EXCLUDED.variables,
			updated_ts = EXCLUDED.updated_ts
		RETURNING id, key, name, body, variables, created_ts, updated_ts
	`
	now := time.Now().Unix()
	template, err := scanMessageTemplate(d.db.QueryRowContext(ctx, stmt,
		upsert.Key,
		upsert.Name,
		upsert.Body,
		upsert.Variables,
		now,
		now,
	))
	if err != nil {
		return nil, errors.Wrap(err, "failed to upsert message template")
	}
	return template, nil
}

func (d *DB) ListMessageTemplates(ctx context.Context, find *store.FindMessageTemplate) ([]*store.MessageTemplate, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.Key != nil {
		where, args = append(where, "key = ?"), append(args, *find.Key)
	}

	query := `SELECT id, key, name, body, variables, created_ts, updated_ts
		FROM message_template
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY key ASC`

	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list message templates")
	}
	defer rows.Close()

	var templates []*store.MessageTemplate
	for rows.Next() {
		template, err := scanMessageTemplate(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan message template")
		}
		templates = append(templates, template)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return templates, nil
}

func (d *DB) DeleteMessageTemplate(ctx context.Context, id int32) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM message_template WHERE id = ?", id); err != nil {
		return errors.Wrap(err, "failed to delete message template")
	}
	return nil
}

func scanMessageTemplate(row rowScanner) (*store.MessageTemplate, error) {
	var template store.MessageTemplate
	if err := row.Scan(
		&template.ID,
		&template.Key,
		&template.Name,
		&template.Body,
		&template.Variables,
		&template.CreatedTs,
		&template.UpdatedTs,
	); err != nil {
		return nil, err
	}
	return &template, nil
}
