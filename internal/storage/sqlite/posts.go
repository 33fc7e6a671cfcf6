package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"starbot/internal/storage"
)

type postStore struct {
	db *sql.DB
}

func newPostStore(db *sql.DB) storage.PostStore {
	return &postStore{db: db}
}

func (s *postStore) Append(ctx context.Context, account, text string) (storage.PostEntry, error) {
	entry := storage.PostEntry{
		Account:   account,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (account, text, created_at) VALUES (?, ?, ?)`,
		entry.Account, entry.Text, entry.CreatedAt,
	)
	if err != nil {
		return storage.PostEntry{}, fmt.Errorf("failed to insert post: %w", err)
	}

	entry.ID, err = result.LastInsertId()
	if err != nil {
		return storage.PostEntry{}, fmt.Errorf("failed to read post id: %w", err)
	}

	return entry, nil
}

func (s *postStore) Recent(ctx context.Context, account string, limit int) ([]storage.PostEntry, error) {
	query := `
		SELECT id, account, text, created_at
		FROM posts
		WHERE account = ?
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, account, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	entries := make([]storage.PostEntry, 0, limit)
	for rows.Next() {
		var entry storage.PostEntry
		if err := rows.Scan(&entry.ID, &entry.Account, &entry.Text, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return entries, nil
}

func (s *postStore) Prune(ctx context.Context, account string, age time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-age)

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM posts
		WHERE account = ?
		  AND created_at < ?
		  AND id < (SELECT MAX(id) FROM posts WHERE account = ?)
	`, account, cutoff, account)
	if err != nil {
		return 0, fmt.Errorf("failed to prune posts: %w", err)
	}

	return result.RowsAffected()
}
