package storage

import (
	"context"
	"time"
)

// Store is the database behind feed destinations.
type Store interface {
	Posts() PostStore
	Close(ctx context.Context) error
}

// PostEntry is one message published to a self-hosted feed destination.
type PostEntry struct {
	ID        int64
	Account   string
	Text      string
	CreatedAt time.Time
}

type PostStore interface {
	Append(ctx context.Context, account, text string) (PostEntry, error)
	// Recent returns at most limit posts for account, newest first.
	Recent(ctx context.Context, account string, limit int) ([]PostEntry, error)
	// Prune deletes posts of account older than age. The newest post is
	// always kept since it carries the account's checkpoint.
	Prune(ctx context.Context, account string, age time.Duration) (int64, error)
}
