package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by KV.Get for a missing key.
var ErrNotFound = errors.New("key not found")

// Item is a single key/value pair.
type Item struct {
	Key   string
	Value string
}

// Page is one bounded slice of a prefix listing. An empty Next means the
// listing is exhausted.
type Page struct {
	Items []Item
	Next  string
}

// KV is the durable string mapping records live in.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	// Delete removes key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns up to limit items whose key starts with prefix, resuming
	// from cursor ("" starts from the beginning).
	List(ctx context.Context, prefix, cursor string, limit int) (Page, error)
	Close() error
}
