package store

import "context"

// DocumentStore is a key to JSON-document store. Load reports found=false
// for an absent key instead of an error; callers seed their default
// snapshot in that case. Save overwrites the whole document, there are no
// partial updates and no version tokens.
type DocumentStore interface {
	Load(ctx context.Context, key string, dest any) (bool, error)
	Save(ctx context.Context, key string, value any) error
}
