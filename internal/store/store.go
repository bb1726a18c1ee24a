// Package store defines the record store contract shared by the transient
// and durable backends.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/BurairCodes/Expense-tracker/internal/core"
)

// Store persists records per collection. Implementations are safe for
// concurrent use; serializing mutations across a whole request is the
// caller's job.
type Store interface {
	// Insert applies defaults, validates and assigns a fresh id.
	Insert(ctx context.Context, kind core.Kind, in core.Input) (core.Record, error)
	// List returns every record of kind, including inactive scheduled charges.
	// Order is unspecified.
	List(ctx context.Context, kind core.Kind) ([]core.Record, error)
	Get(ctx context.Context, kind core.Kind, id string) (core.Record, error)
	// Update replaces the mutable fields of the record. ID and CreatedAt are kept.
	Update(ctx context.Context, kind core.Kind, id string, in core.Input) (core.Record, error)
	Delete(ctx context.Context, kind core.Kind, id string) error
	Ping(ctx context.Context) error
	Close() error
}

// Clock supplies the creation timestamp and the default record date.
type Clock func() time.Time

// NotFound wraps core.ErrNotFound with the collection and id.
func NotFound(kind core.Kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, core.ErrNotFound)
}

// CheckKind rejects unknown collections before touching storage.
func CheckKind(kind core.Kind) error {
	if !kind.IsValid() {
		return &core.ValidationError{Field: "kind", Err: core.ErrInvalidKind}
	}
	return nil
}
