// Package sink holds the persistence boundary: atomic bulk commits of
// ordered record batches.
package sink

import (
	"context"

	"github.com/pkg/errors"

	"github.com/huynhanx03/batch-ingestor/pkg/record"
)

// ErrPersistence wraps any commit failure. The store is left untouched
// when it is returned; the caller owns retry policy.
var ErrPersistence = errors.New("sink: persistence failure")

// Sink commits an ordered batch in one transaction: all records succeed
// or none do. It returns the number of records persisted and carries no
// retry logic of its own.
type Sink interface {
	Commit(ctx context.Context, batch []record.Record) (int, error)
}
