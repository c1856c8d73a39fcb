package extraction

import (
	"errors"
	"fmt"
)

// ErrCancelled marks a cancelled operation; wrapCancelled wraps an error
// with it. No Index method returns it: Index methods wrap the underlying
// error with %w, so a cancellation surfaces as the context's own error
// (context.Canceled) in the error chain.
var ErrCancelled = errors.New("extraction: operation cancelled")

// ErrNoStore is returned by New when no store.PageStore is supplied.
var ErrNoStore = errors.New("extraction: a store is required")

// ErrNoAIClient is returned by New when no ai.Client is supplied.
var ErrNoAIClient = errors.New("extraction: an ai client is required")

func wrapCancelled(err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%w: %s", ErrCancelled, err)
}
