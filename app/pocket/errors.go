package pocket

import (
	"errors"
	"fmt"
)

// ErrAuth marks bad or expired Pocket credentials. Fatal: callers stop the
// current stage run instead of retrying.
var ErrAuth = errors.New("pocket authentication failed")

// ErrTransient marks network and rate-limit failures. The whole call may be
// retried on the next run.
var ErrTransient = errors.New("transient pocket API error")

// UpdateError is a per-article tag publication failure. Non-fatal to the
// batch; the article stays eligible for the next publication run.
type UpdateError struct {
	ItemID string
	Err    error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("failed to update tags for item %s: %v", e.ItemID, e.Err)
}

func (e *UpdateError) Unwrap() error {
	return e.Err
}
