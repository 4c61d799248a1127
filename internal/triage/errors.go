package triage

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthentication wraps failures to obtain an authorized mailbox.
	ErrAuthentication = errors.New("authentication failed")
	// ErrLabelLookup wraps failures to list or create the target label.
	ErrLabelLookup = errors.New("label lookup failed")
	// ErrSearch wraps failures to fetch a page of search results.
	ErrSearch = errors.New("message search failed")
	// ErrLabelApply wraps failures to add the label to messages.
	ErrLabelApply = errors.New("label apply failed")
)

// ApplyError reports a batch that failed part way through labeling.
// Chunks before the failed one stay labeled.
type ApplyError struct {
	// Chunk is the 1-based index of the failed chunk.
	Chunk  int
	Chunks int
	// Labeled counts the messages labeled by earlier chunks.
	Labeled int
	Err     error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("%v: chunk %d of %d failed after %d messages were labeled: %v",
		ErrLabelApply, e.Chunk, e.Chunks, e.Labeled, e.Err)
}

// Unwrap exposes both ErrLabelApply and the provider error.
func (e *ApplyError) Unwrap() []error {
	return []error{ErrLabelApply, e.Err}
}
