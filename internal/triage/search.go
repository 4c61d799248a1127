package triage

import (
	"context"
	"fmt"
	"iter"
)

// Cursor walks the result pages of one search. It only moves forward:
// once exhausted, or after an error, it yields nothing more.
type Cursor struct {
	lister MessageLister
	query  string

	pageToken string
	done      bool
	// pending holds the unread rest of the page IDs last fetched.
	pending []string
}

// NewCursor prepares a search. No request is sent until the first Next.
func NewCursor(lister MessageLister, query string) *Cursor {
	return &Cursor{lister: lister, query: query}
}

// Done reports whether the last page has been fetched.
func (c *Cursor) Done() bool {
	return c.done
}

// Next fetches the next page of message ids. It returns nil, nil once the
// cursor is done.
func (c *Cursor) Next(ctx context.Context) ([]string, error) {
	if c.done {
		return nil, nil
	}

	page, err := c.lister.ListMessages(ctx, c.query, c.pageToken)
	if err != nil {
		c.done = true
		return nil, fmt.Errorf("%w: page after token %q: %w", ErrSearch, c.pageToken, err)
	}

	c.pageToken = page.NextPageToken
	if page.NextPageToken == "" {
		c.done = true
	}
	return page.IDs, nil
}

// IDs yields message ids in provider order, fetching pages as the caller
// asks for more. An error is yielded once with an empty id and ends the
// sequence. Ids of a page the caller stopped in are kept, so a later IDs
// call resumes with the next unread id. Mixing Next with IDs skips them.
func (c *Cursor) IDs(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			for len(c.pending) > 0 {
				id := c.pending[0]
				c.pending = c.pending[1:]
				if !yield(id, nil) {
					return
				}
			}
			if c.done {
				return
			}
			ids, err := c.Next(ctx)
			if err != nil {
				yield("", err)
				return
			}
			c.pending = ids
		}
	}
}

// Search collects every id matching query. A failed page discards
// everything gathered so far.
func Search(ctx context.Context, lister MessageLister, query string) ([]string, error) {
	var ids []string
	for id, err := range NewCursor(lister, query).IDs(ctx) {
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
