package triage

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/teemow/rejectlabel/internal/gmail"
)

// fakeMailbox is an in-memory Mailbox that records every call.
type fakeMailbox struct {
	labels []gmail.Label
	// pages maps a page token to the page it returns. "" is the first page.
	pages map[string]gmail.MessagePage

	listLabelsErr error
	createErr     error
	// listErrToken fails the page request carrying this token.
	listErrToken *string
	// modifyErrCall fails the n-th BatchModify call (1-based). Zero never fails.
	modifyErrCall int

	listLabelCalls int
	created        []string
	pageTokens     []string
	queries        []string
	modified       []modifyCall
}

type modifyCall struct {
	ids    []string
	add    []string
	remove []string
}

func (f *fakeMailbox) ListLabels(context.Context) ([]gmail.Label, error) {
	f.listLabelCalls++
	if f.listLabelsErr != nil {
		return nil, f.listLabelsErr
	}
	return slices.Clone(f.labels), nil
}

func (f *fakeMailbox) CreateLabel(_ context.Context, name string) (gmail.Label, error) {
	if f.createErr != nil {
		return gmail.Label{}, f.createErr
	}
	f.created = append(f.created, name)
	l := gmail.Label{ID: fmt.Sprintf("Label_%d", len(f.labels)+1), Name: name, Type: "user"}
	f.labels = append(f.labels, l)
	return l, nil
}

func (f *fakeMailbox) ListMessages(_ context.Context, query, pageToken string) (gmail.MessagePage, error) {
	f.queries = append(f.queries, query)
	f.pageTokens = append(f.pageTokens, pageToken)
	if f.listErrToken != nil && *f.listErrToken == pageToken {
		return gmail.MessagePage{}, fmt.Errorf("backend error")
	}
	page, ok := f.pages[pageToken]
	if !ok {
		return gmail.MessagePage{}, fmt.Errorf("unknown page token %q", pageToken)
	}
	return page, nil
}

func (f *fakeMailbox) BatchModify(_ context.Context, ids, add, remove []string) error {
	if f.modifyErrCall != 0 && len(f.modified)+1 == f.modifyErrCall {
		return fmt.Errorf("quota exceeded")
	}
	f.modified = append(f.modified, modifyCall{ids: slices.Clone(ids), add: slices.Clone(add), remove: slices.Clone(remove)})
	return nil
}

// pagesOf splits ids into linked pages of the given sizes.
func pagesOf(ids []string, sizes ...int) map[string]gmail.MessagePage {
	pages := make(map[string]gmail.MessagePage)
	token := ""
	offset := 0
	for i, n := range sizes {
		next := ""
		if i < len(sizes)-1 {
			next = fmt.Sprintf("page-%d", i+2)
		}
		pages[token] = gmail.MessagePage{IDs: ids[offset : offset+n], NextPageToken: next}
		offset += n
		token = next
	}
	return pages
}

func makeIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("msg-%04d", i)
	}
	return ids
}

type fakeAuth struct {
	err   error
	calls int
}

func (a *fakeAuth) Client(context.Context) (*http.Client, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return &http.Client{}, nil
}

func openerFor(m Mailbox) MailboxOpener {
	return func(context.Context, *http.Client) (Mailbox, error) { return m, nil }
}

func ptr[T any](v T) *T { return &v }
