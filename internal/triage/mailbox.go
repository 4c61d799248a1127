package triage

import (
	"context"

	"github.com/teemow/rejectlabel/internal/gmail"
)

// LabelService lists and creates mailbox labels.
type LabelService interface {
	ListLabels(ctx context.Context) ([]gmail.Label, error)
	CreateLabel(ctx context.Context, name string) (gmail.Label, error)
}

// MessageLister returns one page of message ids for a search query.
type MessageLister interface {
	ListMessages(ctx context.Context, query, pageToken string) (gmail.MessagePage, error)
}

// MessageModifier changes labels on a batch of messages.
type MessageModifier interface {
	BatchModify(ctx context.Context, ids, addLabelIDs, removeLabelIDs []string) error
}

// Mailbox is everything a run needs from the mail provider.
type Mailbox interface {
	LabelService
	MessageLister
	MessageModifier
}

var _ Mailbox = (*gmail.Client)(nil)
