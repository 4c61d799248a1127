package triage

import (
	"context"
	"fmt"
	"strings"

	"github.com/teemow/rejectlabel/internal/gmail"
)

// FindLabel looks name up case-insensitively without creating anything.
// The first match in provider order wins. ok is false when nothing matched.
func FindLabel(ctx context.Context, svc LabelService, name string) (label gmail.Label, ok bool, err error) {
	if strings.TrimSpace(name) == "" {
		return gmail.Label{}, false, fmt.Errorf("%w: label name is empty", ErrLabelLookup)
	}

	labels, err := svc.ListLabels(ctx)
	if err != nil {
		return gmail.Label{}, false, fmt.Errorf("%w: %w", ErrLabelLookup, err)
	}
	for _, l := range labels {
		if strings.EqualFold(l.Name, name) {
			return l, true, nil
		}
	}
	return gmail.Label{}, false, nil
}

// ResolveLabel returns the id of the label called name, creating the label
// when no case-insensitive match exists. Calling it again with the same
// name returns the same id and creates nothing.
func ResolveLabel(ctx context.Context, svc LabelService, name string) (id string, created bool, err error) {
	existing, ok, err := FindLabel(ctx, svc, name)
	if err != nil {
		return "", false, err
	}
	if ok {
		return existing.ID, false, nil
	}

	label, err := svc.CreateLabel(ctx, name)
	if err != nil {
		return "", false, fmt.Errorf("%w: %w", ErrLabelLookup, err)
	}
	return label.ID, true, nil
}
