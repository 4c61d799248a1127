package gmail

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/rejectlabel/internal/instrumentation"
)

// userID addresses the authenticated user.
const userID = "me"

// MaxBatchModifyIDs is the most message ids Gmail accepts per batchModify.
const MaxBatchModifyIDs = 1000

// Client wraps the Gmail Users service.
type Client struct {
	svc     *gmail.UsersService
	metrics *instrumentation.Metrics
}

// NewClient creates a Gmail client that sends requests through httpClient,
// which is expected to carry OAuth2 credentials. metrics may be nil.
// Extra options are appended, which tests use to point at a fake endpoint.
func NewClient(ctx context.Context, httpClient *http.Client, metrics *instrumentation.Metrics, opts ...option.ClientOption) (*Client, error) {
	clientOpts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := gmail.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &Client{svc: svc.Users, metrics: metrics}, nil
}

// ListLabels lists all labels of the mailbox, system labels included.
func (c *Client) ListLabels(ctx context.Context) ([]Label, error) {
	var labels []Label
	err := c.observe(ctx, "labels.list", func(ctx context.Context) error {
		resp, err := c.svc.Labels.List(userID).Context(ctx).Do()
		if err != nil {
			return err
		}
		labels = make([]Label, 0, len(resp.Labels))
		for _, l := range resp.Labels {
			labels = append(labels, Label{ID: l.Id, Name: l.Name, Type: l.Type})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	return labels, nil
}

// CreateLabel creates a user label that is shown in the label list and
// on messages.
func (c *Client) CreateLabel(ctx context.Context, name string) (Label, error) {
	var created Label
	err := c.observe(ctx, "labels.create", func(ctx context.Context) error {
		l, err := c.svc.Labels.Create(userID, &gmail.Label{
			Name:                  name,
			LabelListVisibility:   LabelListVisibilityShow,
			MessageListVisibility: MessageListVisibilityShow,
		}).Context(ctx).Do()
		if err != nil {
			return err
		}
		created = Label{ID: l.Id, Name: l.Name, Type: l.Type}
		return nil
	})
	if err != nil {
		return Label{}, fmt.Errorf("failed to create label %q: %w", name, err)
	}
	return created, nil
}

// ListMessages returns one page of message ids matching query.
// An empty pageToken requests the first page.
func (c *Client) ListMessages(ctx context.Context, query, pageToken string) (MessagePage, error) {
	var page MessagePage
	err := c.observe(ctx, "messages.list", func(ctx context.Context) error {
		req := c.svc.Messages.List(userID).Q(query).Context(ctx)
		if pageToken != "" {
			req.PageToken(pageToken)
		}
		res, err := req.Do()
		if err != nil {
			return err
		}
		page.IDs = make([]string, 0, len(res.Messages))
		for _, m := range res.Messages {
			page.IDs = append(page.IDs, m.Id)
		}
		page.NextPageToken = res.NextPageToken
		page.ResultSizeEstimate = res.ResultSizeEstimate
		return nil
	})
	if err != nil {
		return MessagePage{}, fmt.Errorf("failed to list messages: %w", err)
	}
	return page, nil
}

// BatchModify adds and removes labels on up to MaxBatchModifyIDs messages.
func (c *Client) BatchModify(ctx context.Context, ids, addLabelIDs, removeLabelIDs []string) error {
	if len(ids) > MaxBatchModifyIDs {
		return fmt.Errorf("batchModify accepts at most %d ids, got %d", MaxBatchModifyIDs, len(ids))
	}
	err := c.observe(ctx, "messages.batchModify", func(ctx context.Context) error {
		return c.svc.Messages.BatchModify(userID, &gmail.BatchModifyMessagesRequest{
			Ids:            ids,
			AddLabelIds:    addLabelIDs,
			RemoveLabelIds: removeLabelIDs,
		}).Context(ctx).Do()
	})
	if err != nil {
		return fmt.Errorf("failed to modify %d messages: %w", len(ids), err)
	}
	return nil
}

// Profile returns the email address of the authenticated user.
func (c *Client) Profile(ctx context.Context) (string, error) {
	var email string
	err := c.observe(ctx, "getProfile", func(ctx context.Context) error {
		p, err := c.svc.GetProfile(userID).Context(ctx).Do()
		if err != nil {
			return err
		}
		email = p.EmailAddress
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to get profile: %w", err)
	}
	return email, nil
}

// observe runs fn inside a client span and records its outcome.
func (c *Client) observe(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGmail, operation)
	defer span.End()

	start := time.Now()
	err := fn(ctx)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceGmail, operation, status, time.Since(start))
	return err
}
