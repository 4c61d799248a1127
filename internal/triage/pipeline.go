package triage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/rejectlabel/internal/instrumentation"
	"github.com/teemow/rejectlabel/internal/logging"
)

// State is the stage a run has reached.
type State string

const (
	StateStart           State = "start"
	StateAuthenticated   State = "authenticated"
	StateLabelResolved   State = "label_resolved"
	StateMessagesFound   State = "messages_found"
	StateMessagesLabeled State = "messages_labeled"
	StateDone            State = "done"
	StateFailed          State = "failed"
)

// Authenticator yields an HTTP client authorized for the mailbox.
type Authenticator interface {
	Client(ctx context.Context) (*http.Client, error)
}

// MailboxOpener builds a Mailbox on top of an authorized HTTP client.
type MailboxOpener func(ctx context.Context, httpClient *http.Client) (Mailbox, error)

// Options are the per-run parameters.
type Options struct {
	Label     string
	Query     string
	ChunkSize int
	// DryRun searches and counts without creating or modifying anything.
	DryRun bool
}

// Report summarizes a run. On failure it holds whatever was reached.
type Report struct {
	RunID        string        `json:"run_id"`
	Label        string        `json:"label"`
	LabelID      string        `json:"label_id,omitempty"`
	LabelCreated bool          `json:"label_created"`
	Found        int           `json:"found"`
	Labeled      int           `json:"labeled"`
	DryRun       bool          `json:"dry_run"`
	State        State         `json:"state"`
	Duration     time.Duration `json:"duration"`
}

// PipelineConfig holds the dependencies of a Pipeline.
type PipelineConfig struct {
	Authenticator Authenticator
	Open          MailboxOpener
	Logger        logging.Logger
	Reporter      Reporter
	Metrics       *instrumentation.Metrics
}

// Pipeline authenticates, resolves the label, searches and labels, in that
// order. Steps never run concurrently and nothing is retried.
type Pipeline struct {
	auth     Authenticator
	open     MailboxOpener
	logger   logging.Logger
	reporter Reporter
	metrics  *instrumentation.Metrics
	newRunID func() string
}

// NewPipeline creates a Pipeline. Logger and Reporter default to no-ops.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	p := &Pipeline{
		auth:     cfg.Authenticator,
		open:     cfg.Open,
		logger:   cfg.Logger,
		reporter: cfg.Reporter,
		metrics:  cfg.Metrics,
		newRunID: uuid.NewString,
	}
	if p.logger == nil {
		p.logger = logging.NewSlogAdapter(logging.Discard())
	}
	if p.reporter == nil {
		p.reporter = DiscardReporter
	}
	return p
}

// Open authenticates and returns the mailbox, for callers that only need
// read access such as a search preview.
func (p *Pipeline) Open(ctx context.Context) (Mailbox, error) {
	httpClient, err := p.auth.Client(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	mailbox, err := p.open(ctx, httpClient)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	return mailbox, nil
}

// Run executes one labeling run.
func (p *Pipeline) Run(ctx context.Context, opts Options) (report Report, err error) {
	report = Report{
		RunID:  p.newRunID(),
		Label:  opts.Label,
		DryRun: opts.DryRun,
		State:  StateStart,
	}
	start := time.Now()

	ctx, span := instrumentation.StartRunSpan(ctx, report.RunID, opts.Label)
	defer span.End()

	runAttr := logging.RunID(report.RunID)
	p.logger.Info("starting run", runAttr, logging.Label(opts.Label), logging.Query(opts.Query), "dry_run", opts.DryRun)

	defer func() {
		report.Duration = time.Since(start)
		status := instrumentation.StatusSuccess
		if err != nil {
			report.State = StateFailed
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
			p.logger.Error("run failed", runAttr, logging.Count(report.Labeled), logging.Err(err))
		} else {
			instrumentation.SetSpanSuccess(span)
			p.logger.Info("run complete", runAttr, "found", report.Found, "labeled", report.Labeled,
				logging.Status(logging.StatusSuccess), "duration", report.Duration)
		}
		p.metrics.RecordPipelineRun(ctx, status, report.Found, report.Labeled)
	}()

	mailbox, err := p.Open(ctx)
	if err != nil {
		return report, err
	}
	report.State = StateAuthenticated

	if err := p.resolve(ctx, mailbox, opts, &report); err != nil {
		return report, err
	}
	report.State = StateLabelResolved

	ids, err := Search(ctx, mailbox, opts.Query)
	if err != nil {
		return report, err
	}
	report.Found = len(ids)
	report.State = StateMessagesFound
	p.reporter.Reportf("Found %d messages matching the query.", len(ids))
	p.logger.Debug("search complete", runAttr, logging.Count(len(ids)))

	switch {
	case len(ids) == 0:
		p.reporter.Reportf("No messages to label.")
	case opts.DryRun:
		p.reporter.Reportf("Dry run: would label %d messages as '%s'.", len(ids), opts.Label)
	default:
		labeled, err := ApplyLabel(ctx, mailbox, ids, report.LabelID, opts.ChunkSize, func(index, size int) {
			p.reporter.Reportf("Labeled %d messages in this batch.", size)
			p.logger.Debug("chunk labeled", runAttr, logging.Chunk(index), logging.Count(size))
		})
		report.Labeled = labeled
		if err != nil {
			var applyErr *ApplyError
			if errors.As(err, &applyErr) {
				p.reporter.Reportf("Stopped at batch %d of %d; %d messages were labeled before the failure.",
					applyErr.Chunk, applyErr.Chunks, applyErr.Labeled)
			}
			return report, err
		}
	}
	report.State = StateMessagesLabeled

	if !opts.DryRun {
		p.reporter.Reportf("Done! All matching emails have been labeled as '%s'.", opts.Label)
	}
	report.State = StateDone
	return report, nil
}

func (p *Pipeline) resolve(ctx context.Context, mailbox Mailbox, opts Options, report *Report) error {
	if opts.DryRun {
		label, ok, err := FindLabel(ctx, mailbox, opts.Label)
		if err != nil {
			return err
		}
		if ok {
			report.LabelID = label.ID
			p.reporter.Reportf("Found existing label '%s' with ID: %s", opts.Label, label.ID)
		} else {
			p.reporter.Reportf("Label '%s' does not exist and would be created.", opts.Label)
		}
		return nil
	}

	id, created, err := ResolveLabel(ctx, mailbox, opts.Label)
	if err != nil {
		return err
	}
	report.LabelID = id
	report.LabelCreated = created
	if created {
		p.reporter.Reportf("Created label '%s' with ID: %s", opts.Label, id)
	} else {
		p.reporter.Reportf("Found existing label '%s' with ID: %s", opts.Label, id)
	}
	p.logger.Debug("label resolved", logging.RunID(report.RunID), logging.LabelID(id), "created", created)
	return nil
}
