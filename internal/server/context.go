package server

import (
	"context"
	"errors"
	"sync"

	"github.com/teemow/rejectlabel/internal/config"
	"github.com/teemow/rejectlabel/internal/instrumentation"
	"github.com/teemow/rejectlabel/internal/logging"
	"github.com/teemow/rejectlabel/internal/triage"
)

// Options configures a ServerContext.
type Options struct {
	Pipeline *triage.Pipeline
	Rules    config.Rules
	Metrics  *instrumentation.Metrics
	Logger   logging.Logger
}

// ServerContext holds the context for the MCP server
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	pipeline *triage.Pipeline
	rules    config.Rules
	query    string
	metrics  *instrumentation.Metrics
	logger   logging.Logger

	mu       sync.RWMutex
	shutdown bool
	runs     int
	lastRun  *triage.Report
}

// NewServerContext creates a new server context. The rules are validated
// up front so a bad rules file fails at startup rather than on first use.
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.Pipeline == nil {
		return nil, errors.New("pipeline is required")
	}
	if err := opts.Rules.Validate(); err != nil {
		return nil, err
	}
	query, err := opts.Rules.Query()
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewSlogAdapter(logging.Discard())
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		pipeline: opts.Pipeline,
		rules:    opts.Rules,
		query:    query,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Pipeline returns the labeling pipeline.
func (sc *ServerContext) Pipeline() *triage.Pipeline {
	return sc.pipeline
}

// Rules returns the rules the server was started with.
func (sc *ServerContext) Rules() config.Rules {
	return sc.rules
}

// Query returns the search query built from the rules.
func (sc *ServerContext) Query() string {
	return sc.query
}

// Metrics returns the metrics recorder. It may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() logging.Logger {
	return sc.logger
}

// RecordRun remembers the outcome of a labeling run.
func (sc *ServerContext) RecordRun(report triage.Report) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.runs++
	sc.lastRun = &report
}

// Runs returns how many runs were recorded and the most recent one.
func (sc *ServerContext) Runs() (int, *triage.Report) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	if sc.lastRun == nil {
		return sc.runs, nil
	}
	last := *sc.lastRun
	return sc.runs, &last
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context. Calling it twice is harmless.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
