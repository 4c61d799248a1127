package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/pflag"

	"github.com/teemow/rejectlabel/internal/config"
	"github.com/teemow/rejectlabel/internal/gmail"
	"github.com/teemow/rejectlabel/internal/google"
	"github.com/teemow/rejectlabel/internal/instrumentation"
	"github.com/teemow/rejectlabel/internal/triage"
)

// shutdownTimeout bounds flushing telemetry and stopping servers on exit.
const shutdownTimeout = 10 * time.Second

// authFlags are shared by every command that talks to Gmail.
type authFlags struct {
	credentials string
	token       string
	noBrowser   bool
	forceLogin  bool
}

func (f *authFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.credentials, "credentials", google.DefaultCredentialsFile, "Path to the OAuth client secrets file downloaded from Google Cloud")
	fs.StringVar(&f.token, "token", google.DefaultTokenFile, "Path to the stored OAuth token. Created on first login.")
	fs.BoolVar(&f.noBrowser, "no-browser", false, "Print the consent URL instead of opening a browser")
}

func (f *authFlags) authenticator(out io.Writer, logger *slog.Logger, metrics *instrumentation.Metrics) *google.Authenticator {
	return google.NewAuthenticator(google.AuthConfig{
		CredentialsPath: f.credentials,
		TokenPath:       f.token,
		NoBrowser:       f.noBrowser,
		ForceLogin:      f.forceLogin,
		Out:             out,
		Logger:          newLogAdapter(logger),
		Metrics:         metrics,
	})
}

// Replaced in tests.
var (
	labelAuthenticator = func(f *authFlags, out io.Writer, logger *slog.Logger, metrics *instrumentation.Metrics) triage.Authenticator {
		return f.authenticator(out, logger, metrics)
	}
	labelMailboxOpener = gmailOpener
)

// rulesFlags select and override the search rules.
type rulesFlags struct {
	rulesFile string
	label     string
	chunkSize int
}

func (f *rulesFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.rulesFile, "rules", "", "Optional YAML rules file (label, folder, chunk_size, phrases)")
	fs.StringVar(&f.label, "label", config.DefaultLabel, "Label to apply to matching messages")
	fs.IntVar(&f.chunkSize, "chunk-size", config.DefaultChunkSize, fmt.Sprintf("Messages per batch modify request (1-%d)", config.MaxChunkSize))
}

// resolve loads the rules file and lets flags set on the command line
// override it.
func (f *rulesFlags) resolve(fs *pflag.FlagSet) (config.Rules, error) {
	rules, err := config.Load(f.rulesFile)
	if err != nil {
		return config.Rules{}, err
	}
	if fs.Changed("label") {
		rules.Label = f.label
	}
	if fs.Changed("chunk-size") {
		rules.ChunkSize = f.chunkSize
	}
	if err := rules.Validate(); err != nil {
		return config.Rules{}, err
	}
	return rules, nil
}

// gmailOpener builds the Gmail adapter on top of an authorized client.
func gmailOpener(metrics *instrumentation.Metrics) triage.MailboxOpener {
	return func(ctx context.Context, httpClient *http.Client) (triage.Mailbox, error) {
		client, err := gmail.NewClient(ctx, httpClient, metrics)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// newInstrumentation starts the OpenTelemetry provider for a command.
func newInstrumentation(ctx context.Context, enabledByDefault bool) (*instrumentation.Provider, error) {
	instrConfig := instrumentation.DefaultConfig(enabledByDefault)
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	return provider, nil
}
