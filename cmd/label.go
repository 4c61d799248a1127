package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/rejectlabel/internal/triage"
)

func newLabelCmd() *cobra.Command {
	var (
		auth   authFlags
		rules  rulesFlags
		logs   logFlags
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "label",
		Short: "Label job rejection emails in the inbox",
		Long: `Search the inbox for job rejection phrases and apply a label to every match.

On first use a browser window opens for Google consent and the token is saved
to --token. The label is created if no label of that name exists (names are
compared case-insensitively). Messages stay in the inbox.

Use --rules to load a YAML file with custom phrases, folder, label and chunk
size. Flags given on the command line win over the file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLabel(cmd, &auth, &rules, &logs, dryRun)
		},
	}

	auth.register(cmd.Flags())
	rules.register(cmd.Flags())
	logs.register(cmd.Flags())
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Search and count only. No label is created and no message is modified.")

	return cmd
}

func runLabel(cmd *cobra.Command, auth *authFlags, rulesFlags *rulesFlags, logs *logFlags, dryRun bool) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rules, err := rulesFlags.resolve(cmd.Flags())
	if err != nil {
		return err
	}
	query, err := rules.Query()
	if err != nil {
		return err
	}

	logger := logs.logger(cmd.ErrOrStderr(), slog.LevelWarn)
	slog.SetDefault(logger)

	provider, err := newInstrumentation(ctx, false)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("instrumentation shutdown failed", "error", err)
		}
	}()
	metrics := provider.Metrics()

	pipeline := triage.NewPipeline(triage.PipelineConfig{
		Authenticator: labelAuthenticator(auth, cmd.OutOrStdout(), logger, metrics),
		Open:          labelMailboxOpener(metrics),
		Logger:        newLogAdapter(logger),
		Reporter:      triage.NewReporter(cmd.OutOrStdout()),
		Metrics:       metrics,
	})

	_, err = pipeline.Run(ctx, triage.Options{
		Label:     rules.Label,
		Query:     query,
		ChunkSize: rules.ChunkSize,
		DryRun:    dryRun,
	})
	return err
}
