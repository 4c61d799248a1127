package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/rejectlabel/internal/gmail"
	"github.com/teemow/rejectlabel/internal/triage"
)

func newLoginCmd() *cobra.Command {
	var (
		auth    authFlags
		logs    logFlags
		profile bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize Gmail access and store the token",
		Long: `Run the OAuth flow without labeling anything. A valid stored token is
reused and an expired one is refreshed. When there is no token, or Google
rejects the refresh because access was revoked, the browser consent flow
runs. Use --force to always start the consent flow, for example to switch
accounts. The token file is written with owner-only permissions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			logger := logs.logger(cmd.ErrOrStderr(), slog.LevelWarn)
			authenticator := auth.authenticator(cmd.OutOrStdout(), logger, nil)

			stored, err := authenticator.Login(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Token saved to %s\n", auth.token)
			fmt.Fprintf(out, "Scopes: %s\n", strings.Join(stored.Scopes, " "))
			if !stored.Expiry.IsZero() {
				fmt.Fprintf(out, "Expires: %s\n", stored.Expiry.Local().Format(time.RFC1123))
			}

			if !profile {
				return nil
			}
			return printProfile(ctx, cmd, authenticator)
		},
	}

	auth.register(cmd.Flags())
	logs.register(cmd.Flags())
	cmd.Flags().BoolVar(&auth.forceLogin, "force", false, "Ignore the stored token and run the browser consent flow")
	cmd.Flags().BoolVar(&profile, "profile", false, "Also print the address of the authorized mailbox")

	return cmd
}

func printProfile(ctx context.Context, cmd *cobra.Command, authenticator triage.Authenticator) error {
	httpClient, err := authenticator.Client(ctx)
	if err != nil {
		return err
	}
	client, err := gmail.NewClient(ctx, httpClient, nil)
	if err != nil {
		return err
	}
	email, err := client.Profile(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Mailbox: %s\n", email)
	return nil
}
