package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/smartinbox/internal/completion"
	"github.com/teemow/smartinbox/internal/inbox"
)

func newSendCmd() *cobra.Command {
	var (
		token   string
		to      string
		subject string
		body    string
		intent  string
		tone    string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a plain-text email",
		Long: `Send a plain-text email. Instead of --body, --intent drafts the body with
the completion model in the given --tone (Professional, Casual, Direct or
Empathetic). Use --dry-run to print the draft without sending.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if body != "" && intent != "" {
				return fmt.Errorf("--body and --intent are mutually exclusive")
			}
			t, err := completion.ParseTone(tone)
			if err != nil {
				return err
			}

			tok, err := accessToken(token, appConfig)
			if err != nil && !dryRun {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			in, err := newInbox(ctx, appConfig, inbox.WriterNotifier{W: cmd.ErrOrStderr()}, nil)
			if err != nil {
				return err
			}

			if intent != "" {
				body, err = in.Draft(ctx, completion.DraftRequest{
					Intent:    intent,
					Tone:      t,
					Recipient: to,
					Subject:   subject,
				})
				if err != nil {
					return fmt.Errorf("failed to draft email: %w", err)
				}
			}

			if dryRun {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "To: %s\nSubject: %s\n\n%s\n", to, subject, body)
				return err
			}

			in.Login(tok)
			return in.Send(ctx, to, subject, body)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Gmail OAuth access token (default: SMARTINBOX_AUTH_ACCESS_TOKEN)")
	cmd.Flags().StringVar(&to, "to", "", "Recipient email address")
	cmd.Flags().StringVar(&subject, "subject", "", "Email subject")
	cmd.Flags().StringVar(&body, "body", "", "Email body")
	cmd.Flags().StringVar(&intent, "intent", "", "Draft the body from this intent")
	cmd.Flags().StringVar(&tone, "tone", "", "Tone of the drafted body (default: Professional)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the email instead of sending it")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}
