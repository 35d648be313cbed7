package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/smartinbox/internal/inbox"
	"github.com/teemow/smartinbox/internal/mail"
)

func newInboxCmd() *cobra.Command {
	var (
		token     string
		query     string
		sentiment bool
	)

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "List one page of messages",
		Long: `List one page of messages matching a Gmail search query together with
their labels. With --sentiment every message is tagged Positive, Negative or
Neutral in a single completion request.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := accessToken(token, appConfig)
			if err != nil {
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
			in.Login(tok)

			if err := in.Search(ctx, query); err != nil {
				return fmt.Errorf("failed to load messages: %w", err)
			}
			if sentiment {
				if _, err := in.AnalyzeSentiment(ctx); err != nil {
					return fmt.Errorf("failed to analyze sentiment: %w", err)
				}
			}

			return printMessages(cmd.OutOrStdout(), in)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Gmail OAuth access token (default: SMARTINBOX_AUTH_ACCESS_TOKEN)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Gmail search query (default: inbox.default_query)")
	cmd.Flags().BoolVar(&sentiment, "sentiment", false, "Tag messages with their sentiment")

	return cmd
}

func printMessages(w io.Writer, in *inbox.Inbox) error {
	msgs := in.Messages()
	if _, err := fmt.Fprintf(w, "%d messages for %q\n", len(msgs), in.Query()); err != nil {
		return err
	}
	for _, m := range msgs {
		if _, err := fmt.Fprintln(w, formatMessageSummary(m, in.DisplayLabels(m))); err != nil {
			return err
		}
	}
	return nil
}

func formatMessageSummary(m *mail.Message, labels []mail.Label) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s  %s", m.ID, mail.SenderName(m.From), m.Subject)
	if len(labels) > 0 {
		names := make([]string, 0, len(labels))
		for _, l := range labels {
			names = append(names, l.Name)
		}
		fmt.Fprintf(&b, "  [%s]", strings.Join(names, ", "))
	}
	if m.Sentiment != "" {
		fmt.Fprintf(&b, "  (%s)", m.Sentiment)
	}
	return b.String()
}
