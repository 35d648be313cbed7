package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teemow/smartinbox/internal/completion"
	"github.com/teemow/smartinbox/internal/config"
	"github.com/teemow/smartinbox/internal/inbox"
	"github.com/teemow/smartinbox/internal/instrumentation"
	"github.com/teemow/smartinbox/internal/logging"
	"github.com/teemow/smartinbox/internal/mail"
	"github.com/teemow/smartinbox/internal/session"
)

// newInbox wires the Gmail transport, the completion client and the session
// into an Inbox. Without an API key the AI features are disabled.
func newInbox(ctx context.Context, cfg config.Config, notifier inbox.Notifier, metrics *instrumentation.Metrics) (*inbox.Inbox, error) {
	logger := slog.Default()

	var comp completion.Service
	if cfg.Completion.APIKey != "" {
		gen, err := completion.NewGenaiGenerator(ctx, cfg.Completion.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create completion client: %w", err)
		}
		comp = completion.NewClient(gen, completion.Options{
			Models: completion.Models{
				Summary:   cfg.Completion.SummaryModel,
				Draft:     cfg.Completion.DraftModel,
				Sentiment: cfg.Completion.SentimentModel,
			},
			Metrics: metrics,
			Logger:  logging.WithService(logger, "completion"),
		})
	} else {
		logger.Warn("completion.api_key is not set, summaries, drafts and sentiment are disabled")
	}

	return inbox.New(inbox.Options{
		NewMail: inbox.NewMailFactory(mail.Options{
			BaseURL: cfg.Gmail.BaseURL,
			UserID:  cfg.Gmail.UserID,
			Metrics: metrics,
			Logger:  logging.WithService(logger, instrumentation.ServiceGmail),
		}),
		Completion:   comp,
		Notifier:     notifier,
		Session:      session.New(metrics),
		PageSize:     cfg.Inbox.PageSize,
		DefaultQuery: cfg.Inbox.DefaultQuery,
		Metrics:      metrics,
		Logger:       logger,
	})
}

func authConfig(cfg config.Config) session.AuthConfig {
	return session.AuthConfig{
		ClientID:    cfg.Auth.ClientID,
		RedirectURI: cfg.Auth.RedirectURI,
	}
}

// accessToken returns the token given on the command line, falling back to
// SMARTINBOX_AUTH_ACCESS_TOKEN.
func accessToken(flag string, cfg config.Config) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if cfg.Auth.AccessToken != "" {
		return cfg.Auth.AccessToken, nil
	}
	return "", fmt.Errorf("no access token: pass --token or set %s_AUTH_ACCESS_TOKEN (run 'smartinbox auth-url' to obtain one)", config.EnvPrefix)
}
