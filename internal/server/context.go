package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/teemow/smartinbox/internal/inbox"
	"github.com/teemow/smartinbox/internal/instrumentation"
	"github.com/teemow/smartinbox/internal/session"
)

// Options configures a ServerContext.
type Options struct {
	// Inbox is required.
	Inbox *inbox.Inbox

	// Notifications is the queue the inbox reports to. Tool results drain it.
	Notifications *inbox.Queue

	// Auth is used to build sign-in URLs.
	Auth session.AuthConfig

	// Provider may be nil when instrumentation is not set up.
	Provider *instrumentation.Provider
}

// ServerContext holds the state shared by all MCP tool handlers
type ServerContext struct {
	ctx           context.Context
	cancel        context.CancelFunc
	inbox         *inbox.Inbox
	notifications *inbox.Queue
	auth          session.AuthConfig
	provider      *instrumentation.Provider
	mu            sync.RWMutex
	shutdown      bool
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.Inbox == nil {
		return nil, fmt.Errorf("inbox is required")
	}
	if opts.Notifications == nil {
		opts.Notifications = inbox.NewQueue()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:           shutdownCtx,
		cancel:        cancel,
		inbox:         opts.Inbox,
		notifications: opts.Notifications,
		auth:          opts.Auth,
		provider:      opts.Provider,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Inbox returns the inbox state shared by all tools.
func (sc *ServerContext) Inbox() *inbox.Inbox {
	return sc.inbox
}

// Notifications returns the queue of pending user notifications.
func (sc *ServerContext) Notifications() *inbox.Queue {
	return sc.notifications
}

// AuthConfig returns the OAuth client settings for sign-in URLs.
func (sc *ServerContext) AuthConfig() session.AuthConfig {
	return sc.auth
}

// Metrics returns the metrics recorder, or nil without a provider.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	if sc.provider == nil {
		return nil
	}
	return sc.provider.Metrics()
}

// AuditLogger returns the audit logger, or nil without a provider.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	if sc.provider == nil {
		return nil
	}
	return sc.provider.AuditLogger()
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
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
