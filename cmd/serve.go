package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/smartinbox/internal/inbox"
	"github.com/teemow/smartinbox/internal/instrumentation"
	"github.com/teemow/smartinbox/internal/logging"
	"github.com/teemow/smartinbox/internal/resources"
	"github.com/teemow/smartinbox/internal/server"
	"github.com/teemow/smartinbox/internal/tools/inbox_tools"
)

// MetricsConfig selects whether serve also exposes /metrics and the health
// endpoints, and where.
type MetricsConfig struct {
	Enabled bool
	Addr    string
}

func newServeCmd() *cobra.Command {
	var (
		yolo           bool
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server over stdio to provide inbox
tools for AI assistants.

Safety Mode:
  By default, the server operates in read-only mode: messages can be listed,
  opened, summarized and drafted, but nothing is changed in the mailbox.
  Use --yolo to enable label changes, filters and sending.

Authentication:
  Call the inbox_auth_url tool (or run 'smartinbox auth-url') and hand the
  redirect URL to inbox_login. Alternatively set SMARTINBOX_AUTH_ACCESS_TOKEN
  to start with a session.

Metrics:
  --metrics serves Prometheus metrics and health endpoints on --metrics-addr.
  Can also use METRICS_ENABLED=true and METRICS_ADDR.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			metricsConfig := MetricsConfig{
				Enabled: metricsEnabled,
				Addr:    metricsAddr,
			}
			return runServe(yolo, metricsConfig)
		},
	}

	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable write operations (label changes, filters, sending). Default is read-only mode.")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics", false, "Serve Prometheus metrics and health endpoints. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(yolo bool, metricsConfig MetricsConfig) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Flags win over METRICS_ENABLED / METRICS_ADDR.
	if !metricsConfig.Enabled && os.Getenv("METRICS_ENABLED") == "true" {
		metricsConfig.Enabled = true
	}
	if metricsConfig.Addr == "" || metricsConfig.Addr == server.DefaultMetricsAddr {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			metricsConfig.Addr = addr
		}
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			slog.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	var metrics *instrumentation.Metrics
	if provider.Enabled() {
		metrics = provider.Metrics()
	}

	queue := inbox.NewQueue()
	in, err := newInbox(shutdownCtx, appConfig, queue, metrics)
	if err != nil {
		return err
	}

	serverContext, err := server.NewServerContext(shutdownCtx, server.Options{
		Inbox:         in,
		Notifications: queue,
		Auth:          authConfig(appConfig),
		Provider:      provider,
	})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			slog.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	// Start with a session when a token is configured
	if token := appConfig.Auth.AccessToken; token != "" {
		in.Login(token)
		if err := in.Load(shutdownCtx, ""); err != nil {
			slog.Warn("initial inbox load failed, waiting for inbox_login", logging.Err(err))
		}
	}

	if metricsConfig.Enabled && provider.Enabled() {
		metricsServer, err := startMetricsServer(metricsConfig, provider, serverContext)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				slog.Warn("error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	// Create MCP server
	mcpSrv := mcpserver.NewMCPServer("smartinbox", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)

	// readOnly is the inverse of yolo
	readOnly := !yolo
	if readOnly {
		slog.Info("starting server in read-only mode (use --yolo to enable write operations)")
	} else {
		slog.Info("starting server with write operations enabled")
	}

	if err := registerAllTools(mcpSrv, serverContext, readOnly); err != nil {
		return err
	}

	return runStdioServer(shutdownCtx, mcpSrv)
}

// startMetricsServer binds the metrics address synchronously and serves in
// the background.
func startMetricsServer(cfg MetricsConfig, provider *instrumentation.Provider, sc *server.ServerContext) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    cfg.Addr,
		Enabled:                 true,
		InstrumentationProvider: provider,
		Health:                  server.NewHealthChecker(sc),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}
	if err := metricsServer.Listen(); err != nil {
		return nil, err
	}

	go func() {
		if err := metricsServer.Serve(); err != nil {
			slog.Error("metrics server stopped", logging.Err(err))
		}
	}()
	return metricsServer, nil
}

// runStdioServer serves MCP over stdin/stdout until ctx is cancelled or the
// client closes the stream.
func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer) error {
	stdio := mcpserver.NewStdioServer(mcpSrv)
	stdio.SetErrorLogger(log.New(os.Stderr, "mcp: ", 0))
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// registerAllTools registers the inbox tools and the inbox resources. Write
// tools are left out when readOnly is set.
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if err := inbox_tools.RegisterInboxTools(mcpSrv, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register inbox tools: %w", err)
	}
	if err := resources.RegisterInboxResources(mcpSrv, sc); err != nil {
		return fmt.Errorf("failed to register inbox resources: %w", err)
	}
	return nil
}
