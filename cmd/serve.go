package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/rejectlabel/internal/instrumentation"
	"github.com/teemow/rejectlabel/internal/resources"
	"github.com/teemow/rejectlabel/internal/server"
	"github.com/teemow/rejectlabel/internal/tools/triage_tools"
	"github.com/teemow/rejectlabel/internal/triage"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled starts the metrics server on a dedicated port.
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

const metricsStartupTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	var (
		auth          authFlags
		rules         rulesFlags
		logs          logFlags
		yolo          bool
		metricsConfig MetricsConfig
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server over stdio to provide rejection
triage tools for AI assistants.

Safety Mode:
  By default, the server operates in read-only mode and only searches.
  Use --yolo to enable gmail_label_rejections, which creates labels and
  modifies messages.

Logs are written to stderr because stdout carries the protocol.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("metrics") && os.Getenv("METRICS_ENABLED") == "true" {
				metricsConfig.Enabled = true
			}
			if !cmd.Flags().Changed("metrics-addr") {
				if addr := os.Getenv("METRICS_ADDR"); addr != "" {
					metricsConfig.Addr = addr
				}
			}
			return runServe(cmd, &auth, &rules, &logs, yolo, metricsConfig)
		},
	}

	auth.register(cmd.Flags())
	rules.register(cmd.Flags())
	logs.register(cmd.Flags())
	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable write operations (label creation and message labeling). Default is read-only mode.")
	cmd.Flags().BoolVar(&metricsConfig.Enabled, "metrics", false, "Serve Prometheus metrics and health probes on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsConfig.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(cmd *cobra.Command, auth *authFlags, rulesFlags *rulesFlags, logs *logFlags, yolo bool, metricsConfig MetricsConfig) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rules, err := rulesFlags.resolve(cmd.Flags())
	if err != nil {
		return err
	}

	logger := logs.logger(cmd.ErrOrStderr(), slog.LevelInfo)
	slog.SetDefault(logger)

	provider, err := newInstrumentation(shutdownCtx, true)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("instrumentation shutdown failed", "error", err)
		}
	}()
	metrics := provider.Metrics()

	// The consent URL must never reach stdout.
	pipeline := triage.NewPipeline(triage.PipelineConfig{
		Authenticator: auth.authenticator(cmd.ErrOrStderr(), logger, metrics),
		Open:          gmailOpener(metrics),
		Logger:        newLogAdapter(logger),
		Metrics:       metrics,
	})

	serverContext, err := server.NewServerContext(shutdownCtx, server.Options{
		Pipeline: pipeline,
		Rules:    rules,
		Metrics:  metrics,
		Logger:   newLogAdapter(logger),
	})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}

	health := server.NewHealthChecker(serverContext)
	health.SetReady(false)

	var metricsServer *server.MetricsServer
	if metricsConfig.Enabled {
		metricsServer, err = startMetricsServer(metricsConfig, provider, health)
		if err != nil {
			_ = serverContext.Shutdown()
			return err
		}
		logger.Info("metrics server started", "addr", metricsServer.Addr())
	}

	defer func() {
		// Shutdown metrics server first
		if metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("metrics server shutdown failed", "error", err)
			}
		}
		_ = serverContext.Shutdown()
	}()

	mcpSrv, err := newMCPServer(serverContext, !yolo)
	if err != nil {
		return err
	}
	if yolo {
		logger.Info("starting server with WRITE operations enabled (--yolo flag is set)", "query", serverContext.Query())
	} else {
		logger.Info("starting server in READ-ONLY mode (use --yolo to enable labeling)", "query", serverContext.Query())
	}
	health.SetReady(true)

	return runStdioServer(shutdownCtx, mcpSrv)
}

// newMCPServer builds the MCP server with all tools and resources registered.
func newMCPServer(sc *server.ServerContext, readOnly bool) (*mcpserver.MCPServer, error) {
	mcpSrv := mcpserver.NewMCPServer("rejectlabel", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)
	if err := triage_tools.RegisterTriageTools(mcpSrv, sc, readOnly); err != nil {
		return nil, fmt.Errorf("failed to register triage tools: %w", err)
	}
	if err := resources.RegisterResources(mcpSrv, sc); err != nil {
		return nil, fmt.Errorf("failed to register resources: %w", err)
	}
	return mcpSrv, nil
}

// startMetricsServer starts the metrics server and waits until it is bound.
func startMetricsServer(metricsConfig MetricsConfig, provider *instrumentation.Provider, health *server.HealthChecker) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    metricsConfig.Addr,
		InstrumentationProvider: provider,
		Health:                  health,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	// Wait for metrics server to be ready or fail
	select {
	case <-metricsServer.Ready():
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(metricsStartupTimeout):
		return nil, errors.New("metrics server startup timed out")
	}
}

func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	select {
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	case <-ctx.Done():
		return nil
	}
}
