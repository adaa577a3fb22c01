package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	avatar "github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/internal/cli"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/internal/logging"
	mcpadapter "github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/adapters/mcp"
	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/host"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the character host as an MCP server.
This allows AI agents (like Claude Desktop) to drive characters as tools.

Characters tick on a wall-clock timer while the server runs, so agents
observe a live character rather than pumping time themselves.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		fps, _ := cmd.Flags().GetInt("fps")
		if fps <= 0 {
			fps = 30
		}

		// Logs stay on Stderr; the stdio transport owns Stdout for JSON-RPC.
		levelName, _ := cmd.Flags().GetString("log-level")
		logger := logging.New(logging.ParseLevel(levelName), "text")

		src, err := cli.ResolveSource(catalogPath(cmd, args))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cat, err := src.Load(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		factory := func(name string) *avatar.Engine {
			engineOpts := []avatar.Option{
				avatar.WithName(name),
				avatar.WithLogger(logger),
				avatar.WithCatalog(cat),
				avatar.WithCatalogSource(src),
			}
			if _, ok := cat.Motion(cli.DefaultIdleGroup); ok {
				engineOpts = append(engineOpts, avatar.WithIdleMotion(cli.DefaultIdleGroup))
			}
			return avatar.New(engineOpts...)
		}
		hosts := host.New(factory, host.WithLogger(logger))
		defer hosts.Close()

		srv := mcpadapter.NewServer(hosts, mcpadapter.WithLogger(logger))

		stopTicker := make(chan struct{})
		defer close(stopTicker)
		go func() {
			dt := time.Second / time.Duration(fps)
			ticker := time.NewTicker(dt)
			defer ticker.Stop()
			for {
				select {
				case <-stopTicker:
					return
				case <-ticker.C:
					hosts.TickAll(dt)
				}
			}
		}()

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			logger.Info("Starting avatar MCP server (stdio)")
			if err := srv.ServeStdio(); err != nil {
				logger.Error("MCP server execution failed", "err", err)
				os.Exit(1)
			}
		case "sse":
			logger.Info("Starting avatar MCP server (SSE)", "port", port)

			// Create a context that cancels on interrupt signal
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil {
				// Ignore server closed error if it was caused by context cancellation
				if err != http.ErrServerClosed {
					logger.Error("MCP server execution failed", "err", err)
					os.Exit(1)
				}
			}
			logger.Info("MCP server stopped gracefully")
		default:
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
	mcpCmd.Flags().Int("fps", 30, "Tick rate in frames per second")
	mcpCmd.Flags().String("log-level", "info", "Log level: debug, info, warn, error")
}
