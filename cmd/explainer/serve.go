// cmd/explainer/serve.go
package main

import (
	"os"
	"os/signal"
	"syscall"

	"explainer/internal/common/observability"
	"explainer/internal/server"

	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat UI and the /search-chat endpoint",
	Long: `
Start the HTTP server.

Examples:
  # Use configs/config.yaml and the configured address
  explainer serve

  # Override the listen address
  explainer serve --addr :8080
`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.address)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(observability.New("explainer"))
	if err != nil {
		return err
	}
	defer a.Close()

	if serveAddr != "" {
		a.cfg.Server.Address = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.log.Info("Starting explainer", map[string]interface{}{
		"address":        a.cfg.Server.Address,
		"sessionBackend": a.cfg.Session.Backend,
		"model":          a.cfg.APIs.Completion.Model,
	})
	return server.New(a.cfg, a.chat, a.log).Run(ctx)
}
