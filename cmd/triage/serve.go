package main

import (
	"context"
	"fmt"
	"net"

	"github.com/aretw0/triage/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web page and JSON API",
	Long: `Serves the chat page at /, the session API under /sessions, the Mermaid graph at /graph
and Prometheus metrics at /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := cli.NewSignalContext(context.Background())
		defer sc.Cancel()
		cmd.SetContext(sc)

		app, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		ln, err := net.Listen("tcp", app.Config.Addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", app.Config.Addr, err)
		}
		return cli.Serve(sc, app, ln)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (default :8080)")
}
