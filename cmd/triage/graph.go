package main

import (
	"fmt"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the decision tree as a Mermaid flowchart",
	Long:  `Outputs a Mermaid diagram of every question, prompt and answer edge. With --session the visited path is highlighted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		var state *domain.State
		if id, _ := cmd.Flags().GetString("session"); id != "" {
			if state, err = app.Manager.Load(cmd.Context(), id); err != nil {
				return fmt.Errorf("load session %q: %w", id, err)
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), app.Engine.Graph(state))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "", "Highlight the path of this session")
}
