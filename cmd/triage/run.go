package main

import (
	"context"
	"os"

	"github.com/aretw0/triage/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Walk the decision tree in the terminal",
	Long: `Starts an interactive session on Stdin/Stdout. Answer with the option number or its text;
type 'restart' to begin again and 'exit' to quit. With --session the walk is saved and resumed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := cli.NewSignalContext(context.Background())
		defer sc.Cancel()
		cmd.SetContext(sc)

		app, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		opts := cli.RunOptions{}
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.ExitOnHalt, _ = cmd.Flags().GetBool("exit-on-halt")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")
		opts.Plain, _ = cmd.Flags().GetBool("plain")

		return cli.RunSession(sc, app, opts, os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("session", "s", "", "Session ID to resume or create")
	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	runCmd.Flags().Bool("exit-on-halt", false, "Exit once a recommendation is shown")
	runCmd.Flags().Bool("fresh", false, "Discard the saved session before starting")
	runCmd.Flags().Bool("plain", false, "Disable the banner, colors and markdown rendering")

	// 'run' is the default when no command is provided.
	rootCmd.RunE = runCmd.RunE
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
