package commands

import (
	"os"

	"shelfwatch/lib/serviceutil"
	"shelfwatch/lib/telemetry"
	"shelfwatch/lib/watcher"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Continuously checks the page and alerts when its state changes.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		config, err := watcher.LoadConfig(configPath)
		if err != nil {
			serviceutil.Fatal("failed to load config", err)
		}
		loop, err := watcher.NewLoop(config)
		if err != nil {
			serviceutil.Fatal("failed to initialize watcher", err)
		}

		telemetry.InstrumentPerfStats(ctx)

		summary := loop.Run(ctx)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Checks", "Changes", "Failures"})
		t.AppendRow(table.Row{summary.Checks, summary.Changes, summary.Failures})
		t.Render()
	},
}
