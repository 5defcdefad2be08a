package commands

import (
	"os"

	"shelfwatch/lib/serviceutil"
	"shelfwatch/lib/watcher"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Checks the page once and reports the result through the exit code.",
	Long: `Checks the page once and reports the result through the exit code.
No alert fires and no state is written; the last recorded state is only
read so a price can be compared against it.

Exit codes:
  0   in stock, or the price is known and unchanged
  1   out of stock, or the price changed
  2   the status or price could not be determined`,
	Run: func(cmd *cobra.Command, args []string) {
		config, err := watcher.LoadConfig(configPath)
		if err != nil {
			serviceutil.Fatal("failed to load config", err)
		}
		loop, err := watcher.NewLoop(config)
		if err != nil {
			serviceutil.Fatal("failed to initialize watcher", err)
		}
		os.Exit(loop.CheckOnce(cmd.Context()))
	},
}
