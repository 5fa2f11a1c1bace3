package cmd

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "goprompt",
	Short: "Interactive terminal prompt toolkit",
	Long: `Goprompt reads lines from an interactive terminal with completion,
history suggestions and asynchronous redraw scheduling.

Available commands:
  repl     - Start an interactive read loop
  version  - Print version information

Most programs use goprompt as a library; the repl command exists to try the
terminal behavior end to end.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(replCmd)
}
