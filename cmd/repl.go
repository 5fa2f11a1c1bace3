package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mattmrsa/goprompt/pkg/logging"
	"github.com/mattmrsa/goprompt/pkg/prompt"
	"github.com/mattmrsa/goprompt/pkg/session"
)

var replConfigPath string

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive read loop",
	Long: `Repl reads lines until Ctrl-D and echoes them back. Tab completes
from the configured word list, typed prefixes of earlier lines show as ghost
text, and lines starting with "!" run as shell commands above the prompt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadReplConfig(replConfigPath)
		if err != nil {
			return err
		}
		return runRepl(cfg)
	},
}

func init() {
	replCmd.Flags().StringVar(&replConfigPath, "config", "", "config file (default is $HOME/.goprompt/config.toml)")
}

func runRepl(cfg replConfig) error {
	reader := prompt.NewReader(prompt.Options{
		Prefix:              cfg.Prefix,
		Words:               cfg.Words,
		History:             cfg.History,
		Title:               cfg.Title,
		CompleteWhileTyping: cfg.CompleteWhileTyping,
		IgnoreCase:          cfg.IgnoreCase,
	})
	defer reader.Close()

	for {
		line, err := reader.Read()
		switch {
		case errors.Is(err, session.ErrEOF):
			fmt.Println("bye")
			return nil
		case errors.Is(err, session.ErrInterrupt):
			// Ctrl-C drops the current line and keeps going.
			continue
		case err != nil:
			logging.GetLogger().Logf("repl read failed: %v", err)
			return err
		}

		if rest, ok := strings.CutPrefix(line, "!"); ok {
			if err := reader.Session().RunSystemCommand(rest); err != nil {
				fmt.Printf("command failed: %v\n", err)
			}
			continue
		}
		if line != "" {
			fmt.Printf("you said: %s\n", line)
		}
	}
}
