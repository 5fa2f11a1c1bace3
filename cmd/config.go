package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// replConfig holds the optional settings read from ~/.goprompt/config.toml.
type replConfig struct {
	Prefix              string   `toml:"prefix"`
	Title               string   `toml:"title"`
	Words               []string `toml:"words"`
	History             []string `toml:"history"`
	CompleteWhileTyping bool     `toml:"complete_while_typing"`
	IgnoreCase          bool     `toml:"ignore_case"`
}

func defaultReplConfig() replConfig {
	return replConfig{Prefix: "> "}
}

// loadReplConfig reads path, or the default location when path is empty. A
// missing file is not an error; the defaults apply.
func loadReplConfig(path string) (replConfig, error) {
	cfg := defaultReplConfig()

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(home, ".goprompt", "config.toml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "> "
	}
	return cfg, nil
}
