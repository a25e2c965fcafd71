package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func init() {
	rootCmd.AddCommand(newConfigCmd())
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective allocator configuration",
		Long: `The config command prints the allocator configuration after applying
defaults, the --config file and any --alloc.* flags.

Example:
  memctl config
  memctl config --config memkit.yaml --alloc.limit 256MB
  memctl config --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig()
		},
	}
}

func runConfig() error {
	if jsonOut {
		return printJSON(configView{
			Backend:   cfg.Backend,
			Limit:     cfg.Limit.Bytes(),
			ArenaSize: cfg.ArenaSize.Bytes(),
			Metrics:   cfg.Metrics,
			Name:      cfg.Name,
		})
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

// configView is the JSON form of the configuration, with sizes in bytes.
type configView struct {
	Backend   string `json:"backend"`
	Limit     uint64 `json:"limit"`
	ArenaSize uint64 `json:"arena_size"`
	Metrics   bool   `json:"metrics"`
	Name      string `json:"name"`
}
