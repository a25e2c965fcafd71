package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/joshuapare/memkit/mem/config"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	configPath string

	// cfg is the effective allocator configuration: defaults, then the
	// --config file, then explicit --alloc.* flags.
	cfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "memctl",
	Short: "Exercise memkit allocators and containers",
	Long: `memctl drives memkit containers against a configured allocator.
It can stress a growable sequence until allocation fails, report how the
failure was handled, and print the effective allocator configuration.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()
		return loadConfig(cmd)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Allocator configuration file (YAML)")

	goFlags := flag.NewFlagSet("alloc", flag.ContinueOnError)
	cfg.RegisterFlags(goFlags)
	rootCmd.PersistentFlags().AddGoFlagSet(goFlags)
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

func setupLogger() {
	level := slog.LevelWarn
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadConfig reads --config, then re-applies the --alloc.* flags given on the
// command line so they take precedence over the file.
func loadConfig(cmd *cobra.Command) error {
	if configPath == "" {
		return cfg.Validate()
	}

	changed := map[string]string{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})

	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded
	printVerbose("Loaded configuration: %s\n", configPath)

	for name, value := range changed {
		if err := cmd.Flags().Set(name, value); err != nil {
			return fmt.Errorf("re-apply --%s: %w", name, err)
		}
	}
	return cfg.Validate()
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
