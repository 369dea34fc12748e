// Package main is the entry point for the kitty command line tool.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/kitty/pkg/config"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// cfg is loaded before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:               "kitty",
	Short:             "Scanner, parser and tooling for the kitty expression language",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.Version = versionString()
	rootCmd.SetVersionTemplate("kitty version {{.Version}}\n")

	rootCmd.PersistentFlags().String("config", "", "Config file, .yaml or .toml (env KITTY_CONFIG)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format: text, json or yaml")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().Int("max-source-size", 0, "Maximum source size in bytes, -1 for no limit")

	rootCmd.AddCommand(scanCmd, parseCmd, serveCmd, replCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "kitty version %s\n", versionString())
	},
}

func versionString() string {
	return version + " (commit=" + commit + ", built=" + date + ")"
}

func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}

	if v, _ := cmd.Flags().GetString("output"); v != "" {
		cfg.Output.Format = v
	}
	if v, _ := cmd.Flags().GetBool("no-color"); v {
		cfg.Output.NoColor = true
	}
	if os.Getenv("NO_COLOR") != "" {
		cfg.Output.NoColor = true
	}
	if v, _ := cmd.Flags().GetInt("max-source-size"); v != 0 {
		cfg.Parser.MaxSourceSize = v
	}
	return cfg.Validate()
}

// readSource returns the text given by --expr, the file named by the first
// argument, or stdin when the argument is "-" or absent.
func readSource(cmd *cobra.Command, args []string) (string, error) {
	if expr, _ := cmd.Flags().GetString("expr"); expr != "" {
		if len(args) > 0 {
			return "", fmt.Errorf("--expr and a file argument are mutually exclusive")
		}
		return expr, nil
	}

	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading source: %w", err)
	}
	return string(data), nil
}
