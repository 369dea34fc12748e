package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/kitty/pkg/analysis"
)

var scanCmd = &cobra.Command{
	Use:   "scan [file]",
	Short: "Print the lexemes of a source file",
	Long: `Scan reads kitty source from a file, from --expr, or from stdin and
prints every lexeme with its position. Lexical errors are reported as
INVALID lexemes and make the command exit non-zero.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringP("expr", "e", "", "Scan this text instead of a file")
	scanCmd.Flags().Bool("comments", false, "Include comment lexemes")
}

func runScan(cmd *cobra.Command, args []string) error {
	source, err := readSource(cmd, args)
	if err != nil {
		return err
	}
	comments, _ := cmd.Flags().GetBool("comments")

	lexemes := analysis.Scan(source, comments)
	invalid := 0
	for _, l := range lexemes {
		if l.Invalid() {
			invalid++
		}
	}

	out := cmd.OutOrStdout()
	if cfg.Output.Format == "text" {
		writeLexemes(out, lexemes, newPalette(!cfg.Output.NoColor))
	} else {
		if lexemes == nil {
			lexemes = []analysis.Lexeme{}
		}
		if err := encode(out, cfg.Output.Format, map[string]interface{}{"lexemes": lexemes, "invalid": invalid}); err != nil {
			return err
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d invalid lexeme(s)", invalid)
	}
	return nil
}
