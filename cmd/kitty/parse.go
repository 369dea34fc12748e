package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/kitty/pkg/analysis"
)

var errParse = errors.New("parse failed")

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse an expression and print its tree",
	Long: `Parse reads one kitty expression from a file, from --expr, or from
stdin. The text format prints the fully parenthesized form, e.g.
"(* (- 123) (group 45.67))"; --tree prints one node per line instead.
json and yaml print the tree structure.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringP("expr", "e", "", "Parse this text instead of a file")
	parseCmd.Flags().Bool("tree", false, "Print an indented tree in text format")
	parseCmd.Flags().Bool("unwrap-groups", false, "Remove redundant groupings before printing")
}

func runParse(cmd *cobra.Command, args []string) error {
	source, err := readSource(cmd, args)
	if err != nil {
		return err
	}
	unwrap, _ := cmd.Flags().GetBool("unwrap-groups")
	tree, _ := cmd.Flags().GetBool("tree")

	name := "<expr>"
	if len(args) > 0 && args[0] != "-" {
		name = args[0]
	} else if e, _ := cmd.Flags().GetString("expr"); e == "" {
		name = "<stdin>"
	}

	p := newPalette(!cfg.Output.NoColor)
	res, err := analysis.Parse(source, unwrap, cfg.ParserOptions()...)
	if err != nil {
		d, ok := analysis.Diagnose(source, err)
		if !ok {
			return err
		}
		if cfg.Output.Format != "text" {
			if encErr := encode(cmd.OutOrStdout(), cfg.Output.Format, map[string]interface{}{"error": d}); encErr != nil {
				return encErr
			}
		} else {
			writeDiagnostic(cmd.ErrOrStderr(), name, source, d, p)
		}
		return fmt.Errorf("%s: %w", name, errParse)
	}

	out := cmd.OutOrStdout()
	switch {
	case cfg.Output.Format != "text":
		return encode(out, cfg.Output.Format, res)
	case tree:
		writeTree(out, res.Tree, p)
	default:
		fmt.Fprintln(out, res.SExpr)
	}
	return nil
}
