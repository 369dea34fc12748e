package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/kitty/pkg/analysis"
	"github.com/lemonberrylabs/kitty/pkg/parser"
)

const replHelp = `Enter an expression to see its tree. Commands:
  :tokens   toggle printing lexemes
  :unwrap   toggle removing redundant groupings
  :tree     toggle the indented tree view
  :help     show this help
  :quit     exit`

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Parse expressions interactively",
	Args:  cobra.NoArgs,
	RunE:  runRepl,
}

// replSession holds the toggles of an interactive session.
type replSession struct {
	tokens bool
	unwrap bool
	tree   bool
	opts   []parser.Option
	p      palette
}

func runRepl(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "kitty %s - :help for commands, Ctrl-D to exit\n", version)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if path := cfg.Repl.HistoryFile; path != "" {
		if f, err := os.Open(path); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(path); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	sess := &replSession{
		opts: cfg.ParserOptions(),
		p:    newPalette(!cfg.Output.NoColor),
	}
	cont := strings.Repeat(".", max(len(strings.TrimRight(cfg.Repl.Prompt, " ")), 1)) + " "

	for {
		src, ok := readExpression(ln, cfg.Repl.Prompt, cont)
		if !ok {
			fmt.Fprintln(out)
			return nil
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		if quit := sess.handle(out, src); quit {
			return nil
		}
	}
}

// readExpression keeps prompting while the input so far is an incomplete
// expression.
func readExpression(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		p := prompt
		if b.Len() > 0 {
			p = cont
		}
		line, err := ln.Prompt(p)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, true
		}
		if _, _, perr := parser.Parse(src); perr != nil && parser.IsIncomplete(perr) && strings.TrimSpace(line) != "" {
			continue
		}
		return src, true
	}
}

// handle runs one command or expression and reports whether to exit.
func (s *replSession) handle(w io.Writer, src string) bool {
	if cmd := strings.TrimSpace(src); strings.HasPrefix(cmd, ":") {
		switch strings.ToLower(cmd) {
		case ":quit", ":q", ":exit":
			return true
		case ":tokens":
			s.tokens = !s.tokens
			fmt.Fprintf(w, "tokens %s\n", onOff(s.tokens))
		case ":unwrap":
			s.unwrap = !s.unwrap
			fmt.Fprintf(w, "unwrap %s\n", onOff(s.unwrap))
		case ":tree":
			s.tree = !s.tree
			fmt.Fprintf(w, "tree %s\n", onOff(s.tree))
		case ":help":
			fmt.Fprintln(w, replHelp)
		default:
			fmt.Fprintln(w, "unknown command. Type :help for commands.")
		}
		return false
	}

	if s.tokens {
		writeLexemes(w, analysis.Scan(src, true), s.p)
	}

	res, err := analysis.Parse(src, s.unwrap, s.opts...)
	if err != nil {
		if d, ok := analysis.Diagnose(src, err); ok {
			writeDiagnostic(w, "<repl>", src, d, s.p)
		} else {
			fmt.Fprintln(w, s.p.paint(s.p.errText, err.Error()))
		}
		return false
	}

	if s.tree {
		writeTree(w, res.Tree, s.p)
	} else {
		fmt.Fprintln(w, s.p.paint(s.p.ok, res.SExpr))
	}
	return false
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
