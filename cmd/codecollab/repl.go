package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caffeineduck/codecollab/interp"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive pseudo-interpreter",
	Long: `Start an interactive REPL (Read-Eval-Print Loop) session.

Each entry is pseudo-executed on its own; nothing carries over between
entries.

Features:
  - Command history (up/down arrows)
  - Line editing (left/right, backspace, delete)
  - History search (Ctrl+R)
  - Multi-line input (end line with \)
  - :lang <language> switches language, :template prints its template

Type 'exit' or 'quit' to end the session, or press Ctrl+D.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runRepl,
}

func init() {
	replCmd.Flags().String("history", "", "History file path (default: ~/.codecollab_history)")
	replCmd.Flags().String("stdin", "", "Text programs read as input")
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, args []string) error {
	langFlag, _ := cmd.Flags().GetString("lang")
	historyFile, _ := cmd.Flags().GetString("history")
	stdin, _ := cmd.Flags().GetString("stdin")

	if historyFile == "" {
		home, _ := os.UserHomeDir()
		historyFile = filepath.Join(home, ".codecollab_history")
	}

	lang, err := resolveLanguage(langFlag, "")
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	in, closer, err := newInterpreter(cfg.Execution)
	if err != nil {
		return err
	}
	defer closer.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            prompt(lang),
		HistoryFile:       historyFile,
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdin:             io.NopCloser(cmd.InOrStdin()),
		Stdout:            cmd.OutOrStdout(),
		Stderr:            cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("initializing readline: %w", err)
	}
	defer rl.Close()

	r := &repl{in: in, lang: lang, stdin: stdin, out: rl.Stdout()}
	fmt.Fprintf(rl.Stderr(), "codecollab REPL (type 'exit' to quit, Ctrl+D to exit)\n")

	var multiLine strings.Builder
	inMultiLine := false

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if inMultiLine {
					multiLine.Reset()
					inMultiLine = false
					rl.SetPrompt(prompt(r.lang))
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(rl.Stdout())
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		// Handle multi-line input
		if strings.HasSuffix(line, "\\") {
			multiLine.WriteString(strings.TrimSuffix(line, "\\"))
			multiLine.WriteString("\n")
			inMultiLine = true
			rl.SetPrompt("... ")
			continue
		}

		if inMultiLine {
			multiLine.WriteString(line)
			line = multiLine.String()
			multiLine.Reset()
			inMultiLine = false
		}

		if done := r.handle(line); done {
			return nil
		}
		rl.SetPrompt(prompt(r.lang))
	}
}

func prompt(lang interp.Language) string {
	return string(lang) + "> "
}

// repl holds the state of one interactive session.
type repl struct {
	in    *interp.Interpreter
	lang  interp.Language
	stdin string
	out   io.Writer
}

// handle processes one entry and reports whether the session should end.
func (r *repl) handle(line string) bool {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return false
	case line == "exit" || line == "quit":
		return true
	case line == ":template":
		code, _ := interp.Template(string(r.lang))
		fmt.Fprintln(r.out, code)
		return false
	case strings.HasPrefix(line, ":lang"):
		name := strings.TrimSpace(strings.TrimPrefix(line, ":lang"))
		lang, ok := interp.Lookup(name)
		if !ok {
			fmt.Fprintf(r.out, "unknown language %q\n", name)
			return false
		}
		r.lang = lang
		return false
	}

	fmt.Fprintln(r.out, r.in.Execute(context.Background(), string(r.lang), line, r.stdin))
	return false
}
