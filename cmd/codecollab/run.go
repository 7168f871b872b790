package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caffeineduck/codecollab/editor"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Pseudo-execute code",
	Long: `Pseudo-execute javascript, python, java or cpp code.

Code can be provided via:
  - File argument: codecollab run hello.py
  - Inline flag: codecollab run -l python -c 'print("hi")'
  - Stdin: echo 'console.log(1)' | codecollab run

The language is taken from --lang, then the file extension, and defaults
to javascript.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runRun,
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("code", "c", "", "Code to execute")
	cmd.Flags().String("stdin", "", "Text the program reads as input")
	cmd.Flags().Bool("frame", false, "Frame the result like the editor console")
}

func runRun(cmd *cobra.Command, args []string) error {
	code, _ := cmd.Flags().GetString("code")
	stdin, _ := cmd.Flags().GetString("stdin")
	frame, _ := cmd.Flags().GetBool("frame")
	lang, _ := cmd.Flags().GetString("lang")

	var source string
	var filename string

	switch {
	case code != "":
		source = code
	case len(args) > 0:
		filename = args[0]
		data, err := os.ReadFile(filename)
		if err != nil {
			return err
		}
		source = string(data)
	default:
		in := cmd.InOrStdin()
		// No piped input, show help
		if f, ok := in.(*os.File); ok {
			if stat, err := f.Stat(); err == nil && stat.Mode()&os.ModeCharDevice != 0 {
				return cmd.Help()
			}
		}
		data, err := io.ReadAll(in)
		if err != nil {
			return err
		}
		source = string(data)
		if source == "" {
			return cmd.Help()
		}
	}

	language, err := resolveLanguage(lang, filename)
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

	result := in.Execute(context.Background(), string(language), source, stdin)
	if frame {
		result = editor.FormatRun(string(language), stdin, result, time.Now())
	}
	fmt.Fprintln(cmd.OutOrStdout(), result)
	return nil
}
