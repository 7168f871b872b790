package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caffeineduck/codecollab/internal/config"
	"github.com/caffeineduck/codecollab/interp"
	"github.com/caffeineduck/codecollab/sandbox"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "codecollab [file]",
	Short: "Code editor backend with a pseudo-interpreter",
	Long: `codecollab - Backend for a collaborative code editor.

Pseudo-executes javascript, python, java and cpp by extracting what the
program would plausibly print. Nothing is compiled and, unless the quickjs
evaluator is configured, no user code is ever executed.

Run code from files, inline strings, or stdin, start the HTTP API with
'serve', or experiment interactively with 'repl'.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runRun, // Default to run command behavior
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("lang", "l", "", "Language: javascript, python, java, cpp (default: auto-detect)")
	rootCmd.PersistentFlags().String("config", "codecollab.yaml", "Config file")
	rootCmd.PersistentFlags().String("env-file", ".env", "Environment file")
	rootCmd.PersistentFlags().String("evaluator", "", "JavaScript evaluator: literal, quickjs")
	rootCmd.PersistentFlags().String("qjs-wasm", "", "Path to a QuickJS WASI module (quickjs evaluator)")
	rootCmd.PersistentFlags().Bool("no-cache", false, "Disable compilation cache")

	addRunFlags(rootCmd)
}

// loadConfig reads the .env file, the config file and the environment,
// then applies persistent flags that were set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	envFile, _ := flags.GetString("env-file")
	path, _ := flags.GetString("config")

	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if flags.Changed("evaluator") {
		cfg.Execution.Evaluator, _ = flags.GetString("evaluator")
	}
	if flags.Changed("qjs-wasm") {
		cfg.Execution.QuickJSModule, _ = flags.GetString("qjs-wasm")
		if !flags.Changed("evaluator") {
			cfg.Execution.Evaluator = config.EvaluatorQuickJS
		}
	}
	if noCache, _ := flags.GetBool("no-cache"); noCache {
		cfg.Execution.DiskCache = false
	}
	return cfg, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newInterpreter builds the interpreter cfg asks for. The returned closer
// releases the sandbox, if one was created.
func newInterpreter(cfg config.ExecutionConfig) (*interp.Interpreter, io.Closer, error) {
	timeout := cfg.Timeout.Std()

	switch cfg.Evaluator {
	case "", config.EvaluatorLiteral:
		return interp.New(interp.WithTimeout(timeout)), nopCloser{}, nil
	case config.EvaluatorQuickJS:
		opts := []sandbox.Option{
			sandbox.WithTimeout(timeout),
			sandbox.WithMemoryLimit(sandbox.ParseMemoryLimit(cfg.MemoryLimit)),
		}
		if cfg.DiskCache {
			opts = append(opts, sandbox.WithDiskCache())
		}
		ev, err := sandbox.Load(cfg.QuickJSModule, opts...)
		if err != nil {
			return nil, nil, err
		}
		// The outer bound also covers engine instantiation.
		return interp.New(interp.WithEvaluator(ev), interp.WithTimeout(timeout+time.Second)), ev, nil
	default:
		return nil, nil, fmt.Errorf("unknown evaluator %q: use literal or quickjs", cfg.Evaluator)
	}
}

// resolveLanguage picks the language from the flag, then the file
// extension, then the editor default.
func resolveLanguage(langFlag, filename string) (interp.Language, error) {
	if langFlag != "" {
		lang, ok := interp.Lookup(langFlag)
		if !ok {
			return "", fmt.Errorf("unknown language %q: use javascript, python, java or cpp", langFlag)
		}
		return lang, nil
	}
	if filename != "" {
		if lang, ok := interp.Detect(filename); ok {
			return lang, nil
		}
		return "", fmt.Errorf("cannot detect language of %s: use --lang", filename)
	}
	return interp.DefaultLanguage, nil
}
