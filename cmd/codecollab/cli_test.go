package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/caffeineduck/codecollab/editor"
	"github.com/caffeineduck/codecollab/internal/config"
	"github.com/caffeineduck/codecollab/interp"
	"github.com/caffeineduck/codecollab/sandbox"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag of cmd and its children to its default so
// commands can be executed repeatedly in one test binary.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func executeCommand(root *cobra.Command, stdin string, args ...string) (string, error) {
	resetFlags(root)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetIn(strings.NewReader(stdin))
	// Keep tests independent of any config in the working directory.
	root.SetArgs(append([]string{"--config=", "--env-file="}, args...))
	err := root.Execute()
	return buf.String(), err
}

func TestCLIHelp(t *testing.T) {
	output, err := executeCommand(rootCmd, "", "--help")
	require.NoError(t, err)

	for _, phrase := range []string{"codecollab", "pseudo", "javascript", "run", "repl", "serve", "template"} {
		assert.Contains(t, output, phrase)
	}
}

func TestCLIRunHelp(t *testing.T) {
	output, err := executeCommand(rootCmd, "", "run", "--help")
	require.NoError(t, err)

	for _, phrase := range []string{"--code", "--lang", "--stdin", "--frame", "--evaluator"} {
		assert.Contains(t, output, phrase)
	}
}

func TestCLIServeHelp(t *testing.T) {
	output, err := executeCommand(rootCmd, "", "serve", "--help")
	require.NoError(t, err)

	for _, phrase := range []string{"--addr", "--storage", "--redis-addr", "/api/editor/run", "/api/rooms/join"} {
		assert.Contains(t, output, phrase)
	}
}

func TestCLIReplHelp(t *testing.T) {
	output, err := executeCommand(rootCmd, "", "repl", "--help")
	require.NoError(t, err)

	for _, phrase := range []string{"--history", "Command history", "Multi-line input", ":lang"} {
		assert.Contains(t, output, phrase)
	}
}

func TestCLIRunInline(t *testing.T) {
	output, err := executeCommand(rootCmd, "", "run", "-l", "py", "-c", `print("hi")`)
	require.NoError(t, err)
	assert.Equal(t, "hi\n", output)

	output, err = executeCommand(rootCmd, "", "-c", `console.log("default")`)
	require.NoError(t, err)
	assert.Equal(t, "default\n", output)
}

func TestCLIRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Main.java")
	require.NoError(t, os.WriteFile(path, []byte(`System.out.println("from java");`), 0644))

	output, err := executeCommand(rootCmd, "", "run", path)
	require.NoError(t, err)
	assert.Equal(t, "from java\n", output)
}

func TestCLIRunStdinAndFrame(t *testing.T) {
	output, err := executeCommand(rootCmd, `name = input()`, "run", "-l", "python", "--stdin", "Ada", "--frame")
	require.NoError(t, err)
	assert.Contains(t, output, "Running PYTHON code...")
	assert.Contains(t, output, "Input provided: Ada\n\nOutput:\nInput received: Ada\n")
	assert.Contains(t, output, "Execution completed at")
}

func TestCLIRunErrors(t *testing.T) {
	_, err := executeCommand(rootCmd, "", "run", "-l", "cobol", "-c", "DISPLAY 'HI'")
	assert.ErrorContains(t, err, `unknown language "cobol"`)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))
	_, err = executeCommand(rootCmd, "", "run", path)
	assert.ErrorContains(t, err, "cannot detect language")

	_, err = executeCommand(rootCmd, "", "run", "-c", "1", "--evaluator", "v8")
	assert.ErrorContains(t, err, `unknown evaluator "v8"`)
}

func TestCLITemplate(t *testing.T) {
	output, err := executeCommand(rootCmd, "", "template", "c++")
	require.NoError(t, err)
	assert.Contains(t, output, "#include <iostream>")

	output, err = executeCommand(rootCmd, "", "template")
	require.NoError(t, err)
	for _, lang := range []string{"javascript", "python", "java", "cpp"} {
		assert.Contains(t, output, lang)
	}
}

func TestResolveLanguage(t *testing.T) {
	tests := []struct {
		flag, file string
		want       interp.Language
		wantErr    bool
	}{
		{"", "", interp.JavaScript, false},
		{"js", "", interp.JavaScript, false},
		{"python", "main.cpp", interp.Python, false},
		{"", "main.cc", interp.Cpp, false},
		{"", "script.mjs", interp.JavaScript, false},
		{"", "README", "", true},
		{"rust", "", "", true},
	}
	for _, tt := range tests {
		got, err := resolveLanguage(tt.flag, tt.file)
		if tt.wantErr {
			assert.Error(t, err, "%q %q", tt.flag, tt.file)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()

	s, closeFn, err := newStore(ctx, config.StorageConfig{Backend: config.StorageMemory})
	require.NoError(t, err)
	assert.IsType(t, &editor.MemoryStore{}, s)
	assert.NoError(t, closeFn())

	s, closeFn, err = newStore(ctx, config.StorageConfig{Backend: config.StorageFile, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &editor.FileStore{}, s)
	assert.NoError(t, closeFn())

	mr := miniredis.RunT(t)
	s, closeFn, err = newStore(ctx, config.StorageConfig{Backend: config.StorageRedis, RedisAddr: mr.Addr()})
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "k", []byte("{}")))
	assert.True(t, mr.Exists("codecollab:k"))
	assert.NoError(t, closeFn())

	_, _, err = newStore(ctx, config.StorageConfig{Backend: "tape"})
	assert.Error(t, err)
}

func TestNewStoreRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, _, err := newStore(context.Background(), config.StorageConfig{Backend: config.StorageRedis, RedisAddr: addr})
	assert.ErrorContains(t, err, "connect to redis")
}

func TestNewInterpreter(t *testing.T) {
	in, closer, err := newInterpreter(config.Default().Execution)
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, "3", in.Execute(context.Background(), "javascript", "console.log(1 + 2)", ""))

	_, _, err = newInterpreter(config.ExecutionConfig{Evaluator: config.EvaluatorQuickJS})
	assert.ErrorIs(t, err, sandbox.ErrNoModule)
}

func TestLoadConfigFlags(t *testing.T) {
	resetFlags(rootCmd)
	defer resetFlags(rootCmd)
	require.NoError(t, rootCmd.ParseFlags([]string{"--config=", "--env-file=", "--qjs-wasm=/opt/qjs.wasm"}))

	cfg, err := loadConfig(rootCmd)
	require.NoError(t, err)
	assert.Equal(t, config.EvaluatorQuickJS, cfg.Execution.Evaluator)
	assert.Equal(t, "/opt/qjs.wasm", cfg.Execution.QuickJSModule)
}

func TestApplyServeFlags(t *testing.T) {
	resetFlags(serveCmd)
	defer resetFlags(serveCmd)
	require.NoError(t, serveCmd.Flags().Set("addr", ":9999"))
	require.NoError(t, serveCmd.Flags().Set("storage", "redis"))
	require.NoError(t, serveCmd.Flags().Set("simulate-latency", "true"))

	cfg := config.Default()
	applyServeFlags(serveCmd, cfg)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, config.StorageRedis, cfg.Storage.Backend)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NotZero(t, cfg.Editor.RunDelay)
}

func TestReplHandle(t *testing.T) {
	var out bytes.Buffer
	r := &repl{in: interp.New(), lang: interp.Python, stdin: "7", out: &out}

	assert.False(t, r.handle(`print("a")`))
	assert.False(t, r.handle("   "))
	assert.False(t, r.handle(":lang java"))
	assert.Equal(t, interp.Java, r.lang)
	assert.False(t, r.handle(`System.out.println("b");`))
	assert.False(t, r.handle(":lang brainfuck"))
	assert.False(t, r.handle(":template"))
	assert.True(t, r.handle("exit"))

	got := out.String()
	assert.True(t, strings.HasPrefix(got, "a\nb\n"), got)
	assert.Contains(t, got, `unknown language "brainfuck"`)
	assert.Contains(t, got, "class Solution")
}
