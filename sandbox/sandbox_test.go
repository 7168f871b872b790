package sandbox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/caffeineduck/codecollab/interp"
)

// emptyModule is the smallest valid WebAssembly binary: magic and version.
var emptyModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func TestLoadWithoutPath(t *testing.T) {
	if _, err := Load(""); !errors.Is(err, ErrNoModule) {
		t.Errorf("expected ErrNoModule, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.wasm"))
	if err == nil || !strings.Contains(err.Error(), "read engine module") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestNewRejectsInvalidModule(t *testing.T) {
	_, err := New([]byte("not wasm"))
	if err == nil || !strings.Contains(err.Error(), "compile engine module") {
		t.Errorf("expected compile error, got %v", err)
	}
}

func TestEvalEmptyModule(t *testing.T) {
	ev, err := New(emptyModule, WithMemoryLimit(MemoryLimit16MB))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ev.Close()

	c, err := ev.Eval(context.Background(), `console.log("hi")`)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if len(c.Logs) != 0 || len(c.Errors) != 0 {
		t.Errorf("module without _start should produce nothing, got %+v", c)
	}
}

func TestEvalAfterClose(t *testing.T) {
	ev, err := New(emptyModule)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := ev.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := ev.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
	if _, err := ev.Eval(context.Background(), "1"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	ev, err := New(emptyModule, WithDiskCache(dir))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ev.Close()
	if ev.cache == nil {
		t.Error("expected compilation cache to be configured")
	}
}

func TestSplitLines(t *testing.T) {
	tests := map[string][]string{
		"":         nil,
		"\n":       nil,
		"a\n":      {"a"},
		"a\nb\n":   {"a", "b"},
		"a\n\nb\n": {"a", "", "b"},
	}
	for in, want := range tests {
		if got := splitLines(in); !reflect.DeepEqual(got, want) {
			t.Errorf("splitLines(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseMemoryLimit(t *testing.T) {
	if ParseMemoryLimit("64mb") != MemoryLimit64MB {
		t.Error("64mb should map to MemoryLimit64MB")
	}
	if ParseMemoryLimit("lots") != 0 {
		t.Error("unknown sizes should map to zero")
	}
}

// The tests below need a QuickJS WASI build. Run go generate to fetch one
// into testdata, or point CODECOLLAB_QJS_WASM at another.
func quickJS(t *testing.T) *Evaluator {
	t.Helper()
	path := os.Getenv("CODECOLLAB_QJS_WASM")
	if path == "" {
		path = filepath.Join("testdata", "qjs.wasm")
	}
	if _, err := os.Stat(path); err != nil {
		t.Skipf("no QuickJS module at %s", path)
	}
	ev, err := Load(path, WithTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	t.Cleanup(func() { ev.Close() })
	return ev
}

func TestQuickJSConsole(t *testing.T) {
	ev := quickJS(t)

	c, err := ev.Eval(context.Background(), `console.log("a", 1 + 2); console.error("oops")`)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !reflect.DeepEqual(c.Logs, []string{"a 3"}) {
		t.Errorf("logs = %q", c.Logs)
	}
	if !reflect.DeepEqual(c.Errors, []string{"oops"}) {
		t.Errorf("errors = %q", c.Errors)
	}
}

func TestQuickJSUncaughtException(t *testing.T) {
	ev := quickJS(t)

	_, err := ev.Eval(context.Background(), `throw new Error("kaput")`)
	if err == nil || !strings.Contains(err.Error(), "kaput") {
		t.Errorf("expected exception message, got %v", err)
	}
}

func TestQuickJSTimeout(t *testing.T) {
	ev := quickJS(t)

	_, err := ev.Eval(context.Background(), `for (;;) {}`)
	if err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Errorf("expected timeout, got %v", err)
	}
}

func TestQuickJSBehindInterpreter(t *testing.T) {
	ev := quickJS(t)
	in := interp.New(interp.WithEvaluator(ev))

	got := in.Execute(context.Background(), "javascript", `const n = 6; console.log(n * 7)`, "")
	if !strings.Contains(got, "Error in console.log(n * 7)") {
		t.Errorf("statements are evaluated in isolation, got %q", got)
	}

	got = in.Execute(context.Background(), "javascript", `console.log([1, 2, 3].length)`, "")
	if got != "3" {
		t.Errorf("unexpected output %q", got)
	}
}
