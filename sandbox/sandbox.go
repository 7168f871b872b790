// Package sandbox runs JavaScript inside a WebAssembly build of QuickJS
// hosted by wazero. Code gets no filesystem, network or clock access beyond
// what WASI exposes by default, a bounded amount of memory, and a deadline.
//
// An Evaluator satisfies interp.Evaluator, so it can replace the literal
// evaluator used by the pseudo-interpreter:
//
//	ev, err := sandbox.Load("qjs.wasm", sandbox.WithTimeout(2*time.Second))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ev.Close()
//
//	in := interp.New(interp.WithEvaluator(ev))
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/caffeineduck/codecollab/interp"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"
)

var (
	// ErrNoModule is returned when no engine module was configured.
	ErrNoModule = errors.New("sandbox: no JavaScript engine module configured")
	// ErrClosed is returned by Eval after Close.
	ErrClosed = errors.New("sandbox: evaluator closed")
)

// prelude gives QuickJS a console.error that writes to stderr; qjs --std
// only provides console.log.
const prelude = `globalThis.console.error = (...a) => std.err.puts(a.map(String).join(" ") + "\n");
`

// Evaluator evaluates JavaScript in a fresh engine instance per call.
// It is safe for concurrent use.
type Evaluator struct {
	runtime  wazero.Runtime
	cache    wazero.CompilationCache
	compiled wazero.CompiledModule
	cfg      config

	mu     sync.RWMutex
	closed bool
}

var _ interp.Evaluator = (*Evaluator)(nil)

// Load reads a QuickJS WASI module from path and compiles it.
func Load(path string, opts ...Option) (*Evaluator, error) {
	if path == "" {
		return nil, ErrNoModule
	}
	module, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read engine module: %w", err)
	}
	return New(module, opts...)
}

// New compiles module, a QuickJS WASI binary, and returns an Evaluator.
func New(module []byte, opts ...Option) (*Evaluator, error) {
	if len(module) == 0 {
		return nil, ErrNoModule
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx := context.Background()

	var cache wazero.CompilationCache
	if cfg.diskCache {
		dir := cfg.cacheDir
		if dir == "" {
			dir = defaultCacheDir()
		}
		var err error
		cache, err = wazero.NewCompilationCacheWithDir(dir)
		if err != nil {
			return nil, fmt.Errorf("create disk cache: %w", err)
		}
	}

	rtConfig := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cache != nil {
		rtConfig = rtConfig.WithCompilationCache(cache)
	}
	if cfg.memoryLimitPages > 0 {
		rtConfig = rtConfig.WithMemoryLimitPages(cfg.memoryLimitPages)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, rtConfig)
	closeAll := func() {
		rt.Close(ctx)
		if cache != nil {
			cache.Close(ctx)
		}
	}

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		closeAll()
		return nil, fmt.Errorf("instantiate WASI: %w", err)
	}

	compiled, err := rt.CompileModule(ctx, module)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("compile engine module: %w", err)
	}

	return &Evaluator{
		runtime:  rt,
		cache:    cache,
		compiled: compiled,
		cfg:      cfg,
	}, nil
}

// Eval runs code and reports what it wrote to stdout (Logs) and stderr
// (Errors). A program that exits abnormally, such as on an uncaught
// exception, returns an error carrying the engine's diagnostic.
func (e *Evaluator) Eval(ctx context.Context, code string) (interp.Capture, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return interp.Capture{}, ErrClosed
	}

	if e.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	moduleConfig := wazero.NewModuleConfig().
		WithStdout(&stdout).
		WithStderr(&stderr).
		WithArgs("qjs", "--std", "-e", prelude+code).
		WithName("")

	mod, err := e.runtime.InstantiateModule(ctx, e.compiled, moduleConfig)
	if mod != nil {
		mod.Close(ctx)
	}

	capture := interp.Capture{Logs: splitLines(stdout.String())}

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return capture, fmt.Errorf("timeout after %v", e.cfg.timeout)
		}
		var exitErr *sys.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 0 {
			capture.Errors = splitLines(stderr.String())
			return capture, nil
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return capture, errors.New(msg)
		}
		return capture, fmt.Errorf("execution failed: %w", err)
	}

	capture.Errors = splitLines(stderr.String())
	return capture, nil
}

// Close releases the runtime and compilation cache.
func (e *Evaluator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	ctx := context.Background()
	var errs []error
	if err := e.runtime.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if e.cache != nil {
		if err := e.cache.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func defaultCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "codecollab")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "codecollab")
	}
	return filepath.Join(os.TempDir(), "codecollab-cache")
}
