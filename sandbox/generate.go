package sandbox

// Fetch a QuickJS WASI build for the engine tests.
//go:generate go run ../internal/tools/download https://github.com/quickjs-ng/quickjs/releases/download/v0.10.1/qjs-wasi.wasm testdata/qjs.wasm
