// Package codecollab is the backend of a browser code editor: a solo
// editing session with a pseudo-interpreter, collaboration rooms and a
// stubbed sign-in flow.
//
// # Overview
//
// Code is never compiled. The [interp] package pulls the text a program
// would plausibly print out of its source with per-language heuristics,
// and JavaScript console.log arguments go through a pluggable evaluator.
// The [sandbox] package provides one backed by QuickJS running under
// wazero.
//
// # Basic Usage
//
//	in := interp.New()
//	fmt.Println(in.Execute(ctx, "python", `print("hello")`, "")) // hello
//
//	// Editor session persisted to redis
//	store := editor.NewRedisStore(client, 0)
//	editors := editor.NewManager(store, in, logger)
//	defer editors.Shutdown()
//
//	s := editors.Get(ctx, "") // anonymous user
//	s.SetCode(`System.out.println("hi");`)
//	_ = s.SetLanguage("java")
//	out, _ := s.Run(ctx)
//
// # Serving
//
// The codecollab command exposes the same features over HTTP
// (codecollab serve) and from the terminal (codecollab run, codecollab
// repl). See the [server], [room] and [auth] packages for the API.
package codecollab
