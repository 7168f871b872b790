// Package interp implements the editor's pseudo-interpreter: a set of
// per-language regular expressions that pull the text a program would
// plausibly print out of its source, without compiling or running it.
//
// # Basic Usage
//
//	out := interp.Execute("python", `print("hello")`, "")
//	fmt.Println(out) // hello
//
// # Languages
//
//   - javascript: console.log calls are evaluated one at a time through an
//     [Evaluator]. The default [LiteralEvaluator] only understands literal
//     arguments and never executes user code; see the sandbox package for
//     an evaluator backed by a WebAssembly JavaScript engine.
//   - python: print("...") literals are echoed, other arguments are marked
//     "(simulated output)", and stdin is echoed when the code calls input().
//   - java: System.out.println and System.out.print literals.
//   - cpp: string literals in cout statements, endl adds a blank line.
//
// Any other tag yields a fixed "not implemented" message. The heuristics
// are approximations with no correctness guarantee.
package interp
