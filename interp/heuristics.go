package interp

import (
	"regexp"
	"strings"
)

var (
	pyPrintCall    = regexp.MustCompile(`print\([^)]+\)`)
	pyPrintLiteral = regexp.MustCompile(`print\(["']([^"']+)["']\)`)
	pyPrintArg     = regexp.MustCompile(`print\(([^)]+)\)`)

	javaPrintlnCall    = regexp.MustCompile(`System\.out\.println\([^)]+\)`)
	javaPrintlnLiteral = regexp.MustCompile(`System\.out\.println\(["']([^"']+)["']\)`)
	javaPrintlnArg     = regexp.MustCompile(`System\.out\.println\(([^)]+)\)`)
	javaPrintCall      = regexp.MustCompile(`System\.out\.print\([^)]+\)`)
	javaPrintLiteral   = regexp.MustCompile(`System\.out\.print\(["']([^"']+)["']\)`)

	cppCoutStmt   = regexp.MustCompile(`cout\s*<<[^;]+`)
	cppStrLiteral = regexp.MustCompile(`"([^"]+)"`)
)

const simulatedSuffix = " (simulated output)"

// printCalls emits the quoted literal of each call, or the raw argument
// marked as simulated when the argument is not a literal.
func printCalls(source string, call, literal, arg *regexp.Regexp) []string {
	var out []string
	for _, stmt := range call.FindAllString(source, -1) {
		if m := literal.FindStringSubmatch(stmt); m != nil {
			out = append(out, m[1])
			continue
		}
		if m := arg.FindStringSubmatch(stmt); m != nil {
			out = append(out, m[1]+simulatedSuffix)
		}
	}
	return out
}

func python(source, stdin string) string {
	out := printCalls(source, pyPrintCall, pyPrintLiteral, pyPrintArg)
	if stdin != "" && strings.Contains(source, "input(") {
		out = append(out, "Input received: "+stdin)
	}
	if len(out) == 0 {
		return "Python code executed (no print statements found)"
	}
	return strings.Join(out, "\n")
}

func java(source string) string {
	out := printCalls(source, javaPrintlnCall, javaPrintlnLiteral, javaPrintlnArg)
	for _, stmt := range javaPrintCall.FindAllString(source, -1) {
		if m := javaPrintLiteral.FindStringSubmatch(stmt); m != nil {
			out = append(out, m[1])
		}
	}
	if len(out) == 0 {
		return "Java code compiled and executed (no output statements found)"
	}
	return strings.Join(out, "\n")
}

func cpp(source string) string {
	var out []string
	for _, stmt := range cppCoutStmt.FindAllString(source, -1) {
		for _, m := range cppStrLiteral.FindAllStringSubmatch(stmt, -1) {
			out = append(out, m[1])
		}
		if strings.Contains(stmt, "endl") {
			out = append(out, "")
		}
	}
	if len(out) == 0 {
		return "C++ code compiled and executed (no cout statements found)"
	}
	return strings.Join(out, "\n")
}
