package interp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestExecuteJavaScript(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"single log", `console.log("hi")`, "hi"},
		{"two logs", "console.log(\"a\");\nconsole.log('b');", "a\nb"},
		{"arguments joined", `console.log("sum:", 1 + 2)`, "sum: 3"},
		{"no console output", `let x = 1;`, "Code executed successfully (no output)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Execute("javascript", tt.source, "")
			if got != tt.want {
				t.Errorf("Execute() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExecuteJavaScriptErrors(t *testing.T) {
	got := Execute("javascript", `console.log("ok"); console.log(user.name)`, "")
	if !strings.HasPrefix(got, "ok\nERRORS:\n") {
		t.Fatalf("expected logs followed by errors, got %q", got)
	}
	if !strings.Contains(got, "Error in console.log(user.name)") {
		t.Errorf("expected failing statement to be named, got %q", got)
	}
}

func TestExecuteJavaScriptWholesale(t *testing.T) {
	var seen []string
	eval := EvaluatorFunc(func(ctx context.Context, code string) (Capture, error) {
		seen = append(seen, code)
		return Capture{Logs: []string{"from program"}}, errors.New("boom")
	})
	in := New(WithEvaluator(eval))

	got := in.Execute(context.Background(), "javascript", "process.stdout.write('x')", "")
	if len(seen) != 1 || seen[0] != "process.stdout.write('x')" {
		t.Fatalf("expected whole source evaluated once, got %v", seen)
	}
	want := "from program\nERRORS:\nRuntime Error: boom"
	if got != want {
		t.Errorf("Execute() = %q, want %q", got, want)
	}
}

func TestExecuteJavaScriptCapturedErrors(t *testing.T) {
	got := Execute("javascript", `console.error("bad")`, "")
	if got != "ERRORS:\nbad" {
		t.Errorf("console.error without console.log is evaluated wholesale, got %q", got)
	}

	got = Execute("javascript", `console.log("x"); console.error("bad")`, "")
	if got != "x" {
		t.Errorf("only console.log statements are extracted, got %q", got)
	}
}

func TestExecutePython(t *testing.T) {
	tests := []struct {
		name   string
		source string
		stdin  string
		want   string
	}{
		{"literal", `print("hi")`, "", "hi"},
		{"single quotes", `print('hi')`, "", "hi"},
		{"variable", `print(x)`, "", "x (simulated output)"},
		{"mixed", "x = 2\nprint(\"start\")\nprint(x * 2)", "", "start\nx * 2 (simulated output)"},
		{"stdin echoed", "name = input()\nprint(\"hello\")", "bob", "hello\nInput received: bob"},
		{"stdin unused", `print("hello")`, "bob", "hello"},
		{"no prints", `x = 1`, "", "Python code executed (no print statements found)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Execute("python", tt.source, tt.stdin)
			if got != tt.want {
				t.Errorf("Execute() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExecuteJava(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"println", `System.out.println("hi");`, "hi"},
		{"println variable", `System.out.println(total);`, "total (simulated output)"},
		{"print literal", `System.out.print("a");`, "a"},
		{"print variable ignored", `System.out.print(total);`, "Java code compiled and executed (no output statements found)"},
		{"println before print", `System.out.print("a"); System.out.println("b");`, "b\na"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Execute("java", tt.source, "")
			if got != tt.want {
				t.Errorf("Execute() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExecuteCpp(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"endl", `cout << "hi" << endl;`, "hi\n"},
		{"several literals", `cout << "a" << "b";`, "a\nb"},
		{"two statements", "cout << \"x\" << endl;\ncout<<\"y\";", "x\n\ny"},
		{"no cout", `int main() { return 0; }`, "C++ code compiled and executed (no cout statements found)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Execute("cpp", tt.source, "")
			if got != tt.want {
				t.Errorf("Execute() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExecuteUnknownLanguage(t *testing.T) {
	got := Execute("ruby", `puts "hi"`, "")
	if got != "Language ruby execution not implemented" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestExecuteRecoversFromPanics(t *testing.T) {
	eval := EvaluatorFunc(func(ctx context.Context, code string) (Capture, error) {
		panic("evaluator exploded")
	})
	in := New(WithEvaluator(eval))

	got := in.Execute(context.Background(), "javascript", `console.log(1)`, "")
	if got != "Execution Error: evaluator exploded" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestExecuteTimeoutReachesEvaluator(t *testing.T) {
	eval := EvaluatorFunc(func(ctx context.Context, code string) (Capture, error) {
		<-ctx.Done()
		return Capture{}, ctx.Err()
	})
	in := New(WithEvaluator(eval), WithTimeout(10*time.Millisecond))

	got := in.Execute(context.Background(), "javascript", `while (true) {}`, "")
	if !strings.Contains(got, "Runtime Error: context deadline exceeded") {
		t.Errorf("unexpected output %q", got)
	}
}

func TestTemplatesRun(t *testing.T) {
	for _, l := range Languages() {
		t.Run(string(l.Value), func(t *testing.T) {
			src, ok := Template(string(l.Value))
			if !ok {
				t.Fatalf("no template for %s", l.Value)
			}
			got := Execute(string(l.Value), src, "")
			if !strings.Contains(got, "Hello, World!") {
				t.Errorf("template output %q missing greeting", got)
			}
		})
	}
}
