package interp

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var jsLogCall = regexp.MustCompile(`console\.log\([^)]+\)`)

func (in *Interpreter) javascript(ctx context.Context, source string) string {
	var logs, errs []string

	if strings.Contains(source, "console.log") {
		for _, stmt := range jsLogCall.FindAllString(source, -1) {
			c, err := in.eval.Eval(ctx, stmt)
			if err != nil {
				errs = append(errs, fmt.Sprintf("Error in %s: %v", stmt, err))
				continue
			}
			logs = append(logs, c.Logs...)
			errs = append(errs, c.Errors...)
		}
	} else {
		c, err := in.eval.Eval(ctx, source)
		logs = append(logs, c.Logs...)
		errs = append(errs, c.Errors...)
		if err != nil {
			errs = append(errs, fmt.Sprintf("Runtime Error: %v", err))
		}
	}

	var b strings.Builder
	if len(logs) > 0 {
		b.WriteString(strings.Join(logs, "\n"))
	}
	if len(errs) > 0 {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("ERRORS:\n")
		b.WriteString(strings.Join(errs, "\n"))
	}
	if b.Len() == 0 {
		return "Code executed successfully (no output)"
	}
	return b.String()
}
