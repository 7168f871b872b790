package interp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
)

// ErrUnsupported is returned by LiteralEvaluator for code it refuses to
// evaluate.
var ErrUnsupported = errors.New("unsupported expression")

// LiteralEvaluator evaluates console.log and console.error calls whose
// arguments are literal expressions: strings, numbers, booleans, null,
// undefined, grouping, unary - + ! and binary + - * / %. Nothing else is
// executed. Code that never touches the console produces no output.
type LiteralEvaluator struct{}

// Eval implements Evaluator.
func (LiteralEvaluator) Eval(ctx context.Context, code string) (Capture, error) {
	if err := ctx.Err(); err != nil {
		return Capture{}, err
	}
	if !strings.Contains(code, "console.") {
		return Capture{}, nil
	}

	toks, err := tokenize(code)
	if err != nil {
		return Capture{}, err
	}
	p := &parser{toks: toks}
	var c Capture
	for !p.at(tokEOF, "") {
		if p.at(tokPunct, ";") {
			p.next()
			continue
		}
		stream, args, err := p.consoleCall()
		if err != nil {
			return Capture{}, err
		}
		parts := make([]string, len(args))
		for i, v := range args {
			parts[i] = v.String()
		}
		line := strings.Join(parts, " ")
		if stream == "error" {
			c.Errors = append(c.Errors, line)
		} else {
			c.Logs = append(c.Logs, line)
		}
	}
	return c, nil
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokNumber
	tokString
	tokPunct
)

type token struct {
	kind tokKind
	text string
	num  float64
	pos  int
}

func tokenize(src string) ([]token, error) {
	var toks []token
	rs := []rune(src)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '/' && i+1 < len(rs) && rs[i+1] == '/':
			for i < len(rs) && rs[i] != '\n' {
				i++
			}
		case r == '/' && i+1 < len(rs) && rs[i+1] == '*':
			j := i + 2
			for j+1 < len(rs) && (rs[j] != '*' || rs[j+1] != '/') {
				j++
			}
			if j+1 >= len(rs) {
				return nil, fmt.Errorf("unterminated comment at offset %d", i)
			}
			i = j + 2
		case r == '_' || r == '$' || unicode.IsLetter(r):
			start := i
			for i < len(rs) && (rs[i] == '_' || rs[i] == '$' || unicode.IsLetter(rs[i]) || unicode.IsDigit(rs[i])) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: string(rs[start:i]), pos: start})
		case unicode.IsDigit(r) || (r == '.' && i+1 < len(rs) && unicode.IsDigit(rs[i+1])):
			start := i
			for i < len(rs) && (unicode.IsDigit(rs[i]) || rs[i] == '.') {
				i++
			}
			if i < len(rs) && (rs[i] == 'e' || rs[i] == 'E') {
				i++
				if i < len(rs) && (rs[i] == '+' || rs[i] == '-') {
					i++
				}
				for i < len(rs) && unicode.IsDigit(rs[i]) {
					i++
				}
			}
			text := string(rs[start:i])
			n, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q at offset %d", text, start)
			}
			toks = append(toks, token{kind: tokNumber, text: text, num: n, pos: start})
		case r == '"' || r == '\'' || r == '`':
			s, n, err := scanString(rs[i:])
			if err != nil {
				return nil, fmt.Errorf("%w at offset %d", err, i)
			}
			toks = append(toks, token{kind: tokString, text: s, pos: i})
			i += n
		case strings.ContainsRune("(),;.+-*/%!", r):
			toks = append(toks, token{kind: tokPunct, text: string(r), pos: i})
			i++
		default:
			return nil, fmt.Errorf("unexpected character %q at offset %d", r, i)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(rs)}), nil
}

// scanString reads a quoted literal starting at rs[0] and returns its
// value and the number of runes consumed.
func scanString(rs []rune) (string, int, error) {
	quote := rs[0]
	var b strings.Builder
	for i := 1; i < len(rs); i++ {
		r := rs[i]
		switch {
		case r == quote:
			return b.String(), i + 1, nil
		case r == '\n' && quote != '`':
			return "", 0, errors.New("unterminated string")
		case r == '$' && quote == '`' && i+1 < len(rs) && rs[i+1] == '{':
			return "", 0, fmt.Errorf("template substitution: %w", ErrUnsupported)
		case r == '\\':
			i++
			if i >= len(rs) {
				return "", 0, errors.New("unterminated string")
			}
			n, err := scanEscape(&b, rs[i:])
			if err != nil {
				return "", 0, err
			}
			i += n - 1
		default:
			b.WriteRune(r)
		}
	}
	return "", 0, errors.New("unterminated string")
}

// scanEscape writes the character an escape sequence stands for. rs starts
// just after the backslash. It returns the number of runes consumed.
func scanEscape(b *strings.Builder, rs []rune) (int, error) {
	switch c := rs[0]; c {
	case 'n':
		b.WriteRune('\n')
	case 't':
		b.WriteRune('\t')
	case 'r':
		b.WriteRune('\r')
	case 'b':
		b.WriteRune('\b')
	case 'f':
		b.WriteRune('\f')
	case 'v':
		b.WriteRune('\v')
	case '0':
		if len(rs) > 1 && rs[1] >= '0' && rs[1] <= '9' {
			return 0, fmt.Errorf("octal escape: %w", ErrUnsupported)
		}
		b.WriteRune(0)
	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return 0, fmt.Errorf("octal escape: %w", ErrUnsupported)
	case 'x':
		code, err := hexRune(rs[1:], 2)
		if err != nil {
			return 0, errors.New("invalid hexadecimal escape")
		}
		b.WriteRune(code)
		return 3, nil
	case 'u':
		if len(rs) > 1 && rs[1] == '{' {
			end := 2
			for end < len(rs) && rs[end] != '}' {
				end++
			}
			if end == len(rs) || end == 2 {
				return 0, errors.New("invalid unicode escape")
			}
			code, err := strconv.ParseUint(string(rs[2:end]), 16, 32)
			if err != nil || code > unicode.MaxRune {
				return 0, errors.New("invalid unicode escape")
			}
			b.WriteRune(rune(code))
			return end + 1, nil
		}
		code, err := hexRune(rs[1:], 4)
		if err != nil {
			return 0, errors.New("invalid unicode escape")
		}
		if !utf16.IsSurrogate(code) {
			b.WriteRune(code)
			return 5, nil
		}
		// A surrogate pair spelled as two escapes.
		if len(rs) > 6 && rs[5] == '\\' && rs[6] == 'u' {
			if low, err := hexRune(rs[7:], 4); err == nil {
				if r := utf16.DecodeRune(code, low); r != unicode.ReplacementChar {
					b.WriteRune(r)
					return 11, nil
				}
			}
		}
		return 0, fmt.Errorf("lone surrogate escape: %w", ErrUnsupported)
	case '\r':
		if len(rs) > 1 && rs[1] == '\n' {
			return 2, nil
		}
	case '\n', '\u2028', '\u2029':
	default:
		b.WriteRune(c)
	}
	return 1, nil
}

// hexRune parses exactly n hex digits from the start of rs.
func hexRune(rs []rune, n int) (rune, error) {
	if len(rs) < n {
		return 0, errors.New("short escape")
	}
	code, err := strconv.ParseUint(string(rs[:n]), 16, 32)
	if err != nil {
		return 0, err
	}
	return rune(code), nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) at(kind tokKind, text string) bool {
	t := p.peek()
	return t.kind == kind && (text == "" || t.text == text)
}

func (p *parser) expect(kind tokKind, text string) (token, error) {
	t := p.next()
	if t.kind != kind || (text != "" && t.text != text) {
		return t, p.unexpected(t)
	}
	return t, nil
}

func (p *parser) unexpected(t token) error {
	if t.kind == tokEOF {
		return errors.New("unexpected end of input")
	}
	return fmt.Errorf("unexpected token %q at offset %d", t.text, t.pos)
}

// consoleCall parses `console.<stream>(args...)`.
func (p *parser) consoleCall() (string, []jsValue, error) {
	if t := p.peek(); t.kind != tokIdent || t.text != "console" {
		return "", nil, fmt.Errorf("statement at offset %d: %w", t.pos, ErrUnsupported)
	}
	p.next()
	if _, err := p.expect(tokPunct, "."); err != nil {
		return "", nil, err
	}
	method, err := p.expect(tokIdent, "")
	if err != nil {
		return "", nil, err
	}
	if method.text != "log" && method.text != "error" {
		return "", nil, fmt.Errorf("console.%s: %w", method.text, ErrUnsupported)
	}
	if _, err := p.expect(tokPunct, "("); err != nil {
		return "", nil, err
	}
	var args []jsValue
	for !p.at(tokPunct, ")") {
		v, err := p.additive()
		if err != nil {
			return "", nil, err
		}
		args = append(args, v)
		if !p.at(tokPunct, ",") {
			break
		}
		p.next()
	}
	if _, err := p.expect(tokPunct, ")"); err != nil {
		return "", nil, err
	}
	return method.text, args, nil
}

func (p *parser) additive() (jsValue, error) {
	left, err := p.multiplicative()
	if err != nil {
		return jsValue{}, err
	}
	for p.at(tokPunct, "+") || p.at(tokPunct, "-") {
		op := p.next().text
		right, err := p.multiplicative()
		if err != nil {
			return jsValue{}, err
		}
		if op == "+" {
			left = add(left, right)
		} else {
			left = number(left.Number() - right.Number())
		}
	}
	return left, nil
}

func (p *parser) multiplicative() (jsValue, error) {
	left, err := p.unary()
	if err != nil {
		return jsValue{}, err
	}
	for p.at(tokPunct, "*") || p.at(tokPunct, "/") || p.at(tokPunct, "%") {
		op := p.next().text
		right, err := p.unary()
		if err != nil {
			return jsValue{}, err
		}
		a, b := left.Number(), right.Number()
		switch op {
		case "*":
			left = number(a * b)
		case "/":
			left = number(a / b)
		case "%":
			left = number(math.Mod(a, b))
		}
	}
	return left, nil
}

func (p *parser) unary() (jsValue, error) {
	switch {
	case p.at(tokPunct, "-"), p.at(tokPunct, "+"), p.at(tokPunct, "!"):
		op := p.next().text
		v, err := p.unary()
		if err != nil {
			return jsValue{}, err
		}
		switch op {
		case "-":
			return number(-v.Number()), nil
		case "+":
			return number(v.Number()), nil
		default:
			return boolean(!v.Truthy()), nil
		}
	}
	return p.primary()
}

func (p *parser) primary() (jsValue, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return number(t.num), nil
	case tokString:
		return str(t.text), nil
	case tokIdent:
		switch t.text {
		case "true":
			return boolean(true), nil
		case "false":
			return boolean(false), nil
		case "null":
			return jsValue{kind: kindNull}, nil
		case "undefined":
			return jsValue{kind: kindUndefined}, nil
		case "NaN":
			return number(math.NaN()), nil
		case "Infinity":
			return number(math.Inf(1)), nil
		}
		return jsValue{}, fmt.Errorf("identifier %q: %w", t.text, ErrUnsupported)
	case tokPunct:
		if t.text == "(" {
			v, err := p.additive()
			if err != nil {
				return jsValue{}, err
			}
			if _, err := p.expect(tokPunct, ")"); err != nil {
				return jsValue{}, err
			}
			return v, nil
		}
	}
	return jsValue{}, p.unexpected(t)
}

type valueKind int

const (
	kindUndefined valueKind = iota
	kindNull
	kindBool
	kindNumber
	kindString
)

// jsValue is a primitive JavaScript value.
type jsValue struct {
	kind valueKind
	s    string
	n    float64
	b    bool
}

func number(n float64) jsValue { return jsValue{kind: kindNumber, n: n} }
func str(s string) jsValue     { return jsValue{kind: kindString, s: s} }
func boolean(b bool) jsValue   { return jsValue{kind: kindBool, b: b} }

func add(a, b jsValue) jsValue {
	if a.kind == kindString || b.kind == kindString {
		return str(a.String() + b.String())
	}
	return number(a.Number() + b.Number())
}

// String converts v the way String(v) does in JavaScript.
func (v jsValue) String() string {
	switch v.kind {
	case kindString:
		return v.s
	case kindNumber:
		return formatNumber(v.n)
	case kindBool:
		return strconv.FormatBool(v.b)
	case kindNull:
		return "null"
	default:
		return "undefined"
	}
}

// Number converts v the way Number(v) does in JavaScript.
func (v jsValue) Number() float64 {
	switch v.kind {
	case kindNumber:
		return v.n
	case kindBool:
		if v.b {
			return 1
		}
		return 0
	case kindNull:
		return 0
	case kindString:
		s := strings.TrimSpace(v.s)
		if s == "" {
			return 0
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return n
	default:
		return math.NaN()
	}
}

func (v jsValue) Truthy() bool {
	switch v.kind {
	case kindString:
		return v.s != ""
	case kindNumber:
		return v.n != 0 && !math.IsNaN(v.n)
	case kindBool:
		return v.b
	default:
		return false
	}
}

func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}
	abs := math.Abs(n)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(n, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[0]
		digits := strings.TrimLeft(exp[1:], "0")
		return mant + "e" + string(sign) + digits
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
