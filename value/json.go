/*
 * MIT License
 *
 * Copyright (c) 2026 loopwire authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Dump renders v as JSON. Encoding a Callable is a value-model misuse
// (spec 7.5) and panics rather than returning an error.
func Dump(v Value) string {
	var b strings.Builder
	dump(&b, v)
	return b.String()
}

func dump(b *strings.Builder, v Value) {
	switch v.kind {
	case KindNull:
		b.WriteString("null")
	case KindBool:
		if v.b {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case KindInt:
		b.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		dumpFloat(b, v.f)
	case KindString:
		dumpString(b, v.s)
	case KindVector:
		b.WriteByte('[')
		for i, e := range v.vec {
			if i > 0 {
				b.WriteByte(',')
			}
			dump(b, e)
		}
		b.WriteByte(']')
	case KindMap:
		b.WriteByte('{')
		for i, k := range v.m.keys() {
			if i > 0 {
				b.WriteByte(',')
			}
			dumpString(b, k)
			b.WriteByte(':')
			val, _ := v.m.get(k)
			dump(b, val)
		}
		b.WriteByte('}')
	case KindCallable:
		panic(fmt.Sprintf("value: cannot serialize callable %q (%s)", v.call.Name(), v.call.Kind()))
	default:
		panic("value: unknown kind")
	}
}

func dumpFloat(b *strings.Builder, f float64) {
	switch {
	case math.IsNaN(f):
		b.WriteString("NaN")
	case math.IsInf(f, 1):
		b.WriteString("Infinity")
	case math.IsInf(f, -1):
		b.WriteString("-Infinity")
	default:
		s := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		b.WriteString(s)
	}
}

const hexDigits = "0123456789abcdef"

func dumpString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\v':
			b.WriteString(`\v`)
		case '\f':
			b.WriteString(`\f`)
		case '\a':
			b.WriteString(`\a`)
		default:
			if c < 0x20 || c == 0x7f {
				b.WriteString(`\x`)
				b.WriteByte(hexDigits[c>>4])
				b.WriteByte(hexDigits[c&0xf])
			} else {
				b.WriteByte(c)
			}
		}
	}
	b.WriteByte('"')
}

// DiagFunc receives non-fatal parser diagnostics: unknown escapes and
// unterminated strings closed at EOF are logged, not rejected (spec 4.2).
type DiagFunc func(format string, args ...any)

// Load parses a single JSON value from data. Extensions over strict JSON,
// per spec 4.2: NaN/Infinity/-Infinity float literals, \xNN byte escapes,
// and tolerance of unknown backslash escapes (kept verbatim) and
// unterminated strings (closed at EOF).
func Load(data string, diag ...DiagFunc) (Value, error) {
	var d DiagFunc = func(string, ...any) {}
	if len(diag) > 0 && diag[0] != nil {
		d = diag[0]
	}
	p := &parser{s: data, diag: d}
	p.skipSpace()
	v, err := p.parseValue()
	if err != nil {
		return Value{}, err
	}
	return v, nil
}

type parser struct {
	s    string
	pos  int
	diag DiagFunc
}

func (p *parser) eof() bool { return p.pos >= len(p.s) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.s[p.pos]
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.s[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) parseValue() (Value, error) {
	p.skipSpace()
	if p.eof() {
		return Value{}, fmt.Errorf("value: unexpected end of input")
	}
	switch c := p.peek(); {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"':
		s, err := p.parseStringLiteral()
		if err != nil {
			return Value{}, err
		}
		return String(s), nil
	case c == 't':
		return p.parseLiteral("true", Bool(true))
	case c == 'f':
		return p.parseLiteral("false", Bool(false))
	case c == 'n':
		return p.parseLiteral("null", Null)
	case c == 'N':
		return p.parseLiteral("NaN", Float(math.NaN()))
	case c == 'I':
		return p.parseLiteral("Infinity", Float(math.Inf(1)))
	case c == '-' && strings.HasPrefix(p.s[p.pos:], "-Infinity"):
		return p.parseLiteral("-Infinity", Float(math.Inf(-1)))
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return Value{}, fmt.Errorf("value: unexpected character %q at %d", c, p.pos)
	}
}

func (p *parser) parseLiteral(lit string, v Value) (Value, error) {
	if !strings.HasPrefix(p.s[p.pos:], lit) {
		return Value{}, fmt.Errorf("value: invalid literal at %d", p.pos)
	}
	p.pos += len(lit)
	return v, nil
}

func (p *parser) parseNumber() (Value, error) {
	start := p.pos
	isFloat := false
	if p.peek() == '-' {
		p.pos++
	}
	for !p.eof() && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
		p.pos++
	}
	if !p.eof() && p.s[p.pos] == '.' {
		isFloat = true
		p.pos++
		for !p.eof() && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
			p.pos++
		}
	}
	if !p.eof() && (p.s[p.pos] == 'e' || p.s[p.pos] == 'E') {
		isFloat = true
		p.pos++
		if !p.eof() && (p.s[p.pos] == '+' || p.s[p.pos] == '-') {
			p.pos++
		}
		for !p.eof() && p.s[p.pos] >= '0' && p.s[p.pos] <= '9' {
			p.pos++
		}
	}
	tok := p.s[start:p.pos]
	if tok == "" || tok == "-" {
		return Value{}, fmt.Errorf("value: invalid number at %d", start)
	}
	if isFloat {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return Value{}, fmt.Errorf("value: invalid float %q: %w", tok, err)
		}
		return Float(f), nil
	}
	i, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return Value{}, fmt.Errorf("value: invalid int %q: %w", tok, err)
	}
	return Int(i), nil
}

func (p *parser) parseStringLiteral() (string, error) {
	if p.peek() != '"' {
		return "", fmt.Errorf("value: expected string at %d", p.pos)
	}
	p.pos++
	var b strings.Builder
	for {
		if p.eof() {
			p.diag("value: unterminated string closed at EOF")
			return b.String(), nil
		}
		c := p.s[p.pos]
		if c == '"' {
			p.pos++
			return b.String(), nil
		}
		if c != '\\' {
			b.WriteByte(c)
			p.pos++
			continue
		}
		// escape sequence
		p.pos++
		if p.eof() {
			p.diag("value: unterminated escape closed at EOF")
			return b.String(), nil
		}
		e := p.s[p.pos]
		switch e {
		case '"':
			b.WriteByte('"')
			p.pos++
		case '\\':
			b.WriteByte('\\')
			p.pos++
		case 'n':
			b.WriteByte('\n')
			p.pos++
		case 'r':
			b.WriteByte('\r')
			p.pos++
		case 't':
			b.WriteByte('\t')
			p.pos++
		case 'v':
			b.WriteByte('\v')
			p.pos++
		case 'f':
			b.WriteByte('\f')
			p.pos++
		case 'a':
			b.WriteByte('\a')
			p.pos++
		case 'x':
			if p.pos+2 < len(p.s) {
				hx := p.s[p.pos+1 : p.pos+3]
				if n, err := strconv.ParseUint(hx, 16, 8); err == nil {
					b.WriteByte(byte(n))
					p.pos += 3
					continue
				}
			}
			p.diag("value: invalid \\x escape at %d, keeping literal", p.pos)
			b.WriteByte('x')
			p.pos++
		default:
			p.diag("value: unknown escape \\%c at %d, keeping character", e, p.pos)
			b.WriteByte(e)
			p.pos++
		}
	}
}

func (p *parser) parseArray() (Value, error) {
	p.pos++ // consume '['
	out := Vector()
	p.skipSpace()
	if p.peek() == ']' {
		p.pos++
		return out, nil
	}
	for {
		p.skipSpace()
		v, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}
		out.vec = append(out.vec, v)
		p.skipSpace()
		if p.eof() {
			return Value{}, fmt.Errorf("value: unterminated array")
		}
		switch p.s[p.pos] {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return out, nil
		default:
			return Value{}, fmt.Errorf("value: expected ',' or ']' at %d", p.pos)
		}
	}
}

func (p *parser) parseObject() (Value, error) {
	p.pos++ // consume '{'
	out := Map()
	p.skipSpace()
	if p.peek() == '}' {
		p.pos++
		return out, nil
	}
	for {
		p.skipSpace()
		key, err := p.parseStringLiteral()
		if err != nil {
			return Value{}, err
		}
		p.skipSpace()
		if p.eof() || p.s[p.pos] != ':' {
			return Value{}, fmt.Errorf("value: expected ':' at %d", p.pos)
		}
		p.pos++
		v, err := p.parseValue()
		if err != nil {
			return Value{}, err
		}
		out.Set(key, v)
		p.skipSpace()
		if p.eof() {
			return Value{}, fmt.Errorf("value: unterminated object")
		}
		switch p.s[p.pos] {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return out, nil
		default:
			return Value{}, fmt.Errorf("value: expected ',' or '}' at %d", p.pos)
		}
	}
}
