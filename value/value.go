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

// Package value implements the tagged dynamic value used as the wire model
// for loopwire's RPC layer: None, Bool, Int, Float, String, Vector, Map,
// and four non-serializable Callable variants.
package value

import (
	"fmt"
)

// Kind identifies the active variant of a Value. The zero Kind is Null.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindVector
	KindMap
	KindCallable
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindVector:
		return "vector"
	case KindMap:
		return "map"
	case KindCallable:
		return "callable"
	default:
		return "unknown"
	}
}

// Value is a tagged sum type. The zero Value is the Null singleton.
// Only one of the typed fields is meaningful, selected by kind.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	vec  []Value
	m    *omap
	call *Callable
}

// Null is the canonical shared None value. Its identity is never observed;
// equality between Values is by kind, per spec.
var Null = Value{kind: KindNull}

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func Int(i int64) Value { return Value{kind: KindInt, i: i} }

func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

func String(s string) Value { return Value{kind: KindString, s: s} }

// Vector builds a Value from a slice of Values, copying the elements into
// a new slice but not deep-copying them (callers that need isolation should
// call Copy on the result).
func Vector(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindVector, vec: cp}
}

// Map builds an empty ordered Map value. Use Set to populate it in wire
// order; iteration (and JSON dump) preserves insertion order.
func Map() Value {
	return Value{kind: KindMap, m: newOmap()}
}

func FromCallable(c *Callable) Value {
	return Value{kind: KindCallable, call: c}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// typeError reports a wrong-tag access. Per spec §7.5, value-model misuse
// is a programming error and is not meant to be recovered from.
func typeError(want Kind, got Kind) error {
	return fmt.Errorf("value: expected %s, got %s", want, got)
}

func (v Value) Bool() bool {
	if v.kind != KindBool {
		panic(typeError(KindBool, v.kind))
	}
	return v.b
}

func (v Value) Int() int64 {
	if v.kind != KindInt {
		panic(typeError(KindInt, v.kind))
	}
	return v.i
}

func (v Value) Float() float64 {
	switch v.kind {
	case KindFloat:
		return v.f
	case KindInt:
		return float64(v.i)
	default:
		panic(typeError(KindFloat, v.kind))
	}
}

func (v Value) Str() string {
	if v.kind != KindString {
		panic(typeError(KindString, v.kind))
	}
	return v.s
}

// Vec returns the underlying element slice. Mutating it mutates v.
func (v Value) Vec() []Value {
	if v.kind != KindVector {
		panic(typeError(KindVector, v.kind))
	}
	return v.vec
}

func (v Value) Callable() *Callable {
	if v.kind != KindCallable {
		panic(typeError(KindCallable, v.kind))
	}
	return v.call
}

// Get fetches a key from a Map value; the zero Value, false if absent.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap {
		panic(typeError(KindMap, v.kind))
	}
	return v.m.get(key)
}

// Set inserts or overwrites key in a Map value, preserving first-insertion
// order for keys set for the first time.
func (v Value) Set(key string, val Value) {
	if v.kind != KindMap {
		panic(typeError(KindMap, v.kind))
	}
	v.m.set(key, val)
}

// Keys returns a Map's keys in wire (insertion) order.
func (v Value) Keys() []string {
	if v.kind != KindMap {
		panic(typeError(KindMap, v.kind))
	}
	return v.m.keys()
}

func (v Value) Len() int {
	switch v.kind {
	case KindVector:
		return len(v.vec)
	case KindMap:
		return v.m.len()
	case KindString:
		return len(v.s)
	default:
		panic(typeError(KindVector, v.kind))
	}
}

// Copy performs a value-semantic deep copy: vectors and maps copy their
// children recursively. Callables are reference-copied since they are not
// serializable and carry no mutable state the library introduces.
func (v Value) Copy() Value {
	switch v.kind {
	case KindVector:
		out := make([]Value, len(v.vec))
		for i, e := range v.vec {
			out[i] = e.Copy()
		}
		return Value{kind: KindVector, vec: out}
	case KindMap:
		out := newOmap()
		for _, k := range v.m.keys() {
			val, _ := v.m.get(k)
			out.set(k, val.Copy())
		}
		return Value{kind: KindMap, m: out}
	default:
		return v
	}
}

// Equal compares two Values by tag and content. Callables compare by
// identity of the wrapped function pointer.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f
	case KindString:
		return a.s == b.s
	case KindVector:
		if len(a.vec) != len(b.vec) {
			return false
		}
		for i := range a.vec {
			if !Equal(a.vec[i], b.vec[i]) {
				return false
			}
		}
		return true
	case KindMap:
		ak, bk := a.m.keys(), b.m.keys()
		if len(ak) != len(bk) {
			return false
		}
		for _, k := range ak {
			av, _ := a.m.get(k)
			bv, ok := b.m.get(k)
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case KindCallable:
		return a.call == b.call
	default:
		return false
	}
}

// String renders a debug form of v; not the wire format (use Dump for that).
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindVector:
		return fmt.Sprintf("%v", v.vec)
	case KindMap:
		return fmt.Sprintf("map[%v]", v.m.keys())
	case KindCallable:
		return fmt.Sprintf("callable(%s)", v.call.Kind())
	default:
		return "<?>"
	}
}
