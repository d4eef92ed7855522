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

// omap is a minimal insertion-ordered string-keyed map. Map values need
// deterministic wire order (spec 3.1: "iteration order is the wire
// order"), which a plain Go map cannot provide.
type omap struct {
	order []string
	data  map[string]Value
}

func newOmap() *omap {
	return &omap{data: make(map[string]Value)}
}

func (o *omap) get(key string) (Value, bool) {
	v, ok := o.data[key]
	return v, ok
}

func (o *omap) set(key string, v Value) {
	if _, ok := o.data[key]; !ok {
		o.order = append(o.order, key)
	}
	o.data[key] = v
}

func (o *omap) keys() []string {
	out := make([]string, len(o.order))
	copy(out, o.order)
	return out
}

func (o *omap) len() int { return len(o.order) }
