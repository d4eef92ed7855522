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

package httpconn

import (
	"os"
	"path/filepath"
	"strings"
)

// Response is a fully-buffered HTTP response this collaborator never
// streams (spec 1's non-goals exclude high-throughput serving).
type Response struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

func newResponse(status int) *Response {
	return &Response{Status: status, Headers: map[string]string{}}
}

// StaticResponder serves files from a search path of data directories,
// dispatching content type by extension through a MimeTable (spec 6).
type StaticResponder struct {
	roots []string
	mime  *MimeTable
}

func NewStaticResponder(mime *MimeTable, roots ...string) *StaticResponder {
	return &StaticResponder{roots: roots, mime: mime}
}

// Serve resolves path against the search path in order and returns the
// first match, 404 if none, or 400 if path attempts to escape its root.
func (s *StaticResponder) Serve(reqPath string) *Response {
	clean := filepath.Clean("/" + reqPath)
	if clean == "/" {
		clean = "/index.html"
	}
	rel := strings.TrimPrefix(clean, "/")

	for _, root := range s.roots {
		full := filepath.Join(root, rel)
		if !strings.HasPrefix(full, filepath.Clean(root)+string(os.PathSeparator)) && full != filepath.Clean(root) {
			return newResponse(400)
		}
		info, err := os.Stat(full)
		if err != nil || info.IsDir() {
			continue
		}
		data, err := os.ReadFile(full)
		if err != nil {
			return newResponse(500)
		}
		resp := newResponse(200)
		resp.Headers["Content-Type"] = s.mime.TypeFor(full)
		resp.Body = data
		return resp
	}
	return newResponse(404)
}
