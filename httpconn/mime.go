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
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// windowsFallbackMimeTypes covers the handful of extensions a Windows
// deployment (no /etc/mime.types) still needs to serve static assets
// correctly, per spec 6's "Windows-style fallback table".
var windowsFallbackMimeTypes = map[string]string{
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".json": "application/json",
	".txt":  "text/plain",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".pdf":  "application/pdf",
	".xml":  "application/xml",
	".wasm": "application/wasm",
}

// MimeTable answers the content type for a file extension, loaded from
// /etc/mime.types when present, falling back to windowsFallbackMimeTypes.
// Both tables are read-only after construction.
type MimeTable struct {
	byExt map[string]string
}

// NewMimeTable loads path (typically "/etc/mime.types"); if it cannot be
// read, the table degrades silently to windowsFallbackMimeTypes alone
// (a missing system mime database is expected on non-Unix deployments,
// not an error).
func NewMimeTable(path string) *MimeTable {
	t := &MimeTable{byExt: map[string]string{}}
	for ext, ct := range windowsFallbackMimeTypes {
		t.byExt[ext] = ct
	}
	f, err := os.Open(path)
	if err != nil {
		return t
	}
	defer f.Close()
	t.loadSystemTable(f)
	return t
}

// loadSystemTable parses the conventional /etc/mime.types format:
// "type/subtype  ext1 ext2 ...", comments and blank lines ignored. A
// conflict between the system table and the Windows fallback drops
// both entries for that extension rather than guessing a winner.
func (t *MimeTable) loadSystemTable(f *os.File) {
	dropped := map[string]bool{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		contentType := fields[0]
		for _, ext := range fields[1:] {
			key := "." + strings.ToLower(ext)
			if existing, ok := t.byExt[key]; ok && existing != contentType {
				dropped[key] = true
				continue
			}
			t.byExt[key] = contentType
		}
	}
	for key := range dropped {
		delete(t.byExt, key)
	}
}

// TypeFor returns the content type for name's extension, or
// "application/octet-stream" when unknown.
func (t *MimeTable) TypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ct, ok := t.byExt[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}
