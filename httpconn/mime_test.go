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

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("MimeTable", func() {
	It("falls back to the Windows-style table when the system file is absent", func() {
		t := NewMimeTable(filepath.Join(os.TempDir(), "loopwire-does-not-exist-mime-types"))
		Expect(t.TypeFor("index.html")).To(Equal("text/html"))
		Expect(t.TypeFor("script.js")).To(Equal("application/javascript"))
	})

	It("returns octet-stream for an unknown extension", func() {
		t := NewMimeTable("/nonexistent")
		Expect(t.TypeFor("file.unknownext")).To(Equal("application/octet-stream"))
	})

	It("adopts a system mapping that does not conflict with the fallback table", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "mime.types")
		Expect(os.WriteFile(path, []byte("application/x-custom cst\n"), 0o644)).To(Succeed())

		t := NewMimeTable(path)
		Expect(t.TypeFor("thing.cst")).To(Equal("application/x-custom"))
		// Unrelated fallback entries remain intact.
		Expect(t.TypeFor("index.html")).To(Equal("text/html"))
	})

	It("drops both mappings when the system table conflicts with the fallback table", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "mime.types")
		Expect(os.WriteFile(path, []byte("application/x-weird-html html\n"), 0o644)).To(Succeed())

		t := NewMimeTable(path)
		Expect(t.TypeFor("index.html")).To(Equal("application/octet-stream"))
	})

	It("ignores comments and blank lines", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "mime.types")
		Expect(os.WriteFile(path, []byte("# a comment\n\napplication/x-custom cst\n"), 0o644)).To(Succeed())

		t := NewMimeTable(path)
		Expect(t.TypeFor("thing.cst")).To(Equal("application/x-custom"))
	})
})
