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
	"bytes"
	"io"
	"mime"
	"mime/multipart"

	lerrors "github.com/loopwire/loopwire/errors"
)

// Part is one decoded section of a multipart POST body.
type Part struct {
	Name     string
	Filename string
	Data     []byte
}

// ParseMultipart decodes req.Body as a multipart/form-data body, using
// req's own Content-Type header for the boundary. The whole body is
// already buffered by the request parser, so this wraps it in a
// bytes.Reader rather than streaming from the socket.
func ParseMultipart(req *Request) ([]Part, error) {
	ct, ok := req.Header("content-type")
	if !ok {
		return nil, lerrors.New(lerrors.ProtocolViolation, "multipart request missing Content-Type")
	}
	mediaType, params, err := mime.ParseMediaType(ct)
	if err != nil || mediaType != "multipart/form-data" {
		return nil, lerrors.New(lerrors.ProtocolViolation, "not a multipart/form-data request")
	}
	boundary, ok := params["boundary"]
	if !ok {
		return nil, lerrors.New(lerrors.ProtocolViolation, "multipart request missing boundary")
	}

	reader := multipart.NewReader(bytes.NewReader(req.Body), boundary)
	var parts []Part
	for {
		p, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, lerrors.New(lerrors.ProtocolViolation, "malformed multipart body: "+err.Error())
		}
		data, err := io.ReadAll(p)
		if err != nil {
			return nil, lerrors.New(lerrors.ProtocolViolation, "malformed multipart part: "+err.Error())
		}
		parts = append(parts, Part{Name: p.FormName(), Filename: p.FileName(), Data: data})
	}
	return parts, nil
}
