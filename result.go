package htmlbook

import (
	"bytes"
	"encoding/base64"
	"io"
	"os"
)

// Result holds rendered output, either a PDF or a PNG image.
//
// A Result is returned by the buffer variants of the write methods. Its
// bytes are never modified after creation.
type Result struct {
	data []byte
}

// Bytes returns the raw content.
func (r *Result) Bytes() []byte {
	return r.data
}

// Base64 returns the content encoded as a standard base64 string (RFC 4648).
func (r *Result) Base64() string {
	return base64.StdEncoding.EncodeToString(r.data)
}

// Reader returns an [*bytes.Reader] over the content.
func (r *Result) Reader() *bytes.Reader {
	return bytes.NewReader(r.data)
}

// WriteTo writes the full content to w. It implements [io.WriterTo].
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.data)
	return int64(n), err
}

// WriteToFile writes the content to the file at path, creating it if needed.
func (r *Result) WriteToFile(path string, perm os.FileMode) error {
	return os.WriteFile(path, r.data, perm)
}

// Len returns the size of the content in bytes.
func (r *Result) Len() int {
	return len(r.data)
}

// IsPDF reports whether the content starts with a PDF header.
func (r *Result) IsPDF() bool {
	return bytes.HasPrefix(r.data, []byte("%PDF-"))
}

// IsPNG reports whether the content starts with the PNG signature.
func (r *Result) IsPNG() bool {
	return bytes.HasPrefix(r.data, pngSignature)
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
