package enginetest

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/porticus-lab/htmlbook/engine"
)

// countingWriter tracks the offset of everything written through it.
type countingWriter struct {
	w   io.Writer
	n   int
	err error
}

func (c *countingWriter) printf(format string, args ...any) {
	if c.err != nil {
		return
	}
	var n int
	n, c.err = fmt.Fprintf(c.w, format, args...)
	c.n += n
}

func writePDF(w io.Writer, pages int, size engine.PageSize, meta map[engine.Metadata]string) error {
	cw := &countingWriter{w: w}
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, cw.n)
		cw.printf("%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	cw.printf("%%PDF-1.7\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", 4+i)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))
	obj(infoDict(meta))
	for range pages {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] >>", size.Width, size.Height))
	}

	xref := cw.n
	cw.printf("xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		cw.printf("%010d 00000 n \n", off)
	}
	cw.printf("trailer\n<< /Size %d /Root 1 0 R /Info 3 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return cw.err
}

func infoDict(meta map[engine.Metadata]string) string {
	entries := []string{"/Producer (enginetest)"}
	for k, v := range meta {
		r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
		entries = append(entries, fmt.Sprintf("/%s (%s)", k.Key(), r.Replace(v)))
	}
	sort.Strings(entries)
	return "<< " + strings.Join(entries, " ") + " >>"
}
