package pdf

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"time"
	"unicode/utf16"
	"unicode/utf8"
)

// Info returns the text entries of the document information dictionary.
func (doc *Document) Info() map[string]string {
	info := make(map[string]string)
	d := doc.Resolve(doc.trailer["Info"])
	if d.Kind != Dictionary {
		return info
	}
	for k, v := range d.Dict {
		if v = doc.Resolve(v); v.Kind == String {
			info[k] = decodeText(v.Str)
		}
	}
	return info
}

// decodeText decodes a PDF text string: UTF-16BE with a byte order mark,
// otherwise bytes taken as Latin-1.
func decodeText(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		u := make([]uint16, 0, (len(b)-2)/2)
		for i := 2; i+1 < len(b); i += 2 {
			u = append(u, uint16(b[i])<<8|uint16(b[i+1]))
		}
		return string(utf16.Decode(u))
	}
	r := make([]rune, len(b))
	for i, c := range b {
		r[i] = rune(c)
	}
	return string(r)
}

// DateString formats t as a PDF date, e.g. "D:20251211053601Z".
func DateString(t time.Time) string {
	return t.UTC().Format("D:20060102150405Z")
}

// SetInfo appends an incremental update to data that replaces the
// document information dictionary. Entries already present and not named
// in entries are kept. The original bytes are not modified.
func SetInfo(data []byte, entries map[string]string) ([]byte, error) {
	doc, err := Load(data)
	if err != nil {
		return nil, err
	}
	root, ok := doc.trailer["Root"]
	if !ok || root.Kind != Ref {
		return nil, fmt.Errorf("trailer has no catalog reference")
	}

	merged := doc.Info()
	for k, v := range entries {
		merged[k] = v
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	num := doc.Size()
	out := bytes.NewBuffer(make([]byte, 0, len(data)+512))
	out.Write(data)
	if !bytes.HasSuffix(data, []byte("\n")) {
		out.WriteByte('\n')
	}

	objOffset := out.Len()
	fmt.Fprintf(out, "%d 0 obj\n<<", num)
	for _, k := range keys {
		fmt.Fprintf(out, " /%s %s", k, encodeText(merged[k]))
	}
	out.WriteString(" >>\nendobj\n")

	xrefOffset := out.Len()
	fmt.Fprintf(out, "xref\n0 1\n0000000000 65535 f \n%d 1\n%010d 00000 n \n", num, objOffset)
	fmt.Fprintf(out, "trailer\n<< /Size %d /Root %d %d R /Info %d 0 R /Prev %d",
		num+1, root.Ref.Number, root.Ref.Gen, num, doc.startxref)
	if id := doc.trailer["ID"]; id != nil && id.Kind == Array {
		out.WriteString(" /ID ")
		writeObject(out, id)
	}
	fmt.Fprintf(out, " >>\nstartxref\n%d\n%%%%EOF\n", xrefOffset)
	return out.Bytes(), nil
}

// encodeText encodes s as a PDF text string. ASCII text is written as a
// literal string, anything else as UTF-16BE hex with a byte order mark.
func encodeText(s string) string {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return literal([]byte(s))
	}
	var b bytes.Buffer
	b.WriteString("<FEFF")
	for _, u := range utf16.Encode([]rune(s)) {
		fmt.Fprintf(&b, "%04X", u)
	}
	b.WriteByte('>')
	return b.String()
}

func literal(s []byte) string {
	var b bytes.Buffer
	b.WriteByte('(')
	for _, c := range s {
		switch c {
		case '(', ')', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if c < 0x20 || c > 0x7e {
				fmt.Fprintf(&b, "\\%03o", c)
				continue
			}
			b.WriteByte(c)
		}
	}
	b.WriteByte(')')
	return b.String()
}

// writeObject serializes the direct objects that can appear in a trailer.
func writeObject(b *bytes.Buffer, o *Object) {
	switch o.Kind {
	case Null:
		b.WriteString("null")
	case Bool:
		b.WriteString(strconv.FormatBool(o.Bool))
	case Int:
		b.WriteString(strconv.FormatInt(o.Int, 10))
	case Real:
		b.WriteString(strconv.FormatFloat(o.Real, 'f', -1, 64))
	case String:
		fmt.Fprintf(b, "<%X>", o.Str)
	case Name:
		b.WriteString("/" + o.Name)
	case Ref:
		fmt.Fprintf(b, "%d %d R", o.Ref.Number, o.Ref.Gen)
	case Array:
		b.WriteByte('[')
		for i, e := range o.Array {
			if i > 0 {
				b.WriteByte(' ')
			}
			writeObject(b, e)
		}
		b.WriteByte(']')
	case Dictionary, Stream:
		b.WriteString("<<")
		keys := make([]string, 0, len(o.Dict))
		for k := range o.Dict {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(" /" + k + " ")
			writeObject(b, o.Dict[k])
		}
		b.WriteString(" >>")
	}
}
