// Package pdf reads the structure of PDF files produced by the rendering
// engine and appends incremental updates to them.
//
// It understands just enough of the format to walk the page tree, read and
// replace the document information dictionary, and report page geometry.
// Content streams are never interpreted.
package pdf

import (
	"bytes"
	"fmt"
	"strconv"
)

// Kind identifies the type of a PDF object.
type Kind int

const (
	Null Kind = iota
	Bool
	Int
	Real
	String
	Name
	Array
	Dictionary
	Stream
	Ref
)

// Object is one parsed PDF object.
type Object struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Real  float64
	Str   []byte
	Name  string
	Array []*Object
	Dict  Dict
	Data  []byte // raw stream bytes, still encoded
	Ref   Reference
}

var nullObject = &Object{Kind: Null}

// Reference is an indirect object reference "N G R".
type Reference struct {
	Number int
	Gen    int
}

// Number returns the numeric value of o, or 0 if o is not a number.
func (o *Object) Number() float64 {
	if o == nil {
		return 0
	}
	switch o.Kind {
	case Int:
		return float64(o.Int)
	case Real:
		return o.Real
	}
	return 0
}

// Dict is a PDF dictionary.
type Dict map[string]*Object

// Int returns the integer value of key.
func (d Dict) Int(key string) (int64, bool) {
	switch o := d[key]; {
	case o == nil:
		return 0, false
	case o.Kind == Int:
		return o.Int, true
	case o.Kind == Real:
		return int64(o.Real), true
	}
	return 0, false
}

// Name returns the name value of key.
func (d Dict) Name(key string) (string, bool) {
	o := d[key]
	if o == nil || o.Kind != Name {
		return "", false
	}
	return o.Name, true
}

// Array returns the array value of key. A single object is returned as a
// one-element array.
func (d Dict) Array(key string) ([]*Object, bool) {
	o := d[key]
	if o == nil {
		return nil, false
	}
	if o.Kind == Array {
		return o.Array, true
	}
	return []*Object{o}, true
}

const maxDepth = 100

// scanner is a recursive-descent PDF object parser.
type scanner struct {
	data  []byte
	pos   int
	depth int
}

func newScanner(data []byte, pos int) *scanner {
	return &scanner{data: data, pos: pos}
}

func (s *scanner) eof() bool { return s.pos >= len(s.data) }

// skipSpace skips whitespace and comments.
func (s *scanner) skipSpace() {
	for !s.eof() {
		c := s.data[s.pos]
		switch {
		case c == '%':
			for !s.eof() && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
				s.pos++
			}
		case isSpace(c):
			s.pos++
		default:
			return
		}
	}
}

// keyword consumes kw if the input continues with it.
func (s *scanner) keyword(kw string) bool {
	if !bytes.HasPrefix(s.data[s.pos:], []byte(kw)) {
		return false
	}
	s.pos += len(kw)
	return true
}

func isDelim(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

// token reads a run of regular characters.
func (s *scanner) token() string {
	start := s.pos
	for !s.eof() && !isSpace(s.data[s.pos]) && !isDelim(s.data[s.pos]) {
		s.pos++
	}
	return string(s.data[start:s.pos])
}

// object parses the next object.
func (s *scanner) object() (*Object, error) {
	if s.depth > maxDepth {
		return nil, fmt.Errorf("exceeded maximum nesting depth")
	}
	s.depth++
	defer func() { s.depth-- }()

	s.skipSpace()
	if s.eof() {
		return nullObject, nil
	}
	switch c := s.data[s.pos]; {
	case c == 'n' && s.keyword("null"):
		return nullObject, nil
	case c == 't' && s.keyword("true"):
		return &Object{Kind: Bool, Bool: true}, nil
	case c == 'f' && s.keyword("false"):
		return &Object{Kind: Bool}, nil
	case c == '(':
		return s.literalString(), nil
	case c == '<' && s.pos+1 < len(s.data) && s.data[s.pos+1] == '<':
		return s.dictionary()
	case c == '<':
		return s.hexString(), nil
	case c == '/':
		return &Object{Kind: Name, Name: s.name()}, nil
	case c == '[':
		return s.array()
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		return s.numberOrRef(), nil
	}
	// Unknown token.
	s.pos++
	return nullObject, nil
}

func (s *scanner) literalString() *Object {
	s.pos++
	var buf bytes.Buffer
	for depth := 1; !s.eof(); {
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return &Object{Kind: String, Str: buf.Bytes()}
			}
		case '\\':
			if s.eof() {
				continue
			}
			s.escape(&buf)
			continue
		}
		buf.WriteByte(c)
	}
	return &Object{Kind: String, Str: buf.Bytes()}
}

var escapes = map[byte]byte{
	'n': '\n', 'r': '\r', 't': '\t', 'b': '\b', 'f': '\f',
	'(': '(', ')': ')', '\\': '\\',
}

func (s *scanner) escape(buf *bytes.Buffer) {
	c := s.data[s.pos]
	s.pos++
	if r, ok := escapes[c]; ok {
		buf.WriteByte(r)
		return
	}
	switch {
	case c == '\r':
		if !s.eof() && s.data[s.pos] == '\n' {
			s.pos++
		}
	case c == '\n':
	case c >= '0' && c <= '7':
		v := int(c - '0')
		for i := 0; i < 2 && !s.eof(); i++ {
			d := s.data[s.pos]
			if d < '0' || d > '7' {
				break
			}
			v = v*8 + int(d-'0')
			s.pos++
		}
		buf.WriteByte(byte(v))
	default:
		buf.WriteByte(c)
	}
}

func (s *scanner) hexString() *Object {
	s.pos++
	var digits []byte
	for !s.eof() {
		c := s.data[s.pos]
		s.pos++
		if c == '>' {
			break
		}
		if !isSpace(c) {
			digits = append(digits, c)
		}
	}
	return &Object{Kind: String, Str: decodeHex(digits)}
}

func decodeHex(digits []byte) []byte {
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	for i := range out {
		out[i] = hexVal(digits[2*i])<<4 | hexVal(digits[2*i+1])
	}
	return out
}

func hexVal(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}

// name reads a name after its slash and decodes #XX escapes.
func (s *scanner) name() string {
	s.pos++
	raw := s.token()
	if !bytes.ContainsRune([]byte(raw), '#') {
		return raw
	}
	var buf bytes.Buffer
	for i := 0; i < len(raw); i++ {
		if raw[i] == '#' && i+2 < len(raw) {
			buf.WriteByte(hexVal(raw[i+1])<<4 | hexVal(raw[i+2]))
			i += 2
			continue
		}
		buf.WriteByte(raw[i])
	}
	return buf.String()
}

func (s *scanner) array() (*Object, error) {
	s.pos++
	arr := &Object{Kind: Array}
	for {
		s.skipSpace()
		if s.eof() {
			return arr, nil
		}
		if s.data[s.pos] == ']' {
			s.pos++
			return arr, nil
		}
		o, err := s.object()
		if err != nil {
			return nil, err
		}
		arr.Array = append(arr.Array, o)
	}
}

// dictionary parses << ... >> and a stream body if one follows.
func (s *scanner) dictionary() (*Object, error) {
	s.pos += 2
	d := make(Dict)
	for {
		s.skipSpace()
		if s.eof() {
			break
		}
		if s.keyword(">>") {
			break
		}
		if s.data[s.pos] != '/' {
			s.pos++
			continue
		}
		key := s.name()
		v, err := s.object()
		if err != nil {
			return nil, err
		}
		d[key] = v
	}

	s.skipSpace()
	if !s.keyword("stream") {
		return &Object{Kind: Dictionary, Dict: d}, nil
	}
	s.keyword("\r")
	s.keyword("\n")

	start := s.pos
	var end int
	if n, ok := d.Int("Length"); ok && d["Length"].Kind == Int && start+int(n) <= len(s.data) {
		end = start + int(n)
	} else if i := bytes.Index(s.data[start:], []byte("endstream")); i >= 0 {
		end = start + i
	} else {
		end = len(s.data)
	}
	s.pos = end
	s.skipSpace()
	s.keyword("endstream")
	return &Object{Kind: Stream, Dict: d, Data: s.data[start:end]}, nil
}

// numberOrRef parses a number or an "N G R" reference.
func (s *scanner) numberOrRef() *Object {
	tok := s.token()
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nullObject
		}
		return &Object{Kind: Real, Real: f}
	}

	after := s.pos
	s.skipSpace()
	if g, err := strconv.ParseInt(s.token(), 10, 64); err == nil {
		s.skipSpace()
		if !s.eof() && s.data[s.pos] == 'R' &&
			(s.pos+1 >= len(s.data) || isSpace(s.data[s.pos+1]) || isDelim(s.data[s.pos+1])) {
			s.pos++
			return &Object{Kind: Ref, Ref: Reference{Number: int(n), Gen: int(g)}}
		}
	}
	s.pos = after
	return &Object{Kind: Int, Int: n}
}

// indirect parses "N G obj" and the object that follows.
func (s *scanner) indirect() (*Object, error) {
	s.skipSpace()
	s.token()
	s.skipSpace()
	s.token()
	s.skipSpace()
	if !s.keyword("obj") {
		return nil, fmt.Errorf("expected 'obj' at offset %d", s.pos)
	}
	return s.object()
}
