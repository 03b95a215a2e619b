package pdf

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type xrefEntry struct {
	offset int64
	inUse  bool

	// Objects stored inside an object stream.
	compressed bool
	container  int
	index      int
}

// Document is a parsed PDF file. It is not safe for concurrent use.
type Document struct {
	data      []byte
	xref      map[int]xrefEntry
	trailer   Dict
	startxref int64
	cache     map[int]*Object
}

// Open reads and parses the PDF file at path.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return Load(data)
}

// Load parses a PDF from raw bytes.
func Load(data []byte) (*Document, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, fmt.Errorf("not a PDF file")
	}
	doc := &Document{
		data:  data,
		xref:  make(map[int]xrefEntry),
		cache: make(map[int]*Object),
	}
	off, err := doc.findStartXRef()
	if err != nil {
		return nil, err
	}
	doc.startxref = off
	if err := doc.loadXRef(off, 0); err != nil {
		return nil, fmt.Errorf("loading xref: %w", err)
	}
	if doc.trailer == nil {
		return nil, fmt.Errorf("missing trailer")
	}
	return doc, nil
}

// Version returns the header version, e.g. "1.7".
func (doc *Document) Version() string {
	line := doc.data[5:min(len(doc.data), 16)]
	if i := bytes.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(string(line))
}

func (doc *Document) findStartXRef() (int64, error) {
	tail := doc.data[max(0, len(doc.data)-1024):]
	i := bytes.LastIndex(tail, []byte("startxref"))
	if i < 0 {
		return 0, fmt.Errorf("startxref not found")
	}
	s := newScanner(tail, i+len("startxref"))
	s.skipSpace()
	off, err := strconv.ParseInt(s.token(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid startxref value")
	}
	return off, nil
}

// loadXRef reads the cross-reference section at off and every older
// section reachable through /Prev. Newer entries win.
func (doc *Document) loadXRef(off int64, depth int) error {
	if depth > maxDepth {
		return fmt.Errorf("too many xref sections")
	}
	if off < 0 || off >= int64(len(doc.data)) {
		return fmt.Errorf("xref offset out of bounds: %d", off)
	}
	s := newScanner(doc.data, int(off))
	s.skipSpace()

	var trailer Dict
	var err error
	if s.keyword("xref") {
		trailer, err = doc.xrefTable(s)
	} else {
		trailer, err = doc.xrefStream(s)
	}
	if err != nil {
		return err
	}
	if doc.trailer == nil {
		doc.trailer = trailer
	}
	if prev, ok := trailer.Int("Prev"); ok && prev > 0 {
		return doc.loadXRef(prev, depth+1)
	}
	return nil
}

func (doc *Document) xrefTable(s *scanner) (Dict, error) {
	for {
		s.skipSpace()
		if s.eof() || s.keyword("trailer") {
			break
		}
		first, err1 := strconv.Atoi(s.token())
		s.skipSpace()
		count, err2 := strconv.Atoi(s.token())
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("malformed xref subsection at offset %d", s.pos)
		}
		for i := 0; i < count; i++ {
			s.skipSpace()
			off, _ := strconv.ParseInt(s.token(), 10, 64)
			s.skipSpace()
			s.token()
			s.skipSpace()
			kind := s.token()
			if _, seen := doc.xref[first+i]; !seen {
				doc.xref[first+i] = xrefEntry{offset: off, inUse: kind == "n"}
			}
		}
	}
	o, err := s.object()
	if err != nil {
		return nil, fmt.Errorf("parsing trailer: %w", err)
	}
	if o.Kind != Dictionary {
		return nil, fmt.Errorf("trailer is not a dictionary")
	}
	return o.Dict, nil
}

func (doc *Document) xrefStream(s *scanner) (Dict, error) {
	o, err := s.indirect()
	if err != nil {
		return nil, fmt.Errorf("parsing xref stream: %w", err)
	}
	if o.Kind != Stream {
		return nil, fmt.Errorf("xref section is not a stream")
	}
	data, err := decodeStream(o)
	if err != nil {
		return nil, fmt.Errorf("decoding xref stream: %w", err)
	}

	w, _ := o.Dict.Array("W")
	if len(w) < 3 {
		return nil, fmt.Errorf("xref stream missing /W")
	}
	w1, w2, w3 := int(w[0].Int), int(w[1].Int), int(w[2].Int)
	entry := w1 + w2 + w3
	if entry == 0 {
		return nil, fmt.Errorf("xref stream has zero entry size")
	}

	size, _ := o.Dict.Int("Size")
	index := []*Object{{Kind: Int}, {Kind: Int, Int: size}}
	if arr, ok := o.Dict.Array("Index"); ok {
		index = arr
	}

	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		first, count := int(index[i].Int), int(index[i+1].Int)
		for n := 0; n < count && pos+entry <= len(data); n++ {
			typ := 1
			if w1 > 0 {
				typ = bigEndian(data[pos : pos+w1])
			}
			f2 := bigEndian(data[pos+w1 : pos+w1+w2])
			f3 := bigEndian(data[pos+w1+w2 : pos+entry])
			pos += entry

			if _, seen := doc.xref[first+n]; seen {
				continue
			}
			switch typ {
			case 0:
				doc.xref[first+n] = xrefEntry{}
			case 1:
				doc.xref[first+n] = xrefEntry{offset: int64(f2), inUse: true}
			case 2:
				doc.xref[first+n] = xrefEntry{inUse: true, compressed: true, container: f2, index: f3}
			}
		}
	}
	return o.Dict, nil
}

func bigEndian(b []byte) int {
	v := 0
	for _, c := range b {
		v = v<<8 | int(c)
	}
	return v
}

// Size returns the number of object slots, the trailer's /Size.
func (doc *Document) Size() int {
	n, _ := doc.trailer.Int("Size")
	return int(n)
}

// Trailer returns the newest trailer dictionary.
func (doc *Document) Trailer() Dict {
	return doc.trailer
}

// Get returns the object with the given number. Missing or free objects
// resolve to null.
func (doc *Document) Get(num int) *Object {
	if o, ok := doc.cache[num]; ok {
		return o
	}
	e, ok := doc.xref[num]
	if !ok || !e.inUse {
		return nullObject
	}
	var o *Object
	var err error
	if e.compressed {
		o, err = doc.fromObjectStream(e)
	} else {
		o, err = doc.atOffset(e.offset)
	}
	if err != nil {
		o = nullObject
	}
	doc.cache[num] = o
	return o
}

// Resolve follows o if it is a reference.
func (doc *Document) Resolve(o *Object) *Object {
	for depth := 0; o != nil && o.Kind == Ref; depth++ {
		if depth > maxDepth {
			return nullObject
		}
		o = doc.Get(o.Ref.Number)
	}
	if o == nil {
		return nullObject
	}
	return o
}

func (doc *Document) atOffset(off int64) (*Object, error) {
	if off < 0 || off >= int64(len(doc.data)) {
		return nil, fmt.Errorf("object offset %d out of bounds", off)
	}
	// Streams with an indirect /Length are cut at "endstream".
	return newScanner(doc.data, int(off)).indirect()
}

func (doc *Document) fromObjectStream(e xrefEntry) (*Object, error) {
	container := doc.Get(e.container)
	if container.Kind != Stream {
		return nil, fmt.Errorf("object stream %d is not a stream", e.container)
	}
	data, err := decodeStream(container)
	if err != nil {
		return nil, err
	}
	n, _ := container.Dict.Int("N")
	first, _ := container.Dict.Int("First")
	if int64(e.index) >= n {
		return nil, fmt.Errorf("object index %d out of range", e.index)
	}

	s := newScanner(data, 0)
	var off int
	for i := 0; i <= e.index; i++ {
		s.skipSpace()
		s.token()
		s.skipSpace()
		off, _ = strconv.Atoi(s.token())
	}
	return newScanner(data, int(first)+off).object()
}

// Catalog returns the document catalog.
func (doc *Document) Catalog() (Dict, error) {
	root := doc.Resolve(doc.trailer["Root"])
	if root.Kind != Dictionary {
		return nil, fmt.Errorf("no document catalog")
	}
	return root.Dict, nil
}

// Pages returns the leaf page dictionaries in document order.
func (doc *Document) Pages() ([]Dict, error) {
	cat, err := doc.Catalog()
	if err != nil {
		return nil, err
	}
	root := doc.Resolve(cat["Pages"])
	if root.Kind != Dictionary {
		return nil, fmt.Errorf("no page tree")
	}
	var pages []Dict
	doc.walkPages(root.Dict, nil, &pages, 0)
	return pages, nil
}

// inherited lists the page attributes a page may take from its ancestors.
var inherited = []string{"MediaBox", "CropBox", "Rotate", "Resources"}

func (doc *Document) walkPages(node, parent Dict, pages *[]Dict, depth int) {
	if depth > maxDepth {
		return
	}
	for _, key := range inherited {
		if _, ok := node[key]; !ok && parent[key] != nil {
			node[key] = parent[key]
		}
	}
	if t, _ := node.Name("Type"); t == "Page" {
		*pages = append(*pages, node)
		return
	}
	kids := doc.Resolve(node["Kids"])
	if kids.Kind != Array {
		return
	}
	for _, k := range kids.Array {
		if kid := doc.Resolve(k); kid.Kind == Dictionary {
			doc.walkPages(kid.Dict, node, pages, depth+1)
		}
	}
}

// PageCount returns the number of pages in the document.
func (doc *Document) PageCount() (int, error) {
	pages, err := doc.Pages()
	if err != nil {
		return 0, err
	}
	return len(pages), nil
}

// PageCount parses data and returns its number of pages.
func PageCount(data []byte) (int, error) {
	doc, err := Load(data)
	if err != nil {
		return 0, err
	}
	return doc.PageCount()
}

// PageInfo holds the geometry of one page in points.
type PageInfo struct {
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation int     `json:"rotation"`
}

// PageInfo returns the size and rotation of page.
func (doc *Document) PageInfo(page Dict) PageInfo {
	var info PageInfo
	if mb := doc.Resolve(page["MediaBox"]); mb.Kind == Array && len(mb.Array) >= 4 {
		info.Width = doc.Resolve(mb.Array[2]).Number() - doc.Resolve(mb.Array[0]).Number()
		info.Height = doc.Resolve(mb.Array[3]).Number() - doc.Resolve(mb.Array[1]).Number()
	}
	if rot := doc.Resolve(page["Rotate"]); rot.Kind == Int {
		info.Rotation = int(rot.Int)
	}
	return info
}
