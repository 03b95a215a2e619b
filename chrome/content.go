package chrome

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"net/http"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/encoding/htmlindex"
)

// prepareHTML adds a <base> element for baseURL and a trailing <style>
// element for userStyle to the head of an HTML document.
func prepareHTML(content, baseURL, userStyle string) (string, error) {
	if baseURL == "" && userStyle == "" {
		return content, nil
	}
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}
	head := findElement(doc, atom.Head)
	if head == nil {
		return "", fmt.Errorf("parsing HTML: no head element")
	}

	if baseURL != "" {
		base := &html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Base,
			Data:     "base",
			Attr:     []html.Attribute{{Key: "href", Val: baseURL}},
		}
		head.InsertBefore(base, head.FirstChild)
	}
	if userStyle != "" {
		style := &html.Node{Type: html.ElementNode, DataAtom: atom.Style, Data: "style"}
		style.AppendChild(&html.Node{Type: html.TextNode, Data: userStyle})
		head.AppendChild(style)
	}

	var b strings.Builder
	if err := html.Render(&b, doc); err != nil {
		return "", fmt.Errorf("rendering HTML: %w", err)
	}
	return b.String(), nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// injectStyleScript returns JavaScript that appends css to the current
// document as a <style> element.
func injectStyleScript(css string) string {
	quoted, _ := json.Marshal(css)
	return fmt.Sprintf(`(css => {
  const s = document.createElement('style');
  s.textContent = css;
  (document.head || document.documentElement).appendChild(s);
})(%s)`, quoted)
}

func dataURL(mime, charset string, data []byte) string {
	var b strings.Builder
	b.WriteString("data:")
	b.WriteString(mime)
	if charset != "" {
		b.WriteString(";charset=")
		b.WriteString(charset)
	}
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}

// sniffType guesses the media type of data, without parameters.
func sniffType(data []byte) string {
	mime := http.DetectContentType(data)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.TrimSpace(mime)
}

// decodeText converts data in the named encoding to UTF-8. An empty name
// means the data is UTF-8 already.
func decodeText(data []byte, encoding string) (string, error) {
	if encoding == "" {
		return string(data), nil
	}
	enc, err := htmlindex.Get(encoding)
	if err != nil {
		return "", fmt.Errorf("unknown text encoding %q", encoding)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decoding %s text: %w", encoding, err)
	}
	return string(out), nil
}

// browserImages are the formats Chrome displays natively.
var browserImages = map[string]bool{
	"png":  true,
	"jpeg": true,
	"gif":  true,
	"webp": true,
	"bmp":  true,
}

// imageDocument returns an HTML page showing the encoded image in data at
// its natural size. Formats the browser cannot show are converted to PNG.
func imageDocument(data []byte, mime string) (string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("unsupported image data: %w", err)
	}
	if !browserImages[format] {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return "", fmt.Errorf("decoding %s image: %w", format, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return "", err
		}
		data, format, mime = buf.Bytes(), "png", ""
	}
	if mime == "" {
		mime = "image/" + format
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html><head><style>html, body { margin: 0; padding: 0; } img { display: block; }</style></head>
<body><img src="%s" width="%d" height="%d" alt=""></body></html>`,
		dataURL(mime, "", data), cfg.Width, cfg.Height), nil
}
