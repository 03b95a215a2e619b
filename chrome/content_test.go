package chrome

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"golang.org/x/image/tiff"

	"github.com/porticus-lab/htmlbook/engine"
)

func TestPrepareHTML(t *testing.T) {
	got, err := prepareHTML("<p>hi</p>", "https://example.com/docs/", "p { color: red }")
	if err != nil {
		t.Fatalf("prepareHTML: %v", err)
	}
	for _, want := range []string{
		`<head><base href="https://example.com/docs/"/>`,
		`<style>p { color: red }</style></head>`,
		`<p>hi</p>`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prepareHTML output %q missing %q", got, want)
		}
	}
}

func TestPrepareHTML_Unchanged(t *testing.T) {
	in := "<!DOCTYPE html><title>x</title>"
	got, err := prepareHTML(in, "", "")
	if err != nil {
		t.Fatalf("prepareHTML: %v", err)
	}
	if got != in {
		t.Errorf("prepareHTML without options = %q, want input unchanged", got)
	}
}

func TestPrepareHTML_BaseFirst(t *testing.T) {
	got, err := prepareHTML(`<html><head><link rel="stylesheet" href="a.css"></head></html>`, "file:///tmp/", "")
	if err != nil {
		t.Fatalf("prepareHTML: %v", err)
	}
	if strings.Index(got, "<base") > strings.Index(got, "<link") {
		t.Errorf("base element must precede relative links: %q", got)
	}
}

func TestInjectStyleScript_Quotes(t *testing.T) {
	js := injectStyleScript(`body::after { content: "'); alert(1); //" }`)
	if !strings.Contains(js, `"body::after { content: \"'); alert(1); //\" }"`) {
		t.Errorf("css not JSON-quoted: %s", js)
	}
}

func TestDataURL(t *testing.T) {
	got := dataURL("text/plain", "utf-8", []byte("hi"))
	want := "data:text/plain;charset=utf-8;base64," + base64.StdEncoding.EncodeToString([]byte("hi"))
	if got != want {
		t.Errorf("dataURL = %q, want %q", got, want)
	}
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		in       []byte
		encoding string
		want     string
	}{
		{[]byte("plain"), "", "plain"},
		{[]byte{'c', 'a', 'f', 0xe9}, "iso-8859-1", "café"},
		{[]byte{0x80}, "windows-1252", "€"},
		{[]byte{0x82, 0xa0}, "shift_jis", "あ"},
	}
	for _, tt := range tests {
		got, err := decodeText(tt.in, tt.encoding)
		if err != nil {
			t.Fatalf("decodeText(%q, %q): %v", tt.in, tt.encoding, err)
		}
		if got != tt.want {
			t.Errorf("decodeText(%q, %q) = %q, want %q", tt.in, tt.encoding, got, tt.want)
		}
	}
	if _, err := decodeText([]byte("x"), "klingon"); err == nil {
		t.Error("unknown encoding accepted")
	}
}

func TestSniffType(t *testing.T) {
	if got := sniffType([]byte("<!DOCTYPE html><p>x")); got != "text/html" {
		t.Errorf("sniffType(html) = %q", got)
	}
	if got := sniffType(testPNG(t, 2, 2)); got != "image/png" {
		t.Errorf("sniffType(png) = %q", got)
	}
}

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 10), uint8(y * 10), 128, 255})
		}
	}
	return img
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(w, h)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestImageDocument(t *testing.T) {
	got, err := imageDocument(testPNG(t, 20, 10), "")
	if err != nil {
		t.Fatalf("imageDocument: %v", err)
	}
	if !strings.Contains(got, `src="data:image/png;base64,`) || !strings.Contains(got, `width="20" height="10"`) {
		t.Errorf("unexpected image document: %.200s", got)
	}
}

func TestImageDocument_ConvertsTIFF(t *testing.T) {
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, testImage(4, 3), nil); err != nil {
		t.Fatal(err)
	}
	got, err := imageDocument(buf.Bytes(), "image/tiff")
	if err != nil {
		t.Fatalf("imageDocument: %v", err)
	}
	if !strings.Contains(got, `src="data:image/png;base64,`) {
		t.Errorf("TIFF not converted to PNG: %.200s", got)
	}
}

func TestImageDocument_Invalid(t *testing.T) {
	if _, err := imageDocument([]byte("not an image"), ""); err == nil {
		t.Error("expected error for non-image data")
	}
}

func TestPageRanges(t *testing.T) {
	tests := []struct {
		pages []int
		want  string
	}{
		{[]int{1}, "1"},
		{[]int{1, 2, 3}, "1-3"},
		{[]int{1, 3, 5}, "1,3,5"},
		{[]int{1, 2, 4, 5, 6, 9}, "1-2,4-6,9"},
	}
	for _, tt := range tests {
		got, err := pageRanges(tt.pages)
		if err != nil {
			t.Fatalf("pageRanges(%v): %v", tt.pages, err)
		}
		if got != tt.want {
			t.Errorf("pageRanges(%v) = %q, want %q", tt.pages, got, tt.want)
		}
	}
	if _, err := pageRanges([]int{3, 2, 1}); err == nil {
		t.Error("descending selection accepted")
	}
}

func TestInfoEntries(t *testing.T) {
	got := infoEntries(map[engine.Metadata]string{
		engine.Title:            "Report",
		engine.CreationDate:     "2025-12-11T05:36:01Z",
		engine.ModificationDate: "yesterday",
	})
	want := map[string]string{
		"Title":        "Report",
		"CreationDate": "D:20251211053601Z",
		"ModDate":      "yesterday",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("infoEntries[%s] = %q, want %q", k, got[k], v)
		}
	}
}

func TestResizePNG(t *testing.T) {
	src := testPNG(t, 40, 20)
	tests := []struct {
		width, height int
		wantW, wantH  int
	}{
		{engine.NaturalSize, engine.NaturalSize, 40, 20},
		{20, engine.NaturalSize, 20, 10},
		{engine.NaturalSize, 40, 80, 40},
		{10, 10, 10, 10},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		if err := resizePNG(&out, src, tt.width, tt.height); err != nil {
			t.Fatalf("resizePNG(%d, %d): %v", tt.width, tt.height, err)
		}
		cfg, err := png.DecodeConfig(&out)
		if err != nil {
			t.Fatalf("output is not a PNG: %v", err)
		}
		if cfg.Width != tt.wantW || cfg.Height != tt.wantH {
			t.Errorf("resizePNG(%d, %d) = %dx%d, want %dx%d",
				tt.width, tt.height, cfg.Width, cfg.Height, tt.wantW, tt.wantH)
		}
	}
	if err := resizePNG(&bytes.Buffer{}, src, 0, 10); err == nil {
		t.Error("zero width accepted")
	}
	if err := resizePNG(&bytes.Buffer{}, src, 1<<40, 1<<40); err == nil {
		t.Error("huge size accepted")
	}
}
