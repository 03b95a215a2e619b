package chrome

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/image/draw"

	"github.com/porticus-lab/htmlbook/engine"
	"github.com/porticus-lab/htmlbook/internal/pdf"
)

// pageRanges formats an ascending page selection in the printToPDF range
// syntax, e.g. "1-3,5,7-9".
func pageRanges(pages []int) (string, error) {
	var b strings.Builder
	for i := 0; i < len(pages); {
		j := i
		for j+1 < len(pages) && pages[j+1] == pages[j]+1 {
			j++
		}
		if i > 0 {
			if pages[i] <= pages[i-1] {
				return "", fmt.Errorf("page order %d after %d is not supported", pages[i], pages[i-1])
			}
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(pages[i]))
		if j > i {
			b.WriteByte('-')
			b.WriteString(strconv.Itoa(pages[j]))
		}
		i = j + 1
	}
	return b.String(), nil
}

// infoEntries converts metadata to PDF Info dictionary entries. Dates given
// as "2006-01-02T15:04:05Z" become PDF dates.
func infoEntries(meta map[engine.Metadata]string) map[string]string {
	entries := make(map[string]string, len(meta))
	for k, v := range meta {
		if k == engine.CreationDate || k == engine.ModificationDate {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				v = pdf.DateString(t)
			}
		}
		entries[k.Key()] = v
	}
	return entries
}

// resizePNG writes the PNG screenshot src to w scaled to width by height
// pixels. A dimension of engine.NaturalSize is taken from src, or from the
// aspect ratio when the other dimension is given.
func resizePNG(w io.Writer, src []byte, width, height int) error {
	if width == engine.NaturalSize && height == engine.NaturalSize {
		_, err := w.Write(src)
		return err
	}
	img, err := png.Decode(bytes.NewReader(src))
	if err != nil {
		return fmt.Errorf("decoding screenshot: %w", err)
	}
	width, height, err = engine.ImageSize(img.Bounds().Dx(), img.Bounds().Dy(), width, height)
	if err != nil {
		return err
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return png.Encode(w, dst)
}
