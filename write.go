package htmlbook

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/porticus-lab/htmlbook/engine"
	"github.com/porticus-lab/htmlbook/props"
)

// PageRange selects the pages written to a PDF. Start and End are 1-based
// and clamped to the document, so the default range selects every page.
type PageRange struct {
	Start int
	End   int
	Step  int
}

// DefaultPageRange returns the range of all pages.
func DefaultPageRange() PageRange {
	return PageRange{Start: MinPageCount, End: MaxPageCount, Step: 1}
}

// ImageSize is the pixel size of a PNG rendering. A dimension of -1 uses
// the document's own size; if only one is given the other keeps the
// aspect ratio.
type ImageSize struct {
	Width  int
	Height int
}

// DefaultImageSize returns the natural size of the document.
func DefaultImageSize() ImageSize {
	return ImageSize{Width: engine.NaturalSize, Height: engine.NaturalSize}
}

// ParsePageRange reads pageStart, pageEnd and pageStep from the options
// object at argument position pos.
func ParsePageRange(arg any, pos int) (PageRange, error) {
	r := DefaultPageRange()
	start, end, step := int64(r.Start), int64(r.End), int64(r.Step)
	err := props.Parse(arg, pos,
		props.Field("pageStart", props.Int, &start),
		props.Field("pageEnd", props.Int, &end),
		props.Field("pageStep", props.Int, &step),
	)
	if err != nil {
		return PageRange{}, err
	}
	return PageRange{Start: int(start), End: int(end), Step: int(step)}, nil
}

// ParseImageSize reads width and height from the options object at
// argument position pos.
func ParseImageSize(arg any, pos int) (ImageSize, error) {
	s := DefaultImageSize()
	width, height := int64(s.Width), int64(s.Height)
	err := props.Parse(arg, pos,
		props.Field("width", props.Int, &width),
		props.Field("height", props.Int, &height),
	)
	if err != nil {
		return ImageSize{}, err
	}
	return ImageSize{Width: int(width), Height: int(height)}, nil
}

// WriteToPDF renders the pages selected by r to a PDF file at path.
//
// The file is written through a temporary file in the same directory and
// only appears at path if rendering succeeds.
func (d *Document) WriteToPDF(ctx context.Context, path string, r PageRange) error {
	return d.writeFile("writeToPdf", path, func(inst engine.Instance, w io.Writer) error {
		return inst.WritePDF(ctx, w, r.Start, r.End, r.Step)
	})
}

// WriteToPDFBuffer renders the pages selected by r to an in-memory PDF.
func (d *Document) WriteToPDFBuffer(ctx context.Context, r PageRange) (*Result, error) {
	return d.writeBuffer("writeToPdfBuffer", func(inst engine.Instance, w io.Writer) error {
		return inst.WritePDF(ctx, w, r.Start, r.End, r.Step)
	})
}

// WriteToPNG rasterizes the document to a PNG file at path.
func (d *Document) WriteToPNG(ctx context.Context, path string, size ImageSize) error {
	return d.writeFile("writeToPng", path, func(inst engine.Instance, w io.Writer) error {
		return inst.WritePNG(ctx, w, size.Width, size.Height)
	})
}

// WriteToPNGBuffer rasterizes the document to an in-memory PNG.
func (d *Document) WriteToPNGBuffer(ctx context.Context, size ImageSize) (*Result, error) {
	return d.writeBuffer("writeToPngBuffer", func(inst engine.Instance, w io.Writer) error {
		return inst.WritePNG(ctx, w, size.Width, size.Height)
	})
}

type renderFunc func(inst engine.Instance, w io.Writer) error

func (d *Document) writeBuffer(op string, render renderFunc) (*Result, error) {
	var res *Result
	err := d.do(func(inst engine.Instance) error {
		s := NewSink(d.opts.maxOutputSize)
		defer s.Release()
		if err := render(inst, s); err != nil {
			return d.engineError(op, err)
		}
		res = s.Drain()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (d *Document) writeFile(op, path string, render renderFunc) error {
	return d.do(func(inst engine.Instance) error {
		if err := writeAtomic(path, func(w io.Writer) error { return render(inst, w) }); err != nil {
			return d.engineError(op, err)
		}
		return nil
	})
}

// writeAtomic writes the output of fn to a temporary file next to path and
// renames it over path once fn and the close succeed.
func writeAtomic(path string, fn func(io.Writer) error) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	if err = fn(f); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
