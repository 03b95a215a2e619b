package engine

import "fmt"

// PageSelection returns the 1-based page numbers selected by start, end and
// step in a document of count pages.
//
// start and end are clamped into [1, count], so the defaults MinPageCount
// and MaxPageCount select every page. A positive step walks forward from
// start to end, a negative step walks backward.
func PageSelection(start, end, step, count int) ([]int, error) {
	if count < 1 {
		return nil, fmt.Errorf("document has no pages")
	}
	if step == 0 {
		return nil, fmt.Errorf("page step must not be zero")
	}
	start = clampPage(start, count)
	end = clampPage(end, count)
	if (step > 0 && start > end) || (step < 0 && start < end) {
		return nil, fmt.Errorf("invalid page range %d-%d with step %d", start, end, step)
	}

	var pages []int
	if step > 0 {
		for p := start; p <= end; p += step {
			pages = append(pages, p)
		}
	} else {
		for p := start; p >= end; p += step {
			pages = append(pages, p)
		}
	}
	return pages, nil
}

func clampPage(p, count int) int {
	if p < 1 {
		return 1
	}
	if p > count {
		return count
	}
	return p
}

// MaxImageSide is the largest width or height, in pixels, that ImageSize
// resolves a PNG request to.
const MaxImageSide = 1 << 14

// ImageSize resolves a requested PNG size against the natural size srcW by
// srcH. A NaturalSize dimension follows the aspect ratio of the other one,
// or the natural size when both are NaturalSize. Resolved sizes must lie in
// [1, MaxImageSide].
func ImageSize(srcW, srcH, width, height int) (int, int, error) {
	if width == NaturalSize && height == NaturalSize {
		return srcW, srcH, nil
	}
	if width > MaxImageSide || height > MaxImageSide {
		return 0, 0, fmt.Errorf("image size %dx%d exceeds %d pixels per side", width, height, MaxImageSide)
	}
	switch {
	case width == NaturalSize && srcH > 0:
		width = max(1, (srcW*height+srcH/2)/srcH)
	case height == NaturalSize && srcW > 0:
		height = max(1, (srcH*width+srcW/2)/srcW)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid image size %dx%d", width, height)
	}
	if width > MaxImageSide || height > MaxImageSide {
		return 0, 0, fmt.Errorf("image size %dx%d exceeds %d pixels per side", width, height, MaxImageSide)
	}
	return width, height, nil
}
