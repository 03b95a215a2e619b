package engine

import "fmt"

// Length conversion factors to points.
const (
	UnitsPT = 1.0
	UnitsPC = 12.0
	UnitsIN = 72.0
	UnitsCM = 72.0 / 2.54
	UnitsMM = 72.0 / 25.4
	UnitsPX = 72.0 / 96.0
)

// Page range bounds accepted by WritePDF.
const (
	MinPageCount = 0
	MaxPageCount = 0xFFFFFFFF
)

// NaturalSize asks WritePNG to use the document's own width or height.
const NaturalSize = -1

// PageSize represents paper dimensions in points.
type PageSize struct {
	Width  float64
	Height float64
}

// Standard paper sizes.
var (
	A3     = PageSize{Width: 297 * UnitsMM, Height: 420 * UnitsMM}
	A4     = PageSize{Width: 210 * UnitsMM, Height: 297 * UnitsMM}
	A5     = PageSize{Width: 148 * UnitsMM, Height: 210 * UnitsMM}
	B4     = PageSize{Width: 250 * UnitsMM, Height: 353 * UnitsMM}
	B5     = PageSize{Width: 176 * UnitsMM, Height: 250 * UnitsMM}
	Letter = PageSize{Width: 8.5 * UnitsIN, Height: 11 * UnitsIN}
	Legal  = PageSize{Width: 8.5 * UnitsIN, Height: 14 * UnitsIN}
	Ledger = PageSize{Width: 11 * UnitsIN, Height: 17 * UnitsIN}
)

// Margins represents page margins in points.
type Margins struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// UniformMargins returns Margins with the same value on all sides.
func UniformMargins(pt float64) Margins {
	return Margins{Top: pt, Right: pt, Bottom: pt, Left: pt}
}

// Media selects which style rules apply while rendering.
type Media int

const (
	// Print applies @media print rules. It is the default.
	Print Media = iota
	// Screen applies @media screen rules.
	Screen
)

func (m Media) String() string {
	switch m {
	case Print:
		return "print"
	case Screen:
		return "screen"
	}
	return fmt.Sprintf("Media(%d)", int(m))
}

// Metadata identifies a PDF document information entry.
type Metadata int

const (
	Title Metadata = iota
	Author
	Subject
	Keywords
	Creator
	CreationDate
	ModificationDate
)

// Key returns the PDF Info dictionary key for m.
func (m Metadata) Key() string {
	switch m {
	case Title:
		return "Title"
	case Author:
		return "Author"
	case Subject:
		return "Subject"
	case Keywords:
		return "Keywords"
	case Creator:
		return "Creator"
	case CreationDate:
		return "CreationDate"
	case ModificationDate:
		return "ModDate"
	}
	return ""
}

func (m Metadata) String() string {
	if k := m.Key(); k != "" {
		return k
	}
	return fmt.Sprintf("Metadata(%d)", int(m))
}
