package htmlbook

import (
	"math"
	"time"

	"github.com/porticus-lab/htmlbook/engine"
	"github.com/porticus-lab/htmlbook/props"
)

// PageSize represents paper dimensions in points.
type PageSize = engine.PageSize

// Margins represents page margins in points.
type Margins = engine.Margins

// Media selects which style rules apply while rendering.
type Media = engine.Media

// Rendering media.
const (
	Print  = engine.Print
	Screen = engine.Screen
)

// Length conversion factors to points.
const (
	UnitsPT = engine.UnitsPT
	UnitsPC = engine.UnitsPC
	UnitsIN = engine.UnitsIN
	UnitsCM = engine.UnitsCM
	UnitsMM = engine.UnitsMM
	UnitsPX = engine.UnitsPX
)

// Page range bounds.
const (
	MinPageCount = engine.MinPageCount
	MaxPageCount = engine.MaxPageCount
)

// Standard paper sizes.
var (
	A3     = engine.A3
	A4     = engine.A4
	A5     = engine.A5
	B4     = engine.B4
	B5     = engine.B5
	Letter = engine.Letter
	Legal  = engine.Legal
	Ledger = engine.Ledger
)

var (
	pageSizes = map[string]PageSize{
		"a3":     A3,
		"a4":     A4,
		"a5":     A5,
		"b4":     B4,
		"b5":     B5,
		"letter": Letter,
		"legal":  Legal,
		"ledger": Ledger,
	}

	mediaTypes = map[string]Media{
		"print":  Print,
		"screen": Screen,
	}

	lengthUnits = map[string]float64{
		"pt": UnitsPT,
		"pc": UnitsPC,
		"in": UnitsIN,
		"cm": UnitsCM,
		"mm": UnitsMM,
		"px": UnitsPX,
	}

	lengthOf = props.Length(lengthUnits)
)

// ParseLength converts a length such as "2.5cm" or a number of points to
// points. Units are pt, pc, in, cm, mm and px.
func ParseLength(v any) (float64, error) {
	return lengthOf(v, "length")
}

// Config controls how a document is laid out and which metadata its PDF
// output carries.
type Config struct {
	// Size of each page. Defaults to A4.
	Size PageSize

	// Media whose style rules apply. Defaults to Print.
	Media Media

	// Margins of each page. Defaults to 72pt (one inch) on all sides.
	Margins Margins

	// Metadata strings are stored when non-empty, or when given in the
	// options object passed to ParseConfig, even as "".
	Title    string
	Subject  string
	Author   string
	Keywords string
	Creator  string

	// CreationDate and ModificationDate are stored when non-zero.
	CreationDate     time.Time
	ModificationDate time.Time

	// given records the metadata strings present in the options object.
	given uint8
}

// DefaultConfig returns a Config with A4 pages, print media and one inch
// margins.
func DefaultConfig() Config {
	return Config{
		Size:    A4,
		Media:   Print,
		Margins: engine.UniformMargins(72),
	}
}

// unset marks a length option that was not given.
const unset = -1

// ParseConfig builds a Config from an options object, the first argument of
// the Document constructor. Recognized properties are size, media, width,
// height, margin, marginTop, marginRight, marginBottom, marginLeft, title,
// subject, author, keywords, creator, creationDate and modificationDate.
//
// width and height override the dimensions of size independently. Each
// side margin falls back to margin, which falls back to one inch.
func ParseConfig(arg any) (Config, error) {
	cfg := DefaultConfig()

	size := A4
	width, height := float64(unset), float64(unset)
	margin := float64(unset)
	top, right, bottom, left := float64(unset), float64(unset), float64(unset), float64(unset)
	created, modified := math.NaN(), math.NaN()

	err := props.Parse(arg, 0,
		props.Field("size", props.Enum(pageSizes), &size),
		props.Field("media", props.Enum(mediaTypes), &cfg.Media),
		props.Field("width", lengthOf, &width),
		props.Field("height", lengthOf, &height),
		props.Field("margin", lengthOf, &margin),
		props.Field("marginTop", lengthOf, &top),
		props.Field("marginRight", lengthOf, &right),
		props.Field("marginBottom", lengthOf, &bottom),
		props.Field("marginLeft", lengthOf, &left),
		props.Field("title", cfg.metadataString(engine.Title), &cfg.Title),
		props.Field("subject", cfg.metadataString(engine.Subject), &cfg.Subject),
		props.Field("author", cfg.metadataString(engine.Author), &cfg.Author),
		props.Field("keywords", cfg.metadataString(engine.Keywords), &cfg.Keywords),
		props.Field("creator", cfg.metadataString(engine.Creator), &cfg.Creator),
		props.Field("creationDate", props.Date, &created),
		props.Field("modificationDate", props.Date, &modified),
	)
	if err != nil {
		return Config{}, err
	}

	cfg.Size = size
	if width != unset {
		cfg.Size.Width = width
	}
	if height != unset {
		cfg.Size.Height = height
	}

	if margin == unset {
		margin = 72
	}
	cfg.Margins = engine.Margins{
		Top:    orDefault(top, margin),
		Right:  orDefault(right, margin),
		Bottom: orDefault(bottom, margin),
		Left:   orDefault(left, margin),
	}

	if !math.IsNaN(created) {
		cfg.CreationDate = time.UnixMilli(int64(created)).UTC()
	}
	if !math.IsNaN(modified) {
		cfg.ModificationDate = time.UnixMilli(int64(modified)).UTC()
	}
	return cfg, nil
}

// metadataString coerces a metadata string and marks key as given.
func (c *Config) metadataString(key engine.Metadata) props.Coercer[string] {
	return func(v any, name string) (string, error) {
		s, err := props.String(v, name)
		if err == nil {
			c.given |= 1 << key
		}
		return s, err
	}
}

func orDefault(v, def float64) float64 {
	if v == unset {
		return def
	}
	return v
}

// metadataDate formats t the way PDF Info dates are handed to the engine.
func metadataDate(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

type metadataEntry struct {
	key   engine.Metadata
	value string
}

// metadata returns the metadata entries of c in a fixed order.
func (c Config) metadata() []metadataEntry {
	var entries []metadataEntry
	set := func(key engine.Metadata, v string) {
		if v != "" || c.given&(1<<key) != 0 {
			entries = append(entries, metadataEntry{key, v})
		}
	}
	set(engine.Title, c.Title)
	set(engine.Subject, c.Subject)
	set(engine.Author, c.Author)
	set(engine.Keywords, c.Keywords)
	set(engine.Creator, c.Creator)
	if !c.CreationDate.IsZero() {
		set(engine.CreationDate, metadataDate(c.CreationDate))
	}
	if !c.ModificationDate.IsZero() {
		set(engine.ModificationDate, metadataDate(c.ModificationDate))
	}
	return entries
}

func (c Config) setup() engine.Setup {
	return engine.Setup{
		Size:    c.Size,
		Margins: c.Margins,
		Media:   c.Media,
	}
}
