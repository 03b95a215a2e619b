package cli

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/porticus-lab/htmlbook"
	"github.com/porticus-lab/htmlbook/props"
)

const (
	formatPDF = "pdf"
	formatPNG = "png"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	output string
	format string
	url    string
	config string

	// document options
	size       string
	media      string
	pageWidth  string
	pageHeight string
	margin     string
	title      string
	subject    string
	author     string
	keywords   string
	creator    string

	// load options
	baseURL    string
	mimeType   string
	encoding   string
	userStyle  string
	userScript string

	// output options
	pageStart   int
	pageEnd     int
	pageStep    int
	imageWidth  int
	imageHeight int
}

// Flags and the option keys they override.
var (
	documentFlags = map[string]string{
		"size":        "size",
		"media":       "media",
		"page-width":  "width",
		"page-height": "height",
		"margin":      "margin",
		"title":       "title",
		"subject":     "subject",
		"author":      "author",
		"keywords":    "keywords",
		"creator":     "creator",
	}
	loadFlags = map[string]string{
		"base-url":    "baseUrl",
		"mime-type":   "mimeType",
		"encoding":    "textEncoding",
		"user-style":  "userStyle",
		"user-script": "userScript",
	}
	pdfFlags = map[string]string{
		"page-start": "pageStart",
		"page-end":   "pageEnd",
		"page-step":  "pageStep",
	}
	pngFlags = map[string]string{
		"image-width":  "width",
		"image-height": "height",
	}

	// lengthFlags take a bare number of points as well as a unit suffix.
	lengthFlags = map[string]bool{
		"page-width":  true,
		"page-height": true,
		"margin":      true,
	}
)

func newRenderCmd(a *app) *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render an HTML, XML or image file to PDF or PNG",
		Long: `Render lays out the input and writes it as a PDF or PNG.

The input is an HTML, XML or image file, "-" for standard input, or a page
given with --url. The output format follows the extension of --output
unless --format is set. Options from --config are overridden by flags.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var input string
			if len(args) == 1 {
				input = args[0]
			}
			if (input == "") == (opts.url == "") {
				return fmt.Errorf("expected an input file or --url")
			}
			return runRender(cmd, a, input, &opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", "", `output file, "-" for standard output (default: input name with .pdf)`)
	f.StringVarP(&opts.format, "format", "f", "", "output format: pdf, png (default: from the output extension)")
	f.StringVar(&opts.url, "url", "", "load a URL instead of a file")
	f.StringVarP(&opts.config, "config", "c", "", "TOML file with document, [load], [pdf] and [png] options")

	f.StringVar(&opts.size, "size", "A4", "page size: A3, A4, A5, B4, B5, Letter, Legal, Ledger")
	f.StringVar(&opts.media, "media", "print", "CSS media: print, screen")
	f.StringVar(&opts.pageWidth, "page-width", "", "page width, e.g. 210mm or 595 points (overrides --size)")
	f.StringVar(&opts.pageHeight, "page-height", "", "page height, e.g. 11in (overrides --size)")
	f.StringVar(&opts.margin, "margin", "72pt", "page margin on all sides, e.g. 1cm or 36 points")
	f.StringVar(&opts.title, "title", "", "PDF title")
	f.StringVar(&opts.subject, "subject", "", "PDF subject")
	f.StringVar(&opts.author, "author", "", "PDF author")
	f.StringVar(&opts.keywords, "keywords", "", "PDF keywords")
	f.StringVar(&opts.creator, "creator", "", "PDF creator")

	f.StringVar(&opts.baseURL, "base-url", "", "base URL for relative links (default: the input directory)")
	f.StringVar(&opts.mimeType, "mime-type", "", "media type of the input (default: from the extension)")
	f.StringVar(&opts.encoding, "encoding", "", "text encoding of the input, e.g. shift_jis")
	f.StringVar(&opts.userStyle, "user-style", "", "CSS applied after the document's own styles")
	f.StringVar(&opts.userScript, "user-script", "", "JavaScript run after the document loads")

	f.IntVar(&opts.pageStart, "page-start", htmlbook.MinPageCount, "first page to write")
	f.IntVar(&opts.pageEnd, "page-end", htmlbook.MaxPageCount, "last page to write")
	f.IntVar(&opts.pageStep, "page-step", 1, "page step, negative to write backwards")
	f.IntVar(&opts.imageWidth, "image-width", -1, "PNG width in pixels (default: document width)")
	f.IntVar(&opts.imageHeight, "image-height", -1, "PNG height in pixels (default: document height)")

	return cmd
}

// renderPlan is everything render needs, resolved from the config file and
// flags before the engine starts.
type renderPlan struct {
	config htmlbook.Config
	load   htmlbook.LoadOptions
	pages  htmlbook.PageRange
	size   htmlbook.ImageSize
	format string
	output string
}

func (o *renderOpts) plan(cmd *cobra.Command, input string) (*renderPlan, error) {
	cfg := newRenderConfig()
	if o.config != "" {
		var err error
		if cfg, err = loadRenderConfig(o.config); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	override := func(m props.Map, names map[string]string) {
		for flag, key := range names {
			if !flags.Changed(flag) {
				continue
			}
			if n, err := flags.GetInt(flag); err == nil {
				m[key] = n
				continue
			}
			v := flags.Lookup(flag).Value.String()
			if lengthFlags[flag] {
				if pt, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
					m[key] = pt
					continue
				}
			}
			m[key] = v
		}
	}
	override(cfg.document, documentFlags)
	override(cfg.load, loadFlags)
	override(cfg.pdf, pdfFlags)
	override(cfg.png, pngFlags)

	p := &renderPlan{}
	var err error
	if p.config, err = htmlbook.ParseConfig(cfg.document); err != nil {
		return nil, err
	}
	if p.load, err = htmlbook.ParseDataOptions(cfg.load); err != nil {
		return nil, fmt.Errorf("load options: %w", err)
	}
	if p.pages, err = htmlbook.ParsePageRange(cfg.pdf, 0); err != nil {
		return nil, fmt.Errorf("pdf options: %w", err)
	}
	if p.size, err = htmlbook.ParseImageSize(cfg.png, 0); err != nil {
		return nil, fmt.Errorf("png options: %w", err)
	}

	p.output = o.output
	if p.output == "" {
		switch {
		case input != "" && input != "-":
			p.output = strings.TrimSuffix(input, filepath.Ext(input)) + "." + formatPDF
		default:
			p.output = "-"
		}
	}
	p.format = strings.ToLower(o.format)
	if p.format == "" {
		p.format = formatPDF
		if ext := strings.ToLower(filepath.Ext(p.output)); ext == ".png" {
			p.format = formatPNG
		}
	}
	if p.format != formatPDF && p.format != formatPNG {
		return nil, fmt.Errorf("invalid format: %s (must be 'pdf' or 'png')", p.format)
	}
	return p, nil
}

func runRender(cmd *cobra.Command, a *app, input string, o *renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	p, err := o.plan(cmd, input)
	if err != nil {
		return err
	}

	e, err := a.startEngine(ctx)
	if err != nil {
		return err
	}
	defer closeEngine(e)

	d, err := htmlbook.New(ctx, p.config,
		htmlbook.WithEngine(e),
		htmlbook.WithLogger(zapLogger(logger).With(zap.String("input", inputName(input, o.url)))),
	)
	if err != nil {
		return err
	}
	defer d.Close()

	prog := newProgress(logger)
	if err := load(ctx, d, input, o.url, p.load, cmd.InOrStdin()); err != nil {
		return fmt.Errorf("loading %s: %w", inputName(input, o.url), err)
	}
	prog.done(fmt.Sprintf("Laid out %d pages", d.PageCount()))

	prog = newProgress(logger)
	if err := write(ctx, d, p, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("writing %s: %w", p.output, err)
	}
	if p.output != "-" {
		prog.done("Wrote " + p.output)
	}
	return nil
}

func inputName(input, url string) string {
	if url != "" {
		return url
	}
	return input
}

// content kinds selected by file extension.
const (
	kindHTML = iota + 1
	kindXML
	kindImage
)

var extensionKinds = map[string]int{
	".html":  kindHTML,
	".htm":   kindHTML,
	".xhtml": kindXML,
	".xml":   kindXML,
	".svg":   kindXML,
	".png":   kindImage,
	".jpg":   kindImage,
	".jpeg":  kindImage,
	".gif":   kindImage,
	".webp":  kindImage,
	".bmp":   kindImage,
	".tif":   kindImage,
	".tiff":  kindImage,
}

func load(ctx context.Context, d *htmlbook.Document, input, url string, opts htmlbook.LoadOptions, stdin io.Reader) error {
	if url != "" {
		return d.LoadURL(ctx, url, htmlbook.LoadOptions{UserStyle: opts.UserStyle, UserScript: opts.UserScript})
	}

	var data []byte
	var err error
	if input == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(input)
	}
	if err != nil {
		return err
	}

	if opts.BaseURL == "" && input != "-" {
		dir, err := filepath.Abs(filepath.Dir(input))
		if err != nil {
			return err
		}
		opts.BaseURL = "file://" + filepath.ToSlash(dir) + "/"
	}

	ext := strings.ToLower(filepath.Ext(input))
	if opts.MimeType != "" || opts.TextEncoding != "" {
		if opts.MimeType == "" {
			if mt, _, err := mime.ParseMediaType(mime.TypeByExtension(ext)); err == nil {
				opts.MimeType = mt
			}
		}
		return d.LoadData(ctx, data, opts)
	}
	switch extensionKinds[ext] {
	case kindHTML:
		return d.LoadHTML(ctx, string(data), opts)
	case kindXML:
		return d.LoadXML(ctx, string(data), opts)
	case kindImage:
		return d.LoadImage(ctx, data, opts)
	}
	return d.LoadData(ctx, data, opts)
}

func write(ctx context.Context, d *htmlbook.Document, p *renderPlan, stdout io.Writer) error {
	if p.output != "-" {
		if p.format == formatPNG {
			return d.WriteToPNG(ctx, p.output, p.size)
		}
		return d.WriteToPDF(ctx, p.output, p.pages)
	}

	var res *htmlbook.Result
	var err error
	if p.format == formatPNG {
		res, err = d.WriteToPNGBuffer(ctx, p.size)
	} else {
		res, err = d.WriteToPDFBuffer(ctx, p.pages)
	}
	if err != nil {
		return err
	}
	_, err = res.WriteTo(stdout)
	return err
}
