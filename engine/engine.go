// Package engine describes the rendering engine that htmlbook drives.
//
// The engine owns everything that is hard about turning HTML into pages:
// parsing, layout, font shaping, PDF and PNG encoding. htmlbook only
// validates caller values, forwards them through the interfaces declared
// here, and marshals results back. Package chrome provides the default
// implementation.
package engine

import (
	"context"
	"io"
)

// Engine creates document instances.
type Engine interface {
	// NewInstance creates a document laid out with the given page setup.
	NewInstance(ctx context.Context, setup Setup) (Instance, error)

	// Version returns the engine version string.
	Version() string

	// BuildInfo returns a human-readable description of the engine build.
	BuildInfo() string
}

// Setup is the page geometry an Instance is created with.
type Setup struct {
	Size    PageSize
	Margins Margins
	Media   Media
}

// LoadOptions carries the optional strings every load entry point accepts.
// Empty strings mean "not provided".
type LoadOptions struct {
	MimeType     string
	TextEncoding string
	UserStyle    string
	UserScript   string
	BaseURL      string
}

// Instance is one engine document. An Instance is not safe for concurrent
// use; callers serialize access.
//
// Failing operations return an error whose message is the engine's own
// description of the failure. A failed load leaves the Instance usable.
type Instance interface {
	SetMetadata(key Metadata, value string)

	PageCount() int
	DocumentWidth() float64
	DocumentHeight() float64
	ViewportWidth() float64
	ViewportHeight() float64

	LoadURL(ctx context.Context, url string, opts LoadOptions) error
	LoadHTML(ctx context.Context, content string, opts LoadOptions) error
	LoadXML(ctx context.Context, content string, opts LoadOptions) error
	LoadData(ctx context.Context, data []byte, opts LoadOptions) error
	LoadImage(ctx context.Context, data []byte, opts LoadOptions) error

	// WritePDF renders pages pageStart..pageEnd (1-based, stepping by
	// pageStep) to w. See PageSelection for the range rules.
	WritePDF(ctx context.Context, w io.Writer, pageStart, pageEnd, pageStep int) error

	// WritePNG rasterizes the document to w. A width or height of
	// NaturalSize uses the document's own dimension.
	WritePNG(ctx context.Context, w io.Writer, width, height int) error

	// Destroy releases the instance. It is called exactly once.
	Destroy()
}
