package htmlbook

import (
	"context"

	"github.com/porticus-lab/htmlbook/engine"
	"github.com/porticus-lab/htmlbook/props"
)

// LoadOptions carries the optional settings of the load methods. Empty
// fields are not passed on.
type LoadOptions = engine.LoadOptions

// ParseURLOptions reads userStyle and userScript from the options object
// given as the second argument of loadUrl.
func ParseURLOptions(arg any) (LoadOptions, error) {
	var o LoadOptions
	err := props.Parse(arg, 1,
		props.Field("userStyle", props.String, &o.UserStyle),
		props.Field("userScript", props.String, &o.UserScript),
	)
	return o, err
}

// ParseContentOptions reads baseUrl, userStyle and userScript from the
// options object given as the second argument of loadHtml and loadXml.
func ParseContentOptions(arg any) (LoadOptions, error) {
	var o LoadOptions
	err := props.Parse(arg, 1,
		props.Field("userStyle", props.String, &o.UserStyle),
		props.Field("userScript", props.String, &o.UserScript),
		props.Field("baseUrl", props.String, &o.BaseURL),
	)
	return o, err
}

// ParseDataOptions reads mimeType, textEncoding, baseUrl, userStyle and
// userScript from the options object given as the second argument of
// loadData and loadImage.
func ParseDataOptions(arg any) (LoadOptions, error) {
	var o LoadOptions
	err := props.Parse(arg, 1,
		props.Field("mimeType", props.String, &o.MimeType),
		props.Field("textEncoding", props.String, &o.TextEncoding),
		props.Field("userStyle", props.String, &o.UserStyle),
		props.Field("userScript", props.String, &o.UserScript),
		props.Field("baseUrl", props.String, &o.BaseURL),
	)
	return o, err
}

// LoadURL loads the document at url, replacing the current content.
func (d *Document) LoadURL(ctx context.Context, url string, opts LoadOptions) error {
	return d.load("loadUrl", func(inst engine.Instance) error {
		return inst.LoadURL(ctx, url, opts)
	})
}

// LoadHTML loads an HTML string, replacing the current content.
func (d *Document) LoadHTML(ctx context.Context, content string, opts LoadOptions) error {
	return d.load("loadHtml", func(inst engine.Instance) error {
		return inst.LoadHTML(ctx, content, opts)
	})
}

// LoadXML loads an XML string, replacing the current content.
func (d *Document) LoadXML(ctx context.Context, content string, opts LoadOptions) error {
	return d.load("loadXml", func(inst engine.Instance) error {
		return inst.LoadXML(ctx, content, opts)
	})
}

// LoadData loads raw bytes interpreted according to opts.MimeType and
// opts.TextEncoding, replacing the current content.
func (d *Document) LoadData(ctx context.Context, data []byte, opts LoadOptions) error {
	return d.load("loadData", func(inst engine.Instance) error {
		return inst.LoadData(ctx, data, opts)
	})
}

// LoadImage loads an encoded image, replacing the current content.
func (d *Document) LoadImage(ctx context.Context, data []byte, opts LoadOptions) error {
	return d.load("loadImage", func(inst engine.Instance) error {
		return inst.LoadImage(ctx, data, opts)
	})
}

func (d *Document) load(op string, fn func(engine.Instance) error) error {
	return d.do(func(inst engine.Instance) error {
		if err := fn(inst); err != nil {
			return d.engineError(op, err)
		}
		return nil
	})
}
