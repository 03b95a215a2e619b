// Package htmlbook lays out HTML and XML content into paginated documents
// and renders them to PDF or PNG.
//
// A [Document] owns one instance of a rendering engine. By default that is
// a tab in a shared headless Chrome, see [DefaultEngine]:
//
//	d, err := htmlbook.New(ctx, htmlbook.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer d.Close()
//
//	err = d.LoadHTML(ctx, "<h1>Hello</h1>", htmlbook.LoadOptions{})
//	err = d.WriteToPDF(ctx, "hello.pdf", htmlbook.DefaultPageRange())
//
// Content is replaced by each load: [Document.LoadURL], [Document.LoadHTML],
// [Document.LoadXML], [Document.LoadData] and [Document.LoadImage]. After a
// load, [Document.PageCount] and the size accessors describe the layout.
//
// Use [Config] to control paper size, media, margins and PDF metadata. Option
// objects coming from a script or a config file are parsed with
// [ParseConfig]:
//
//	cfg, err := htmlbook.ParseConfig(map[string]any{
//	    "size":   "letter",
//	    "margin": "2cm",
//	    "title":  "Report",
//	})
//
// Rendering into memory returns a [Result]:
//
//	res, err := d.WriteToPDFBuffer(ctx, htmlbook.PageRange{Start: 2, End: htmlbook.MaxPageCount, Step: 1})
//	res.Bytes()                       // []byte
//	res.Base64()                      // base64 string (RFC 4648)
//	res.WriteToFile("out.pdf", 0o644) // write to disk
//
// Chrome or Chromium must be installed, or the engine can download one, see
// [chrome.WithAutoDownload].
package htmlbook
