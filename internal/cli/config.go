package cli

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/porticus-lab/htmlbook/props"
)

// renderConfig is a render configuration file. Top-level keys are the
// document options (size, margin, title, creationDate, ...). The optional
// tables [load], [pdf] and [png] hold load options, the PDF page range and
// the PNG size.
//
//	size = "letter"
//	margin = "2cm"
//	title = "Quarterly report"
//	creationDate = 2025-03-31T09:00:00Z
//
//	[pdf]
//	pageStart = 2
//
//	[load]
//	userStyle = "body { font-family: serif }"
type renderConfig struct {
	document props.Map
	load     props.Map
	pdf      props.Map
	png      props.Map
}

func newRenderConfig() *renderConfig {
	return &renderConfig{
		document: props.Map{},
		load:     props.Map{},
		pdf:      props.Map{},
		png:      props.Map{},
	}
}

// loadRenderConfig reads a TOML configuration file.
func loadRenderConfig(path string) (*renderConfig, error) {
	var raw map[string]any
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parseRenderConfig(raw)
}

func parseRenderConfig(raw map[string]any) (*renderConfig, error) {
	cfg := newRenderConfig()
	tables := map[string]props.Map{"load": cfg.load, "pdf": cfg.pdf, "png": cfg.png}
	for key, value := range raw {
		table, ok := tables[key]
		if !ok {
			cfg.document[key] = value
			continue
		}
		m, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("config: %s must be a table, not %s", key, props.KindOf(value))
		}
		for k, v := range m {
			table[k] = v
		}
	}
	return cfg, nil
}
