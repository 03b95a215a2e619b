// Package cli implements the htmlbook command-line interface.
//
// # Commands
//
//   - render: lay out an HTML, XML or image file (or a URL) and write a PDF or PNG
//   - info: print the version, page sizes and metadata of a PDF
//   - run: execute a JavaScript file with the htmlbook module installed
//
// All commands support --verbose (-v) for debug logging. The logger travels
// through the command context; library logs are forwarded to it.
package cli

import (
	"context"
	"io"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/porticus-lab/htmlbook/chrome"
	"github.com/porticus-lab/htmlbook/engine"
	"github.com/porticus-lab/htmlbook/internal/buildinfo"
)

// app holds state shared by the commands.
type app struct {
	verbose bool
	chrome  chromeFlags

	// newEngine replaces the Chrome engine, for tests.
	newEngine func(ctx context.Context) (engine.Engine, error)
}

// chromeFlags are the browser settings shared by render and run.
type chromeFlags struct {
	path         string
	noSandbox    bool
	autoDownload bool
	timeout      time.Duration
}

// Execute runs the htmlbook CLI.
func Execute(ctx context.Context) error {
	return newRootCmd(&app{}).ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "htmlbook",
		Short:        "htmlbook renders HTML and XML documents to PDF and PNG",
		Long:         `htmlbook lays out HTML, XML and images into paginated documents with headless Chrome and writes them as PDF files or PNG images.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if a.verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(cmd.ErrOrStderr(), level)))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&a.chrome.path, "chrome-path", "", "Chrome or Chromium executable (default: search PATH)")
	root.PersistentFlags().BoolVar(&a.chrome.noSandbox, "no-sandbox", false, "run Chrome without its sandbox (containers, CI)")
	root.PersistentFlags().BoolVar(&a.chrome.autoDownload, "auto-download", false, "download Chromium if no browser is installed")
	root.PersistentFlags().DurationVar(&a.chrome.timeout, "timeout", 30*time.Second, "limit for each browser operation")

	root.AddCommand(newRenderCmd(a))
	root.AddCommand(newInfoCmd())
	root.AddCommand(newRunCmd(a))
	return root
}

// startEngine starts the rendering engine. The caller closes it with
// closeEngine.
func (a *app) startEngine(ctx context.Context) (engine.Engine, error) {
	if a.newEngine != nil {
		return a.newEngine(ctx)
	}
	logger := loggerFromContext(ctx)
	opts := []chrome.Option{
		chrome.WithTimeout(a.chrome.timeout),
		chrome.WithLogger(zapLogger(logger)),
	}
	if a.chrome.path != "" {
		opts = append(opts, chrome.WithChromePath(a.chrome.path))
	}
	if a.chrome.noSandbox {
		opts = append(opts, chrome.WithNoSandbox())
	}
	if a.chrome.autoDownload {
		opts = append(opts, chrome.WithAutoDownload())
	}

	p := newProgress(logger)
	e, err := chrome.New(opts...)
	if err != nil {
		return nil, err
	}
	p.done("Started " + e.Version())
	return e, nil
}

func closeEngine(e engine.Engine) {
	if c, ok := e.(io.Closer); ok {
		c.Close()
	}
}
