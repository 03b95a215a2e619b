// htmlbook renders HTML, XML and images to PDF or PNG with headless Chrome.
//
// Usage:
//
//	htmlbook render [flags] <input>
//	htmlbook info <file.pdf>
//	htmlbook run <script.js>
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/porticus-lab/htmlbook/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cli.Execute(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
