package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dop251/goja"
	"github.com/spf13/cobra"

	"github.com/porticus-lab/htmlbook/jsbind"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run <script.js> [args...]",
		Short: "Run a JavaScript file with the htmlbook module",
		Long: `Run executes a script in an embedded JavaScript runtime. The module is
available as the global "htmlbook", the remaining arguments as "args", and
console.log/info/warn/error write to the log.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd.Context(), a, args[0], args[1:])
		},
	}
}

func runScript(ctx context.Context, a *app, path string, args []string) error {
	logger := loggerFromContext(ctx)
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	e, err := a.startEngine(ctx)
	if err != nil {
		return err
	}
	defer closeEngine(e)

	vm := goja.New()
	err = jsbind.Register(vm, "htmlbook",
		jsbind.WithEngine(e),
		jsbind.WithContext(ctx),
		jsbind.WithLogger(zapLogger(logger)),
	)
	if err != nil {
		return err
	}
	if err := vm.Set("console", newConsole(vm, logger)); err != nil {
		return err
	}
	if err := vm.Set("args", args); err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, func() { vm.Interrupt(ctx.Err()) })
	defer stop()

	p := newProgress(logger)
	if _, err := vm.RunScript(path, string(src)); err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			if cause, ok := interrupted.Value().(error); ok {
				return cause
			}
		}
		return fmt.Errorf("%s", strings.TrimSpace(err.Error()))
	}
	p.done("Ran " + path)
	return nil
}

// newConsole returns a console object whose methods log their arguments.
func newConsole(vm *goja.Runtime, logger *log.Logger) *goja.Object {
	console := vm.NewObject()
	levels := map[string]log.Level{
		"log":   log.InfoLevel,
		"info":  log.InfoLevel,
		"debug": log.DebugLevel,
		"warn":  log.WarnLevel,
		"error": log.ErrorLevel,
	}
	for name, level := range levels {
		console.Set(name, func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = arg.String()
			}
			logger.Log(level, strings.Join(parts, " "))
			return goja.Undefined()
		})
	}
	return console
}
