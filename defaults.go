package htmlbook

import (
	"sync"

	"github.com/porticus-lab/htmlbook/chrome"
	"github.com/porticus-lab/htmlbook/engine"
)

var (
	defaultMu     sync.Mutex
	defaultEngine engine.Engine
)

// DefaultEngine returns the engine used by documents created without
// [WithEngine]. Unless replaced with [SetDefaultEngine], it is a headless
// Chrome started on first use and kept for the life of the process.
func DefaultEngine() (engine.Engine, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultEngine == nil {
		e, err := chrome.New(chrome.WithLogger(Logger()))
		if err != nil {
			return nil, err
		}
		defaultEngine = e
	}
	return defaultEngine, nil
}

// SetDefaultEngine replaces the engine returned by [DefaultEngine].
func SetDefaultEngine(e engine.Engine) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultEngine = e
}

// EngineVersion returns the version of the default engine.
func EngineVersion() (string, error) {
	e, err := DefaultEngine()
	if err != nil {
		return "", err
	}
	return e.Version(), nil
}

// EngineBuildInfo returns the build description of the default engine.
func EngineBuildInfo() (string, error) {
	e, err := DefaultEngine()
	if err != nil {
		return "", err
	}
	return e.BuildInfo(), nil
}
