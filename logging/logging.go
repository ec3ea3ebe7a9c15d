// Package logging configures the commonlog backend for rox binaries and
// hands out package loggers.
package logging

import (
	"github.com/tliron/commonlog"

	"github.com/TamplierS1/rox/manifest"

	_ "github.com/tliron/commonlog/simple"
)

// Root is the name prefix shared by every rox logger.
const Root = "rox"

// Configure applies the [log] section of a manifest to the commonlog backend.
func Configure(cfg manifest.Log) {
	commonlog.Configure(cfg.Verbosity, cfg.LogPath())
}

// Quiet silences all log output.
func Quiet() {
	commonlog.Configure(-4, nil)
}

// Get returns the logger for a rox component, e.g. Get("vm") is "rox.vm".
func Get(component string) commonlog.Logger {
	return commonlog.GetLogger(Root + "." + component)
}
