// Package hiveflow provides a top-level convenience entry point for
// composing autonomous agent pipelines with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/hiveflow"
//
//	rt, err := hiveflow.New()
//	rt, err := hiveflow.New(hiveflow.WithConfigPath("config.yaml"))
//	rt, err := hiveflow.New(hiveflow.WithClient(myClient))
//
// This is a thin wrapper around [quick.New]; both produce identical
// results. Use this package when you prefer the shorter import path.
package hiveflow

import (
	"github.com/BaSui01/hiveflow/quick"
)

// Option configures the runtime created by [New].
type Option = quick.Option

// Runtime is the assembled pipeline runtime.
type Runtime = quick.Runtime

// New assembles a pipeline runtime with minimal configuration.
func New(opts ...Option) (*Runtime, error) {
	return quick.New(opts...)
}

// Re-export runtime options so callers never need to import quick/.

// WithConfig sets a pre-built configuration.
var WithConfig = quick.WithConfig

// WithConfigPath loads configuration from a YAML file.
var WithConfigPath = quick.WithConfigPath

// WithClient sets a pre-built LLM completion client.
var WithClient = quick.WithClient

// WithLogger sets a pre-built logger.
var WithLogger = quick.WithLogger
