// Package runner defines the interface for executing snippet code in an
// isolated environment. The docker subpackage is the real implementation;
// the server treats the runner as optional and serves everything else when
// no Docker daemon is reachable.
package runner

import (
	"context"
	"time"
)

// Request asks for one snippet body to be run under a language tag.
type Request struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// Result carries the captured output of one run.
type Result struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"duration"`
}

// Runner executes snippet code in an isolated environment.
type Runner interface {
	// Run executes the request. An unsupported language tag is a validation
	// error, not a failed run.
	Run(ctx context.Context, req Request) (*Result, error)
	// Languages lists the supported language tags.
	Languages() []string
}
