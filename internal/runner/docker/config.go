package docker

import "time"

// LanguageSpec maps one snippet language tag onto a container image and the
// interpreter invocation to run a code string with. The snippet body is
// appended as the final argument.
type LanguageSpec struct {
	Image string
	Args  []string
}

// Config holds limits and the language table for the Docker runner.
type Config struct {
	// Languages maps snippet language tags to their sandbox spec.
	Languages map[string]LanguageSpec
	// MemoryLimit is the per-container memory cap in bytes.
	MemoryLimit int64
	// CPULimit is the fraction of a CPU a container may use.
	CPULimit float64
	// Timeout caps one run's wall-clock time.
	Timeout time.Duration
	// PoolSize is the number of pre-warmed containers kept per language.
	PoolSize int
}

// DefaultConfig covers the interpreted languages snippets commonly carry.
// Compiled languages need a build step and are deliberately absent.
func DefaultConfig() Config {
	return Config{
		Languages: map[string]LanguageSpec{
			"python":     {Image: "python:3.12-alpine", Args: []string{"python", "-c"}},
			"javascript": {Image: "node:22-alpine", Args: []string{"node", "-e"}},
			"ruby":       {Image: "ruby:3.3-alpine", Args: []string{"ruby", "-e"}},
			"bash":       {Image: "alpine:3.20", Args: []string{"sh", "-c"}},
		},
		MemoryLimit: 128 * 1024 * 1024,
		CPULimit:    0.5,
		Timeout:     5 * time.Second,
		PoolSize:    2,
	}
}
