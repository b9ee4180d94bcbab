// Package docker runs snippet code inside locked-down containers: no
// network, read-only root filesystem, memory and CPU caps, and a hard
// timeout. One pool of pre-warmed containers exists per configured
// language.
package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/codewaltz/codewaltz/internal/apperror"
	"github.com/codewaltz/codewaltz/internal/runner"
)

// Runner implements runner.Runner on the Docker Engine API.
type Runner struct {
	cli    *client.Client
	config Config
	logger *slog.Logger
	pools  map[string]*pool
}

var _ runner.Runner = (*Runner)(nil)

// New connects to the Docker daemon, pulls every configured language image,
// and starts the per-language warm pools. An unreachable daemon surfaces
// here, so the caller can treat the runner as absent.
func New(cfg Config, logger *slog.Logger) (*Runner, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for lang, spec := range cfg.Languages {
		logger.Info("ensuring docker image is available",
			slog.String("language", lang),
			slog.String("image", spec.Image),
		)
		reader, err := cli.ImagePull(ctx, spec.Image, image.PullOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to pull image %s: %w", spec.Image, err)
		}
		// read to completion: the pull is done when the stream ends
		io.Copy(io.Discard, reader)
		reader.Close()
	}

	r := &Runner{
		cli:    cli,
		config: cfg,
		logger: logger,
		pools:  make(map[string]*pool, len(cfg.Languages)),
	}
	for lang, spec := range cfg.Languages {
		p := newPool(cli, spec.Image, cfg, logger)
		p.start()
		r.pools[lang] = p
	}
	return r, nil
}

// Close drains every pool and closes the Docker client.
func (r *Runner) Close() error {
	for _, p := range r.pools {
		p.stop()
	}
	return r.cli.Close()
}

// Languages returns the supported language tags, sorted for stable output.
func (r *Runner) Languages() []string {
	langs := make([]string, 0, len(r.pools))
	for lang := range r.pools {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Run executes the snippet body in a pre-warmed container for its language.
// The container is removed afterwards regardless of outcome.
func (r *Runner) Run(ctx context.Context, req runner.Request) (*runner.Result, error) {
	spec, ok := r.config.Languages[req.Language]
	if !ok {
		return nil, apperror.ValidationFailed("language",
			fmt.Sprintf("language %q is not runnable", req.Language))
	}

	start := time.Now()

	p := r.pools[req.Language]
	containerID, err := p.acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container from pool: %w", err)
	}

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := r.cli.ContainerRemove(cleanupCtx, containerID, container.RemoveOptions{Force: true}); err != nil {
			r.logger.Error("failed to remove container",
				slog.String("id", containerID),
				slog.String("error", err.Error()),
			)
		}
	}()

	runCtx, runCancel := context.WithTimeout(ctx, r.config.Timeout)
	defer runCancel()

	execResp, err := r.cli.ContainerExecCreate(runCtx, containerID, container.ExecOptions{
		AttachStdout: true,
		AttachStderr: true,
		Cmd:          append(append([]string{}, spec.Args...), req.Code),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create exec: %w", err)
	}

	attachResp, err := r.cli.ContainerExecAttach(runCtx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to attach to exec: %w", err)
	}
	defer attachResp.Close()

	var stdout, stderr bytes.Buffer

	done := make(chan struct{})
	go func() {
		// stdcopy demultiplexes the combined stream back into stdout/stderr
		_, _ = stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader)
		close(done)
	}()

	var exitCode int
	select {
	case <-done:
		if inspectResp, err := r.cli.ContainerExecInspect(ctx, execResp.ID); err == nil {
			exitCode = inspectResp.ExitCode
		}
	case <-runCtx.Done():
		exitCode = 124 // mirrors the unix timeout(1) convention
		stderr.WriteString("\nExecution timed out.\n")
	}

	return &runner.Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
		Duration: time.Since(start),
	}, nil
}
