package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"go.uber.org/zap"

	"github.com/scitorrent/arandu-repro/internal/logging"
	"github.com/scitorrent/arandu-repro/internal/reproerr"
)

var log = logging.Get("sandbox")

// audit is a zap sub-logger dedicated to the sandbox's execution audit
// trail — typed fields (duration, exit code, container id) for downstream
// log aggregation that the category logger's format-string events don't
// carry as distinct, queryable fields.
var audit = newAuditLogger()

func newAuditLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// Run launches image under cfg with exactly two mounts — the cloned repo
// read-only at /workspace, an artifacts directory read-write at /artifacts —
// executes runCommand, waits with cfg.Timeout, and produces the combined log
// plus truncated previews (spec §4.7). Preflight must have already been
// called; Run does not re-check the preconditions it enforces.
func Run(ctx context.Context, cli *client.Client, jobID, image, runCommand, repoPath, artifactsPath string, cfg Config) (*Result, error) {
	step := logging.LogStep("sandbox", jobID, "execute")
	var outerErr error
	defer func() { step.End(outerErr) }()

	quota, period := CPUQuotaNanos(cfg.CPULimit)
	memBytes, err := parseMemoryBytes(cfg.MemoryLimit)
	if err != nil {
		outerErr = reproerr.Execution("%v", err)
		return nil, outerErr
	}

	if err := os.MkdirAll(artifactsPath, 0o755); err != nil {
		outerErr = reproerr.Execution("creating artifacts dir %s: %v", artifactsPath, err)
		return nil, outerErr
	}

	hostCfg := &container.HostConfig{
		Resources: container.Resources{
			CPUQuota:  quota,
			CPUPeriod: period,
			Memory:    memBytes,
		},
		NetworkMode:    container.NetworkMode(cfg.NetworkMode),
		ReadonlyRootfs: cfg.ReadOnlyRootfs,
		Mounts: []mount.Mount{
			{Type: mount.TypeBind, Source: repoPath, Target: "/workspace", ReadOnly: true},
			{Type: mount.TypeBind, Source: artifactsPath, Target: "/artifacts", ReadOnly: false},
		},
	}

	containerCfg := &container.Config{
		Image:      image,
		Cmd:        []string{"/bin/sh", "-c", runCommand},
		User:       fmt.Sprintf("%d", cfg.NonRootUID),
		WorkingDir: "/workspace",
	}

	startedAt := time.Now().UTC()
	created, err := cli.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, "")
	if err != nil {
		outerErr = reproerr.Execution("creating container for job %s: %v", jobID, err)
		return nil, outerErr
	}
	containerID := created.ID
	defer removeContainer(cli, containerID)

	if err := cli.ContainerStart(ctx, containerID, types.ContainerStartOptions{}); err != nil {
		outerErr = reproerr.Execution("starting container %s: %v", containerID, err)
		return nil, outerErr
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	statusCh, errCh := cli.ContainerWait(timeoutCtx, containerID, container.WaitConditionNotRunning)
	var exitCode int
	var timedOut bool

	select {
	case err := <-errCh:
		if timeoutCtx.Err() != nil {
			timedOut = true
			stopGracefully(cli, containerID)
			outerErr = reproerr.ExecutionTimeout("job %s exceeded timeout of %s", jobID, cfg.Timeout)
			return nil, outerErr
		}
		if err != nil {
			outerErr = reproerr.Execution("waiting for container %s: %v", containerID, err)
			return nil, outerErr
		}
	case status := <-statusCh:
		exitCode = int(status.StatusCode)
	case <-timeoutCtx.Done():
		timedOut = true
		stopGracefully(cli, containerID)
		outerErr = reproerr.ExecutionTimeout("job %s exceeded timeout of %s", jobID, cfg.Timeout)
		return nil, outerErr
	}

	completedAt := time.Now().UTC()
	stdout, stderr, combined, err := captureLogs(ctx, cli, containerID)
	if err != nil {
		outerErr = reproerr.Execution("capturing logs for container %s: %v", containerID, err)
		return nil, outerErr
	}

	logsDir := filepath.Join(artifactsPath, "logs")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		outerErr = reproerr.Execution("creating logs dir: %v", err)
		return nil, outerErr
	}
	combinedPath := filepath.Join(logsDir, "combined.log")
	if err := os.WriteFile(combinedPath, combined, 0o644); err != nil {
		outerErr = reproerr.Execution("writing combined log: %v", err)
		return nil, outerErr
	}

	half := cfg.MaxLogSize / 2
	result := &Result{
		ExitCode:        exitCode,
		StdoutPreview:   truncateUTF8(stdout, half),
		StderrPreview:   truncateUTF8(stderr, half),
		CombinedLogPath: combinedPath,
		StartedAt:       startedAt,
		CompletedAt:     completedAt,
		Duration:        completedAt.Sub(startedAt),
		TimedOut:        timedOut,
	}
	log.Info("job %s exited %d in %s", jobID, exitCode, result.Duration)
	audit.Info("sandbox execution completed",
		zap.String("job_id", jobID),
		zap.String("container_id", containerID),
		zap.Int("exit_code", exitCode),
		zap.Duration("duration", result.Duration),
		zap.Bool("timed_out", timedOut),
	)
	return result, nil
}

func stopGracefully(cli *client.Client, containerID string) {
	grace := 5
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := cli.ContainerStop(stopCtx, containerID, container.StopOptions{Timeout: &grace}); err != nil {
		log.Warn("cooperative stop of %s failed: %v", containerID, err)
	}
}

func removeContainer(cli *client.Client, containerID string) {
	rmCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := cli.ContainerRemove(rmCtx, containerID, types.ContainerRemoveOptions{Force: true}); err != nil {
		log.Warn("removing container %s failed: %v", containerID, err)
	}
}

func captureLogs(ctx context.Context, cli *client.Client, containerID string) (stdout, stderr, combined []byte, err error) {
	rc, err := cli.ContainerLogs(ctx, containerID, types.ContainerLogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fetching logs: %w", err)
	}
	defer rc.Close()

	var outBuf, errBuf bytes.Buffer
	if _, err := stdcopy.StdCopy(&outBuf, &errBuf, rc); err != nil && err != io.EOF {
		return nil, nil, nil, fmt.Errorf("demuxing logs: %w", err)
	}

	var combinedBuf bytes.Buffer
	combinedBuf.Write(outBuf.Bytes())
	combinedBuf.Write(errBuf.Bytes())
	return outBuf.Bytes(), errBuf.Bytes(), combinedBuf.Bytes(), nil
}

// truncateUTF8 truncates b to at most maxBytes, preserving a valid UTF-8
// boundary by removing trailing bytes until the slice decodes cleanly, and
// appends the "... [truncated]" marker (spec §4.7).
func truncateUTF8(b []byte, maxBytes int64) string {
	if maxBytes <= 0 || int64(len(b)) <= maxBytes {
		return string(b)
	}
	marker := "... [truncated]"
	limit := int(maxBytes) - len(marker)
	if limit < 0 {
		limit = 0
	}
	cut := b[:limit]
	for len(cut) > 0 && !utf8.Valid(cut) {
		cut = cut[:len(cut)-1]
	}
	return string(cut) + marker
}
