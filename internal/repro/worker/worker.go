// Package worker runs the reproduction pipeline end to end: clone, detect,
// build, execute, emit artifacts, and the job status transitions around
// each step (spec §4.3, §4.8). Grounded on the teacher's worker-loop idiom
// (internal/core/shards's spawn/dispatch pattern) generalized from
// in-process shard dispatch to a durable queue consumer.
package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/docker/client"
	"github.com/google/uuid"

	"github.com/scitorrent/arandu-repro/internal/config"
	"github.com/scitorrent/arandu-repro/internal/logging"
	"github.com/scitorrent/arandu-repro/internal/queue"
	"github.com/scitorrent/arandu-repro/internal/reproerr"
	"github.com/scitorrent/arandu-repro/internal/repro/artifacts"
	"github.com/scitorrent/arandu-repro/internal/repro/cloner"
	"github.com/scitorrent/arandu-repro/internal/repro/envdetect"
	"github.com/scitorrent/arandu-repro/internal/repro/imagebuild"
	"github.com/scitorrent/arandu-repro/internal/repro/sandbox"
	"github.com/scitorrent/arandu-repro/internal/store"
)

var log = logging.Get("repro_worker")

// Worker dequeues reproduction Jobs and runs them to completion.
type Worker struct {
	db     *store.DB
	q      *queue.Queue
	docker *client.Client
	cfg    *config.Config
}

// New builds a reproduction Worker.
func New(db *store.DB, q *queue.Queue, docker *client.Client, cfg *config.Config) *Worker {
	return &Worker{db: db, q: q, docker: docker, cfg: cfg}
}

// PollOnce leases one item from the default queue and processes it. Returns
// queue.ErrEmpty when there is nothing to do, so callers can back off.
func (w *Worker) PollOnce(ctx context.Context) error {
	item, err := w.q.Dequeue(queue.Default, w.cfg.Timeouts.Reproduction)
	if err != nil {
		return err
	}
	w.process(ctx, item.RefID)
	return w.q.Complete(item.ID)
}

// process runs one Job through clone -> detect -> build -> execute ->
// artifacts, performing the pending->running->(completed|failed) transition
// discipline and the clone/image cleanup on every exit path (spec §4.3).
func (w *Worker) process(ctx context.Context, jobID string) {
	jobLog := log.WithJob(jobID)

	job, err := w.db.GetJob(jobID)
	if err != nil || job == nil {
		jobLog.Error("loading job: %v", err)
		return
	}

	if err := w.db.TransitionJob(jobID, store.JobRunning, "", ""); err != nil {
		jobLog.Error("transitioning to running: %v", err)
		return
	}

	repoPath := filepath.Join(w.cfg.Paths.TempReposBase, jobID)
	artifactsPath := filepath.Join(w.cfg.Paths.ArtifactsBase, jobID)
	var imageTag string

	defer func() {
		if cleanupErr := cloner.Cleanup(repoPath); cleanupErr != nil {
			jobLog.Warn("cleanup of clone dir failed: %v", cleanupErr)
		}
		if imageTag != "" {
			rmCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if rmErr := imagebuild.RemoveImage(rmCtx, w.docker, imageTag); rmErr != nil {
				jobLog.Warn("removing image %s failed: %v", imageTag, rmErr)
			}
		}
	}()

	env, result, runErr := w.runPipeline(ctx, jobID, job, repoPath, artifactsPath, &imageTag)
	if runErr != nil {
		msg := reproerr.Message(runErr)
		jobLog.Error("job failed: %s", msg)
		if tErr := w.db.TransitionJob(jobID, store.JobFailed, msg, envJSON(env)); tErr != nil {
			jobLog.Error("transitioning to failed: %v", tErr)
		}
		return
	}

	if err := w.emitArtifacts(jobID, job, env, result, artifactsPath); err != nil {
		jobLog.Error("emitting artifacts: %v", err)
		_ = w.db.TransitionJob(jobID, store.JobFailed, err.Error(), envJSON(env))
		return
	}

	run := &store.Run{
		JobID: jobID, ExitCode: result.ExitCode,
		StdoutPreview: result.StdoutPreview, StderrPreview: result.StderrPreview,
		LogsPath: result.CombinedLogPath, StartedAt: result.StartedAt,
		CompletedAt: result.CompletedAt, DurationSeconds: result.Duration.Seconds(),
	}
	if err := w.db.CreateRun(run); err != nil {
		jobLog.Error("recording run: %v", err)
		_ = w.db.TransitionJob(jobID, store.JobFailed, err.Error(), envJSON(env))
		return
	}

	if err := w.db.TransitionJob(jobID, store.JobCompleted, "", envJSON(env)); err != nil {
		jobLog.Error("transitioning to completed: %v", err)
	}
}

func (w *Worker) runPipeline(ctx context.Context, jobID string, job *store.Job, repoPath, artifactsPath string, imageTag *string) (*envdetect.EnvironmentInfo, *sandbox.Result, error) {
	if _, err := cloner.Clone(ctx, jobID, job.RepoURL, repoPath); err != nil {
		return nil, nil, err
	}

	env, err := envdetect.Detect(jobID, repoPath)
	if err != nil {
		return nil, nil, err
	}

	tag, err := imagebuild.Build(ctx, w.docker, jobID, repoPath, env, w.cfg.NonRootUser, w.cfg.NonRootUID)
	if err != nil {
		return env, nil, err
	}
	*imageTag = tag

	sandboxCfg := sandbox.Config{
		NonRootUser: w.cfg.NonRootUser, NonRootUID: w.cfg.NonRootUID,
		CPULimit: w.cfg.Sandbox.CPULimit, MemoryLimit: w.cfg.Sandbox.MemoryLimit,
		NetworkMode: w.cfg.Sandbox.NetworkMode, ReadOnlyRootfs: w.cfg.Sandbox.ReadOnlyRootfs,
		Timeout: w.cfg.Timeouts.Execution, MaxLogSize: w.cfg.Sandbox.MaxLogSize,
	}
	if err := sandbox.Preflight(sandboxCfg); err != nil {
		return env, nil, err
	}

	runCommand := job.RunCommand.String
	if runCommand == "" {
		runCommand = "true"
	}
	result, err := sandbox.Run(ctx, w.docker, jobID, tag, runCommand, repoPath, artifactsPath, sandboxCfg)
	if err != nil {
		return env, nil, err
	}
	if result.ExitCode != 0 {
		return env, result, nil
	}
	return env, result, nil
}

func (w *Worker) emitArtifacts(jobID string, job *store.Job, env *envdetect.EnvironmentInfo, result *sandbox.Result, artifactsPath string) error {
	status := "completed"
	if result.ExitCode != 0 {
		status = "failed"
	}

	report := artifacts.GenerateReport(artifacts.ReportInput{
		JobID: jobID, RepoURL: job.RepoURL, RunCommand: job.RunCommand.String,
		Environment: env, Status: status, ExitCode: result.ExitCode,
		Duration: result.Duration, StdoutPreview: result.StdoutPreview,
		StderrPreview: result.StderrPreview, LogsPath: result.CombinedLogPath,
	})
	reportPath := filepath.Join(artifactsPath, "report.md")
	if err := writeArtifactFile(reportPath, []byte(report)); err != nil {
		return err
	}

	notebook, err := artifacts.GenerateNotebook(jobID, job.RunCommand.String, env)
	if err != nil {
		return fmt.Errorf("generating notebook: %w", err)
	}
	notebookPath := filepath.Join(artifactsPath, "notebook.ipynb")
	if err := writeArtifactFile(notebookPath, notebook); err != nil {
		return err
	}

	badge := artifacts.GenerateBadge(status)
	badgePath := filepath.Join(artifactsPath, "badge.md")
	if err := writeArtifactFile(badgePath, []byte(badge)); err != nil {
		return err
	}

	for _, a := range []struct {
		typ    store.ArtifactType
		format string
		path   string
		data   []byte
	}{
		{store.ArtifactReport, "markdown", reportPath, []byte(report)},
		{store.ArtifactNotebook, "json", notebookPath, notebook},
		{store.ArtifactBadge, "markdown", badgePath, []byte(badge)},
	} {
		if err := w.db.CreateArtifact(&store.Artifact{
			ID: uuid.NewString(), JobID: jobID, Type: a.typ, Format: a.format,
			ContentPath: a.path, ContentSize: int64(len(a.data)),
		}); err != nil {
			return fmt.Errorf("recording artifact %s: %w", a.typ, err)
		}
	}
	return nil
}

func writeArtifactFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating artifact dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing artifact %s: %w", path, err)
	}
	return nil
}

func envJSON(env *envdetect.EnvironmentInfo) string {
	if env == nil {
		return ""
	}
	return fmt.Sprintf(`{"type":%q,"base_image":%q}`, env.Type, env.BaseImage)
}
