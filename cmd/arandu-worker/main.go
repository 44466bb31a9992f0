// Command arandu-worker drains both the reproduction queue and the review
// queue, running each dequeued item's pipeline to completion. It is the
// only process permitted to touch the Docker socket (spec §4.7).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/docker/docker/client"
	"github.com/spf13/cobra"

	"github.com/scitorrent/arandu-repro/internal/config"
	"github.com/scitorrent/arandu-repro/internal/logging"
	"github.com/scitorrent/arandu-repro/internal/obsmetrics"
	"github.com/scitorrent/arandu-repro/internal/queue"
	reprowork "github.com/scitorrent/arandu-repro/internal/repro/worker"
	"github.com/scitorrent/arandu-repro/internal/review/rag"
	reviewwork "github.com/scitorrent/arandu-repro/internal/review/worker"
	"github.com/scitorrent/arandu-repro/internal/store"
)

var (
	configPath   string
	pollInterval time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "arandu-worker",
	Short: "Arandu Reproducibility Service pipeline workers",
	RunE:  runWorker,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file (defaults are used when absent)")
	rootCmd.Flags().DurationVar(&pollInterval, "poll-interval", 2*time.Second, "idle backoff between empty-queue polls")
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logging.Get("arandu_worker")
	obsmetrics.New() // registers the process-wide step observer; worker has no /metrics endpoint of its own

	db, err := store.Open(strings.TrimPrefix(cfg.DatabaseURL, "sqlite://"))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	docker, err := client.NewClientWithOpts(
		client.WithHost(cfg.Sandbox.ContainerSocket),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return fmt.Errorf("connecting to docker: %w", err)
	}
	defer docker.Close()

	q := queue.New(db.DB)
	repro := reprowork.New(db, q, docker, cfg)

	// The review pipeline's hybrid retrieval corpus is empty at process
	// startup; citation_suggestion degrades gracefully (spec §4.9) until a
	// corpus-loading companion process populates one.
	var ragPipeline *rag.Pipeline
	review := reviewwork.New(db, q, cfg, ragPipeline, "")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("worker started, polling every %s when idle", pollInterval)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		runLoop(ctx, log, "reproduction", repro.PollOnce, pollInterval)
	}()
	go func() {
		defer wg.Done()
		runLoop(ctx, log, "review", review.PollOnce, pollInterval)
	}()
	wg.Wait()
	return nil
}

// runLoop drains one queue through pollOnce, backing off for interval
// whenever a poll finds that queue empty. runWorker starts one loop per
// queue, concurrently. It blocks until ctx is cancelled.
func runLoop(ctx context.Context, log *logging.Logger, name string, pollOnce func(context.Context) error, interval time.Duration) {
	for {
		select {
		case <-ctx.Done():
			log.Info("%s loop shutting down", name)
			return
		default:
		}

		err := pollOnce(ctx)
		switch {
		case err == queue.ErrEmpty:
			select {
			case <-ctx.Done():
				return
			case <-time.After(interval):
			}
		case err != nil:
			log.Error("%s poll failed: %v", name, err)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
