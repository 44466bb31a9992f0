// Command arandu-api serves the thin HTTP surface of spec §6: job and
// review submission/status, paper hosting, badges, and metrics. It never
// runs a pipeline itself — the job and review submission handlers only
// validate and enqueue, leaving execution to arandu-worker.
package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/scitorrent/arandu-repro/internal/config"
	"github.com/scitorrent/arandu-repro/internal/httpapi"
	"github.com/scitorrent/arandu-repro/internal/logging"
	"github.com/scitorrent/arandu-repro/internal/obsmetrics"
	"github.com/scitorrent/arandu-repro/internal/queue"
	"github.com/scitorrent/arandu-repro/internal/store"
)

var (
	configPath string
	addr       string
)

var rootCmd = &cobra.Command{
	Use:   "arandu-api",
	Short: "Arandu Reproducibility Service HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file (defaults are used when absent)")
	rootCmd.Flags().StringVar(&addr, "addr", ":8000", "address to listen on")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logging.Get("arandu_api")

	db, err := store.Open(strings.TrimPrefix(cfg.DatabaseURL, "sqlite://"))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	q := queue.New(db.DB)
	metrics := obsmetrics.New()
	api := httpapi.New(db, q, cfg, metrics)

	srv := &http.Server{
		Addr:         addr,
		Handler:      api.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
