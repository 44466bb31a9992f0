package sandbox

import "github.com/scitorrent/arandu-repro/internal/reproerr"

// Preflight validates the non-negotiable security preconditions of spec §4.7
// before any container is launched. Every violation is surfaced as a single
// ExecutionError so the worker can fail the job without ever touching the
// Docker daemon.
func Preflight(cfg Config) error {
	if cfg.NonRootUser == "" || cfg.NonRootUser == "root" {
		return reproerr.Execution("sandbox user must be non-root, got %q", cfg.NonRootUser)
	}
	if cfg.NonRootUID == 0 {
		return reproerr.Execution("sandbox UID must not be 0")
	}
	if cfg.CPULimit <= 0 {
		return reproerr.Execution("sandbox CPU quota must be strictly positive, got %v", cfg.CPULimit)
	}
	if cfg.MemoryLimit == "" {
		return reproerr.Execution("sandbox memory limit must be set")
	}
	if cfg.NetworkMode != "none" && cfg.NetworkMode != "bridge" {
		return reproerr.Execution("sandbox network mode must be 'none' or 'bridge', got %q", cfg.NetworkMode)
	}
	return nil
}

// CPUQuotaNanos converts a fractional-core limit into the CFS quota/period
// pair Docker expects: quota = limit * 1e9 ns, period = 1e6 ns (spec §4.7).
func CPUQuotaNanos(limit float64) (quota, period int64) {
	return int64(limit * 1e9), 1e6
}

// ParseMemoryBytes parses a suffixed memory limit string ("g", "m", "k", or
// raw bytes) into a byte count.
func ParseMemoryBytes(s string) (int64, error) {
	return parseMemoryBytes(s)
}
