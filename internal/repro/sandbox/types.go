// Package sandbox is the security-critical sandboxed executor of spec §4.7.
// It launches a tagged image with strict, non-negotiable resource and
// network isolation, enforced by preflight assertions before any container
// is ever created. Adapted from the teacher's tactile package (internal/
// tactile/types.go's Command/ResourceLimits/SandboxConfig/ExecutionResult
// family, internal/tactile/docker.go's executor), replacing the teacher's
// "shell out to the docker CLI, arbitrary sandbox mode" design with a single
// hard-coded Docker-only path via the github.com/docker/docker client,
// because this service — unlike a general-purpose agent runtime — only ever
// needs one isolation strategy and benefits from its preconditions being
// impossible to bypass by configuration.
package sandbox

import "time"

// Config is the sandbox configuration resolved for one execution (spec §4.7).
type Config struct {
	NonRootUser    string
	NonRootUID     int
	CPULimit       float64 // fractional cores
	MemoryLimit    string  // suffixed string: "2g", "512m", "1024k", or raw bytes
	NetworkMode    string  // "none" | "bridge"
	ReadOnlyRootfs bool
	Timeout        time.Duration
	MaxLogSize     int64 // bytes; previews truncated to MaxLogSize/2 each
}

// Mount is one of the exactly-two volume mounts permitted (spec §4.7).
type Mount struct {
	HostPath      string
	ContainerPath string
	ReadOnly      bool
}

// Result is the outcome of one sandboxed execution.
type Result struct {
	ExitCode        int
	StdoutPreview   string
	StderrPreview   string
	CombinedLogPath string
	StartedAt       time.Time
	CompletedAt     time.Time
	Duration        time.Duration
	TimedOut        bool
}
