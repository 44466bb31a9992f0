// Package config holds the service's single configuration tree. It follows
// the teacher's config.Config style (internal/config/config.go in
// theRebelliousNerd/codenerd): a YAML-backed struct assembled from nested
// per-concern sub-structs, a DefaultConfig constructor, and Validate methods
// — generalized here from a coding-agent's settings to the enumerated
// configuration surface of spec §6.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds every configuration item enumerated in spec §6.
type Config struct {
	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"`

	Sandbox  SandboxConfig  `yaml:"sandbox"`
	Timeouts TimeoutsConfig `yaml:"timeouts"`
	Paths    PathsConfig    `yaml:"paths"`

	NonRootUser string `yaml:"non_root_user"`
	NonRootUID  int    `yaml:"non_root_uid"`

	AllowlistDomains []string `yaml:"allowlist_domains"`

	APIBaseURL string `yaml:"api_base_url"`
	WebOrigin  string `yaml:"web_origin"`

	MaxPDFSizeMB int64 `yaml:"max_pdf_size_mb"`

	RAG       RAGConfig       `yaml:"rag"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`

	Logging LoggingConfig `yaml:"logging"`
}

// SandboxConfig configures the sandboxed executor (spec §4.7).
type SandboxConfig struct {
	ContainerSocket string  `yaml:"container_socket"`
	CPULimit        float64 `yaml:"cpu_limit"`         // fractional cores
	MemoryLimit     string  `yaml:"memory_limit"`       // e.g. "2g"
	NetworkMode     string  `yaml:"network_mode"`       // "none" | "bridge"
	ReadOnlyRootfs  bool    `yaml:"read_only_rootfs"`
	MaxLogSize      int64   `yaml:"max_log_size"` // bytes, split across stdout/stderr previews
}

// TimeoutsConfig holds the per-item and per-operation timeouts of spec §4.3/§5.
type TimeoutsConfig struct {
	Reproduction time.Duration `yaml:"reproduction"` // 3600s
	Review       time.Duration `yaml:"review"`       // 90s
	Execution    time.Duration `yaml:"execution"`    // 1800s, container wait
	PDFParsing   time.Duration `yaml:"pdf_parsing"`
	PDFDownload  time.Duration `yaml:"pdf_download"` // 30s
}

// PathsConfig holds the base directories of spec §6's persisted-state layout.
type PathsConfig struct {
	ArtifactsBase string `yaml:"artifacts_base"`
	TempReposBase string `yaml:"temp_repos_base"`
	PapersBase    string `yaml:"papers_base"`
	ReviewsBase   string `yaml:"reviews_base"`
}

// RAGConfig holds the hybrid-retrieval feature flags and weights (spec §4.11).
type RAGConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Alpha        float64 `yaml:"alpha"`          // BM25 vs dense fusion weight
	TopK         int     `yaml:"top_k"`          // final suggestions per claim
	CandidateK   int     `yaml:"candidate_k"`    // per-source candidates before fusion
	MinScore     float64 `yaml:"min_score"`
	RerankEnable bool    `yaml:"rerank_enable"`
}

// EmbeddingConfig names the embedding backend (opaque per spec §1/§6).
type EmbeddingConfig struct {
	ModelName string `yaml:"model_name"`
	Endpoint  string `yaml:"endpoint"`
}

// LLMConfig names the narrative-generator backend (opaque per spec §1/§6).
type LLMConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"-"` // never serialized back out
	BaseURL  string `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LoggingConfig configures the structured event sink.
type LoggingConfig struct {
	Level      string   `yaml:"level"`
	Components []string `yaml:"components"` // empty = all enabled
}

// DefaultConfig returns the "latest, temp-based defaults" the spec's design
// notes (§9) call the intended behaviour, superseding any divergent earlier
// revision.
func DefaultConfig() *Config {
	tmp := os.TempDir()
	return &Config{
		DatabaseURL: "sqlite://" + tmp + "/arandu/arandu.db",
		RedisURL:    "",

		Sandbox: SandboxConfig{
			ContainerSocket: "unix:///var/run/docker.sock",
			CPULimit:        1.0,
			MemoryLimit:     "2g",
			NetworkMode:     "none",
			ReadOnlyRootfs:  false,
			MaxLogSize:      1 << 20, // 1MB
		},

		Timeouts: TimeoutsConfig{
			Reproduction: 3600 * time.Second,
			Review:       90 * time.Second,
			Execution:    1800 * time.Second,
			PDFParsing:   60 * time.Second,
			PDFDownload:  30 * time.Second,
		},

		Paths: PathsConfig{
			ArtifactsBase: tmp + "/arandu/artifacts",
			TempReposBase: tmp + "/arandu/repos",
			PapersBase:    tmp + "/arandu/papers",
			ReviewsBase:   tmp + "/arandu/reviews",
		},

		NonRootUser: "arandu",
		NonRootUID:  10001,

		AllowlistDomains: []string{"github.com"},

		APIBaseURL: "http://localhost:8000",
		WebOrigin:  "http://localhost:3000",

		MaxPDFSizeMB: 25,

		RAG: RAGConfig{
			Enabled:      true,
			Alpha:        0.5,
			TopK:         5,
			CandidateK:   50,
			MinScore:     0.0,
			RerankEnable: true,
		},

		Embedding: EmbeddingConfig{
			ModelName: "local-hash-embedding",
			Endpoint:  "",
		},

		LLM: LLMConfig{
			Enabled: false,
			Model:   "",
			BaseURL: "",
			Timeout: 30 * time.Second,
		},

		Logging: LoggingConfig{
			Level:      "info",
			Components: nil,
		},
	}
}

// Load reads a YAML config file (if path is non-empty and exists) over the
// defaults, then overlays ARANDU_*-prefixed environment variables via viper,
// generalizing the teacher's ad hoc os.Getenv overrides (config.go) into a
// single declared mechanism.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix("ARANDU")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	applyEnvOverrides(cfg, v)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config, v *viper.Viper) {
	if s := v.GetString("database_url"); s != "" {
		cfg.DatabaseURL = s
	}
	if s := v.GetString("redis_url"); s != "" {
		cfg.RedisURL = s
	}
	if s := v.GetString("sandbox_network_mode"); s != "" {
		cfg.Sandbox.NetworkMode = s
	}
	if s := v.GetString("llm_api_key"); s != "" {
		cfg.LLM.APIKey = s
	}
}

// Validate enforces the non-negotiable sandbox preconditions of spec §4.7 at
// config-load time, in addition to the executor's own runtime preflight
// checks — catching misconfiguration before a job is ever dequeued.
func (c *Config) Validate() error {
	if c.Sandbox.NetworkMode != "none" && c.Sandbox.NetworkMode != "bridge" {
		return fmt.Errorf("sandbox.network_mode must be 'none' or 'bridge', got %q", c.Sandbox.NetworkMode)
	}
	if c.Sandbox.CPULimit <= 0 {
		return fmt.Errorf("sandbox.cpu_limit must be > 0")
	}
	if c.Sandbox.MemoryLimit == "" {
		return fmt.Errorf("sandbox.memory_limit must be set")
	}
	if c.NonRootUID == 0 {
		return fmt.Errorf("non_root_uid must not be 0")
	}
	if c.MaxPDFSizeMB <= 0 {
		return fmt.Errorf("max_pdf_size_mb must be > 0")
	}
	if c.RAG.Alpha < 0 || c.RAG.Alpha > 1 {
		return fmt.Errorf("rag.alpha must be in [0,1]")
	}
	return nil
}
