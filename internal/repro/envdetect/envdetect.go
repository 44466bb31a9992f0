// Package envdetect identifies a cloned repository's Python dependency
// manifest and normalizes it into an EnvironmentInfo (spec §4.5). It follows
// the teacher's config-parsing idiom — gopkg.in/yaml.v3 for YAML,
// github.com/pelletier/go-toml/v2 for TOML — generalized from CLI/config
// file parsing to dependency-manifest parsing.
package envdetect

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/scitorrent/arandu-repro/internal/logging"
	"github.com/scitorrent/arandu-repro/internal/reproerr"
)

var log = logging.Get("envdetect")

// EnvType is the dependency-management ecosystem detected.
type EnvType string

const (
	EnvPip    EnvType = "pip"
	EnvConda  EnvType = "conda"
	EnvPoetry EnvType = "poetry"
	EnvPipenv EnvType = "pipenv"
)

// Dependency is a single normalized (name, version-spec) pair. Spec may be
// empty (unpinned) or carry its comparison operator, e.g. "==1.24.0".
type Dependency struct {
	Name string
	Spec string
}

// EnvironmentInfo is the detector's output.
type EnvironmentInfo struct {
	Type          EnvType
	Dependencies  []Dependency
	ManifestFiles []string
	BaseImage     string
}

// preferenceOrder is the fixed, first-match manifest search order (spec §4.5).
var preferenceOrder = []struct {
	file    string
	envType EnvType
}{
	{"requirements.txt", EnvPip},
	{"environment.yml", EnvConda},
	{"pyproject.toml", EnvPoetry},
	{"Pipfile", EnvPipenv},
}

// Detect scans repoPath for the first manifest in preferenceOrder and
// returns its normalized EnvironmentInfo.
func Detect(jobID, repoPath string) (*EnvironmentInfo, error) {
	step := logging.LogStep("envdetect", jobID, "detect_environment")
	var err error
	defer func() { step.End(err) }()

	for _, candidate := range preferenceOrder {
		path := filepath.Join(repoPath, candidate.file)
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		var deps []Dependency
		switch candidate.envType {
		case EnvPip:
			deps, err = parseRequirementsTxt(path)
		case EnvConda:
			deps, err = parseEnvironmentYML(path)
		case EnvPoetry:
			deps, err = parsePyprojectTOML(path)
		case EnvPipenv:
			deps, err = parsePipfile(path)
		}
		if err != nil {
			err = reproerr.NoEnvironment("parsing %s: %v", candidate.file, err)
			return nil, err
		}
		log.Info("detected %s environment via %s (%d deps)", candidate.envType, candidate.file, len(deps))
		return &EnvironmentInfo{
			Type:          candidate.envType,
			Dependencies:  deps,
			ManifestFiles: []string{candidate.file},
			BaseImage:     "python:3.11-slim",
		}, nil
	}

	err = reproerr.NoEnvironment("no recognized dependency manifest found in %s", repoPath)
	return nil, err
}

// operators lists version-spec operators checked longest-first so that e.g.
// ">=" is matched before ">".
var operators = []string{"==", ">=", "<=", "!=", "~=", ">", "<"}

func splitOperator(spec string) (string, string) {
	for _, op := range operators {
		if idx := strings.Index(spec, op); idx >= 0 {
			return op, spec[idx+len(op):]
		}
	}
	return "", ""
}

func parseRequirementsTxt(path string) ([]Dependency, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var deps []Dependency
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		op, ver := splitOperator(line)
		name := line
		spec := ""
		if op != "" {
			name = strings.TrimSpace(line[:strings.Index(line, op)])
			spec = op + ver
		}
		deps = append(deps, Dependency{Name: name, Spec: spec})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return deps, nil
}

type condaEnvFile struct {
	Dependencies []interface{} `yaml:"dependencies"`
}

func parseEnvironmentYML(path string) ([]Dependency, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var env condaEnvFile
	if err := yaml.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parsing yaml %s: %w", path, err)
	}

	var deps []Dependency
	for _, raw := range env.Dependencies {
		switch v := raw.(type) {
		case string:
			deps = append(deps, normalizeCondaEntry(v))
		case map[string]interface{}:
			for key, nested := range v {
				if key != "pip" {
					continue
				}
				if list, ok := nested.([]interface{}); ok {
					for _, item := range list {
						if s, ok := item.(string); ok {
							deps = append(deps, normalizeCondaEntry(s))
						}
					}
				}
			}
		}
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })
	return deps, nil
}

func normalizeCondaEntry(entry string) Dependency {
	op, ver := splitOperator(entry)
	if op != "" {
		name := strings.TrimSpace(entry[:strings.Index(entry, op)])
		return Dependency{Name: name, Spec: op + ver}
	}
	if idx := strings.Index(entry, "="); idx >= 0 {
		return Dependency{Name: entry[:idx], Spec: "==" + entry[idx+1:]}
	}
	return Dependency{Name: entry}
}

type pyprojectFile struct {
	Tool struct {
		Poetry struct {
			Dependencies map[string]interface{} `toml:"dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
	Project struct {
		Dependencies []string `toml:"dependencies"`
	} `toml:"project"`
}

func parsePyprojectTOML(path string) ([]Dependency, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var doc pyprojectFile
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing toml %s: %w", path, err)
	}

	if len(doc.Tool.Poetry.Dependencies) > 0 {
		var deps []Dependency
		for name, raw := range doc.Tool.Poetry.Dependencies {
			if name == "python" {
				continue
			}
			spec := ""
			if s, ok := raw.(string); ok {
				spec = normalizePoetrySpec(s)
			}
			deps = append(deps, Dependency{Name: name, Spec: spec})
		}
		sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })
		return deps, nil
	}

	// PEP 621 [project].dependencies: strings like "numpy>=1.24.0".
	var deps []Dependency
	for _, entry := range doc.Project.Dependencies {
		op, ver := splitOperator(entry)
		name := strings.TrimSpace(entry)
		spec := ""
		if op != "" {
			name = strings.TrimSpace(entry[:strings.Index(entry, op)])
			spec = op + ver
		}
		deps = append(deps, Dependency{Name: name, Spec: spec})
	}
	return deps, nil
}

func normalizePoetrySpec(spec string) string {
	spec = strings.TrimPrefix(spec, "^")
	spec = strings.TrimPrefix(spec, "~")
	if op, ver := splitOperator(spec); op != "" {
		return op + ver
	}
	return "==" + spec
}

// pipfilePackagesRe matches the [packages] table header in a Pipfile's
// TOML-ish format so it can be sliced off before parsing, since Pipfile
// mixes non-TOML directives the go-toml parser otherwise rejects.
var pipfilePackagesRe = regexp.MustCompile(`(?s)\[packages\](.*?)(\n\[|\z)`)

func parsePipfile(path string) ([]Dependency, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	match := pipfilePackagesRe.FindSubmatch(data)
	if match == nil {
		return nil, nil
	}

	var packages map[string]interface{}
	if err := toml.Unmarshal(match[1], &packages); err != nil {
		return nil, fmt.Errorf("parsing [packages] table in %s: %w", path, err)
	}

	var deps []Dependency
	for name, raw := range packages {
		spec := ""
		if s, ok := raw.(string); ok && s != "*" {
			spec = normalizePoetrySpec(s)
		}
		deps = append(deps, Dependency{Name: name, Spec: spec})
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })
	return deps, nil
}
