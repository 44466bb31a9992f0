// Package imagebuild generates a per-job Dockerfile and builds it into a
// tagged image (spec §4.6). Grounded on the teacher's tactile package, which
// treats the container runtime as a first-class execution backend
// (internal/tactile/docker.go) — generalized here from "run one command in a
// throwaway container" to "build a reproducible image from a detected
// environment."
package imagebuild

import (
	"fmt"
	"strings"

	"github.com/scitorrent/arandu-repro/internal/repro/envdetect"
)

// Tag returns the image tag for a job. Embedding the job UUID guarantees no
// two jobs can collide on the same tag (spec §5's shared-resource policy).
func Tag(jobID string) string {
	return fmt.Sprintf("arandu-job-%s:latest", jobID)
}

// GenerateDockerfile renders the Dockerfile contents for env, per the
// mandatory structure of spec §4.6.
func GenerateDockerfile(env *envdetect.EnvironmentInfo, nonRootUser string, nonRootUID int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "FROM %s\n\n", env.BaseImage)
	fmt.Fprintf(&b, "RUN useradd --uid %d --create-home %s\n\n", nonRootUID, nonRootUser)
	b.WriteString("WORKDIR /workspace\n\n")

	switch env.Type {
	case envdetect.EnvPip, envdetect.EnvConda:
		if specs := pipInstallArgs(env.Dependencies); specs != "" {
			fmt.Fprintf(&b, "RUN pip install --no-cache-dir %s\n\n", specs)
		}
	case envdetect.EnvPoetry:
		b.WriteString("RUN pip install --no-cache-dir poetry\n")
		b.WriteString("COPY pyproject.toml poetry.lock* ./\n")
		b.WriteString("RUN poetry install --no-dev --no-root || poetry install --only main --no-root\n\n")
	case envdetect.EnvPipenv:
		b.WriteString("RUN pip install --no-cache-dir pipenv\n")
		b.WriteString("COPY Pipfile Pipfile.lock* ./\n")
		b.WriteString("RUN pipenv install --deploy --system\n\n")
	}

	b.WriteString("COPY . /workspace\n\n")
	fmt.Fprintf(&b, "RUN chown -R %s:%s /workspace\n", nonRootUser, nonRootUser)
	fmt.Fprintf(&b, "USER %s\n\n", nonRootUser)
	b.WriteString("CMD [\"true\"]\n")

	return b.String()
}

// pipInstallArgs formats the dependency list as pip install arguments: a
// spec that already carries an operator is concatenated directly, otherwise
// an "==" is inserted (spec §4.6).
func pipInstallArgs(deps []envdetect.Dependency) string {
	args := make([]string, 0, len(deps))
	for _, d := range deps {
		if d.Spec == "" {
			args = append(args, d.Name)
			continue
		}
		spec := d.Spec
		if !strings.ContainsAny(spec[:1], "=<>!~") {
			spec = "==" + spec
		}
		args = append(args, d.Name+spec)
	}
	return strings.Join(args, " ")
}
