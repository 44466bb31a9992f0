package imagebuild

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scitorrent/arandu-repro/internal/repro/envdetect"
)

func TestTagEmbedsJobID(t *testing.T) {
	require.Equal(t, "arandu-job-abc123:latest", Tag("abc123"))
}

func TestGenerateDockerfilePip(t *testing.T) {
	env := &envdetect.EnvironmentInfo{
		Type:      envdetect.EnvPip,
		BaseImage: "python:3.11-slim",
		Dependencies: []envdetect.Dependency{
			{Name: "numpy", Spec: "==1.24.0"},
			{Name: "flask", Spec: ""},
		},
	}
	df := GenerateDockerfile(env, "arandu", 10001)

	require.True(t, strings.HasPrefix(df, "FROM python:3.11-slim\n"))
	require.Contains(t, df, "useradd --uid 10001 --create-home arandu")
	require.Contains(t, df, "WORKDIR /workspace")
	require.Contains(t, df, "pip install --no-cache-dir numpy==1.24.0 flask")
	require.Contains(t, df, "chown -R arandu:arandu /workspace")
	require.Contains(t, df, "USER arandu")
}

func TestGenerateDockerfilePoetry(t *testing.T) {
	env := &envdetect.EnvironmentInfo{Type: envdetect.EnvPoetry, BaseImage: "python:3.11-slim"}
	df := GenerateDockerfile(env, "arandu", 10001)
	require.Contains(t, df, "poetry install")
}

func TestPipInstallArgsInsertsEqualsWhenMissing(t *testing.T) {
	args := pipInstallArgs([]envdetect.Dependency{{Name: "numpy", Spec: "1.24.0"}})
	require.Equal(t, "numpy==1.24.0", args)
}
