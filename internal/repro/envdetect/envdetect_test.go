package envdetect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestDetectRequirementsTxt(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "requirements.txt", "# comment\nnumpy==1.24.0\nrequests>=2.0\nflask\n")

	info, err := Detect("job-1", dir)
	require.NoError(t, err)
	require.Equal(t, EnvPip, info.Type)
	require.Equal(t, []string{"requirements.txt"}, info.ManifestFiles)
	require.Contains(t, info.Dependencies, Dependency{Name: "numpy", Spec: "==1.24.0"})
	require.Contains(t, info.Dependencies, Dependency{Name: "requests", Spec: ">=2.0"})
	require.Contains(t, info.Dependencies, Dependency{Name: "flask", Spec: ""})
}

func TestDetectEnvironmentYML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "environment.yml", "name: test\ndependencies:\n  - numpy=1.24.0\n  - pip:\n    - requests==2.31.0\n")

	info, err := Detect("job-2", dir)
	require.NoError(t, err)
	require.Equal(t, EnvConda, info.Type)
	require.Contains(t, info.Dependencies, Dependency{Name: "numpy", Spec: "==1.24.0"})
}

func TestDetectPyprojectPoetry(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pyproject.toml", "[tool.poetry.dependencies]\npython = \"^3.11\"\nnumpy = \"^1.24.0\"\n")

	info, err := Detect("job-3", dir)
	require.NoError(t, err)
	require.Equal(t, EnvPoetry, info.Type)
	for _, d := range info.Dependencies {
		require.NotEqual(t, "python", d.Name)
	}
}

func TestDetectNoManifestFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "README.md", "# nothing here\n")

	_, err := Detect("job-4", dir)
	require.Error(t, err)
}

func TestPreferenceOrderPrefersRequirementsTxt(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "requirements.txt", "numpy==1.24.0\n")
	writeFile(t, dir, "pyproject.toml", "[tool.poetry.dependencies]\nflask = \"^2.0\"\n")

	info, err := Detect("job-5", dir)
	require.NoError(t, err)
	require.Equal(t, EnvPip, info.Type)
}
