package artifacts

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scitorrent/arandu-repro/internal/repro/envdetect"
)

func TestGenerateReportIncludesKeyFields(t *testing.T) {
	in := ReportInput{
		JobID:      "job-1",
		RepoURL:    "file:///tmp/repo",
		RunCommand: "python main.py",
		Environment: &envdetect.EnvironmentInfo{
			Type:      envdetect.EnvPip,
			BaseImage: "python:3.11-slim",
			Dependencies: []envdetect.Dependency{
				{Name: "numpy", Spec: "==1.24.0"},
			},
		},
		Status:        "completed",
		ExitCode:      0,
		Duration:      2 * time.Second,
		StdoutPreview: "Hello from Arandu Repro test!\n",
		LogsPath:      "/artifacts/job-1/logs/combined.log",
	}
	report := GenerateReport(in)
	require.Contains(t, report, "job-1")
	require.Contains(t, report, "python main.py")
	require.Contains(t, report, "numpy")
	require.Contains(t, report, "Hello from Arandu Repro test!")
	require.Contains(t, report, "/artifacts/job-1/logs/combined.log")
}

func TestGenerateNotebookHasThreeCells(t *testing.T) {
	raw, err := GenerateNotebook("job-1", "python main.py", &envdetect.EnvironmentInfo{Type: envdetect.EnvPip})
	require.NoError(t, err)

	var nb notebook
	require.NoError(t, json.Unmarshal(raw, &nb))
	require.Len(t, nb.Cells, 3)
	require.Equal(t, "markdown", nb.Cells[0].CellType)
	require.Equal(t, "markdown", nb.Cells[1].CellType)
	require.Equal(t, "code", nb.Cells[2].CellType)
	require.Contains(t, nb.Cells[2].Source[0], "!python main.py")
}

func TestGenerateBadgeReflectsStatus(t *testing.T) {
	require.Contains(t, GenerateBadge("completed"), "brightgreen")
	require.Contains(t, GenerateBadge("failed"), "red")
	require.Contains(t, GenerateBadge("running"), "lightgrey")
}
