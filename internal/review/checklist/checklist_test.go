package checklist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluateAllMissingOnEmptyInput(t *testing.T) {
	items := Evaluate("", "", "")
	require.Len(t, items, 7)
	for _, item := range items {
		require.Equal(t, StatusMissing, item.Status)
	}
	require.Equal(t, 0.0, PercentOK(items))
	require.Equal(t, 3, CriticalMissing(items))
}

func TestEvaluateDetectsPaperSignals(t *testing.T) {
	paper := `We used seed=42 across all runs. Code and data are available at
https://github.com/example/repo. To reproduce, run the following script.
We report accuracy against a strong baseline compared to prior work.`

	items := Evaluate(paper, "", "")
	byName := map[string]Item{}
	for _, i := range items {
		byName[i.Name] = i
	}

	require.Equal(t, StatusOK, byName["data_available"].Status)
	require.Equal(t, StatusOK, byName["seeds_fixed"].Status)
	require.Equal(t, StatusOK, byName["commands"].Status)
	require.Equal(t, StatusOK, byName["metrics"].Status)
	require.Equal(t, StatusOK, byName["comparatives"].Status)
	require.Equal(t, StatusMissing, byName["environment"].Status)
	require.Equal(t, StatusMissing, byName["license"].Status)
}

func TestEvaluateDetectsRepoSignals(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repo, "requirements.txt"), []byte("torch==2.0\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "LICENSE"), []byte("MIT"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(repo, "data"), 0o755))

	items := Evaluate("", "", repo)
	byName := map[string]Item{}
	for _, i := range items {
		byName[i.Name] = i
	}

	require.Equal(t, StatusOK, byName["environment"].Status)
	require.Equal(t, SourceRepo, byName["environment"].Source)
	require.Equal(t, StatusOK, byName["license"].Status)
	require.Equal(t, StatusOK, byName["data_available"].Status)
}

func TestEvaluateLicenseMentionInReadmeIsPartial(t *testing.T) {
	items := Evaluate("", "This project is released under the MIT license.", "")
	for _, i := range items {
		if i.Name == "license" {
			require.Equal(t, StatusPartial, i.Status)
			return
		}
	}
	t.Fatal("license item not found")
}

func TestPercentOKComputesFraction(t *testing.T) {
	items := []Item{
		{Name: "a", Status: StatusOK}, {Name: "b", Status: StatusOK},
		{Name: "c", Status: StatusMissing}, {Name: "d", Status: StatusPartial},
	}
	require.InDelta(t, 0.5, PercentOK(items), 1e-9)
}
