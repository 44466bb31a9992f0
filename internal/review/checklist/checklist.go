// Package checklist evaluates the fixed seven-item reproducibility
// checklist against paper text and an optional repository path (spec §4.9's
// checklist_generation node).
package checklist

import (
	"os"
	"path/filepath"
	"regexp"
)

// ItemStatus is the evaluation outcome for one checklist item.
type ItemStatus string

const (
	StatusOK      ItemStatus = "ok"
	StatusPartial ItemStatus = "partial"
	StatusMissing ItemStatus = "missing"
)

// Source names where the evidence for an item's status was found.
type Source string

const (
	SourcePaper Source = "paper"
	SourceRepo  Source = "repo"
)

// Item is one evaluated checklist entry.
type Item struct {
	Name     string
	Status   ItemStatus
	Evidence string
	Source   Source
}

var itemNames = []string{
	"data_available", "seeds_fixed", "environment", "commands",
	"metrics", "comparatives", "license",
}

var (
	dataLinkRe    = regexp.MustCompile(`(?i)(github\.com|zenodo\.org|huggingface\.co|kaggle\.com)/[^\s]+`)
	seedRe        = regexp.MustCompile(`(?i)\bseed\s*=?\s*\d+\b`)
	execPhraseRe  = regexp.MustCompile(`(?i)\b(to run|to reproduce|run the following|execute)\b`)
	metricRe      = regexp.MustCompile(`(?i)\b(accuracy|f1|precision|recall|bleu|rouge|perplexity|auc)\b`)
	comparativeRe = regexp.MustCompile(`(?i)\b(baseline|compared to|versus|vs\.)\b`)
	licenseRe     = regexp.MustCompile(`(?i)\blicense\b`)
)

var manifestNames = []string{"requirements.txt", "environment.yml", "pyproject.toml", "Pipfile", "setup.py"}

// Evaluate runs all seven rules of spec §4.9 against paperText and,
// optionally, a cloned repository at repoPath (empty string if unavailable).
func Evaluate(paperText, readmeText, repoPath string) []Item {
	return []Item{
		evalDataAvailable(paperText, repoPath),
		evalSeedsFixed(paperText, repoPath),
		evalEnvironment(repoPath),
		evalCommands(paperText, readmeText),
		evalMetrics(paperText),
		evalComparatives(paperText),
		evalLicense(repoPath, readmeText),
	}
}

func evalDataAvailable(paperText, repoPath string) Item {
	if dataLinkRe.MatchString(paperText) {
		return Item{Name: "data_available", Status: StatusOK, Evidence: "dataset link found in paper text", Source: SourcePaper}
	}
	if repoPath != "" {
		if _, err := os.Stat(filepath.Join(repoPath, "data")); err == nil {
			return Item{Name: "data_available", Status: StatusOK, Evidence: "data/ subdirectory present", Source: SourceRepo}
		}
	}
	return Item{Name: "data_available", Status: StatusMissing}
}

func evalSeedsFixed(paperText, repoPath string) Item {
	if seedRe.MatchString(paperText) {
		return Item{Name: "seeds_fixed", Status: StatusOK, Evidence: "seed literal found in paper text", Source: SourcePaper}
	}
	if repoPath != "" && seedInFirstPythonFiles(repoPath, 10) {
		return Item{Name: "seeds_fixed", Status: StatusOK, Evidence: "seed literal found in repository source", Source: SourceRepo}
	}
	return Item{Name: "seeds_fixed", Status: StatusMissing}
}

func seedInFirstPythonFiles(repoPath string, limit int) bool {
	count := 0
	found := false
	_ = filepath.Walk(repoPath, func(path string, info os.FileInfo, err error) error {
		if err != nil || found || count >= limit {
			return nil
		}
		if info.IsDir() || filepath.Ext(path) != ".py" {
			return nil
		}
		count++
		data, readErr := os.ReadFile(path)
		if readErr == nil && seedRe.Match(data) {
			found = true
		}
		return nil
	})
	return found
}

func evalEnvironment(repoPath string) Item {
	if repoPath == "" {
		return Item{Name: "environment", Status: StatusMissing}
	}
	for _, name := range manifestNames {
		if _, err := os.Stat(filepath.Join(repoPath, name)); err == nil {
			return Item{Name: "environment", Status: StatusOK, Evidence: name + " present", Source: SourceRepo}
		}
	}
	return Item{Name: "environment", Status: StatusMissing}
}

func evalCommands(paperText, readmeText string) Item {
	if execPhraseRe.MatchString(paperText) {
		return Item{Name: "commands", Status: StatusOK, Evidence: "execution instructions found in paper", Source: SourcePaper}
	}
	if execPhraseRe.MatchString(readmeText) {
		return Item{Name: "commands", Status: StatusOK, Evidence: "execution instructions found in README", Source: SourceRepo}
	}
	return Item{Name: "commands", Status: StatusMissing}
}

func evalMetrics(paperText string) Item {
	if metricRe.MatchString(paperText) {
		return Item{Name: "metrics", Status: StatusOK, Evidence: "known metric keyword found", Source: SourcePaper}
	}
	return Item{Name: "metrics", Status: StatusMissing}
}

func evalComparatives(paperText string) Item {
	if comparativeRe.MatchString(paperText) {
		return Item{Name: "comparatives", Status: StatusOK, Evidence: "baseline/comparison keyword found", Source: SourcePaper}
	}
	return Item{Name: "comparatives", Status: StatusMissing}
}

func evalLicense(repoPath, readmeText string) Item {
	if repoPath != "" {
		for _, name := range []string{"LICENSE", "LICENSE.md", "LICENSE.txt"} {
			if _, err := os.Stat(filepath.Join(repoPath, name)); err == nil {
				return Item{Name: "license", Status: StatusOK, Evidence: name + " present", Source: SourceRepo}
			}
		}
	}
	if licenseRe.MatchString(readmeText) {
		return Item{Name: "license", Status: StatusPartial, Evidence: "license mentioned in README", Source: SourceRepo}
	}
	return Item{Name: "license", Status: StatusMissing}
}

// PercentOK returns the fraction of items with status ok (used by
// quality_score's checklist contribution, spec §4.9/§4.12).
func PercentOK(items []Item) float64 {
	if len(items) == 0 {
		return 0
	}
	ok := 0
	for _, i := range items {
		if i.Status == StatusOK {
			ok++
		}
	}
	return float64(ok) / float64(len(items))
}

// CriticalMissing counts items that are entirely missing among a fixed
// critical subset (data_available, environment, commands).
func CriticalMissing(items []Item) int {
	critical := map[string]bool{"data_available": true, "environment": true, "commands": true}
	count := 0
	for _, i := range items {
		if critical[i.Name] && i.Status == StatusMissing {
			count++
		}
	}
	return count
}
