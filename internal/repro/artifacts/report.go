// Package artifacts generates the three reproduction-run outputs — report,
// notebook, and badge (spec §4.8) — grounded on the teacher's use of
// github.com/jedib0t/go-pretty/v6 for Markdown/console tables and
// github.com/dustin/go-humanize for the human-readable run duration.
package artifacts

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/scitorrent/arandu-repro/internal/repro/envdetect"
)

// ReportInput carries every field the Markdown report needs.
type ReportInput struct {
	JobID         string
	RepoURL       string
	RunCommand    string
	Environment   *envdetect.EnvironmentInfo
	Status        string // "completed" | "failed" | "running"
	ExitCode      int
	Duration      time.Duration
	StdoutPreview string
	StderrPreview string
	LogsPath      string
}

// GenerateReport renders the Markdown reproduction report (spec §4.8).
func GenerateReport(in ReportInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Reproduction Report: %s\n\n", in.JobID)
	fmt.Fprintf(&b, "- **Repository:** %s\n", in.RepoURL)
	fmt.Fprintf(&b, "- **Command:** `%s`\n", in.RunCommand)
	fmt.Fprintf(&b, "- **Status:** %s %s\n", in.Status, statusSymbol(in.Status))
	fmt.Fprintf(&b, "- **Exit code:** %d\n", in.ExitCode)
	fmt.Fprintf(&b, "- **Duration:** %s\n\n", humanize.RelTime(time.Now().Add(-in.Duration), time.Now(), "", ""))

	b.WriteString("## Environment\n\n")
	if in.Environment != nil {
		t := table.NewWriter()
		t.AppendHeader(table.Row{"Package", "Version"})
		for _, dep := range in.Environment.Dependencies {
			version := dep.Spec
			if version == "" {
				version = "(unpinned)"
			}
			t.AppendRow(table.Row{dep.Name, version})
		}
		fmt.Fprintf(&b, "Type: `%s`, base image: `%s`\n\n", in.Environment.Type, in.Environment.BaseImage)
		b.WriteString(t.RenderMarkdown())
		b.WriteString("\n\n")
	} else {
		b.WriteString("_No environment detected._\n\n")
	}

	b.WriteString("## Output\n\n")
	b.WriteString("### stdout\n\n```\n")
	b.WriteString(in.StdoutPreview)
	b.WriteString("\n```\n\n### stderr\n\n```\n")
	b.WriteString(in.StderrPreview)
	b.WriteString("\n```\n\n")

	fmt.Fprintf(&b, "Full untruncated log: `%s`\n", in.LogsPath)
	return b.String()
}

func statusSymbol(status string) string {
	switch status {
	case "completed":
		return "✓"
	case "failed":
		return "✗"
	default:
		return "…"
	}
}
