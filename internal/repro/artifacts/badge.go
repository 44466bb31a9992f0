package artifacts

import (
	"fmt"
	"net/url"
)

// GenerateBadge renders a shields.io-style Markdown badge snippet whose
// status text and color reflect the job's final status (spec §4.8).
func GenerateBadge(status string) string {
	text, color := badgeStyle(status)
	encoded := url.QueryEscape(text)
	return fmt.Sprintf("![reproducibility](https://img.shields.io/badge/reproducibility-%s-%s)\n", encoded, color)
}

func badgeStyle(status string) (text, color string) {
	switch status {
	case "completed":
		return "reproduced", "brightgreen"
	case "failed":
		return "failed", "red"
	default:
		return "pending", "lightgrey"
	}
}
