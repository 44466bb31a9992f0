package sandbox

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// parseMemoryBytes accepts the suffix forms spec §4.7 calls out ("g", "m",
// "k", or raw bytes). A single-letter suffix is a binary multiple (k = 1024,
// m = 1024², g = 1024³) and is rewritten to its IEC form before go-humanize
// parses it; any other suffix go-humanize understands ("GiB", "MB", ...) is
// passed to it unchanged.
func parseMemoryBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty memory limit")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	parse := s
	switch strings.ToLower(s[len(s)-1:]) {
	case "k", "m", "g":
		parse = s + "ib"
	}
	bytes, err := humanize.ParseBytes(parse)
	if err != nil {
		return 0, fmt.Errorf("parsing memory limit %q: %w", s, err)
	}
	return int64(bytes), nil
}
