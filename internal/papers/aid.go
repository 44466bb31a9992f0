// Package papers implements paper hosting: AID validation, PDF ingestion,
// version allocation, and HTTP Range-capable serving (spec §4.15).
package papers

import (
	"crypto/rand"
	"fmt"
	"regexp"
)

// aidAlphabet is the public-identifier alphabet (GLOSSARY, AID): URL-safe,
// no character requiring percent-encoding.
const aidAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// aidLength is the glossary's fixed AID length: 12 characters.
const aidLength = 12

// aidPattern restricts AIDs to a safe, path-component-friendly alphabet —
// no '/' or '..' sequences can ever reach a filesystem path built from one.
// It deliberately accepts any length 1-128, wider than the 12 characters
// NewAID mints: it is the generic path-safety gate Upload/ServePDF apply to
// any externally-supplied aid-shaped string, not just ones this package
// generated (see DESIGN.md).
var aidPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidAID reports whether aid is safe to use as a path component and matches
// the public-identifier alphabet.
func ValidAID(aid string) bool {
	return aidPattern.MatchString(aid)
}

// NewAID mints a new public paper identifier: a random, URL-safe,
// 12-character string (GLOSSARY, AID).
func NewAID() (string, error) {
	buf := make([]byte, aidLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating aid: %w", err)
	}
	id := make([]byte, aidLength)
	for i, b := range buf {
		id[i] = aidAlphabet[int(b)%len(aidAlphabet)]
	}
	return string(id), nil
}
