package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// StripCodeFences removes a fence wrapping the whole answer. The opening
// fence line is dropped whatever its language tag.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	_, body, found := strings.Cut(s, "\n")
	if !found {
		body = strings.TrimPrefix(s, "```")
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}

// Truncate cuts s to at most n runes and appends an ellipsis when it did.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func SHA256Hex(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

// ShortHash is a stable 16-char hex digest, used for the webhook path.
func ShortHash(s string) string {
	return SHA256Hex([]byte(s))[:16]
}
