// Package fingerprint computes the two digests attached to every construct:
// the interface hash (signature-sensitive, name-independent where feasible)
// and the body hash (implementation-sensitive, formatting-insensitive).
//
// Both hashes are pure functions of normalized source fragments. Edits
// strictly outside the hashed span must never change either hash.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"codepin/internal/construct"
)

// InterfaceHash digests a construct's structural surface: its kind and its
// signature fragment (parameter list, return annotation, declared type or
// inheritance clause, never the body). Decorators and annotations stay out
// of the hash; subscriptions that track them compare the recorded decorator
// lists directly, so a decorator edit never shifts the hash for
// subscriptions that opted out.
func InterfaceHash(kind construct.Kind, signatureFragment string) string {
	parts := []string{
		"kind:" + string(kind),
		"sig:" + normalize(signatureFragment),
	}
	return digest(parts)
}

// BodyHash digests a construct's normalized value or implementation span.
// Whitespace-only and comment-only differences do not change the hash.
func BodyHash(bodyFragment string) string {
	return digest([]string{"body:" + normalizeBody(bodyFragment)})
}

// digest builds the canonical string and hashes it
func digest(parts []string) string {
	canonical := strings.Join(parts, "|")
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// normalize collapses all whitespace runs to a single space and trims the
// ends, so the hash does not depend on formatting or absolute offsets.
func normalize(fragment string) string {
	return strings.Join(strings.Fields(fragment), " ")
}

// normalizeBody drops blank and comment-only lines, then collapses the rest
// into a single whitespace-normalized string, so pure reformatting (line
// splits, reindents) never moves the hash. Inline trailing comments are left
// alone; stripping them safely would require language-aware tokenizing,
// which belongs to the indexers.
func normalizeBody(fragment string) string {
	lines := strings.Split(fragment, "\n")
	kept := make([]string, 0, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isCommentOnly(trimmed) {
			continue
		}
		kept = append(kept, strings.Join(strings.Fields(trimmed), " "))
	}

	return strings.Join(kept, " ")
}

// isCommentOnly matches whole-line comments in the supported languages:
// '#' for Python, '//' and block-comment openers for Java.
func isCommentOnly(trimmed string) bool {
	return strings.HasPrefix(trimmed, "#") ||
		strings.HasPrefix(trimmed, "//") ||
		strings.HasPrefix(trimmed, "/*") ||
		strings.HasPrefix(trimmed, "*")
}
