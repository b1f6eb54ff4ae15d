// Package content generates the tutor's AI-backed content: question
// suggestions, the fact of the day and answers, with per-session caching.
package content

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// FactLanguage is the language facts are always generated in.
const FactLanguage = "English"

// Key derives the lookup key for content generated for a settings tuple.
// Fields are taken verbatim: "Physics" and "physics" are different keys.
func Key(grade int, subject, language, topic string) string {
	sum := blake2b.Sum256([]byte(fmt.Sprintf("%d-%s-%s-%s", grade, subject, language, topic)))
	return hex.EncodeToString(sum[:])
}

// FactKey is Key with the language fixed to FactLanguage, so facts are
// shared across display languages.
func FactKey(grade int, subject, topic string) string {
	return Key(grade, subject, FactLanguage, topic)
}
