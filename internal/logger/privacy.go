package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"
)

const defaultHashSalt = "expenditure-manager-default-salt"

var hashSalt = defaultHashSalt

// InitHashSalt sets the salt used for user ID hashing.
// An empty salt keeps the built-in default.
func InitHashSalt(salt string) {
	if salt == "" {
		hashSalt = defaultHashSalt
		return
	}
	hashSalt = salt
}

// InitHashSaltForTesting sets a fixed salt for tests.
func InitHashSaltForTesting(salt string) {
	hashSalt = salt
}

// HashUserID creates a privacy-preserving hash of a user ID.
// This allows tracking user actions without exposing actual user IDs.
func HashUserID(userID string) string {
	data := fmt.Sprintf("%s:%s", userID, hashSalt)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:8]
}

// HashEmail hashes an email address after normalizing case.
func HashEmail(email string) string {
	return HashUserID(strings.ToLower(strings.TrimSpace(email)))
}

// SanitizeDescription redacts a description but preserves length information for debugging.
func SanitizeDescription(desc string) string {
	if desc == "" {
		return "<empty>"
	}

	words := strings.Fields(desc)
	return fmt.Sprintf("<redacted: %d words, %d chars>", len(words), utf8.RuneCountInString(desc))
}

// SanitizeText is a general-purpose sanitizer for any user-provided text.
func SanitizeText(text string) string {
	if text == "" {
		return "<empty>"
	}

	n := utf8.RuneCountInString(text)
	if n <= 10 {
		return fmt.Sprintf("<%d chars>", n)
	}

	prefix := []rune(text)[:3]
	return fmt.Sprintf("%s...<%d chars>", string(prefix), n)
}

// MaskCardNumber keeps only the last four digits of a card number.
func MaskCardNumber(number string) string {
	var digits []rune
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) <= 4 {
		return strings.Repeat("*", len(digits))
	}
	return "**** " + string(digits[len(digits)-4:])
}
