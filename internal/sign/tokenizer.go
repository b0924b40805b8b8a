package sign

import (
	"regexp"
	"strings"

	apperrors "github.com/railsign/isl-announce-go/pkg/errors"
)

// Token is one word or single digit mapped to exactly one sign clip.
type Token = string

// Letters, combining marks and digits of any script survive; Go's \w is
// ASCII-only and would silently erase Devanagari or Gujarati words, and
// without \p{M} the vowel signs and virama inside them would be stripped.
var punctuation = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s]`)

// Tokenize normalizes announcement text into the ordered sign-token
// sequence: lower-cased, punctuation stripped, whitespace-split, with
// multi-digit numbers expanded into their individual digits ("123" becomes
// "1","2","3"). Single digits and ordinary words pass through unchanged.
// Order is never changed.
func Tokenize(text string) ([]Token, error) {
	cleaned := strings.ToLower(strings.TrimSpace(text))
	cleaned = punctuation.ReplaceAllString(cleaned, "")

	tokens := make([]Token, 0, len(cleaned)/4)
	for _, word := range strings.Fields(cleaned) {
		if len(word) > 1 && isAllDigits(word) {
			for _, digit := range word {
				tokens = append(tokens, string(digit))
			}
			continue
		}
		tokens = append(tokens, word)
	}

	if len(tokens) == 0 {
		return nil, apperrors.NewValidationError("no valid signs found in text", "text", text)
	}
	return tokens, nil
}

func isAllDigits(word string) bool {
	for _, r := range word {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
