package gemini

import "strings"

const (
	// MaxTranscriptLength caps a transcript handed to the command parser.
	MaxTranscriptLength = 500
	// MaxHintLength caps one vocabulary hint embedded in the prompt.
	MaxHintLength = 50
	// MaxHints caps how many vocabulary hints go into one prompt.
	MaxHints = 50
)

// SanitizeForPrompt strips characters that could break prompt structure,
// collapses whitespace and truncates to maxLength bytes.
func SanitizeForPrompt(input string, maxLength int) string {
	input = strings.ReplaceAll(input, `"`, `'`)
	input = strings.ReplaceAll(input, "`", "'")
	input = strings.ReplaceAll(input, "\x00", "")
	input = strings.Join(strings.Fields(input), " ")

	if len(input) > maxLength {
		input = strings.TrimSpace(strings.ToValidUTF8(input[:maxLength], ""))
	}
	return input
}

func sanitizeHints(hints []string) []string {
	out := make([]string, 0, min(len(hints), MaxHints))
	seen := make(map[string]struct{}, len(hints))
	for _, h := range hints {
		h = SanitizeForPrompt(h, MaxHintLength)
		if h == "" {
			continue
		}
		key := strings.ToLower(h)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, h)
		if len(out) == MaxHints {
			break
		}
	}
	return out
}
