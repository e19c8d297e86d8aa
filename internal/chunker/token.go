package chunker

import "strings"

// EstimateTokens approximates the token count of text for chunk sizing.
// Sizing works on whitespace-delimited words scaled by a fixed factor;
// exact tokenizer parity is not required, only that every component
// measures text with this same function.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 && len(text) > 0 {
		tokens = 1
	}
	return tokens
}
