package contextbuilder

import "unicode/utf8"

// CharsPerToken is the fixed divisor of the token estimate.
const CharsPerToken = 4

// EstimateTokens approximates the model token count of text as
// ceil(characters / 4). It is deliberately tokenizer-free.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + CharsPerToken - 1) / CharsPerToken
}
