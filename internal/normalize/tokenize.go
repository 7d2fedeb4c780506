// SPDX-License-Identifier: Apache-2.0

package normalize

import (
	"regexp"
	"unicode"
)

var delimiterRE = regexp.MustCompile(`[\s_\-.]+`)

// Tokenize splits a point display name on runs of spaces, underscores,
// hyphens and dots. A chunk is split further only where a lowercase letter
// is followed by an uppercase one, so "ZnTempSP" yields Zn, Temp, SP while
// "VAVFlow" stays whole.
func Tokenize(name string) []string {
	var tokens []string
	for _, chunk := range delimiterRE.Split(name, -1) {
		if chunk == "" {
			continue
		}
		tokens = append(tokens, splitCamel(chunk)...)
	}
	return tokens
}

func splitCamel(chunk string) []string {
	runes := []rune(chunk)
	var parts []string
	start := 0
	for i := 1; i < len(runes); i++ {
		if unicode.IsLower(runes[i-1]) && unicode.IsUpper(runes[i]) {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	return append(parts, string(runes[start:]))
}
