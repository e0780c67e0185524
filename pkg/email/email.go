// Package email derives display details from email addresses.
package email

import (
	"strings"
	"unicode"
)

// DisplayName guesses a display name from the local part of addr, e.g.
// "rahima.khatun@example.org" gives "Rahima Khatun". It returns "" when the
// local part has no usable words.
func DisplayName(addr string) string {
	local := addr
	if at := strings.IndexByte(addr, '@'); at >= 0 {
		local = addr[:at]
	}
	words := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+' || unicode.IsDigit(r)
	})
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
