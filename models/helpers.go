package models

import (
	"strings"
	"unicode"
)

// trimCell убирает пробелы, включая неразрывные и BOM, которые часто приходят из Excel.
func trimCell(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == 0xFEFF
	})
}
