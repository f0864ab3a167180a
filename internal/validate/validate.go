package validate

import "fmt"

// Limits for text submitted through the bot.
const (
	MaxURLLength   = 2048
	MaxTitleLength = 500
)

func checkLen(value string, max int, field string) string {
	if len(value) > max {
		return fmt.Sprintf("%s must be %d characters or fewer", field, max)
	}
	return ""
}

func URL(s string) string   { return checkLen(s, MaxURLLength, "URL") }
func Title(s string) string { return checkLen(s, MaxTitleLength, "title") }

// TruncateTitle cuts s to MaxTitleLength bytes without splitting a
// multi-byte rune.
func TruncateTitle(s string) string {
	if len(s) <= MaxTitleLength {
		return s
	}
	cut := MaxTitleLength
	for cut > 0 && !runeStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func runeStart(b byte) bool {
	return b&0xC0 != 0x80
}
