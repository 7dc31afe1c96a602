package views

import "strings"

// sanitizeForTerminal drops the emoji modifiers and joiners tcell renders
// badly, so joined emoji fall apart into their base glyphs and columns stay
// aligned. Line breaks become spaces; other control characters are dropped.
func sanitizeForTerminal(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 0x1F3FB && r <= 0x1F3FF,
			r == 0x200D,
			r >= 0xFE00 && r <= 0xFE0F,
			r >= 0xE0100 && r <= 0xE01EF:
			return -1
		case r == '\n' || r == '\r':
			return ' '
		case r < 0x20 && r != '\t':
			return -1
		default:
			return r
		}
	}, s)
}
