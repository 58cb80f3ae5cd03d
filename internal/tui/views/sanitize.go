package views

import "strings"

// sanitizeForTerminal drops codepoints tcell cannot lay out in a single
// cell run: emoji skin tone modifiers, zero width joiners and variation
// selectors. Control characters become spaces.
func sanitizeForTerminal(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 0x1F3FB && r <= 0x1F3FF:
			return -1
		case r == 0x200D:
			return -1
		case r >= 0xFE00 && r <= 0xFE0F:
			return -1
		case r >= 0xE0100 && r <= 0xE01EF:
			return -1
		case r < 0x20 && r != '\n':
			return ' '
		}
		return r
	}, s)
}
