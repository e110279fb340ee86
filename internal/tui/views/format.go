package views

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/waconsole/waconsole/internal/platform"
)

func formatTimestamp(ms int64) string {
	if ms == 0 {
		return ""
	}
	t := time.UnixMilli(ms)
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("01/02")
}

// statusTicks renders a delivery status as WhatsApp-style tick marks.
func statusTicks(status string) string {
	switch status {
	case platform.StatusPending:
		return "…"
	case platform.StatusSent:
		return "✓"
	case platform.StatusDelivered:
		return "✓✓"
	case platform.StatusRead, platform.StatusPlayed:
		return "[blue]✓✓[-]"
	case "failed":
		return "[red]✗[-]"
	default:
		return ""
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// sanitizeForTerminal strips codepoints tcell cannot size correctly: emoji
// skin tone modifiers, zero width joiners, and variation selectors. WhatsApp
// message bodies are full of multi-codepoint emoji sequences; dropping the
// modifiers leaves the base emoji, which renders as a clean 2-cell glyph.
func sanitizeForTerminal(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !breaksTerminalWidth(r) {
			b.WriteRune(r)
		}
		i += size
	}
	return b.String()
}

func breaksTerminalWidth(r rune) bool {
	switch {
	case r >= 0x1F3FB && r <= 0x1F3FF: // skin tone modifiers
		return true
	case r == 0x200D: // zero width joiner
		return true
	case r >= 0xFE00 && r <= 0xFE0F: // variation selectors
		return true
	case r >= 0xE0100 && r <= 0xE01EF: // variation selectors supplement
		return true
	default:
		return false
	}
}
