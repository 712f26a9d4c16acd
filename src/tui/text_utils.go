package tui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// VisualWidth returns the display width of text, accounting for multi-byte characters
func VisualWidth(s string) int {
	return runewidth.StringWidth(s)
}

// Truncate truncates text to maxLen characters (visual width) with optional ellipsis
func Truncate(s string, maxLen int, ellipsis bool) string {
	s = strings.TrimSpace(s)
	if maxLen <= 0 {
		return ""
	}

	visualWidth := VisualWidth(s)
	if visualWidth > maxLen {
		if ellipsis && maxLen > 3 {
			// Truncate to fit maxLen-3 visual characters, then add ellipsis
			return runewidth.Truncate(s, maxLen-3, "") + "..."
		}
		return runewidth.Truncate(s, maxLen, "")
	}
	return s
}

// TruncateAndPad truncates text with optional ellipsis and pads to exact width
// Used for table cells to maintain consistent column widths
func TruncateAndPad(s string, width int, ellipsis bool) string {
	s = Truncate(s, width, ellipsis)
	visualWidth := VisualWidth(s)
	if visualWidth < width {
		return s + strings.Repeat(" ", width-visualWidth)
	}
	return s
}

// CleanText makes server-provided text safe for a single table cell: escape
// sequences are stripped and control characters and runs of whitespace
// collapse to single spaces.
func CleanText(s string) string {
	s = strings.NewReplacer("\r", " ", "\n", " ", "\t", " ").Replace(s)
	s = ansi.Strip(s)
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Wrap wraps text to the specified width, breaking on word boundaries when possible
// Long words that exceed width are broken mid-word
func Wrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}

	var result strings.Builder
	lineLength := 0
	for _, word := range words {
		wordLen := VisualWidth(word)

		if wordLen > width {
			if lineLength > 0 {
				result.WriteString("\n")
			}
			for word != "" {
				chunk := runewidth.Truncate(word, width, "")
				if chunk == "" {
					// a single rune wider than width
					chunk = string([]rune(word)[:1])
				}
				result.WriteString(chunk)
				lineLength = VisualWidth(chunk)
				word = word[len(chunk):]
				if word != "" {
					result.WriteString("\n")
				}
			}
			continue
		}

		switch {
		case lineLength == 0:
			result.WriteString(word)
			lineLength = wordLen
		case lineLength+1+wordLen <= width:
			result.WriteString(" ")
			result.WriteString(word)
			lineLength += 1 + wordLen
		default:
			result.WriteString("\n")
			result.WriteString(word)
			lineLength = wordLen
		}
	}

	return result.String()
}
