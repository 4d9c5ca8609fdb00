package layout

import (
	"strings"
	"unicode/utf8"
)

// Measure returns the rendered width in points of text set in font
type Measure func(text string, font Font) float64

// approxWidth assumes an average Helvetica glyph of 0.55 em
func approxWidth(text string, font Font) float64 {
	return float64(utf8.RuneCountInString(text)) * font.Size * 0.55
}

// wrap breaks text into lines no wider than width. Explicit newlines are
// kept; a word wider than the line is split between runes.
func wrap(text string, width float64, font Font, measure Measure) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		lines = append(lines, wrapParagraph(para, width, font, measure)...)
	}
	return lines
}

func wrapParagraph(text string, width float64, font Font, measure Measure) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	line := ""
	for _, word := range words {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if measure(candidate, font) <= width {
			line = candidate
			continue
		}
		if line != "" {
			lines = append(lines, line)
		}
		line = word
		for measure(line, font) > width && utf8.RuneCountInString(line) > 1 {
			head, tail := splitRunes(line, width, font, measure)
			lines = append(lines, head)
			line = tail
		}
	}
	return append(lines, line)
}

// splitRunes cuts the longest prefix of s that fits in width, at least one rune
func splitRunes(s string, width float64, font Font, measure Measure) (string, string) {
	runes := []rune(s)
	n := 1
	for n < len(runes) && measure(string(runes[:n+1]), font) <= width {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}
