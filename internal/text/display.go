// Package text holds small terminal-display helpers shared by the report
// sinks: truncating a progress line to the terminal width and wrapping long
// summary lines.
package text

import (
	"strings"

	"github.com/mitchellh/go-wordwrap"
	"golang.org/x/text/width"
)

// Truncate cuts s to at most n display columns, counting wide runes (CJK,
// emoji) as two columns via golang.org/x/text/width, so a progress line
// never overruns the terminal even when a test id contains wide characters.
// n <= 0 disables truncation.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}

	var b strings.Builder
	cols := 0
	for _, r := range s {
		rw := 1
		if width.LookupRune(r).Kind() == width.EastAsianWide || width.LookupRune(r).Kind() == width.EastAsianFullwidth {
			rw = 2
		}
		if cols+rw > n {
			break
		}
		b.WriteRune(r)
		cols += rw
	}
	return b.String()
}

// PadTo right-pads s with spaces to n display columns so a shorter
// progress line fully overwrites a longer previous one.
func PadTo(s string, n int) string {
	if n <= 0 {
		return s
	}
	cols := 0
	for _, r := range s {
		cols++
		if k := width.LookupRune(r).Kind(); k == width.EastAsianWide || k == width.EastAsianFullwidth {
			cols++
		}
	}
	padding := n - cols
	if padding <= 0 {
		return s
	}
	return s + strings.Repeat(" ", padding)
}

// WrapLines wraps s at word boundaries to at most width characters per line
// using mitchellh/go-wordwrap and splits the result into a slice, for
// printing failure/instability summaries in the end-of-run report. A single
// word longer than width is not broken and stays on a line of its own.
func WrapLines(s string, width int) []string {
	if width <= 0 {
		return []string{s}
	}
	return strings.Split(wordwrap.WrapString(s, uint(width)), "\n")
}
