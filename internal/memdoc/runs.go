package memdoc

import (
	"strings"

	"github.com/roach88/redline/internal/host"
)

// run is a stretch of paragraph text sharing one set of style flags.
type run struct {
	text  string
	style host.Style
	color string // highlight colour, meaningful with host.StyleHighlight
}

func runsText(runs []run) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.text)
	}
	return b.String()
}

func runsLen(runs []run) int {
	n := 0
	for _, r := range runs {
		n += len(r.text)
	}
	return n
}

// splitRuns cuts runs at byte offset off. off must be within [0, runsLen].
func splitRuns(runs []run, off int) (left, right []run) {
	pos := 0
	for i, r := range runs {
		end := pos + len(r.text)
		switch {
		case off <= pos:
			return append([]run(nil), runs[:i]...), append([]run(nil), runs[i:]...)
		case off < end:
			cut := off - pos
			left = append(append([]run(nil), runs[:i]...), run{text: r.text[:cut], style: r.style, color: r.color})
			right = append([]run{{text: r.text[cut:], style: r.style, color: r.color}}, runs[i+1:]...)
			return left, right
		}
		pos = end
	}
	return append([]run(nil), runs...), nil
}

// styleAt returns the formatting new text inherits at off: the character
// before off, or the first character when inserting at the start.
func styleAt(runs []run, off int) (host.Style, string) {
	left, right := splitRuns(runs, off)
	if len(left) > 0 {
		last := left[len(left)-1]
		return last.style, last.color
	}
	if len(right) > 0 {
		return right[0].style, right[0].color
	}
	return 0, ""
}

// normalizeRuns drops empty runs and merges neighbours with equal style.
func normalizeRuns(runs []run) []run {
	out := make([]run, 0, len(runs))
	for _, r := range runs {
		if r.text == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].style == r.style && out[n-1].color == r.color {
			out[n-1].text += r.text
			continue
		}
		out = append(out, r)
	}
	return out
}

func insertRuns(runs []run, off int, text string) []run {
	style, color := styleAt(runs, off)
	left, right := splitRuns(runs, off)
	out := append(left, run{text: text, style: style, color: color})
	return normalizeRuns(append(out, right...))
}

func deleteRuns(runs []run, start, end int) []run {
	left, _ := splitRuns(runs, start)
	_, right := splitRuns(runs, end)
	return normalizeRuns(append(left, right...))
}

func styleRuns(runs []run, start, end int, style host.Style, color string) []run {
	left, rest := splitRuns(runs, start)
	mid, right := splitRuns(rest, end-start)
	for i := range mid {
		mid[i].style |= style
		if style&host.StyleHighlight != 0 {
			mid[i].color = color
		}
	}
	out := append(left, mid...)
	return normalizeRuns(append(out, right...))
}

// splitLines cuts runs at every newline, dropping the newline characters.
// The result always has at least one element.
func splitLines(runs []run) [][]run {
	lines := [][]run{nil}
	for _, r := range runs {
		parts := strings.Split(r.text, "\n")
		for i, part := range parts {
			if i > 0 {
				lines = append(lines, nil)
			}
			if part != "" {
				lines[len(lines)-1] = append(lines[len(lines)-1], run{text: part, style: r.style, color: r.color})
			}
		}
	}
	return lines
}
