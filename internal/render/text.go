// Package render turns session state into text for terminals and HTML for browsers.
package render

import (
	"regexp"
	"strings"
)

var (
	spaceRun = regexp.MustCompile(` {2,}`)
	fence    = regexp.MustCompile("^ {0,3}(```|~~~)")
)

// CleanDisplayText collapses runs of spaces and of blank lines while keeping
// paragraph breaks. Fenced code and leading indentation are left as they are.
func CleanDisplayText(text string) string {
	if text == "" {
		return text
	}

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	inFence := false
	blank := 0
	for _, line := range lines {
		if fence.MatchString(line) {
			inFence = !inFence
		} else if inFence {
			out = append(out, line)
			blank = 0
			continue
		}

		if strings.TrimSpace(line) == "" {
			blank++
			if blank < 2 {
				out = append(out, "")
			}
			continue
		}
		blank = 0

		body := strings.TrimLeft(line, " \t")
		indent := line[:len(line)-len(body)]
		out = append(out, indent+strings.TrimRight(spaceRun.ReplaceAllString(body, " "), " \t"))
	}
	return strings.Trim(strings.Join(out, "\n"), "\n")
}
