package util

import (
	"bytes"
	"fmt"
	"strings"
)

// GetContextLines formats up to two lines before the error line, then the
// error line itself with a caret under the error column.
func GetContextLines(src string, errorLine, errorCol int) string {
	var result bytes.Buffer

	lines := strings.Split(src, "\n")
	if errorLine < 1 || errorLine > len(lines) {
		return ""
	}

	startLine := errorLine - 2
	if startLine < 1 {
		startLine = 1
	}

	for i := startLine; i <= errorLine; i++ {
		lineContent := lines[i-1]

		if i == errorLine {
			margin := fmt.Sprintf("  >  %3d | ", i)
			result.WriteString(margin + lineContent + "\n")

			// columns count runes
			prefix := []rune(lineContent)
			if errorCol-1 < len(prefix) {
				prefix = prefix[:max(errorCol-1, 0)]
			}
			result.WriteString(replaceVisibleWithSpaces(margin+string(prefix)) + "^")
		} else {
			result.WriteString(fmt.Sprintf("     %3d | %s\n", i, lineContent))
		}
	}

	return result.String()
}

// replaceVisibleWithSpaces replaces all non-whitespace characters with spaces
// while preserving tabs for correct alignment.
func replaceVisibleWithSpaces(s string) string {
	var buf bytes.Buffer
	for _, c := range s {
		if c == '\t' {
			buf.WriteRune('\t')
		} else {
			buf.WriteRune(' ')
		}
	}
	return buf.String()
}
