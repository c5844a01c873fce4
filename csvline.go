package triviacards

import (
	"strings"
	"unicode"
)

// TokenizeLine splits one line of a trivia file into trimmed fields.
// Quoted fields may contain commas and doubled quotes. An unbalanced quote
// is not an error: the rest of the line is read as quoted text.
func TokenizeLine(line string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)

	// Quote and comma are single bytes that never occur inside a multi-byte
	// UTF-8 sequence, so scanning bytes is safe.
	for i := 0; i < len(line); {
		c := line[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				current.WriteByte('"')
				i += 2
				continue
			}
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			fields = append(fields, trimField(current.String()))
			current.Reset()
		default:
			current.WriteByte(c)
		}
		i++
	}

	return append(fields, trimField(current.String()))
}

// trimField strips surrounding whitespace, including a byte order mark.
func trimField(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}

// stripQuotes removes one leading and one trailing quote character.
func stripQuotes(s string) string {
	s = trimField(s)
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}

// field returns column i, or "" when the row is shorter.
func field(columns []string, i int) string {
	if i < len(columns) {
		return columns[i]
	}
	return ""
}

// splitLines yields the non-blank lines of a file.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if trimField(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
