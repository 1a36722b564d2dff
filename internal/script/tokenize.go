package script

import (
	"regexp"
	"strings"
)

const (
	// Delimiter separates the segments of a line.
	Delimiter = '>'
	// CommentMarker truncates the rest of a line.
	CommentMarker = "--"
	// StatementSeparator splits single-line bodies into statements.
	StatementSeparator = ";'"
)

var startCodeBlock = regexp.MustCompile("^((```sql?)(\\s)|(```))")

// CleanupCode strips a surrounding code fence from a message body.
func CleanupCode(content string) string {
	if strings.HasPrefix(content, "```") && strings.HasSuffix(content, "```") && len(content) >= 6 {
		body := startCodeBlock.ReplaceAllString(content, "$3")
		return strings.TrimSuffix(body, "```")
	}
	return strings.Trim(content, "` \n")
}

// RawLine is a tokenized line before typing.
type RawLine struct {
	Text     string
	Segments []string
}

// Tokenize splits body into lines and each line into trimmed segments.
// Lines whose segment count does not match their delimiter count are
// dropped without error.
func Tokenize(body string) []RawLine {
	sep := StatementSeparator
	if strings.Contains(body, "\n") {
		sep = "\n"
	}

	var lines []RawLine
	for _, line := range strings.Split(body, sep) {
		if i := strings.Index(line, CommentMarker); i >= 0 {
			line = line[:i]
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		segments := splitSegments(line)
		if len(segments) != strings.Count(line, string(Delimiter))+1 {
			continue
		}

		lines = append(lines, RawLine{
			Text:     strings.TrimSpace(line),
			Segments: segments,
		})
	}
	return lines
}

// splitSegments scans a line rune by rune, flushing the buffer at each
// delimiter and at the last rune.
func splitSegments(line string) []string {
	runes := []rune(line)

	var segments []string
	var buf strings.Builder
	for i, r := range runes {
		buf.WriteRune(r)
		if r == Delimiter || i == len(runes)-1 {
			seg := strings.ReplaceAll(buf.String(), string(Delimiter), "")
			segments = append(segments, strings.TrimSpace(seg))
			buf.Reset()
		}
	}
	return segments
}
