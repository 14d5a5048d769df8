package compare

import (
	"strconv"
	"strings"
)

// BlockKind classifies one line of a comparison report.
type BlockKind int

const (
	Paragraph BlockKind = iota
	Heading2
	Heading3
	Bullet
	Numbered
	Spacer
)

// Span is a run of report text. Bold marks text written between ** pairs.
type Span struct {
	Text string
	Bold bool
}

// Block is one rendered line of a report.
type Block struct {
	Kind   BlockKind
	Number int // set for Numbered
	Spans  []Span
}

// Text returns the block's text without markup.
func (b Block) Text() string {
	var sb strings.Builder
	for _, s := range b.Spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// ParseReport splits a markdown report into blocks, one per line. Leading
// and trailing blank lines are dropped.
func ParseReport(md string) []Block {
	lines := strings.Split(strings.ReplaceAll(md, "\r\n", "\n"), "\n")
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}

	blocks := make([]Block, 0, end-start)
	for _, line := range lines[start:end] {
		blocks = append(blocks, parseLine(strings.TrimSpace(line)))
	}
	return blocks
}

func parseLine(line string) Block {
	switch {
	case line == "":
		return Block{Kind: Spacer}
	case strings.HasPrefix(line, "### "):
		return Block{Kind: Heading3, Spans: parseSpans(line[4:])}
	case strings.HasPrefix(line, "## "):
		return Block{Kind: Heading2, Spans: parseSpans(line[3:])}
	case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
		return Block{Kind: Bullet, Spans: parseSpans(line[2:])}
	}
	if n, rest, ok := numbered(line); ok {
		return Block{Kind: Numbered, Number: n, Spans: parseSpans(rest)}
	}
	return Block{Kind: Paragraph, Spans: parseSpans(line)}
}

// numbered matches "N. text".
func numbered(line string) (int, string, bool) {
	dot := strings.Index(line, ". ")
	if dot <= 0 {
		return 0, "", false
	}
	n, err := strconv.Atoi(line[:dot])
	if err != nil || n < 0 {
		return 0, "", false
	}
	return n, line[dot+2:], true
}

func parseSpans(text string) []Span {
	parts := strings.Split(text, "**")
	// An unmatched marker is literal text.
	if len(parts)%2 == 0 {
		return []Span{{Text: text}}
	}
	spans := make([]Span, 0, len(parts))
	for i, p := range parts {
		if p == "" {
			continue
		}
		spans = append(spans, Span{Text: p, Bold: i%2 == 1})
	}
	return spans
}
