package render

import (
	"regexp"
	"strings"
)

type Kind string

const (
	KindHeadingLarge  Kind = "heading_large"
	KindHeadingMedium Kind = "heading_medium"
	KindHeadingSmall  Kind = "heading_small"
	KindBullet        Kind = "bullet"
	KindNumbered      Kind = "numbered"
	KindSpacer        Kind = "spacer"
	KindParagraph     Kind = "paragraph"
)

// Block is one display unit. Number is only set for KindNumbered.
type Block struct {
	Kind   Kind   `json:"kind"`
	Text   string `json:"text,omitempty"`
	Number string `json:"number,omitempty"`
}

var numberedPrefix = regexp.MustCompile(`^(\d+)\.\s`)

type matcher func(line string) (Block, bool)

func prefixMatcher(prefix string, kind Kind) matcher {
	return func(line string) (Block, bool) {
		if !strings.HasPrefix(line, prefix) {
			return Block{}, false
		}
		return Block{Kind: kind, Text: line[len(prefix):]}, true
	}
}

func matchNumbered(line string) (Block, bool) {
	m := numberedPrefix.FindStringSubmatch(line)
	if m == nil {
		return Block{}, false
	}
	return Block{Kind: KindNumbered, Number: m[1], Text: line[len(m[0]):]}, true
}

func matchSpacer(line string) (Block, bool) {
	if strings.TrimSpace(line) != "" {
		return Block{}, false
	}
	return Block{Kind: KindSpacer}, true
}

// Evaluated top to bottom, first match wins. Longer heading prefixes come
// first so "## x" never reads as a large heading.
var matchers = []matcher{
	prefixMatcher("### ", KindHeadingSmall),
	prefixMatcher("## ", KindHeadingMedium),
	prefixMatcher("# ", KindHeadingLarge),
	prefixMatcher("- ", KindBullet),
	matchNumbered,
	matchSpacer,
}

// ClassifyLine maps a single line to its display block.
func ClassifyLine(line string) Block {
	line = strings.TrimSuffix(line, "\r")
	for _, m := range matchers {
		if b, ok := m(line); ok {
			return b
		}
	}
	return Block{Kind: KindParagraph, Text: line}
}

// Render splits text into lines and classifies each one independently.
// Inline markup such as bold or links is passed through untouched.
func Render(text string) []Block {
	lines := strings.Split(text, "\n")
	blocks := make([]Block, 0, len(lines))
	for _, line := range lines {
		blocks = append(blocks, ClassifyLine(line))
	}
	return blocks
}
