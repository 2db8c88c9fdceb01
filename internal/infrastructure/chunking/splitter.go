package chunking

import (
	"strings"

	"github.com/chattydoc/chattydoc/internal/core/domain"
)

// HeaderSplitter splits markdown on level-1 and level-2 headings.
// Deeper headings stay inside their parent section. Text with no headings
// at all becomes a single section spanning the whole document.
type HeaderSplitter struct{}

func NewHeaderSplitter() *HeaderSplitter {
	return &HeaderSplitter{}
}

func (s *HeaderSplitter) Split(markdown string) []domain.Section {
	lines := strings.Split(markdown, "\n")

	var (
		out     []domain.Section
		h1, h2  string
		body    []string
		inFence bool
	)

	flush := func() {
		text := strings.TrimSpace(strings.Join(body, "\n"))
		body = body[:0]
		if text == "" {
			return
		}
		out = append(out, domain.Section{HeaderPath: headerPath(h1, h2), Text: text})
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			body = append(body, line)
			continue
		}
		if inFence {
			body = append(body, line)
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "# "):
			flush()
			h1 = strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
			h2 = ""
		case strings.HasPrefix(trimmed, "## "):
			flush()
			h2 = strings.TrimSpace(strings.TrimPrefix(trimmed, "## "))
		default:
			body = append(body, line)
		}
	}
	flush()

	return out
}

func headerPath(h1, h2 string) string {
	switch {
	case h1 != "" && h2 != "":
		return h1 + " > " + h2
	case h1 != "":
		return h1
	case h2 != "":
		return h2
	default:
		return ""
	}
}
