package ollama

import (
	"fmt"
	"strings"

	"github.com/chattydoc/chattydoc/internal/core/domain"
)

func buildDraftPrompt(question string, chunks []domain.RetrievedChunk) string {
	return fmt.Sprintf(`Answer user question only from context below.
If context is insufficient, say it directly.
Cite fragment numbers like [1] next to the claims they support.

Question:
%s

Context:
%s`, question, renderContext(chunks))
}

func buildVerifyPrompt(question, draft string, chunks []domain.RetrievedChunk) string {
	return fmt.Sprintf(`You review a draft answer against its source context.
Check every claim in the draft against the fragments.
Remove or correct anything the fragments do not support, then output the
final answer only. Do not mention this review step.

Question:
%s

Draft:
%s

Context:
%s`, question, draft, renderContext(chunks))
}

func renderContext(chunks []domain.RetrievedChunk) string {
	var b strings.Builder
	for idx, chunk := range chunks {
		header := chunk.HeaderPath
		if header == "" {
			header = "-"
		}
		fmt.Fprintf(&b, "[%d] file=%s section=%s score=%.3f\n%s\n\n",
			idx+1, chunk.SourceFile, header, chunk.Score, chunk.Text)
	}
	return b.String()
}
