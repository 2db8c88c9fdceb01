package usecase

import (
	"sort"

	"github.com/chattydoc/chattydoc/internal/core/domain"
)

type fusedCandidate struct {
	chunk domain.RetrievedChunk
	score float64
}

// fuseWeightedRRF merges two ranked lists by weighted reciprocal rank.
// Only rank positions matter; the raw BM25 and cosine scores are not
// comparable and are discarded. A chunk in both lists accumulates both
// contributions, which is what pushes agreed-on chunks to the top.
func fuseWeightedRRF(lexical, vector []domain.RetrievedChunk, lexicalWeight, vectorWeight float64, rrfK int) []domain.RetrievedChunk {
	if rrfK <= 0 {
		rrfK = 60
	}

	acc := make(map[domain.ChunkDigest]fusedCandidate, len(lexical)+len(vector))
	addList := func(chunks []domain.RetrievedChunk, weight float64) {
		for rank, chunk := range chunks {
			candidate, seen := acc[chunk.Digest]
			if !seen {
				candidate.chunk = chunk
			}
			candidate.score += weight / float64(rrfK+rank+1)
			acc[chunk.Digest] = candidate
		}
	}

	addList(lexical, lexicalWeight)
	addList(vector, vectorWeight)

	out := make([]domain.RetrievedChunk, 0, len(acc))
	for _, c := range acc {
		chunk := c.chunk
		chunk.Score = c.score
		out = append(out, chunk)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].SourceFile != out[j].SourceFile {
			return out[i].SourceFile < out[j].SourceFile
		}
		return out[i].Digest < out[j].Digest
	})

	return out
}

func trimCandidates(chunks []domain.RetrievedChunk, limit int) []domain.RetrievedChunk {
	if limit <= 0 || len(chunks) <= limit {
		return chunks
	}
	return chunks[:limit]
}
