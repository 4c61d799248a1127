package triage

import (
	"context"
	"fmt"
	"slices"

	"github.com/teemow/rejectlabel/internal/gmail"
)

// MaxChunkSize is the most ids one batchModify call accepts.
const MaxChunkSize = gmail.MaxBatchModifyIDs

// ChunkFunc is told the size of every chunk after it has been labeled.
type ChunkFunc func(index, size int)

// ApplyLabel adds labelID to every message in ids, chunkSize ids per call.
// A chunkSize of zero means MaxChunkSize. Chunks run in order and the first
// failure stops the rest, returning an *ApplyError. Empty input sends
// nothing. The number of labeled messages is returned in both cases.
func ApplyLabel(ctx context.Context, m MessageModifier, ids []string, labelID string, chunkSize int, onChunk ChunkFunc) (int, error) {
	if chunkSize == 0 {
		chunkSize = MaxChunkSize
	}
	if chunkSize < 0 || chunkSize > MaxChunkSize {
		return 0, fmt.Errorf("%w: chunk size must be between 1 and %d, got %d", ErrLabelApply, MaxChunkSize, chunkSize)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if labelID == "" {
		return 0, fmt.Errorf("%w: label id is empty", ErrLabelApply)
	}

	chunks := (len(ids) + chunkSize - 1) / chunkSize
	add := []string{labelID}
	labeled := 0
	index := 0
	for chunk := range slices.Chunk(ids, chunkSize) {
		index++
		if err := m.BatchModify(ctx, chunk, add, nil); err != nil {
			return labeled, &ApplyError{Chunk: index, Chunks: chunks, Labeled: labeled, Err: err}
		}
		labeled += len(chunk)
		if onChunk != nil {
			onChunk(index, len(chunk))
		}
	}
	return labeled, nil
}
