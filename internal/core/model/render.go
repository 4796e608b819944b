// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

import "fmt"

// ChunkStatus is the lifecycle state of one render chunk.
type ChunkStatus string

const (
	ChunkPending   ChunkStatus = "pending"
	ChunkRendering ChunkStatus = "rendering"
	ChunkDone      ChunkStatus = "done"
	ChunkFailed    ChunkStatus = "failed"
)

// RenderChunk is one bounded frame-range slice of a long render. Chunks of a
// job partition [0,totalFrames) with no gaps and no overlaps; the invariant
// is checked at construction in NewRenderChunks and nowhere relaxed.
type RenderChunk struct {
	Index      int         `json:"index"`
	StartFrame int         `json:"start_frame"` // inclusive
	EndFrame   int         `json:"end_frame"`   // exclusive
	Status     ChunkStatus `json:"status"`
	Locator    string      `json:"locator,omitempty"`
	Attempts   int         `json:"attempts"`
	LastError  string      `json:"last_error,omitempty"`
}

// NewRenderChunks partitions totalFrames into chunks of at most chunkFrames.
// The last chunk absorbs the remainder. It is the only constructor for chunk
// sets; building chunks by hand would bypass the partition check.
func NewRenderChunks(totalFrames, chunkFrames int) ([]*RenderChunk, error) {
	if totalFrames <= 0 {
		return nil, fmt.Errorf("total frames must be positive, got %d", totalFrames)
	}
	if chunkFrames <= 0 {
		return nil, fmt.Errorf("chunk frames must be positive, got %d", chunkFrames)
	}
	var chunks []*RenderChunk
	for start := 0; start < totalFrames; start += chunkFrames {
		end := start + chunkFrames
		if end > totalFrames {
			end = totalFrames
		}
		chunks = append(chunks, &RenderChunk{
			Index:      len(chunks),
			StartFrame: start,
			EndFrame:   end,
			Status:     ChunkPending,
		})
	}
	if err := ValidateChunkPartition(chunks, totalFrames); err != nil {
		return nil, err
	}
	return chunks, nil
}

// ValidateChunkPartition verifies chunks cover [0,totalFrames) contiguously:
// the first chunk starts at 0, each chunk starts where the previous ended,
// and the final chunk ends at totalFrames.
func ValidateChunkPartition(chunks []*RenderChunk, totalFrames int) error {
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks for %d frames", totalFrames)
	}
	next := 0
	for _, c := range chunks {
		if c.StartFrame != next {
			return fmt.Errorf("chunk %d starts at frame %d, want %d", c.Index, c.StartFrame, next)
		}
		if c.EndFrame <= c.StartFrame {
			return fmt.Errorf("chunk %d has empty range [%d,%d)", c.Index, c.StartFrame, c.EndFrame)
		}
		next = c.EndFrame
	}
	if next != totalFrames {
		return fmt.Errorf("chunks end at frame %d, want %d", next, totalFrames)
	}
	return nil
}

// RenderJobStatus is the terminal-aware state of a whole render job.
type RenderJobStatus string

const (
	RenderPending RenderJobStatus = "pending"
	RenderRunning RenderJobStatus = "running"
	RenderDone    RenderJobStatus = "done"
	RenderFailed  RenderJobStatus = "failed"
)

// CompositionSpec is the render engine's input: the ordered scene assets to
// composite plus the planned transitions between them. It travels as JSON
// from the composition service to the engine.
type CompositionSpec struct {
	ProjectID   string           `json:"project_id"`
	Assets      []string         `json:"assets"`
	Transitions []TransitionPlan `json:"transitions"`
}

// RenderJob tracks one long-form render: its chunk partition, the stitched
// output once every chunk reached a terminal state, and the identities of any
// chunks that exhausted their retries.
type RenderJob struct {
	ID            string          `json:"id"`
	ProjectID     string          `json:"project_id"`
	TotalFrames   int             `json:"total_frames"`
	FPS           int             `json:"fps"`
	Chunks        []*RenderChunk  `json:"chunks"`
	Status        RenderJobStatus `json:"status"`
	OutputLocator string          `json:"output_locator,omitempty"`
	FailedChunks  []int           `json:"failed_chunks,omitempty"`
}
