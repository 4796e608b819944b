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

package render_test

import (
	"context"
	"errors"
	"testing"

	"github.com/promoforge/promo-video-engine/internal/core/model"
	"github.com/promoforge/promo-video-engine/internal/core/render"
	test "github.com/promoforge/promo-video-engine/internal/testutil"
	"github.com/zeebo/assert"
)

func newOrchestrator(engine model.RenderEngine) *render.Orchestrator {
	return render.NewOrchestrator(engine, render.Config{
		ChunkSeconds:     5,
		Workers:          2,
		MaxChunkAttempts: 2,
		FPS:              30,
	}, nil)
}

// TestPrepare partitions a 12 second render at 30fps into 5 second chunks:
// two full chunks plus a 2 second remainder.
func TestPrepare(t *testing.T) {
	o := newOrchestrator(&test.FakeRenderEngine{})

	job, err := o.Prepare("demo-promo", 12)
	assert.NoError(t, err)
	assert.Equal(t, 360, job.TotalFrames)
	assert.Equal(t, 3, len(job.Chunks))
	assert.Equal(t, model.RenderPending, job.Status)

	got, ok := o.Job(job.ID)
	assert.True(t, ok)
	assert.Equal(t, job.ID, got.ID)

	_, ok = o.Job("missing")
	assert.False(t, ok)
}

// TestRunStitchesInOrder renders a three chunk job and checks the final
// artifact stitches every chunk and the job reaches done.
func TestRunStitchesInOrder(t *testing.T) {
	engine := &test.FakeRenderEngine{}
	o := newOrchestrator(engine)

	job, err := o.Prepare("demo-promo", 12)
	assert.NoError(t, err)
	assert.NoError(t, o.Run(context.Background(), job.ID, `{"project_id":"demo-promo"}`))

	got, ok := o.Job(job.ID)
	assert.True(t, ok)
	assert.Equal(t, model.RenderDone, got.Status)
	assert.Equal(t, "mem://final/3-parts.mp4", got.OutputLocator)
	for _, chunk := range got.Chunks {
		assert.Equal(t, model.ChunkDone, chunk.Status)
		assert.Equal(t, 1, chunk.Attempts)
		assert.True(t, chunk.Locator != "")
	}
	assert.Equal(t, 3, len(engine.Ranges()))
}

// TestRunRetriesTransientFailure fails the middle chunk once and expects the
// retry to recover without failing the job.
func TestRunRetriesTransientFailure(t *testing.T) {
	engine := &test.FakeRenderEngine{FailFrames: map[int]int{150: 1}}
	o := newOrchestrator(engine)

	job, err := o.Prepare("demo-promo", 12)
	assert.NoError(t, err)
	assert.NoError(t, o.Run(context.Background(), job.ID, "{}"))

	got, _ := o.Job(job.ID)
	assert.Equal(t, model.RenderDone, got.Status)
	assert.Equal(t, 2, got.Chunks[1].Attempts)
	assert.Equal(t, model.ChunkDone, got.Chunks[1].Status)
}

// TestRunChunkExhaustion fails one chunk past its attempt budget: the job
// fails naming the chunk, while its siblings still finish independently.
func TestRunChunkExhaustion(t *testing.T) {
	engine := &test.FakeRenderEngine{FailFrames: map[int]int{150: 5}}
	o := newOrchestrator(engine)

	job, err := o.Prepare("demo-promo", 12)
	assert.NoError(t, err)

	err = o.Run(context.Background(), job.ID, "{}")
	assert.Error(t, err)

	var chunkErr *render.ChunkError
	assert.True(t, errors.As(err, &chunkErr))
	assert.Equal(t, 1, chunkErr.ChunkIndex)
	assert.Equal(t, 2, chunkErr.Attempts)

	got, _ := o.Job(job.ID)
	assert.Equal(t, model.RenderFailed, got.Status)
	assert.DeepEqual(t, []int{1}, got.FailedChunks)
	assert.Equal(t, model.ChunkDone, got.Chunks[0].Status)
	assert.Equal(t, model.ChunkFailed, got.Chunks[1].Status)
	assert.Equal(t, model.ChunkDone, got.Chunks[2].Status)
}

func TestRunUnknownJob(t *testing.T) {
	o := newOrchestrator(&test.FakeRenderEngine{})
	assert.Error(t, o.Run(context.Background(), "missing", "{}"))
}
