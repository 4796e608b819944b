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

// Package render partitions long-form output into bounded frame-range chunks,
// dispatches them to a render engine with bounded concurrency and per-chunk
// retries, and stitches finished chunks into one continuous artifact. A chunk
// that exhausts its retries fails the whole job with the chunk named, rather
// than silently producing a truncated video.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/promoforge/promo-video-engine/internal/core/model"
)

// Config sizes the orchestrator. ChunkSeconds sets the chunk duration,
// Workers bounds concurrent chunk renders, MaxChunkAttempts caps per-chunk
// retries.
type Config struct {
	ChunkSeconds     int `toml:"chunk_seconds" json:"chunk_seconds"`
	Workers          int `toml:"workers" json:"workers"`
	MaxChunkAttempts int `toml:"max_chunk_attempts" json:"max_chunk_attempts"`
	FPS              int `toml:"fps" json:"fps"`
}

// DefaultConfig returns the production defaults: 3-minute chunks, 4 parallel
// renders, 3 attempts per chunk, 30fps.
func DefaultConfig() Config {
	return Config{ChunkSeconds: 180, Workers: 4, MaxChunkAttempts: 3, FPS: 30}
}

// ChunkError names the chunk that exhausted its retries.
type ChunkError struct {
	ChunkIndex int
	Attempts   int
	Err        error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d failed after %d attempts: %v", e.ChunkIndex, e.Attempts, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// Orchestrator runs render jobs against a RenderEngine. Jobs are tracked by
// id so callers can poll status while a render runs.
type Orchestrator struct {
	engine model.RenderEngine
	config Config
	logger *slog.Logger

	mu   sync.Mutex
	jobs map[string]*model.RenderJob
}

// NewOrchestrator builds an Orchestrator over the given engine. Zero config
// fields are replaced with defaults.
func NewOrchestrator(engine model.RenderEngine, config Config, logger *slog.Logger) *Orchestrator {
	def := DefaultConfig()
	if config.ChunkSeconds <= 0 {
		config.ChunkSeconds = def.ChunkSeconds
	}
	if config.Workers <= 0 {
		config.Workers = def.Workers
	}
	if config.MaxChunkAttempts <= 0 {
		config.MaxChunkAttempts = def.MaxChunkAttempts
	}
	if config.FPS <= 0 {
		config.FPS = def.FPS
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		engine: engine,
		config: config,
		logger: logger,
		jobs:   make(map[string]*model.RenderJob),
	}
}

// Prepare partitions a total duration into a new pending job. The chunk set
// is validated against the partition invariant at construction.
func (o *Orchestrator) Prepare(projectID string, totalSeconds float64) (*model.RenderJob, error) {
	totalFrames := int(totalSeconds * float64(o.config.FPS))
	chunks, err := model.NewRenderChunks(totalFrames, o.config.ChunkSeconds*o.config.FPS)
	if err != nil {
		return nil, fmt.Errorf("failed to partition %d frames: %w", totalFrames, err)
	}
	job := &model.RenderJob{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		TotalFrames: totalFrames,
		FPS:         o.config.FPS,
		Chunks:      chunks,
		Status:      model.RenderPending,
	}
	o.mu.Lock()
	o.jobs[job.ID] = job
	o.mu.Unlock()
	return job, nil
}

// Run renders every chunk of the job against compositionSpec, waits for all
// of them to reach a terminal state, and stitches the outputs in index order.
// It returns a ChunkError (wrapped) if any chunk exhausted its retries; the
// job then carries the failed chunk indices.
func (o *Orchestrator) Run(ctx context.Context, jobID string, compositionSpec string) error {
	o.mu.Lock()
	job, ok := o.jobs[jobID]
	if !ok {
		o.mu.Unlock()
		return fmt.Errorf("unknown render job %q", jobID)
	}
	job.Status = model.RenderRunning
	o.mu.Unlock()

	// The group is the chunk barrier: Wait returns only after every chunk
	// reached a terminal state. Chunks fail independently, so a failure must
	// not cancel its siblings; they keep the parent context.
	var group errgroup.Group
	group.SetLimit(o.config.Workers)
	for _, chunk := range job.Chunks {
		group.Go(func() error {
			return o.renderChunk(ctx, job, chunk, compositionSpec)
		})
	}
	if err := group.Wait(); err != nil {
		o.failJob(job)
		return err
	}

	locators := make([]string, len(job.Chunks))
	for i, chunk := range job.Chunks {
		locators[i] = chunk.Locator
	}
	out, err := o.engine.Stitch(ctx, locators)
	if err != nil {
		o.failJob(job)
		return fmt.Errorf("failed to stitch %d chunks: %w", len(locators), err)
	}

	o.mu.Lock()
	job.OutputLocator = out
	job.Status = model.RenderDone
	o.mu.Unlock()
	o.logger.Info("render complete",
		"job", job.ID, "project", job.ProjectID, "chunks", len(job.Chunks), "output", out)
	return nil
}

// renderChunk drives one chunk to a terminal state, retrying transient
// failures up to the configured attempt cap.
func (o *Orchestrator) renderChunk(ctx context.Context, job *model.RenderJob, chunk *model.RenderChunk, compositionSpec string) error {
	o.setChunkStatus(chunk, model.ChunkRendering)
	var lastErr error
	for attempt := 1; attempt <= o.config.MaxChunkAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		locator, err := o.engine.RenderChunk(ctx, compositionSpec, chunk.StartFrame, chunk.EndFrame)
		o.mu.Lock()
		chunk.Attempts = attempt
		o.mu.Unlock()
		if err == nil {
			o.mu.Lock()
			chunk.Locator = locator
			chunk.Status = model.ChunkDone
			chunk.LastError = ""
			o.mu.Unlock()
			return nil
		}
		lastErr = err
		o.mu.Lock()
		chunk.LastError = err.Error()
		o.mu.Unlock()
		o.logger.Warn("chunk render attempt failed",
			"job", job.ID, "chunk", chunk.Index, "attempt", attempt, "error", err)
	}
	o.setChunkStatus(chunk, model.ChunkFailed)
	return &ChunkError{ChunkIndex: chunk.Index, Attempts: chunk.Attempts, Err: lastErr}
}

func (o *Orchestrator) setChunkStatus(chunk *model.RenderChunk, status model.ChunkStatus) {
	o.mu.Lock()
	chunk.Status = status
	o.mu.Unlock()
}

// failJob marks the job failed and records which chunks never finished.
func (o *Orchestrator) failJob(job *model.RenderJob) {
	o.mu.Lock()
	defer o.mu.Unlock()
	job.Status = model.RenderFailed
	job.FailedChunks = job.FailedChunks[:0]
	for _, chunk := range job.Chunks {
		if chunk.Status != model.ChunkDone {
			job.FailedChunks = append(job.FailedChunks, chunk.Index)
		}
	}
}

// Job returns a snapshot copy of the job's current state, or false if the id
// is unknown.
func (o *Orchestrator) Job(jobID string) (model.RenderJob, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	job, ok := o.jobs[jobID]
	if !ok {
		return model.RenderJob{}, false
	}
	out := *job
	out.Chunks = make([]*model.RenderChunk, len(job.Chunks))
	for i, chunk := range job.Chunks {
		c := *chunk
		out.Chunks[i] = &c
	}
	out.FailedChunks = append([]int(nil), job.FailedChunks...)
	return out, true
}
