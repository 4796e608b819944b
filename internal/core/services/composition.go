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

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/promoforge/promo-video-engine/internal/core/model"
	"github.com/promoforge/promo-video-engine/internal/core/placement"
	"github.com/promoforge/promo-video-engine/internal/core/render"
	"github.com/promoforge/promo-video-engine/internal/core/transition"
)

// CompositionService turns a project's approved scene state into the
// assembly-facing artifacts: transition plans between adjacent scenes,
// resolved text overlay placements, and chunked render jobs.
type CompositionService struct {
	Registry *ProjectRegistry
	Planner  *transition.Planner
	Resolver *placement.Resolver
	Render   *render.Orchestrator

	// Stage maps an asset locator to one the render engine can read, such
	// as a local copy of a remote object. Nil means locators are used as is.
	Stage func(ctx context.Context, locator string) (string, error)
}

// PlanTransitions builds one transition per adjacent scene pair, feeding the
// planner whatever visual summaries analysis has produced so far. Scenes
// without an analysis still get a plan from style defaults alone.
func (s *CompositionService) PlanTransitions(projectID string) ([]model.TransitionPlan, error) {
	requests, ok := s.Registry.SceneRequests(projectID)
	if !ok {
		return nil, fmt.Errorf("project %s not found", projectID)
	}

	scenes := make([]transition.Scene, 0, len(requests))
	for _, req := range requests {
		scene := transition.Scene{Request: *req}
		if analysis, ok := s.Registry.Analysis(projectID, req.SceneIndex); ok {
			scene.Summary = analysis.Summary
		}
		scenes = append(scenes, scene)
	}
	return s.Planner.Plan(scenes), nil
}

// ResolvePlacements positions the given overlays on one scene, honoring the
// obstruction map from the scene's latest analysis when one exists.
func (s *CompositionService) ResolvePlacements(projectID string, sceneIndex int, overlays []model.TextOverlay) ([]model.TextOverlayPlacement, error) {
	if _, ok := s.Registry.SceneRequest(projectID, sceneIndex); !ok {
		return nil, fmt.Errorf("project %s has no scene %d", projectID, sceneIndex)
	}
	var obstructions *model.ObstructionMap
	if analysis, ok := s.Registry.Analysis(projectID, sceneIndex); ok {
		obstructions = analysis.Obstructions
	}
	return s.Resolver.Resolve(sceneIndex, overlays, obstructions), nil
}

// PrepareRender verifies the project can render, partitions the timeline
// into chunks, and returns the pending job. The quality gate's report is
// the single authority on render readiness.
func (s *CompositionService) PrepareRender(projectID string) (*model.RenderJob, error) {
	gate, ok := s.Registry.Gate(projectID)
	if !ok {
		return nil, fmt.Errorf("project %s not found", projectID)
	}
	report := gate.Report()
	if !report.CanRender {
		return nil, fmt.Errorf("project %s cannot render: %v", projectID, report.BlockingReasons)
	}

	requests, _ := s.Registry.SceneRequests(projectID)
	total := 0.0
	for _, req := range requests {
		if asset, ok := s.Registry.CurrentAsset(projectID, req.SceneIndex); ok && asset.Duration > 0 {
			total += asset.Duration
		} else {
			total += req.Duration
		}
	}
	return s.Render.Prepare(projectID, total)
}

// StartRender launches a prepared job. The composition spec is assembled
// from the current assets and transition plans at launch time. Staged local
// copies of remote assets are removed once the run finishes.
func (s *CompositionService) StartRender(ctx context.Context, projectID string, jobID string) error {
	requests, ok := s.Registry.SceneRequests(projectID)
	if !ok {
		return fmt.Errorf("project %s not found", projectID)
	}

	var staged []string
	defer func() {
		for _, path := range staged {
			if err := os.Remove(path); err != nil {
				slog.WarnContext(ctx, "failed to remove staged asset copy",
					"path", path,
					"error", err)
			}
		}
	}()

	assets := make([]string, 0, len(requests))
	for _, req := range requests {
		asset, ok := s.Registry.CurrentAsset(projectID, req.SceneIndex)
		if !ok {
			return fmt.Errorf("scene %d has no active asset", req.SceneIndex)
		}
		locator := asset.Locator
		if s.Stage != nil {
			copied, err := s.Stage(ctx, locator)
			if err != nil {
				return fmt.Errorf("failed to stage asset for scene %d: %w", req.SceneIndex, err)
			}
			if copied != locator {
				staged = append(staged, copied)
			}
			locator = copied
		}
		assets = append(assets, locator)
	}
	transitions, err := s.PlanTransitions(projectID)
	if err != nil {
		return err
	}

	spec, err := json.Marshal(model.CompositionSpec{
		ProjectID:   projectID,
		Assets:      assets,
		Transitions: transitions,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal composition spec: %w", err)
	}
	return s.Render.Run(ctx, jobID, string(spec))
}

// RenderStatus snapshots a job.
func (s *CompositionService) RenderStatus(jobID string) (model.RenderJob, bool) {
	return s.Render.Job(jobID)
}
