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

package services_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/promoforge/promo-video-engine/internal/core/model"
	"github.com/promoforge/promo-video-engine/internal/core/placement"
	"github.com/promoforge/promo-video-engine/internal/core/render"
	"github.com/promoforge/promo-video-engine/internal/core/services"
	"github.com/promoforge/promo-video-engine/internal/core/transition"
	test "github.com/promoforge/promo-video-engine/internal/testutil"
	"github.com/zeebo/assert"
)

func newComposition(t *testing.T, projectID string, sceneCount int) (*services.CompositionService, *services.ProjectRegistry) {
	t.Helper()
	registry := newRegistryWithProject(t, projectID, sceneCount)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := &test.FakeRenderEngine{}
	orchestrator := render.NewOrchestrator(engine, render.Config{
		ChunkSeconds:     4,
		Workers:          2,
		MaxChunkAttempts: 2,
		FPS:              30,
	}, logger)
	svc := &services.CompositionService{
		Registry: registry,
		Planner:  transition.NewPlanner(),
		Resolver: placement.NewResolver(logger),
		Render:   orchestrator,
	}
	return svc, registry
}

// approveScene pushes a passing analysis through the gate and installs a
// current asset so the scene is render-ready.
func approveScene(t *testing.T, registry *services.ProjectRegistry, projectID string, sceneIndex int) {
	t.Helper()
	gate, ok := registry.Gate(projectID)
	assert.True(t, ok)
	_, err := gate.Apply(sceneIndex, &model.QualityAnalysis{
		OverallScore: 90,
		ContentMatch: true,
		StyleMatch:   true,
	})
	assert.NoError(t, err)
	_, err = registry.SetCurrentAsset(projectID, &model.GeneratedAsset{
		SceneIndex: sceneIndex,
		ProviderID: "stillmotion",
		Locator:    fmt.Sprintf("mem://scenes/%d.mp4", sceneIndex),
		Duration:   5,
	})
	assert.NoError(t, err)
}

func TestPlanTransitionsAdjacentPairs(t *testing.T) {
	svc, _ := newComposition(t, "demo-promo", 3)

	plans, err := svc.PlanTransitions("demo-promo")
	assert.NoError(t, err)
	assert.Equal(t, 2, len(plans))
	assert.Equal(t, 0, plans[0].FromScene)
	assert.Equal(t, 1, plans[0].ToScene)
	assert.Equal(t, 1, plans[1].FromScene)
	assert.Equal(t, 2, plans[1].ToScene)
	assert.Equal(t, "informative->informative", plans[0].MoodFlow)
	assert.Equal(t, model.TransitionDissolve, plans[0].Type)

	_, err = svc.PlanTransitions("other")
	assert.Error(t, err)
}

func TestResolvePlacementsUsesAnalysisObstructions(t *testing.T) {
	svc, registry := newComposition(t, "demo-promo", 1)

	overlays := []model.TextOverlay{{
		ID:     "headline-1",
		Type:   model.OverlayHeadline,
		Text:   "Fresh roast, delivered",
		Window: model.TimeWindow{Start: 0, End: 3},
	}}

	placed, err := svc.ResolvePlacements("demo-promo", 0, overlays)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(placed))
	assert.True(t, placed[0].Placed)
	assert.Equal(t, "top-center", placed[0].Position)

	// A face across the top band pushes the headline off its first choice.
	registry.SetAnalysis("demo-promo", 0, &model.QualityAnalysis{
		OverallScore: 80,
		Obstructions: &model.ObstructionMap{
			SceneIndex: 0,
			Regions: []model.ObstructionRegion{
				{Name: "face", Bounds: model.Rect{X: 30, Y: 0, W: 40, H: 30}},
			},
		},
	})
	placed, err = svc.ResolvePlacements("demo-promo", 0, overlays)
	assert.NoError(t, err)
	assert.True(t, placed[0].Placed)
	assert.Equal(t, "center", placed[0].Position)

	_, err = svc.ResolvePlacements("demo-promo", 4, overlays)
	assert.Error(t, err)
}

func TestPrepareRenderBlockedByGate(t *testing.T) {
	svc, _ := newComposition(t, "demo-promo", 2)

	_, err := svc.PrepareRender("demo-promo")
	assert.Error(t, err)

	_, err = svc.PrepareRender("other")
	assert.Error(t, err)
}

func TestPrepareAndStartRender(t *testing.T) {
	svc, registry := newComposition(t, "demo-promo", 2)
	approveScene(t, registry, "demo-promo", 0)
	approveScene(t, registry, "demo-promo", 1)

	job, err := svc.PrepareRender("demo-promo")
	assert.NoError(t, err)
	assert.Equal(t, model.RenderPending, job.Status)
	assert.Equal(t, 300, job.TotalFrames)
	assert.Equal(t, 3, len(job.Chunks))

	err = svc.StartRender(context.Background(), "demo-promo", job.ID)
	assert.NoError(t, err)

	done, ok := svc.RenderStatus(job.ID)
	assert.True(t, ok)
	assert.Equal(t, model.RenderDone, done.Status)
	assert.Equal(t, "mem://final/3-parts.mp4", done.OutputLocator)
}

// TestStartRenderCleansStagedCopies stages every asset into a local copy and
// expects the copies removed once the render run finishes.
func TestStartRenderCleansStagedCopies(t *testing.T) {
	svc, registry := newComposition(t, "demo-promo", 2)
	approveScene(t, registry, "demo-promo", 0)
	approveScene(t, registry, "demo-promo", 1)

	dir := t.TempDir()
	var copies []string
	svc.Stage = func(ctx context.Context, locator string) (string, error) {
		path := filepath.Join(dir, fmt.Sprintf("staged-%d.mp4", len(copies)))
		if err := os.WriteFile(path, []byte(locator), 0o644); err != nil {
			return "", err
		}
		copies = append(copies, path)
		return path, nil
	}

	job, err := svc.PrepareRender("demo-promo")
	assert.NoError(t, err)
	assert.NoError(t, svc.StartRender(context.Background(), "demo-promo", job.ID))

	assert.Equal(t, 2, len(copies))
	for _, path := range copies {
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	}
}

func TestStartRenderRequiresActiveAssets(t *testing.T) {
	svc, registry := newComposition(t, "demo-promo", 2)
	approveScene(t, registry, "demo-promo", 0)
	approveScene(t, registry, "demo-promo", 1)

	job, err := svc.PrepareRender("demo-promo")
	assert.NoError(t, err)

	bare, _ := newComposition(t, "no-assets", 1)
	err = bare.StartRender(context.Background(), "no-assets", job.ID)
	assert.Error(t, err)
}
