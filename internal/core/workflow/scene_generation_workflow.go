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

// Package workflow assembles the command chains behind the engine's three
// pipelines: initial scene generation, asset quality analysis, and
// regeneration of failing scenes.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/promoforge/promo-video-engine/internal/cloud"
	"github.com/promoforge/promo-video-engine/internal/core/commands"
	"github.com/promoforge/promo-video-engine/internal/core/complexity"
	"github.com/promoforge/promo-video-engine/internal/core/cor"
	"github.com/promoforge/promo-video-engine/internal/core/model"
	"github.com/promoforge/promo-video-engine/internal/core/selector"
	"github.com/promoforge/promo-video-engine/internal/core/services"
)

// SceneGenerationWorkflow runs the decision pipeline for one scene: assess
// the prompt's complexity, rank the providers, call the chosen one, and
// record the attempt. The chain continues past a failed generation so the
// attempt recorder always leaves a history entry.
type SceneGenerationWorkflow struct {
	cor.BaseCommand
	registry        *services.ProjectRegistry
	numberOfWorkers int
	chain           cor.Chain
}

// Execute runs the generation chain for the scene request in the context's
// input slot, then installs the results in the project registry.
func (m *SceneGenerationWorkflow) Execute(context cor.Context) {
	m.chain.Execute(context)

	req, ok := context.Get(commands.GetSceneRequestParameterName()).(*model.SceneRequest)
	if !ok {
		return
	}
	if assessment, ok := context.Get(commands.GetComplexityParameterName()).(*model.ComplexityAssessment); ok {
		m.registry.SetAssessment(req.ProjectID, req.SceneIndex, assessment)
	}
	if ranking, ok := context.Get(commands.GetRankingParameterName()).(*model.ProviderRanking); ok {
		m.registry.SetRanking(req.ProjectID, req.SceneIndex, ranking)
	}
	if asset, ok := context.Get(commands.GetAssetParameterName()).(*model.GeneratedAsset); ok {
		if _, err := m.registry.SetCurrentAsset(req.ProjectID, asset); err != nil {
			context.AddError(m.GetName(), err)
		}
	}
}

// RunScene executes the workflow for one request on a fresh chain context.
// The scene's lock is held for the whole generate-and-record sequence, so a
// generation and a regeneration of the same scene never run a provider call
// at the same time.
func (m *SceneGenerationWorkflow) RunScene(ctx context.Context, req *model.SceneRequest) error {
	lock, ok := m.registry.SceneLock(req.ProjectID, req.SceneIndex)
	if !ok {
		return fmt.Errorf("project %s has no scene %d", req.ProjectID, req.SceneIndex)
	}
	lock.Lock()
	defer lock.Unlock()

	chCtx := cor.NewBaseContext()
	chCtx.SetContext(ctx)
	chCtx.Add(cor.CtxIn, req)
	defer chCtx.Close()

	m.Execute(chCtx)

	if chCtx.HasErrors() {
		for name, err := range chCtx.GetErrors() {
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	return nil
}

// RunProject generates every scene of a project concurrently, bounded by the
// configured worker count. Scene failures are independent; the returned
// error joins whatever failed after all scenes have finished.
func (m *SceneGenerationWorkflow) RunProject(ctx context.Context, requests []*model.SceneRequest) error {
	var group errgroup.Group
	group.SetLimit(m.numberOfWorkers)

	for _, req := range requests {
		req := req
		group.Go(func() error {
			if err := m.RunScene(ctx, req); err != nil {
				slog.ErrorContext(ctx, "scene generation failed",
					"project", req.ProjectID,
					"scene", req.SceneIndex,
					"error", err)
				return fmt.Errorf("scene %d: %w", req.SceneIndex, err)
			}
			return nil
		})
	}
	return group.Wait()
}

func (m *SceneGenerationWorkflow) initializeChain(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	providers map[string]model.GenerationProvider) {

	out := cor.NewBaseChain(m.GetName())
	out.ContinueOnFailure(true)

	out.AddCommand(commands.NewComplexityAssess("assess-scene-complexity", complexity.NewAssessor()))
	out.AddCommand(commands.NewProviderRank("rank-providers", selector.NewSelector(config.ProviderCatalog())))
	out.AddCommand(commands.NewAssetGenerate(
		"generate-scene-asset",
		providers,
		time.Duration(config.Application.GenerateTimeoutSeconds)*time.Second))
	out.AddCommand(commands.NewAttemptRecorder("record-attempt", m.registry))
	out.AddCommand(commands.NewAttemptPersistToBigQuery(
		"write-attempt-to-bigquery",
		serviceClients.BigQueryClient,
		config.BigQueryDataSource.DatasetName,
		config.BigQueryDataSource.AttemptsTable,
		commands.GetAttemptParameterName()))

	m.chain = out
}

// NewSceneGenerationWorkflow wires the generation pipeline against the
// provider registry and the shared cloud clients.
func NewSceneGenerationWorkflow(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	registry *services.ProjectRegistry,
	providers map[string]model.GenerationProvider) *SceneGenerationWorkflow {

	workers := config.Application.ThreadPoolSize
	if workers <= 0 {
		workers = 1
	}

	pipeline := &SceneGenerationWorkflow{
		BaseCommand:     *cor.NewBaseCommand("scene-generation-workflow"),
		registry:        registry,
		numberOfWorkers: workers,
	}
	pipeline.initializeChain(config, serviceClients, providers)
	return pipeline
}
