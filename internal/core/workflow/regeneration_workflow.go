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

package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/promoforge/promo-video-engine/internal/cloud"
	"github.com/promoforge/promo-video-engine/internal/core/commands"
	"github.com/promoforge/promo-video-engine/internal/core/cor"
	"github.com/promoforge/promo-video-engine/internal/core/model"
	"github.com/promoforge/promo-video-engine/internal/core/regen"
	"github.com/promoforge/promo-video-engine/internal/core/services"
)

// OutcomeAlternativeSuggested marks an attempt that produced no provider
// call because the strategist switched the scene to a non-generative
// approach.
const OutcomeAlternativeSuggested = "alternative-suggested"

// RegenerationWorkflow reruns generation for a scene that failed its quality
// gate. The strategist picks the retry path, and the scene's lock serializes
// concurrent regenerations of the same scene while leaving other scenes
// free to proceed.
type RegenerationWorkflow struct {
	cor.BaseCommand
	registry   *services.ProjectRegistry
	strategist *regen.Strategist
	chain      cor.Chain
}

// RunScene decides and executes the next regeneration attempt for one scene.
// It returns the strategist's decision so callers can surface the chosen
// strategy; an ExhaustionError means the scene's retry budget is spent.
func (m *RegenerationWorkflow) RunScene(ctx context.Context, projectID string, sceneIndex int) (*regen.Decision, error) {
	lock, ok := m.registry.SceneLock(projectID, sceneIndex)
	if !ok {
		return nil, fmt.Errorf("project %s has no scene %d", projectID, sceneIndex)
	}
	lock.Lock()
	defer lock.Unlock()

	req, ok := m.registry.SceneRequest(projectID, sceneIndex)
	if !ok {
		return nil, fmt.Errorf("project %s has no scene %d", projectID, sceneIndex)
	}
	gate, ok := m.registry.Gate(projectID)
	if !ok {
		return nil, fmt.Errorf("no quality gate registered for project %s", projectID)
	}
	status, err := gate.Status(sceneIndex)
	if err != nil {
		return nil, err
	}
	ranking, ok := m.registry.Ranking(projectID, sceneIndex)
	if !ok {
		return nil, fmt.Errorf("scene %d has no provider ranking, generate it first", sceneIndex)
	}
	assessment, _ := m.registry.Assessment(projectID, sceneIndex)
	history, _ := m.registry.History(projectID)

	decision, err := m.strategist.Next(*req, status, ranking, assessment, history)
	if err != nil {
		return nil, err
	}

	if _, err := gate.BeginRegeneration(sceneIndex); err != nil {
		return nil, err
	}

	prevLocator := ""
	if current, ok := m.registry.CurrentAsset(projectID, sceneIndex); ok {
		prevLocator = current.Locator
	}

	// A decision without a provider moves the scene off the text-to-video
	// path entirely. Record it so the budget is charged, and hand the
	// alternative back to the caller instead of calling a provider.
	if decision.ProviderID == "" {
		attempt := model.NewRegenAttempt(projectID, sceneIndex, decision.Strategy, "")
		attempt.PreviousLocator = prevLocator
		attempt.Outcome = OutcomeAlternativeSuggested
		history.Append(attempt)
		slog.InfoContext(ctx, "scene switched to alternative approach",
			"project", projectID,
			"scene", sceneIndex,
			"alternative", string(decision.Alternative))
		return decision, nil
	}

	chCtx := cor.NewBaseContext()
	chCtx.SetContext(ctx)
	request := decision.Request
	chCtx.Add(cor.CtxIn, &request)
	chCtx.Add(commands.GetSceneRequestParameterName(), &request)
	chCtx.Add(commands.GetRankingParameterName(), ranking)
	chCtx.Add(commands.GetStrategyParameterName(), decision.Strategy)
	chCtx.Add(commands.GetProviderParameterName(), decision.ProviderID)
	chCtx.Add(commands.GetPrevLocatorParameterName(), prevLocator)
	defer chCtx.Close()

	m.chain.Execute(chCtx)

	if asset, ok := chCtx.Get(commands.GetAssetParameterName()).(*model.GeneratedAsset); ok {
		if _, err := m.registry.SetCurrentAsset(projectID, asset); err != nil {
			return decision, err
		}
	}

	if chCtx.HasErrors() {
		for name, err := range chCtx.GetErrors() {
			if err != nil {
				return decision, fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	return decision, nil
}

func (m *RegenerationWorkflow) initializeChain(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	providers map[string]model.GenerationProvider) {

	out := cor.NewBaseChain(m.GetName())
	out.ContinueOnFailure(true)

	out.AddCommand(commands.NewAssetGenerate(
		"regenerate-scene-asset",
		providers,
		time.Duration(config.Application.GenerateTimeoutSeconds)*time.Second))
	out.AddCommand(commands.NewAttemptRecorder("record-regen-attempt", m.registry))
	out.AddCommand(commands.NewAttemptPersistToBigQuery(
		"write-regen-attempt-to-bigquery",
		serviceClients.BigQueryClient,
		config.BigQueryDataSource.DatasetName,
		config.BigQueryDataSource.AttemptsTable,
		commands.GetAttemptParameterName()))

	m.chain = out
}

// NewRegenerationWorkflow wires the regeneration pipeline.
func NewRegenerationWorkflow(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	registry *services.ProjectRegistry,
	providers map[string]model.GenerationProvider) *RegenerationWorkflow {

	pipeline := &RegenerationWorkflow{
		BaseCommand: *cor.NewBaseCommand("regeneration-workflow"),
		registry:    registry,
		strategist:  regen.NewStrategist(config.Regeneration),
	}
	pipeline.initializeChain(config, serviceClients, providers)
	return pipeline
}
