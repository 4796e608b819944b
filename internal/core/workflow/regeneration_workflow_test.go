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

package workflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/promoforge/promo-video-engine/internal/cloud"
	"github.com/promoforge/promo-video-engine/internal/core/model"
	"github.com/promoforge/promo-video-engine/internal/core/regen"
	"github.com/promoforge/promo-video-engine/internal/core/services"
	"github.com/promoforge/promo-video-engine/internal/core/workflow"
	test "github.com/promoforge/promo-video-engine/internal/testutil"
	"github.com/stretchr/testify/assert"
)

// generateAndReject seeds one project through the generation pipeline and
// rejects its only scene so regeneration has something to do.
func generateAndReject(t *testing.T, config *cloud.Config, registry *services.ProjectRegistry, providers map[string]model.GenerationProvider, prompt string) {
	t.Helper()
	generation := workflow.NewSceneGenerationWorkflow(config, &cloud.ServiceClients{}, registry, providers)
	requests := newProject(t, registry, "demo-promo", prompt)
	assert.NoError(t, generation.RunScene(context.Background(), requests[0]))

	gate, _ := registry.Gate("demo-promo")
	_, err := gate.Apply(0, &model.QualityAnalysis{
		OverallScore: 40,
		Issues: []model.Issue{
			{Severity: model.SeverityMajor, Description: "warped product geometry"},
		},
	})
	assert.NoError(t, err)
}

// TestRegenerationNextProvider rejects a scene and expects the retry to
// advance to an untried provider, supersede the old asset, and append a
// second history entry.
func TestRegenerationNextProvider(t *testing.T) {
	config := newWorkflowConfig()
	registry := services.NewProjectRegistry()
	providers := newFakeProviders(config)
	generateAndReject(t, config, registry, providers, "A watch rotating on a velvet stand")

	oldAsset, _ := registry.CurrentAsset("demo-promo", 0)

	pipeline := workflow.NewRegenerationWorkflow(config, &cloud.ServiceClients{}, registry, providers)
	decision, err := pipeline.RunScene(context.Background(), "demo-promo", 0)
	assert.NoError(t, err)
	assert.Equal(t, model.StrategyNextProvider, decision.Strategy)
	assert.NotEqual(t, oldAsset.ProviderID, decision.ProviderID)

	newAsset, ok := registry.CurrentAsset("demo-promo", 0)
	assert.True(t, ok)
	assert.Equal(t, decision.ProviderID, newAsset.ProviderID)
	assert.NotEqual(t, oldAsset.Locator, newAsset.Locator)
	assert.Equal(t, []string{oldAsset.Locator}, registry.SupersededLocators("demo-promo", 0))

	history, _ := registry.History("demo-promo")
	entries := history.ForScene(0)
	assert.Len(t, entries, 2)
	assert.Equal(t, model.StrategyNextProvider, entries[1].Strategy)
	assert.Equal(t, oldAsset.Locator, entries[1].PreviousLocator)
	assert.Equal(t, newAsset.Locator, entries[1].NewLocator)

	// The gate charged the retry budget and reset the scene to pending.
	gate, _ := registry.Gate("demo-promo")
	status, err := gate.Status(0)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusPending, status.Status)
	assert.Equal(t, 1, status.RegenCount)
}

// TestRegenerationAlternativeApproach gives the scene an impossible prompt:
// the strategist switches to a non-generative approach, no provider is
// called, and the attempt is still recorded against the budget.
func TestRegenerationAlternativeApproach(t *testing.T) {
	config := newWorkflowConfig()
	registry := services.NewProjectRegistry()
	providers := newFakeProviders(config)
	generateAndReject(t, config, registry, providers,
		"Hands stretching translucent dough in slow-motion, then folding it")

	callsBefore := providerCalls(providers)

	pipeline := workflow.NewRegenerationWorkflow(config, &cloud.ServiceClients{}, registry, providers)
	decision, err := pipeline.RunScene(context.Background(), "demo-promo", 0)
	assert.NoError(t, err)
	assert.Equal(t, model.StrategyAlternative, decision.Strategy)
	assert.Equal(t, model.ApproachReferenceImage, decision.Alternative)
	assert.Empty(t, decision.ProviderID)
	assert.Equal(t, callsBefore, providerCalls(providers))

	history, _ := registry.History("demo-promo")
	entries := history.ForScene(0)
	assert.Len(t, entries, 2)
	assert.Equal(t, workflow.OutcomeAlternativeSuggested, entries[1].Outcome)
	assert.Empty(t, entries[1].ProviderID)

	gate, _ := registry.Gate("demo-promo")
	status, _ := gate.Status(0)
	assert.Equal(t, 1, status.RegenCount)
}

// TestRegenerationBudgetExhausted caps the budget at one retry and expects
// the second rejection to surface an ExhaustionError with the history.
func TestRegenerationBudgetExhausted(t *testing.T) {
	config := newWorkflowConfig()
	config.Regeneration = regen.Config{MaxAttempts: 1}
	registry := services.NewProjectRegistry()
	providers := newFakeProviders(config)
	generateAndReject(t, config, registry, providers, "A watch rotating on a velvet stand")

	pipeline := workflow.NewRegenerationWorkflow(config, &cloud.ServiceClients{}, registry, providers)
	_, err := pipeline.RunScene(context.Background(), "demo-promo", 0)
	assert.NoError(t, err)

	gate, _ := registry.Gate("demo-promo")
	_, err = gate.Apply(0, &model.QualityAnalysis{OverallScore: 45})
	assert.NoError(t, err)

	_, err = pipeline.RunScene(context.Background(), "demo-promo", 0)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, regen.ErrBudgetExhausted))

	var exhausted *regen.ExhaustionError
	assert.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 0, exhausted.SceneIndex)
	assert.Len(t, exhausted.Attempts, 2)
}

// TestRegenerationUnknownScene refuses indexes outside the project.
func TestRegenerationUnknownScene(t *testing.T) {
	config := newWorkflowConfig()
	registry := services.NewProjectRegistry()
	providers := newFakeProviders(config)
	newProject(t, registry, "demo-promo", "A watch rotating on a velvet stand")

	pipeline := workflow.NewRegenerationWorkflow(config, &cloud.ServiceClients{}, registry, providers)
	_, err := pipeline.RunScene(context.Background(), "demo-promo", 7)
	assert.Error(t, err)
	_, err = pipeline.RunScene(context.Background(), "ghost", 0)
	assert.Error(t, err)
}

func providerCalls(providers map[string]model.GenerationProvider) int {
	total := 0
	for _, p := range providers {
		if fake, ok := p.(*test.FakeProvider); ok {
			total += fake.Calls()
		}
	}
	return total
}
