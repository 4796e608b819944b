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

package regen_test

import (
	"errors"
	"testing"

	"github.com/promoforge/promo-video-engine/internal/core/model"
	"github.com/promoforge/promo-video-engine/internal/core/regen"
	"github.com/zeebo/assert"
)

func sceneRequest() model.SceneRequest {
	return model.SceneRequest{
		ProjectID:   "demo-promo",
		SceneIndex:  1,
		SceneType:   model.SceneTypeFeature,
		ContentType: model.ContentTypeProduct,
		Prompt:      "A watch rotating on a velvet stand",
		Duration:    5,
	}
}

func ranking(ids ...string) *model.ProviderRanking {
	out := &model.ProviderRanking{SceneIndex: 1}
	for i, id := range ids {
		out.Candidates = append(out.Candidates, model.RankedProvider{
			ProviderID: id,
			Score:      float64(100 - i*10),
		})
	}
	return out
}

func rejected(regenCount int) *model.SceneQualityStatus {
	return &model.SceneQualityStatus{
		SceneIndex: 1,
		Score:      55,
		Status:     model.StatusRejected,
		RegenCount: regenCount,
	}
}

// TestNextProvider verifies a rejected scene advances to the best ranked
// provider that has not been tried yet.
func TestNextProvider(t *testing.T) {
	s := regen.NewStrategist(regen.DefaultConfig())
	history := &model.HistoryLog{}
	history.Append(model.NewRegenAttempt("demo-promo", 1, model.StrategyInitial, "kling-std"))

	decision, err := s.Next(sceneRequest(), rejected(1), ranking("kling-std", "veo-hd", "luma-flash"), nil, history)
	assert.NoError(t, err)
	assert.Equal(t, model.StrategyNextProvider, decision.Strategy)
	assert.Equal(t, "veo-hd", decision.ProviderID)
	assert.Equal(t, sceneRequest().Prompt, decision.Request.Prompt)
}

// TestNextSkipsAllTried checks the walk passes over every provider the
// history already records, in ranking order.
func TestNextSkipsAllTried(t *testing.T) {
	s := regen.NewStrategist(regen.DefaultConfig())
	history := &model.HistoryLog{}
	history.Append(model.NewRegenAttempt("demo-promo", 1, model.StrategyInitial, "kling-std"))
	history.Append(model.NewRegenAttempt("demo-promo", 1, model.StrategyNextProvider, "veo-hd"))

	decision, err := s.Next(sceneRequest(), rejected(2), ranking("kling-std", "veo-hd", "luma-flash"), nil, history)
	assert.NoError(t, err)
	assert.Equal(t, "luma-flash", decision.ProviderID)
}

// TestNextAlternativeApproach verifies an impossible prompt short-circuits
// to the assessment's alternative, with no provider assigned and the
// simplified prompt substituted.
func TestNextAlternativeApproach(t *testing.T) {
	s := regen.NewStrategist(regen.DefaultConfig())
	assessment := &model.ComplexityAssessment{
		Score:            0.9,
		Category:         model.ComplexityImpossible,
		SimplifiedPrompt: "A watch on a velvet stand",
		Alternative:      model.ApproachStockAsset,
	}

	decision, err := s.Next(sceneRequest(), rejected(1), ranking("kling-std"), assessment, &model.HistoryLog{})
	assert.NoError(t, err)
	assert.Equal(t, model.StrategyAlternative, decision.Strategy)
	assert.Equal(t, "", decision.ProviderID)
	assert.Equal(t, model.ApproachStockAsset, decision.Alternative)
	assert.Equal(t, "A watch on a velvet stand", decision.Request.Prompt)
}

// TestNextSimplifiedPromptOnce checks the simplified-prompt fallback fires
// when every ranked provider is exhausted, and only once.
func TestNextSimplifiedPromptOnce(t *testing.T) {
	s := regen.NewStrategist(regen.Config{MaxAttempts: 5})
	assessment := &model.ComplexityAssessment{
		Score:            0.6,
		Category:         model.ComplexityComplex,
		SimplifiedPrompt: "A watch on a stand",
	}
	history := &model.HistoryLog{}
	history.Append(model.NewRegenAttempt("demo-promo", 1, model.StrategyInitial, "kling-std"))
	history.Append(model.NewRegenAttempt("demo-promo", 1, model.StrategyNextProvider, "veo-hd"))

	decision, err := s.Next(sceneRequest(), rejected(2), ranking("kling-std", "veo-hd"), assessment, history)
	assert.NoError(t, err)
	assert.Equal(t, model.StrategySimplifiedPrompt, decision.Strategy)
	assert.Equal(t, "kling-std", decision.ProviderID)
	assert.Equal(t, "A watch on a stand", decision.Request.Prompt)

	// A recorded simplified attempt closes the ladder.
	history.Append(model.NewRegenAttempt("demo-promo", 1, model.StrategySimplifiedPrompt, "kling-std"))
	_, err = s.Next(sceneRequest(), rejected(3), ranking("kling-std", "veo-hd"), assessment, history)

	var exhausted *regen.ExhaustionError
	assert.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 1, exhausted.SceneIndex)
}

// TestNextBudgetExhausted verifies the retry budget is checked before any
// strategy and that the error matches ErrBudgetExhausted and carries the
// scene's history.
func TestNextBudgetExhausted(t *testing.T) {
	s := regen.NewStrategist(regen.Config{MaxAttempts: 2})
	history := &model.HistoryLog{}
	history.Append(model.NewRegenAttempt("demo-promo", 1, model.StrategyInitial, "kling-std"))
	history.Append(model.NewRegenAttempt("demo-promo", 1, model.StrategyNextProvider, "veo-hd"))

	_, err := s.Next(sceneRequest(), rejected(2), ranking("kling-std", "veo-hd", "luma-flash"), nil, history)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, regen.ErrBudgetExhausted))

	var exhausted *regen.ExhaustionError
	assert.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 2, len(exhausted.Attempts))
}

// TestNewStrategistDefaults checks a zero config falls back to the stock
// budget.
func TestNewStrategistDefaults(t *testing.T) {
	s := regen.NewStrategist(regen.Config{})
	assert.Equal(t, 3, s.MaxAttempts())
}
