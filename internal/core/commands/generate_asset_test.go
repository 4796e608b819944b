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

package commands_test

import (
	"context"
	"testing"
	"time"

	"github.com/promoforge/promo-video-engine/internal/core/commands"
	"github.com/promoforge/promo-video-engine/internal/core/cor"
	"github.com/promoforge/promo-video-engine/internal/core/model"
	test "github.com/promoforge/promo-video-engine/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func generateContext(req *model.SceneRequest) cor.Context {
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, req)
	return chainCtx
}

func testRequest() *model.SceneRequest {
	return &model.SceneRequest{
		ProjectID:   "demo-promo",
		SceneIndex:  0,
		SceneType:   model.SceneTypeFeature,
		ContentType: model.ContentTypeProduct,
		Prompt:      "A watch rotating on a velvet stand",
		Duration:    5,
	}
}

// TestAssetGenerateTopCandidate runs a generation with no explicit provider
// and expects the ranking's top candidate to serve it.
func TestAssetGenerateTopCandidate(t *testing.T) {
	fake := &test.FakeProvider{ProviderID: "kling-std"}
	cmd := commands.NewAssetGenerate("generate-scene-asset",
		map[string]model.GenerationProvider{"kling-std": fake}, time.Second)

	chainCtx := generateContext(testRequest())
	chainCtx.Add(commands.GetRankingParameterName(), &model.ProviderRanking{
		SceneIndex: 0,
		Candidates: []model.RankedProvider{{ProviderID: "kling-std", Score: 70}},
	})

	assert.True(t, cmd.IsExecutable(chainCtx))
	cmd.Execute(chainCtx)
	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, 1, fake.Calls())

	asset, ok := chainCtx.Get(commands.GetAssetParameterName()).(*model.GeneratedAsset)
	assert.True(t, ok)
	assert.Equal(t, "kling-std", asset.ProviderID)
	assert.Equal(t, commands.OutcomeGenerated, chainCtx.Get(commands.GetOutcomeParameterName()))
	assert.Equal(t, "kling-std", chainCtx.Get(commands.GetProviderParameterName()))
}

// TestAssetGenerateExplicitProvider verifies the strategist's provider
// parameter outranks the ranking.
func TestAssetGenerateExplicitProvider(t *testing.T) {
	top := &test.FakeProvider{ProviderID: "kling-std"}
	chosen := &test.FakeProvider{ProviderID: "veo-hd"}
	cmd := commands.NewAssetGenerate("generate-scene-asset",
		map[string]model.GenerationProvider{"kling-std": top, "veo-hd": chosen}, time.Second)

	chainCtx := generateContext(testRequest())
	chainCtx.Add(commands.GetRankingParameterName(), &model.ProviderRanking{
		SceneIndex: 0,
		Candidates: []model.RankedProvider{{ProviderID: "kling-std", Score: 70}},
	})
	chainCtx.Add(commands.GetProviderParameterName(), "veo-hd")

	cmd.Execute(chainCtx)
	assert.False(t, chainCtx.HasErrors())
	assert.Equal(t, 0, top.Calls())
	assert.Equal(t, 1, chosen.Calls())
}

// TestAssetGenerateTransientOutcome checks a transient provider failure is
// recorded as such for the attempt history.
func TestAssetGenerateTransientOutcome(t *testing.T) {
	fake := &test.FakeProvider{
		ProviderID: "kling-std",
		Err:        &model.TransientError{Err: context.DeadlineExceeded},
	}
	cmd := commands.NewAssetGenerate("generate-scene-asset",
		map[string]model.GenerationProvider{"kling-std": fake}, time.Second)

	chainCtx := generateContext(testRequest())
	chainCtx.Add(commands.GetProviderParameterName(), "kling-std")

	cmd.Execute(chainCtx)
	assert.True(t, chainCtx.HasErrors())
	assert.Equal(t, commands.OutcomeTransientError, chainCtx.Get(commands.GetOutcomeParameterName()))
	assert.Nil(t, chainCtx.Get(commands.GetAssetParameterName()))
}

// TestAssetGenerateUnknownProvider is a permanent failure: retrying the same
// id can never succeed.
func TestAssetGenerateUnknownProvider(t *testing.T) {
	cmd := commands.NewAssetGenerate("generate-scene-asset",
		map[string]model.GenerationProvider{}, time.Second)

	chainCtx := generateContext(testRequest())
	chainCtx.Add(commands.GetProviderParameterName(), "ghost")

	cmd.Execute(chainCtx)
	assert.True(t, chainCtx.HasErrors())
	assert.Equal(t, commands.OutcomePermanentError, chainCtx.Get(commands.GetOutcomeParameterName()))
}

// TestAssetGenerateNoSelection errors when neither a provider parameter nor
// a ranking is present.
func TestAssetGenerateNoSelection(t *testing.T) {
	cmd := commands.NewAssetGenerate("generate-scene-asset",
		map[string]model.GenerationProvider{}, time.Second)

	chainCtx := generateContext(testRequest())
	cmd.Execute(chainCtx)
	assert.True(t, chainCtx.HasErrors())
}

// TestAttemptRecorder runs the recorder after a successful generation and
// checks the appended entry carries the locator chain and outcome.
func TestAttemptRecorder(t *testing.T) {
	history := &model.HistoryLog{}
	source := &fixedHistorySource{projectID: "demo-promo", log: history}
	cmd := commands.NewAttemptRecorder("record-attempt", source)

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(commands.GetSceneRequestParameterName(), testRequest())
	chainCtx.Add(commands.GetProviderParameterName(), "kling-std")
	chainCtx.Add(commands.GetStrategyParameterName(), model.StrategyNextProvider)
	chainCtx.Add(commands.GetPrevLocatorParameterName(), "mem://old.mp4")
	chainCtx.Add(commands.GetOutcomeParameterName(), commands.OutcomeGenerated)
	chainCtx.Add(commands.GetAssetParameterName(), &model.GeneratedAsset{
		SceneIndex: 0, ProviderID: "kling-std", Locator: "mem://new.mp4",
	})

	assert.True(t, cmd.IsExecutable(chainCtx))
	cmd.Execute(chainCtx)
	assert.False(t, chainCtx.HasErrors())

	entries := history.ForScene(0)
	assert.Equal(t, 1, len(entries))
	assert.Equal(t, model.StrategyNextProvider, entries[0].Strategy)
	assert.Equal(t, "kling-std", entries[0].ProviderID)
	assert.Equal(t, "mem://old.mp4", entries[0].PreviousLocator)
	assert.Equal(t, "mem://new.mp4", entries[0].NewLocator)
	assert.Equal(t, commands.OutcomeGenerated, entries[0].Outcome)
}

// TestAttemptRecorderDefaults checks a bare context records an initial
// attempt, and a failed chain records a permanent error outcome.
func TestAttemptRecorderDefaults(t *testing.T) {
	history := &model.HistoryLog{}
	cmd := commands.NewAttemptRecorder("record-attempt", &fixedHistorySource{projectID: "demo-promo", log: history})

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(commands.GetSceneRequestParameterName(), testRequest())
	cmd.Execute(chainCtx)

	entries := history.All()
	assert.Equal(t, 1, len(entries))
	assert.Equal(t, model.StrategyInitial, entries[0].Strategy)
	assert.Equal(t, commands.OutcomeGenerated, entries[0].Outcome)

	failed := cor.NewBaseContext()
	failed.SetContext(context.Background())
	failed.Add(commands.GetSceneRequestParameterName(), testRequest())
	failed.AddError("generate-scene-asset", context.DeadlineExceeded)
	cmd.Execute(failed)

	entries = history.All()
	assert.Equal(t, 2, len(entries))
	assert.Equal(t, commands.OutcomePermanentError, entries[1].Outcome)
}

// fixedHistorySource serves one history log for one project id.
type fixedHistorySource struct {
	projectID string
	log       *model.HistoryLog
}

func (s *fixedHistorySource) History(projectID string) (*model.HistoryLog, bool) {
	if projectID != s.projectID {
		return nil, false
	}
	return s.log, true
}
