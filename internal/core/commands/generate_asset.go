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

package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/promoforge/promo-video-engine/internal/core/cor"
	"github.com/promoforge/promo-video-engine/internal/core/model"
)

// Outcome strings recorded per attempt.
const (
	OutcomeGenerated      = "generated"
	OutcomeTransientError = "transient-error"
	OutcomePermanentError = "permanent-error"
)

// AssetGenerate calls a generation provider for the scene request. The
// provider is the one named in the context (set by the regeneration
// strategist) or, absent that, the ranking's top candidate. Every call is
// bounded by a timeout; a timed-out or cancelled call counts as a transient
// provider failure.
type AssetGenerate struct {
	cor.BaseCommand
	providers map[string]model.GenerationProvider
	timeout   time.Duration
}

// NewAssetGenerate constructs the command over the provider registry.
func NewAssetGenerate(name string, providers map[string]model.GenerationProvider, timeout time.Duration) *AssetGenerate {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &AssetGenerate{
		BaseCommand: *cor.NewBaseCommand(name),
		providers:   providers,
		timeout:     timeout,
	}
}

func (c *AssetGenerate) IsExecutable(context cor.Context) bool {
	if context == nil {
		return false
	}
	_, ok := context.Get(c.GetInputParam()).(*model.SceneRequest)
	return ok
}

func (c *AssetGenerate) Execute(chainCtx cor.Context) {
	req := chainCtx.Get(c.GetInputParam()).(*model.SceneRequest)

	providerID, _ := chainCtx.Get(GetProviderParameterName()).(string)
	if providerID == "" {
		ranking, ok := chainCtx.Get(GetRankingParameterName()).(*model.ProviderRanking)
		if !ok || len(ranking.Candidates) == 0 {
			c.GetErrorCounter().Add(chainCtx.GetContext(), 1)
			chainCtx.AddError(c.GetName(), fmt.Errorf("no provider selected for scene %d", req.SceneIndex))
			return
		}
		providerID = ranking.Candidates[0].ProviderID
	}

	provider, ok := c.providers[providerID]
	if !ok {
		c.GetErrorCounter().Add(chainCtx.GetContext(), 1)
		chainCtx.AddError(c.GetName(), &model.PermanentError{Err: fmt.Errorf("unknown provider %q", providerID)})
		chainCtx.Add(GetProviderParameterName(), providerID)
		chainCtx.Add(GetOutcomeParameterName(), OutcomePermanentError)
		return
	}

	ctx, cancel := context.WithTimeout(chainCtx.GetContext(), c.timeout)
	defer cancel()

	asset, err := provider.Generate(ctx, *req)
	chainCtx.Add(GetProviderParameterName(), providerID)
	if err != nil {
		c.GetErrorCounter().Add(chainCtx.GetContext(), 1)
		outcome := OutcomePermanentError
		if model.IsTransient(err) {
			outcome = OutcomeTransientError
		}
		chainCtx.Add(GetOutcomeParameterName(), outcome)
		chainCtx.AddError(c.GetName(), fmt.Errorf("provider %s failed for scene %d: %w", providerID, req.SceneIndex, err))
		return
	}

	c.GetSuccessCounter().Add(chainCtx.GetContext(), 1)
	chainCtx.Add(GetOutcomeParameterName(), OutcomeGenerated)
	chainCtx.Add(GetAssetParameterName(), asset)
	chainCtx.Add(c.GetOutputParam(), asset)
}
