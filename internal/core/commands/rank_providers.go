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
	"fmt"
	"log/slog"

	"github.com/promoforge/promo-video-engine/internal/core/cor"
	"github.com/promoforge/promo-video-engine/internal/core/model"
	"github.com/promoforge/promo-video-engine/internal/core/selector"
)

// ProviderRank scores the provider catalogue against the scene request and
// its complexity assessment. The full ranking is stashed in the context so
// the regeneration strategist can walk it later without recomputing.
type ProviderRank struct {
	cor.BaseCommand
	selector *selector.Selector
}

// NewProviderRank constructs the command around a shared selector.
func NewProviderRank(name string, sel *selector.Selector) *ProviderRank {
	return &ProviderRank{BaseCommand: *cor.NewBaseCommand(name), selector: sel}
}

func (c *ProviderRank) IsExecutable(context cor.Context) bool {
	if context == nil {
		return false
	}
	_, ok := context.Get(c.GetInputParam()).(*model.SceneRequest)
	return ok
}

func (c *ProviderRank) Execute(context cor.Context) {
	req := context.Get(c.GetInputParam()).(*model.SceneRequest)
	assessment, _ := context.Get(GetComplexityParameterName()).(*model.ComplexityAssessment)

	ranking := c.selector.Rank(*req, assessment)
	if len(ranking.Candidates) == 0 {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("no provider candidates for scene %d", req.SceneIndex))
		return
	}
	for _, w := range ranking.Warnings {
		slog.WarnContext(context.GetContext(), "provider ranking warning",
			"project", req.ProjectID, "scene", req.SceneIndex, "warning", w)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetRankingParameterName(), ranking)
	context.Add(c.GetOutputParam(), req)
}
