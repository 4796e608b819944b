// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"fmt"

	"github.com/promoforge/promo-video-engine/internal/core/cor"
	"github.com/promoforge/promo-video-engine/internal/core/model"
)

// HistorySource resolves a project's append-only attempt log. The project
// registry satisfies it.
type HistorySource interface {
	History(projectID string) (*model.HistoryLog, bool)
}

// AttemptRecorder appends one RegenAttempt entry to the project history after
// a generation call, successful or not. It runs with ContinueOnFailure so a
// failed generation still leaves a history entry behind.
type AttemptRecorder struct {
	cor.BaseCommand
	history HistorySource
}

func NewAttemptRecorder(name string, history HistorySource) *AttemptRecorder {
	return &AttemptRecorder{BaseCommand: *cor.NewBaseCommand(name), history: history}
}

func (c *AttemptRecorder) IsExecutable(context cor.Context) bool {
	if context == nil {
		return false
	}
	_, ok := context.Get(GetSceneRequestParameterName()).(*model.SceneRequest)
	return ok
}

func (c *AttemptRecorder) Execute(context cor.Context) {
	req := context.Get(GetSceneRequestParameterName()).(*model.SceneRequest)

	log, ok := c.history.History(req.ProjectID)
	if !ok {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("no history log registered for project %s", req.ProjectID))
		return
	}

	strategy, _ := context.Get(GetStrategyParameterName()).(model.RegenStrategy)
	if strategy == "" {
		strategy = model.StrategyInitial
	}
	providerID, _ := context.Get(GetProviderParameterName()).(string)

	attempt := model.NewRegenAttempt(req.ProjectID, req.SceneIndex, strategy, providerID)
	attempt.PreviousLocator, _ = context.Get(GetPrevLocatorParameterName()).(string)

	if asset, ok := context.Get(GetAssetParameterName()).(*model.GeneratedAsset); ok {
		attempt.NewLocator = asset.Locator
	}

	outcome, _ := context.Get(GetOutcomeParameterName()).(string)
	if outcome == "" {
		outcome = OutcomeGenerated
		if context.HasErrors() {
			outcome = OutcomePermanentError
		}
	}
	attempt.Outcome = outcome

	log.Append(attempt)

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetAttemptParameterName(), attempt)
	context.Add(c.GetOutputParam(), attempt)
}
