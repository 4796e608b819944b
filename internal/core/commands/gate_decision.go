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
	"log/slog"

	"github.com/promoforge/promo-video-engine/internal/core/cor"
	"github.com/promoforge/promo-video-engine/internal/core/model"
	"github.com/promoforge/promo-video-engine/internal/core/quality"
)

// GateSource resolves the quality gate owning a project's scene statuses.
// The project registry satisfies it.
type GateSource interface {
	Gate(projectID string) (*quality.Gate, bool)
}

// GateDecision applies the project's quality gate to a parsed analysis and
// records the resulting scene status. The analysis arrives through the
// chain; the asset reference identifies which scene it belongs to.
type GateDecision struct {
	cor.BaseCommand
	gates GateSource
}

func NewGateDecision(name string, gates GateSource) *GateDecision {
	return &GateDecision{BaseCommand: *cor.NewBaseCommand(name), gates: gates}
}

func (c *GateDecision) IsExecutable(context cor.Context) bool {
	if context == nil {
		return false
	}
	_, ok := context.Get(c.GetInputParam()).(*model.QualityAnalysis)
	return ok
}

func (c *GateDecision) Execute(context cor.Context) {
	analysis := context.Get(c.GetInputParam()).(*model.QualityAnalysis)

	ref, ok := context.Get(GetAssetRefParameterName()).(*AssetRef)
	if !ok {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("no asset reference present for gate decision"))
		return
	}

	gate, ok := c.gates.Gate(ref.ProjectID)
	if !ok {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("no quality gate registered for project %s", ref.ProjectID))
		return
	}

	status, err := gate.Apply(ref.SceneIndex, analysis)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("gate decision failed for project %s scene %d: %w", ref.ProjectID, ref.SceneIndex, err))
		return
	}

	slog.InfoContext(context.GetContext(), "scene gated",
		"project", ref.ProjectID,
		"scene", ref.SceneIndex,
		"score", analysis.OverallScore,
		"status", string(status.Status))

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), status)
	context.Add(cor.CtxOut, status)
}
