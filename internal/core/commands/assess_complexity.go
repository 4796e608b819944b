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

	"github.com/promoforge/promo-video-engine/internal/core/complexity"
	"github.com/promoforge/promo-video-engine/internal/core/cor"
	"github.com/promoforge/promo-video-engine/internal/core/model"
)

// ComplexityAssess scores the scene prompt for intrinsic generation
// difficulty and stashes the assessment for the ranking and regeneration
// steps downstream. The request itself passes through unchanged.
type ComplexityAssess struct {
	cor.BaseCommand
	assessor *complexity.Assessor
}

// NewComplexityAssess constructs the command around a shared assessor.
func NewComplexityAssess(name string, assessor *complexity.Assessor) *ComplexityAssess {
	return &ComplexityAssess{BaseCommand: *cor.NewBaseCommand(name), assessor: assessor}
}

func (c *ComplexityAssess) IsExecutable(context cor.Context) bool {
	if context == nil {
		return false
	}
	_, ok := context.Get(c.GetInputParam()).(*model.SceneRequest)
	return ok
}

func (c *ComplexityAssess) Execute(context cor.Context) {
	req, ok := context.Get(c.GetInputParam()).(*model.SceneRequest)
	if !ok {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("missing scene request input"))
		return
	}

	assessment := c.assessor.Assess(*req)
	c.GetSuccessCounter().Add(context.GetContext(), 1)

	context.Add(GetSceneRequestParameterName(), req)
	context.Add(GetComplexityParameterName(), assessment)
	context.Add(c.GetOutputParam(), req)
}
