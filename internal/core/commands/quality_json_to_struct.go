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
	"encoding/json"
	"fmt"

	"github.com/promoforge/promo-video-engine/internal/core/cor"
	"github.com/promoforge/promo-video-engine/internal/core/model"
)

// QualityJsonToStruct parses the analyzer's raw JSON response into a
// model.QualityAnalysis and normalizes obviously out-of-range scores.
type QualityJsonToStruct struct {
	cor.BaseCommand
}

func NewQualityJsonToStruct(name string, outputParamName string) *QualityJsonToStruct {
	out := QualityJsonToStruct{BaseCommand: *cor.NewBaseCommand(name)}
	out.OutputParamName = outputParamName
	return &out
}

func (s *QualityJsonToStruct) Execute(context cor.Context) {
	in := context.Get(s.GetInputParam()).(string)

	doc := &model.QualityAnalysis{}
	err := json.Unmarshal([]byte(in), &doc)
	if err != nil {
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), fmt.Errorf("failed to unmarshal quality analysis JSON: %w", err))
		return
	}

	// Models occasionally return scores on a 0..1 scale or just past the cap.
	if doc.OverallScore > 0 && doc.OverallScore <= 1 {
		doc.OverallScore *= 100
	}
	if doc.OverallScore > 100 {
		doc.OverallScore = 100
	}
	if doc.OverallScore < 0 {
		doc.OverallScore = 0
	}

	s.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetAnalysisParameterName(), doc)
	context.Add(s.GetOutputParam(), doc)
	context.Add(cor.CtxOut, doc)
}
