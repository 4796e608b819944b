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
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"go.opentelemetry.io/otel/metric"

	"github.com/promoforge/promo-video-engine/internal/cloud"
	"github.com/promoforge/promo-video-engine/internal/core/cor"
	"github.com/promoforge/promo-video-engine/internal/core/model"
	"google.golang.org/genai"
)

// SceneRequestSource resolves the request a stored asset was generated for.
// The project registry satisfies it.
type SceneRequestSource interface {
	SceneRequest(projectID string, sceneIndex int) (*model.SceneRequest, bool)
}

// QualityAnalysisCreator sends a rendered asset and its scene context to a
// multimodal model and asks for a structured quality report: overall score,
// sub-scores, issues with severities, content and style match, plus the
// visual facts (dominant colors, lighting, obstructions) that downstream
// planning consumes.
type QualityAnalysisCreator struct {
	cor.BaseCommand
	config                   *cloud.Config
	generativeAIModel        *cloud.QuotaAwareGenerativeAIModel
	template                 *template.Template
	requests                 SceneRequestSource
	geminiInputTokenCounter  metric.Int64Counter
	geminiOutputTokenCounter metric.Int64Counter
	geminiRetryCounter       metric.Int64Counter
}

func NewQualityAnalysisCreator(
	name string,
	config *cloud.Config,
	generativeAIModel *cloud.QuotaAwareGenerativeAIModel,
	template *template.Template,
	requests SceneRequestSource) *QualityAnalysisCreator {

	out := &QualityAnalysisCreator{
		BaseCommand:       *cor.NewBaseCommand(name),
		config:            config,
		generativeAIModel: generativeAIModel,
		template:          template,
		requests:          requests}

	out.geminiInputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.input", out.GetName()))
	out.geminiOutputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.output", out.GetName()))
	out.geminiRetryCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.retry", out.GetName()))

	return out
}

func (t *QualityAnalysisCreator) IsExecutable(context cor.Context) bool {
	if context == nil {
		return false
	}
	_, ok := context.Get(t.GetInputParam()).(*AssetRef)
	return ok
}

// GenerateParams builds the substitution map for the prompt template. A
// complete example analysis is embedded so the model mirrors its shape.
func (t *QualityAnalysisCreator) GenerateParams(req *model.SceneRequest) map[string]interface{} {
	params := make(map[string]interface{})
	params["SCENE_PROMPT"] = req.Prompt
	params["SCENE_TYPE"] = string(req.SceneType)
	params["STYLE"] = req.StyleProfile
	params["DURATION"] = req.Duration

	exampleAnalysis, _ := json.Marshal(model.GetExampleQualityAnalysis())
	params["EXAMPLE_JSON"] = string(exampleAnalysis)
	return params
}

func (t *QualityAnalysisCreator) Execute(context cor.Context) {
	ref := context.Get(t.GetInputParam()).(*AssetRef)

	req, ok := t.requests.SceneRequest(ref.ProjectID, ref.SceneIndex)
	if !ok {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("no scene request registered for project %s scene %d", ref.ProjectID, ref.SceneIndex))
		return
	}

	var buffer bytes.Buffer
	err := t.template.Execute(&buffer, t.GenerateParams(req))
	if err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("failed to execute prompt template: %w", err))
		return
	}

	contents := []*genai.Content{
		{Parts: []*genai.Part{
			{Text: buffer.String()},
			{FileData: &genai.FileData{
				FileURI:  ref.Locator,
				MIMEType: ref.MIMEType,
			}},
		},
			Role: "user"},
	}

	out, err := cloud.GenerateMultiModalResponse(context.GetContext(), t.geminiInputTokenCounter, t.geminiOutputTokenCounter, t.geminiRetryCounter, 0, t.generativeAIModel, contents)
	if err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("gemini request failed: %w", err))
		return
	}

	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetSceneRequestParameterName(), req)
	context.Add(t.GetOutputParam(), out)
}
