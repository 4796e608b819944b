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

package workflow

import (
	"text/template"

	"github.com/promoforge/promo-video-engine/internal/cloud"
	"github.com/promoforge/promo-video-engine/internal/core/commands"
	"github.com/promoforge/promo-video-engine/internal/core/cor"
	"github.com/promoforge/promo-video-engine/internal/core/model"
	"github.com/promoforge/promo-video-engine/internal/core/services"
)

// AssetAnalysisWorkflow turns a storage notification for a newly written
// scene asset into a gated quality verdict. It parses the trigger into an
// asset reference, asks the multimodal model for a structured analysis,
// converts the JSON answer into a typed report, and applies the project's
// quality gate. The latest analysis is retained per scene so transition
// planning and overlay placement can consume its visual facts.
type AssetAnalysisWorkflow struct {
	cor.BaseCommand
	config          *cloud.Config
	genaiModel      *cloud.QuotaAwareGenerativeAIModel
	registry        *services.ProjectRegistry
	qualityTemplate *template.Template
	chain           cor.Chain
}

const analysisOutputParamName = "__analysis_output__"

// Execute runs the analysis chain, then stores the parsed analysis in the
// registry keyed by the asset's scene.
func (m *AssetAnalysisWorkflow) Execute(context cor.Context) {
	m.chain.Execute(context)

	ref, ok := context.Get(commands.GetAssetRefParameterName()).(*commands.AssetRef)
	if !ok {
		return
	}
	if analysis, ok := context.Get(commands.GetAnalysisParameterName()).(*model.QualityAnalysis); ok {
		m.registry.SetAnalysis(ref.ProjectID, ref.SceneIndex, analysis)
	}
}

func (m *AssetAnalysisWorkflow) initializeChain() {
	out := cor.NewBaseChain(m.GetName())

	out.AddCommand(commands.NewAssetTriggerToRef("asset-trigger-to-ref"))
	out.AddCommand(commands.NewQualityAnalysisCreator(
		"generate-quality-analysis",
		m.config,
		m.genaiModel,
		m.qualityTemplate,
		m.registry))
	out.AddCommand(commands.NewQualityJsonToStruct("convert-quality-analysis", analysisOutputParamName))
	out.AddCommand(commands.NewGateDecision("apply-quality-gate", m.registry))

	m.chain = out
}

// NewAssetAnalysisWorkflow builds the analysis pipeline for the named agent
// model. The quality prompt template comes from configuration; a broken
// template is a startup failure.
func NewAssetAnalysisWorkflow(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	registry *services.ProjectRegistry,
	agentModelName string) *AssetAnalysisWorkflow {

	qualityTemplate, err := template.New("quality-template").Parse(config.PromptTemplates.QualityPrompt)
	if err != nil {
		panic(err)
	}

	pipeline := &AssetAnalysisWorkflow{
		BaseCommand:     *cor.NewBaseCommand("asset-analysis-workflow"),
		config:          config,
		genaiModel:      serviceClients.AgentModels[agentModelName],
		registry:        registry,
		qualityTemplate: qualityTemplate,
	}
	pipeline.initializeChain()
	return pipeline
}
