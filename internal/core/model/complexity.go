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

package model

// ComplexityCategory buckets a complexity score into one of four difficulty
// tiers. Thresholds live in the complexity package; the categories themselves
// are shared vocabulary across selector and regeneration policy.
type ComplexityCategory string

const (
	ComplexitySimple     ComplexityCategory = "simple"
	ComplexityModerate   ComplexityCategory = "moderate"
	ComplexityComplex    ComplexityCategory = "complex"
	ComplexityImpossible ComplexityCategory = "impossible"
)

// DifficultyFactor names one detected source of generation difficulty.
type DifficultyFactor string

const (
	FactorSpecificAction   DifficultyFactor = "specific-action"
	FactorMaterialProperty DifficultyFactor = "material-property"
	FactorPreciseMotion    DifficultyFactor = "precise-motion"
	FactorElementCount     DifficultyFactor = "element-count"
	FactorTemporalSequence DifficultyFactor = "temporal-sequence"
)

// AlternativeApproach suggests a different kind of request when a prompt is
// judged too hard to synthesize directly.
type AlternativeApproach string

const (
	ApproachReferenceImage AlternativeApproach = "reference-image"
	ApproachStockAsset     AlternativeApproach = "stock-asset"
	ApproachMotionGraphic  AlternativeApproach = "motion-graphic"
)

// ComplexityAssessment is the result of scoring a scene prompt for intrinsic
// generation difficulty. It is computed fresh for every SceneRequest and never
// mutated afterward. The same prompt always yields the same assessment.
type ComplexityAssessment struct {
	Score            float64             `json:"score"` // clamped to [0,1]
	Category         ComplexityCategory  `json:"category"`
	Factors          []DifficultyFactor  `json:"factors,omitempty"`
	SimplifiedPrompt string              `json:"simplified_prompt,omitempty"`
	Alternative      AlternativeApproach `json:"alternative,omitempty"`

	// RecommendedProviders and AvoidedProviders outrank the selector's
	// heuristic signals when present.
	RecommendedProviders []string `json:"recommended_providers,omitempty"`
	AvoidedProviders     []string `json:"avoided_providers,omitempty"`
}

// HasFactor reports whether the assessment detected the given factor.
func (a *ComplexityAssessment) HasFactor(f DifficultyFactor) bool {
	for _, got := range a.Factors {
		if got == f {
			return true
		}
	}
	return false
}
