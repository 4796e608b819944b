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

package complexity_test

import (
	"testing"

	"github.com/promoforge/promo-video-engine/internal/core/complexity"
	"github.com/promoforge/promo-video-engine/internal/core/model"
	"github.com/zeebo/assert"
)

func newRequest(prompt string) model.SceneRequest {
	return model.SceneRequest{
		ProjectID:   "demo-promo",
		SceneIndex:  0,
		SceneType:   model.SceneTypeFeature,
		ContentType: model.ContentTypeProduct,
		Prompt:      prompt,
		Duration:    5,
	}
}

// TestAssessSimplePrompt verifies that an everyday prompt with only easy
// action words stays in the simple bucket and derives no fallback prompt.
func TestAssessSimplePrompt(t *testing.T) {
	assessor := complexity.NewAssessor()

	out := assessor.Assess(newRequest("A person smiling and holding a coffee cup"))

	assert.Equal(t, model.ComplexitySimple, out.Category)
	assert.True(t, out.Score < 0.3)
	assert.True(t, out.HasFactor(model.FactorSpecificAction))
	assert.True(t, out.HasFactor(model.FactorElementCount))
	assert.Equal(t, "", out.SimplifiedPrompt)
	assert.Equal(t, model.AlternativeApproach(""), out.Alternative)
}

// TestAssessImpossiblePrompt runs the canonical physics-heavy prompt:
// articulated hands, translucent material, slow-motion, a named sequence.
// Every dimension fires and the clamped score lands in the impossible bucket
// with a reference-image alternative (material dominates).
func TestAssessImpossiblePrompt(t *testing.T) {
	assessor := complexity.NewAssessor()

	out := assessor.Assess(newRequest("Hands stretching translucent dough in slow-motion, then folding it"))

	assert.Equal(t, model.ComplexityImpossible, out.Category)
	assert.Equal(t, 1.0, out.Score)
	assert.True(t, out.HasFactor(model.FactorSpecificAction))
	assert.True(t, out.HasFactor(model.FactorMaterialProperty))
	assert.True(t, out.HasFactor(model.FactorPreciseMotion))
	assert.True(t, out.HasFactor(model.FactorElementCount))
	assert.True(t, out.HasFactor(model.FactorTemporalSequence))
	assert.Equal(t, model.ApproachReferenceImage, out.Alternative)

	// Difficulty keywords are stripped from the fallback prompt.
	assert.Equal(t, "Hands dough in then it", out.SimplifiedPrompt)
}

// TestAssessHandUpgrade verifies the very-hard upgrade for hand and finger
// interactions: the same action scores higher when fingers do it.
func TestAssessHandUpgrade(t *testing.T) {
	assessor := complexity.NewAssessor()

	plain := assessor.Assess(newRequest("typing on a keyboard"))
	hands := assessor.Assess(newRequest("fingers typing on a keyboard"))

	assert.True(t, hands.Score > plain.Score)
	assert.Equal(t, 0.25, plain.Score)
	assert.Equal(t, 0.4, hands.Score)
}

// TestAssessDeterministic checks that the same prompt always yields the same
// assessment, simplified prompt included.
func TestAssessDeterministic(t *testing.T) {
	assessor := complexity.NewAssessor()
	req := newRequest("Molten metal pouring into a translucent mold, then cooling")

	first := assessor.Assess(req)
	second := assessor.Assess(req)

	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.Category, second.Category)
	assert.Equal(t, first.SimplifiedPrompt, second.SimplifiedPrompt)
	assert.Equal(t, first.Alternative, second.Alternative)
	assert.DeepEqual(t, first.Factors, second.Factors)
}

// TestAssessMotionAlternative checks the alternative routing when precise
// motion dominates: rotation-heavy prompts suggest a motion graphic.
func TestAssessMotionAlternative(t *testing.T) {
	assessor := complexity.NewAssessor()

	out := assessor.Assess(newRequest("Camera spinning clockwise around a glossy watch, accelerating outward"))

	assert.Equal(t, model.ComplexityComplex, out.Category)
	assert.Equal(t, model.ApproachMotionGraphic, out.Alternative)
}

// TestAssessSequenceBonus verifies the flat bonus for an ordering marker.
func TestAssessSequenceBonus(t *testing.T) {
	assessor := complexity.NewAssessor()

	without := assessor.Assess(newRequest("A bottle pouring water"))
	with := assessor.Assess(newRequest("A bottle pouring water after the cap opens"))

	assert.Equal(t, 0.25, without.Score)
	assert.True(t, with.Score > without.Score)
	assert.Equal(t, model.ComplexityModerate, with.Category)
	assert.True(t, with.HasFactor(model.FactorTemporalSequence))
}
