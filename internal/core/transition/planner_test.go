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

package transition_test

import (
	"testing"

	"github.com/promoforge/promo-video-engine/internal/core/model"
	"github.com/promoforge/promo-video-engine/internal/core/transition"
	"github.com/zeebo/assert"
)

func scene(index int, sceneType model.SceneType, duration float64) transition.Scene {
	return transition.Scene{
		Request: model.SceneRequest{
			ProjectID:  "demo-promo",
			SceneIndex: index,
			SceneType:  sceneType,
			Duration:   duration,
		},
	}
}

// TestPlanAdjacentPairs verifies one plan per adjacent pair in order, and
// that degenerate inputs plan nothing.
func TestPlanAdjacentPairs(t *testing.T) {
	p := transition.NewPlanner()

	scenes := []transition.Scene{
		scene(0, model.SceneTypeHook, 5),
		scene(1, model.SceneTypeBenefit, 5),
		scene(2, model.SceneTypeCTA, 5),
	}
	plans := p.Plan(scenes)

	assert.Equal(t, 2, len(plans))
	assert.Equal(t, 0, plans[0].FromScene)
	assert.Equal(t, 1, plans[0].ToScene)
	assert.Equal(t, 1, plans[1].FromScene)
	assert.Equal(t, 2, plans[1].ToScene)

	assert.Nil(t, p.Plan(scenes[:1]))
	assert.Nil(t, p.Plan(nil))
}

// TestPlanMoodTable checks a direct mood-pair table hit: hook into
// testimonial is energetic to warm, a dissolve with an audio crossfade.
func TestPlanMoodTable(t *testing.T) {
	p := transition.NewPlanner()

	plans := p.Plan([]transition.Scene{
		scene(0, model.SceneTypeHook, 5),
		scene(1, model.SceneTypeTestimonial, 5),
	})

	assert.Equal(t, 1, len(plans))
	assert.Equal(t, model.TransitionDissolve, plans[0].Type)
	assert.Equal(t, 0.8, plans[0].Duration)
	assert.Equal(t, "ease-in-out", plans[0].Easing)
	assert.True(t, plans[0].AudioCrossfade)
	assert.Equal(t, "energetic->warm", plans[0].MoodFlow)
	assert.Equal(t, 0.9, plans[0].Confidence)
}

// TestPlanStyleFallback checks a mood pair absent from the table falls back
// to the style profile default with reduced confidence.
func TestPlanStyleFallback(t *testing.T) {
	p := transition.NewPlanner()

	// cta -> hook (urgent -> energetic) has no table entry.
	from := scene(0, model.SceneTypeCTA, 5)
	from.Request.StyleProfile = "cinematic"
	plans := p.Plan([]transition.Scene{from, scene(1, model.SceneTypeHook, 5)})

	assert.Equal(t, model.TransitionDissolve, plans[0].Type)
	assert.Equal(t, 1.0, plans[0].Duration)
	assert.Equal(t, 0.6, plans[0].Confidence)

	// Unknown style profiles take the last-resort default.
	from.Request.StyleProfile = "vaporwave"
	plans = p.Plan([]transition.Scene{from, scene(1, model.SceneTypeHook, 5)})
	assert.Equal(t, 0.4, plans[0].Confidence)
}

// TestPlanSharedColorSoftensCut verifies adjacent scenes sharing a dominant
// color turn a hard cut into a short ease-in-out dissolve.
func TestPlanSharedColorSoftensCut(t *testing.T) {
	p := transition.NewPlanner()

	// hook -> benefit (energetic -> positive) is a cut in the table.
	from := scene(0, model.SceneTypeHook, 5)
	to := scene(1, model.SceneTypeBenefit, 5)

	plans := p.Plan([]transition.Scene{from, to})
	assert.Equal(t, model.TransitionCut, plans[0].Type)

	from.Summary = &model.SceneSummary{SceneIndex: 0, DominantColors: []string{"teal", "white"}}
	to.Summary = &model.SceneSummary{SceneIndex: 1, DominantColors: []string{"navy", "teal"}}

	plans = p.Plan([]transition.Scene{from, to})
	assert.Equal(t, model.TransitionDissolve, plans[0].Type)
	assert.Equal(t, 0.4, plans[0].Duration)
	assert.Equal(t, "ease-in-out", plans[0].Easing)
}

// TestPlanLightingShift verifies a lighting change stretches the transition
// to the minimum readable duration and softens a cut into a fade.
func TestPlanLightingShift(t *testing.T) {
	p := transition.NewPlanner()

	from := scene(0, model.SceneTypeHook, 5)
	to := scene(1, model.SceneTypeBenefit, 5)
	from.Summary = &model.SceneSummary{SceneIndex: 0, Lighting: "daylight"}
	to.Summary = &model.SceneSummary{SceneIndex: 1, Lighting: "low-key"}

	plans := p.Plan([]transition.Scene{from, to})
	assert.Equal(t, model.TransitionFade, plans[0].Type)
	assert.Equal(t, 0.8, plans[0].Duration)
}

// TestPlanDurationCap caps a transition at a share of the shorter adjacent
// scene so very short scenes are not swallowed.
func TestPlanDurationCap(t *testing.T) {
	p := transition.NewPlanner()

	// energetic -> warm wants 0.8s, but the shorter scene runs 2s so the
	// cap is 0.6s; the audio crossfade shrinks with it.
	plans := p.Plan([]transition.Scene{
		scene(0, model.SceneTypeHook, 2),
		scene(1, model.SceneTypeTestimonial, 6),
	})

	assert.Equal(t, 1, len(plans))
	assert.True(t, plans[0].Duration <= 0.30*2+1e-9)
	assert.True(t, plans[0].CrossfadeDur <= plans[0].Duration)
}
