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

// Package transition plans scene-to-scene transitions from a mood-flow model.
// Scene types map to moods, ordered mood pairs map to a default transition,
// and two adjustment rules refine the lookup with the vision analyzer's
// color and lighting summaries.
package transition

import (
	"fmt"

	"github.com/promoforge/promo-video-engine/internal/core/model"
)

// minLightingShiftDur is the shortest transition allowed across a lighting
// change; anything faster reads as a flash.
const minLightingShiftDur = 0.8

// maxSceneShare caps a transition's duration relative to the shorter of the
// two scenes it joins.
const maxSceneShare = 0.30

// sceneMoods maps each scene type to its mood label.
var sceneMoods = map[model.SceneType]model.Mood{
	model.SceneTypeHook:        model.MoodEnergetic,
	model.SceneTypeBenefit:     model.MoodPositive,
	model.SceneTypeFeature:     model.MoodInformative,
	model.SceneTypeTestimonial: model.MoodWarm,
	model.SceneTypeCTA:         model.MoodUrgent,
}

type moodPair struct {
	from, to model.Mood
}

// transitionDefault is an entry of the mood-pair lookup table.
type transitionDefault struct {
	Type           model.TransitionType
	Duration       float64
	Easing         string
	AudioCrossfade bool
	CrossfadeDur   float64
}

// moodTransitions is the mood-pair lookup table. Pairs absent here fall back
// to the style profile's default.
var moodTransitions = map[moodPair]transitionDefault{
	{model.MoodEnergetic, model.MoodPositive}:    {Type: model.TransitionCut, Duration: 0.0, Easing: "linear"},
	{model.MoodEnergetic, model.MoodInformative}: {Type: model.TransitionSlide, Duration: 0.5, Easing: "ease-out"},
	{model.MoodEnergetic, model.MoodWarm}:        {Type: model.TransitionDissolve, Duration: 0.8, Easing: "ease-in-out", AudioCrossfade: true, CrossfadeDur: 0.6},
	{model.MoodEnergetic, model.MoodUrgent}:      {Type: model.TransitionZoom, Duration: 0.4, Easing: "ease-in"},
	{model.MoodPositive, model.MoodInformative}:  {Type: model.TransitionSlide, Duration: 0.5, Easing: "ease-in-out"},
	{model.MoodPositive, model.MoodWarm}:         {Type: model.TransitionDissolve, Duration: 0.7, Easing: "ease-in-out", AudioCrossfade: true, CrossfadeDur: 0.5},
	{model.MoodPositive, model.MoodUrgent}:       {Type: model.TransitionCut, Duration: 0.0, Easing: "linear"},
	{model.MoodInformative, model.MoodPositive}:  {Type: model.TransitionDissolve, Duration: 0.6, Easing: "ease-in-out"},
	{model.MoodInformative, model.MoodUrgent}:    {Type: model.TransitionZoom, Duration: 0.4, Easing: "ease-in"},
	{model.MoodWarm, model.MoodUrgent}:           {Type: model.TransitionFade, Duration: 0.6, Easing: "ease-in", AudioCrossfade: true, CrossfadeDur: 0.4},
	{model.MoodWarm, model.MoodPositive}:         {Type: model.TransitionDissolve, Duration: 0.7, Easing: "ease-in-out", AudioCrossfade: true, CrossfadeDur: 0.5},
	{model.MoodUrgent, model.MoodUrgent}:         {Type: model.TransitionCut, Duration: 0.0, Easing: "linear"},
}

// styleDefaults supplies the fallback transition per style profile for mood
// pairs the table does not cover. The empty key is the last resort.
var styleDefaults = map[string]transitionDefault{
	"bold":      {Type: model.TransitionCut, Duration: 0.0, Easing: "linear"},
	"cinematic": {Type: model.TransitionDissolve, Duration: 1.0, Easing: "ease-in-out", AudioCrossfade: true, CrossfadeDur: 0.8},
	"minimal":   {Type: model.TransitionFade, Duration: 0.5, Easing: "ease-in-out"},
	"":          {Type: model.TransitionDissolve, Duration: 0.6, Easing: "ease-in-out"},
}

// Scene is the planner's view of one scene: its request plus the optional
// visual summary from analysis.
type Scene struct {
	Request model.SceneRequest
	Summary *model.SceneSummary
}

// Planner produces transition plans. Stateless; safe for concurrent use.
type Planner struct{}

// NewPlanner returns a Planner.
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan returns one TransitionPlan per adjacent pair of the ordered scenes.
func (p *Planner) Plan(scenes []Scene) []model.TransitionPlan {
	if len(scenes) < 2 {
		return nil
	}
	plans := make([]model.TransitionPlan, 0, len(scenes)-1)
	for i := 0; i < len(scenes)-1; i++ {
		plans = append(plans, p.planPair(scenes[i], scenes[i+1]))
	}
	return plans
}

func (p *Planner) planPair(from, to Scene) model.TransitionPlan {
	fromMood := sceneMoods[from.Request.SceneType]
	toMood := sceneMoods[to.Request.SceneType]

	def, confidence := p.lookup(from.Request.StyleProfile, fromMood, toMood)

	// Adjacent scenes sharing a dominant color cut together without a seam,
	// so soften a hard cut into a short dissolve for continuity.
	if def.Type == model.TransitionCut && sharesDominantColor(from.Summary, to.Summary) {
		def.Type = model.TransitionDissolve
		def.Duration = 0.4
		def.Easing = "ease-in-out"
	}

	if lightingDiffers(from.Summary, to.Summary) && def.Duration < minLightingShiftDur {
		def.Duration = minLightingShiftDur
		if def.Type == model.TransitionCut {
			def.Type = model.TransitionFade
			def.Easing = "ease-in-out"
		}
	}

	if limit := maxSceneShare * shorterDuration(from, to); def.Duration > limit {
		def.Duration = limit
		if def.CrossfadeDur > limit {
			def.CrossfadeDur = limit
		}
	}

	return model.TransitionPlan{
		FromScene:      from.Request.SceneIndex,
		ToScene:        to.Request.SceneIndex,
		Type:           def.Type,
		Duration:       def.Duration,
		Easing:         def.Easing,
		AudioCrossfade: def.AudioCrossfade,
		CrossfadeDur:   def.CrossfadeDur,
		MoodFlow:       fmt.Sprintf("%s->%s", fromMood, toMood),
		Confidence:     confidence,
	}
}

// lookup resolves the mood pair against the table, then the style profile
// defaults. Table hits carry full confidence; fallbacks less.
func (p *Planner) lookup(style string, from, to model.Mood) (transitionDefault, float64) {
	if def, ok := moodTransitions[moodPair{from, to}]; ok {
		return def, 0.9
	}
	if def, ok := styleDefaults[style]; ok {
		return def, 0.6
	}
	return styleDefaults[""], 0.4
}

func sharesDominantColor(a, b *model.SceneSummary) bool {
	if a == nil || b == nil {
		return false
	}
	for _, ca := range a.DominantColors {
		for _, cb := range b.DominantColors {
			if ca == cb {
				return true
			}
		}
	}
	return false
}

func lightingDiffers(a, b *model.SceneSummary) bool {
	if a == nil || b == nil || a.Lighting == "" || b.Lighting == "" {
		return false
	}
	return a.Lighting != b.Lighting
}

func shorterDuration(a, b Scene) float64 {
	if a.Request.Duration < b.Request.Duration {
		return a.Request.Duration
	}
	return b.Request.Duration
}
