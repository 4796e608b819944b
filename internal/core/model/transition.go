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

// Mood is the emotional register a scene type maps to. Transitions are chosen
// per ordered mood pair, not per scene-type pair, which keeps the lookup table
// small and lets new scene types reuse existing flows.
type Mood string

const (
	MoodEnergetic   Mood = "energetic"
	MoodPositive    Mood = "positive"
	MoodWarm        Mood = "warm"
	MoodInformative Mood = "informative"
	MoodUrgent      Mood = "urgent"
)

// TransitionType names a scene-to-scene transition style.
type TransitionType string

const (
	TransitionCut      TransitionType = "cut"
	TransitionDissolve TransitionType = "dissolve"
	TransitionFade     TransitionType = "fade"
	TransitionSlide    TransitionType = "slide"
	TransitionZoom     TransitionType = "zoom"
)

// TransitionPlan is the chosen transition between two adjacent scenes. One
// plan exists per adjacent pair; it is stable unless either scene's type or
// visual summary changes.
type TransitionPlan struct {
	FromScene      int            `json:"from_scene"`
	ToScene        int            `json:"to_scene"`
	Type           TransitionType `json:"type"`
	Duration       float64        `json:"duration"` // seconds
	Easing         string         `json:"easing"`
	AudioCrossfade bool           `json:"audio_crossfade"`
	CrossfadeDur   float64        `json:"crossfade_duration"`
	MoodFlow       string         `json:"mood_flow"` // e.g. "energetic->warm"
	Confidence     float64        `json:"confidence"`
}
