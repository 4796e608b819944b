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

// ProviderProfile is static reference data describing one interchangeable
// generation backend: what it accepts, what it is good at, and what it costs.
// Profiles are read-only at runtime.
type ProviderProfile struct {
	ID                  string   `json:"id" toml:"id"`
	SupportsTextInput   bool     `json:"supports_text_input" toml:"supports_text_input"`
	SupportsImageInput  bool     `json:"supports_image_input" toml:"supports_image_input"`
	MaxDurationSeconds  float64  `json:"max_duration_seconds" toml:"max_duration_seconds"`
	MaxResolution       string   `json:"max_resolution" toml:"max_resolution"`
	Strengths           []string `json:"strengths" toml:"strengths"`
	Weaknesses          []string `json:"weaknesses" toml:"weaknesses"`
	MotionQuality       int      `json:"motion_quality" toml:"motion_quality"`             // 1 (poor) .. 5 (excellent)
	TemporalConsistency int      `json:"temporal_consistency" toml:"temporal_consistency"` // 1 .. 5
	CostPerSecond       float64  `json:"cost_per_second" toml:"cost_per_second"`
}

// HasStrength reports whether the profile lists the tag as a strength.
func (p *ProviderProfile) HasStrength(tag string) bool {
	for _, s := range p.Strengths {
		if s == tag {
			return true
		}
	}
	return false
}

// HasWeakness reports whether the profile lists the tag as a weakness.
func (p *ProviderProfile) HasWeakness(tag string) bool {
	for _, w := range p.Weaknesses {
		if w == tag {
			return true
		}
	}
	return false
}

// RankedProvider is one entry of a ProviderRanking: the candidate id, the
// score it earned, and a human-readable account of how it earned it.
type RankedProvider struct {
	ProviderID string  `json:"provider_id"`
	Score      float64 `json:"score"`
	Reason     string  `json:"reason"`
}

// ProviderRanking is the preference-ordered list of candidates for one
// SceneRequest. The full ranking is retained so the regeneration strategist
// can advance to the next candidate without recomputing. Identical inputs
// always produce an identical ranking.
type ProviderRanking struct {
	SceneIndex int              `json:"scene_index"`
	Candidates []RankedProvider `json:"candidates"`
	Warnings   []string         `json:"warnings,omitempty"`
}

// DefaultProviderCatalog returns the built-in provider reference set. The
// catalogue can be replaced wholesale through configuration; the defaults
// exist so tests and local runs work without any TOML.
func DefaultProviderCatalog() []*ProviderProfile {
	return []*ProviderProfile{
		{
			ID:                  "veo-hd",
			SupportsTextInput:   true,
			SupportsImageInput:  true,
			MaxDurationSeconds:  8,
			MaxResolution:       "1920x1080",
			Strengths:           []string{"person", "lifestyle", "hook"},
			Weaknesses:          []string{"abstract"},
			MotionQuality:       5,
			TemporalConsistency: 5,
			CostPerSecond:       0.50,
		},
		{
			ID:                  "kling-std",
			SupportsTextInput:   true,
			SupportsImageInput:  true,
			MaxDurationSeconds:  10,
			MaxResolution:       "1280x720",
			Strengths:           []string{"product", "feature"},
			Weaknesses:          []string{"person"},
			MotionQuality:       4,
			TemporalConsistency: 4,
			CostPerSecond:       0.25,
		},
		{
			ID:                  "luma-flash",
			SupportsTextInput:   true,
			SupportsImageInput:  false,
			MaxDurationSeconds:  5,
			MaxResolution:       "1280x720",
			Strengths:           []string{"nature", "abstract"},
			Weaknesses:          []string{"testimonial"},
			MotionQuality:       3,
			TemporalConsistency: 3,
			CostPerSecond:       0.10,
		},
		{
			ID:                  "stillmotion",
			SupportsTextInput:   true,
			SupportsImageInput:  true,
			MaxDurationSeconds:  30,
			MaxResolution:       "1920x1080",
			Strengths:           []string{"product", "cta"},
			Weaknesses:          []string{"person", "lifestyle"},
			MotionQuality:       1,
			TemporalConsistency: 2,
			CostPerSecond:       0.05,
		},
	}
}
