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

// This file provides factory functions for hardcoded example instances of the
// data models. The example analysis doubles as the few-shot JSON sample fed
// to the vision model so it returns output we can actually parse; the example
// request seeds tests with a realistic scene.
package model

// GetExampleSceneRequest returns a sample SceneRequest for a product hook
// scene, the kind of prompt the assessor and selector see in production.
func GetExampleSceneRequest() SceneRequest {
	return SceneRequest{
		ProjectID:    "demo-project",
		SceneIndex:   0,
		SceneType:    SceneTypeHook,
		ContentType:  ContentTypeProduct,
		Prompt:       "a sleek water bottle rotating on a marble countertop, morning light",
		Duration:     4,
		StyleProfile: "clean-minimal",
	}
}

// GetExampleQualityAnalysis returns a sample QualityAnalysis shaped exactly
// like the JSON the vision analyzer is asked to produce. It is embedded in
// the analysis prompt as a few-shot example.
func GetExampleQualityAnalysis() *QualityAnalysis {
	return &QualityAnalysis{
		OverallScore: 82,
		SubScores: map[string]float64{
			"sharpness":        85,
			"prompt_adherence": 80,
			"artifact_free":    81,
		},
		Issues: []Issue{
			{Severity: SeverityMinor, Description: "slight motion blur on label text"},
		},
		ContentMatch:   true,
		StyleMatch:     true,
		Recommendation: "accept",
		Summary: &SceneSummary{
			SceneIndex:     0,
			DominantColors: []string{"#d9e2e8", "#7a8a94"},
			Lighting:       "daylight",
		},
		Obstructions: &ObstructionMap{
			SceneIndex: 0,
			Regions: []ObstructionRegion{
				{Name: "subject", Bounds: Rect{X: 30, Y: 20, W: 40, H: 60}},
			},
			SafeZones: []string{"lower-third", "top-left"},
		},
	}
}
