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

// Package model defines the core data structures of the promo-video decision
// layer: scene requests, complexity assessments, provider rankings, quality
// statuses, overlay placements, transition plans, and render chunks. These
// objects are passed between workflow commands and services; none of them
// talk to external systems directly.
package model

// SceneType tags the narrative role a scene plays in the final video.
type SceneType string

const (
	SceneTypeHook        SceneType = "hook"
	SceneTypeBenefit     SceneType = "benefit"
	SceneTypeFeature     SceneType = "feature"
	SceneTypeTestimonial SceneType = "testimonial"
	SceneTypeCTA         SceneType = "cta"
)

// ContentType tags the dominant visual subject of a scene.
type ContentType string

const (
	ContentTypePerson    ContentType = "person"
	ContentTypeProduct   ContentType = "product"
	ContentTypeNature    ContentType = "nature"
	ContentTypeAbstract  ContentType = "abstract"
	ContentTypeLifestyle ContentType = "lifestyle"
)

// SceneRequest describes one scene to be generated. Requests are immutable
// once created; a regeneration derives a new request from the prior one
// (see DeriveRequest) instead of mutating it in place.
type SceneRequest struct {
	ProjectID    string      `json:"project_id"`
	SceneIndex   int         `json:"scene_index"`
	SceneType    SceneType   `json:"scene_type"`
	ContentType  ContentType `json:"content_type"`
	Prompt       string      `json:"prompt"`
	Duration     float64     `json:"duration"` // target duration in seconds
	StyleProfile string      `json:"style_profile"`

	// ReferenceImage is set when a regeneration switched to a reference-based
	// strategy. Empty for ordinary text-to-video requests.
	ReferenceImage string `json:"reference_image,omitempty"`
}

// DeriveRequest returns a copy of the request with a replacement prompt,
// preserving scene identity. This is the only sanctioned way to produce an
// adjusted request for a regeneration attempt.
func (r SceneRequest) DeriveRequest(prompt string) SceneRequest {
	out := r
	out.Prompt = prompt
	return out
}

// GeneratedAsset is the output of one successful generation attempt. The
// locator is an opaque handle minted by the object store. Superseded assets
// are retained in the attempt history so a user can always revert.
type GeneratedAsset struct {
	SceneIndex int     `json:"scene_index"`
	ProviderID string  `json:"provider_id"`
	Locator    string  `json:"locator"`
	Duration   float64 `json:"duration"` // measured duration in seconds
	Cost       float64 `json:"cost"`
}

// SceneSummary carries the visual facts the vision-analysis collaborator
// reports about a rendered scene. Dominant colors and lighting feed the
// transition planner; the obstruction map feeds the placement resolver.
type SceneSummary struct {
	SceneIndex     int      `json:"scene_index"`
	DominantColors []string `json:"dominant_colors,omitempty"`
	Lighting       string   `json:"lighting,omitempty"` // e.g. "daylight", "studio", "low-key"
}
