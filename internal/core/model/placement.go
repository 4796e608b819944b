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

// OverlayType tags the kind of text element being placed on a scene.
type OverlayType string

const (
	OverlayHeadline OverlayType = "headline"
	OverlayCaption  OverlayType = "caption"
	OverlayCTA      OverlayType = "cta"
	OverlayLogo     OverlayType = "logo"
)

// TextOverlay is one overlay element waiting for a position. Priority breaks
// temporal conflicts: the lower-priority overlay is the one delayed.
type TextOverlay struct {
	ID       string      `json:"id"`
	Type     OverlayType `json:"type"`
	Text     string      `json:"text"`
	Style    string      `json:"style,omitempty"`
	Priority int         `json:"priority"` // higher wins spatial/temporal conflicts
	Window   TimeWindow  `json:"window"`
}

// TimeWindow is a [Start,End) interval in seconds relative to scene start.
type TimeWindow struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Overlaps reports whether two windows share any time.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.Start < other.End && other.Start < w.End
}

// Rect is a screen region in percent coordinates, origin top-left.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Intersects reports whether two rects share any area.
func (r Rect) Intersects(other Rect) bool {
	return r.X < other.X+other.W && other.X < r.X+r.W &&
		r.Y < other.Y+other.H && other.Y < r.Y+r.H
}

// ObstructionRegion is a named area of the frame that overlay placement must
// avoid, e.g. a detected subject bounding box. Busy regions are softer: they
// cost score but do not forbid placement.
type ObstructionRegion struct {
	Name   string `json:"name"`
	Bounds Rect   `json:"bounds"`
	Busy   bool   `json:"busy"` // true for visually noisy but non-blocking areas
}

// ObstructionMap collects the regions the vision analyzer detected for one
// scene, plus any positions it explicitly flagged as safe for text.
type ObstructionMap struct {
	SceneIndex int                 `json:"scene_index"`
	Regions    []ObstructionRegion `json:"regions,omitempty"`
	SafeZones  []string            `json:"safe_zones,omitempty"` // canonical position names
}

// TextOverlayPlacement is the resolved position and timing for one overlay in
// one scene. Placed is false when no candidate position scored above zero;
// Reason records why either way.
type TextOverlayPlacement struct {
	OverlayID  string     `json:"overlay_id"`
	SceneIndex int        `json:"scene_index"`
	Placed     bool       `json:"placed"`
	Position   string     `json:"position,omitempty"` // canonical position name
	Bounds     Rect       `json:"bounds,omitempty"`
	Anchor     string     `json:"anchor,omitempty"`
	Window     TimeWindow `json:"window"`
	Style      string     `json:"style,omitempty"`
	Reason     string     `json:"reason"`
}
