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

// Package placement assigns non-overlapping, obstruction-aware screen
// positions and timing windows to text overlays within a scene. Placement is
// two phase: spatial scoring over a fixed catalogue of canonical positions,
// then temporal conflict resolution that delays lower-priority overlays out
// of each other's way.
package placement

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/promoforge/promo-video-engine/internal/core/model"
)

// Scoring weights. The obstruction penalty dominates every other term so an
// overlay never lands on top of a detected subject.
const (
	preferredBonus     = 30.0
	preferredRankStep  = 5.0 // each step down the preferred list pays less
	safeZoneBonus      = 20.0
	obstructionPenalty = 100.0
	overlapPenalty     = 40.0
	busyPenalty        = 15.0
)

// ConflictBuffer is the gap inserted between two overlays that wanted the
// same screen space at the same time.
const ConflictBuffer = 0.3 // seconds

// canonicalPosition is one entry of the fixed position catalogue.
type canonicalPosition struct {
	Name   string
	Anchor string
	Bounds model.Rect
}

// positionCatalog enumerates every screen position the resolver considers,
// in scoring order. Percent coordinates, origin top-left.
var positionCatalog = []canonicalPosition{
	{Name: "top-left", Anchor: "top-left", Bounds: model.Rect{X: 5, Y: 5, W: 30, H: 12}},
	{Name: "top-center", Anchor: "top-center", Bounds: model.Rect{X: 35, Y: 5, W: 30, H: 12}},
	{Name: "top-right", Anchor: "top-right", Bounds: model.Rect{X: 65, Y: 5, W: 30, H: 12}},
	{Name: "center-left", Anchor: "center-left", Bounds: model.Rect{X: 5, Y: 44, W: 30, H: 12}},
	{Name: "center", Anchor: "center", Bounds: model.Rect{X: 35, Y: 44, W: 30, H: 12}},
	{Name: "center-right", Anchor: "center-right", Bounds: model.Rect{X: 65, Y: 44, W: 30, H: 12}},
	{Name: "lower-left", Anchor: "bottom-left", Bounds: model.Rect{X: 5, Y: 78, W: 30, H: 12}},
	{Name: "lower-third", Anchor: "bottom-center", Bounds: model.Rect{X: 25, Y: 78, W: 50, H: 12}},
	{Name: "lower-right", Anchor: "bottom-right", Bounds: model.Rect{X: 65, Y: 78, W: 30, H: 12}},
}

// preferredPositions lists each overlay type's preferred canonical position
// names, best first.
var preferredPositions = map[model.OverlayType][]string{
	model.OverlayHeadline: {"top-center", "center"},
	model.OverlayCaption:  {"lower-third", "lower-left"},
	model.OverlayCTA:      {"lower-third", "center"},
	model.OverlayLogo:     {"top-right", "top-left"},
}

// Resolver places overlays. It holds no per-scene state; each Resolve call
// is independent.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver returns a Resolver logging through the given logger, or the
// default logger when nil.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger}
}

// Resolve places the scene's overlays against its obstruction map and
// returns one placement per surviving overlay. Duplicate (text, type) pairs
// are dropped before placement; overlays with no position scoring above zero
// come back unplaced with the reason recorded.
func (r *Resolver) Resolve(sceneIndex int, overlays []model.TextOverlay, obstructions *model.ObstructionMap) []model.TextOverlayPlacement {
	unique := r.dedupe(sceneIndex, overlays)

	// Higher-priority overlays place first so they win contested positions.
	// Stable order on equal priority keeps results deterministic.
	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Priority > unique[j].Priority
	})

	var placements []model.TextOverlayPlacement
	var occupied []model.TextOverlayPlacement
	for _, ov := range unique {
		p := r.placeOne(sceneIndex, ov, obstructions, occupied)
		if p.Placed {
			occupied = append(occupied, p)
		}
		placements = append(placements, p)
	}

	r.resolveTemporal(placements)
	return placements
}

// placeOne scores every canonical position for one overlay and takes the
// best positive score.
func (r *Resolver) placeOne(sceneIndex int, ov model.TextOverlay, obstructions *model.ObstructionMap, occupied []model.TextOverlayPlacement) model.TextOverlayPlacement {
	bestScore := 0.0
	var best *canonicalPosition
	var bestReason string

	for i := range positionCatalog {
		pos := &positionCatalog[i]
		score, reason := r.scorePosition(ov, pos, obstructions, occupied)
		if score > bestScore {
			bestScore = score
			best = pos
			bestReason = reason
		}
	}

	if best == nil {
		return model.TextOverlayPlacement{
			OverlayID:  ov.ID,
			SceneIndex: sceneIndex,
			Placed:     false,
			Window:     ov.Window,
			Style:      ov.Style,
			Reason:     "no candidate position scored above zero",
		}
	}
	return model.TextOverlayPlacement{
		OverlayID:  ov.ID,
		SceneIndex: sceneIndex,
		Placed:     true,
		Position:   best.Name,
		Bounds:     best.Bounds,
		Anchor:     best.Anchor,
		Window:     ov.Window,
		Style:      ov.Style,
		Reason:     bestReason,
	}
}

func (r *Resolver) scorePosition(ov model.TextOverlay, pos *canonicalPosition, obstructions *model.ObstructionMap, occupied []model.TextOverlayPlacement) (float64, string) {
	score := 0.0
	reason := pos.Name

	for rank, pref := range preferredPositions[ov.Type] {
		if pref == pos.Name {
			score += preferredBonus - preferredRankStep*float64(rank)
			reason += ", preferred for type"
			break
		}
	}

	if obstructions != nil {
		for _, zone := range obstructions.SafeZones {
			if zone == pos.Name {
				score += safeZoneBonus
				reason += ", analyzer safe zone"
				break
			}
		}
		for _, region := range obstructions.Regions {
			if !pos.Bounds.Intersects(region.Bounds) {
				continue
			}
			if region.Busy {
				score -= busyPenalty
				reason += fmt.Sprintf(", busy region %s", region.Name)
			} else {
				score -= obstructionPenalty
				reason += fmt.Sprintf(", obstructed by %s", region.Name)
			}
		}
	}

	for _, placed := range occupied {
		if pos.Bounds.Intersects(placed.Bounds) && ov.Window.Overlaps(placed.Window) {
			score -= overlapPenalty
			reason += ", overlaps placed overlay"
		}
	}
	return score, reason
}

// resolveTemporal delays the later of any two placed overlays whose bounds
// and windows both overlap: the lower-priority one starts at the other's end
// plus the buffer, window length preserved. Placements arrive
// priority-ordered, so a single forward pass settles chains too.
func (r *Resolver) resolveTemporal(placements []model.TextOverlayPlacement) {
	for i := range placements {
		if !placements[i].Placed {
			continue
		}
		for j := 0; j < i; j++ {
			if !placements[j].Placed {
				continue
			}
			if !placements[i].Bounds.Intersects(placements[j].Bounds) {
				continue
			}
			if !placements[i].Window.Overlaps(placements[j].Window) {
				continue
			}
			length := placements[i].Window.End - placements[i].Window.Start
			start := placements[j].Window.End + ConflictBuffer
			placements[i].Window = model.TimeWindow{Start: start, End: start + length}
			placements[i].Reason += fmt.Sprintf(", delayed to %.1fs after conflicting overlay", start)
		}
	}
}

// dedupe drops overlays whose (text, type) pair already appeared, logging
// the reason; the same line must never render twice in one scene.
func (r *Resolver) dedupe(sceneIndex int, overlays []model.TextOverlay) []model.TextOverlay {
	type key struct {
		text string
		typ  model.OverlayType
	}
	seen := make(map[key]bool, len(overlays))
	out := make([]model.TextOverlay, 0, len(overlays))
	for _, ov := range overlays {
		k := key{text: ov.Text, typ: ov.Type}
		if seen[k] {
			r.logger.Info("dropping duplicate overlay",
				"scene", sceneIndex, "overlay", ov.ID, "type", ov.Type, "text", ov.Text)
			continue
		}
		seen[k] = true
		out = append(out, ov)
	}
	return out
}
