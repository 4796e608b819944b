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

// Package selector ranks generation providers for a scene. Every candidate
// starts from a base score and collects weighted bonuses and penalties from
// content/scene tag matches, complexity routing, duration limits, and the
// assessment's explicit recommendations. The whole ranking is returned, not
// just the winner, so the regeneration strategist can walk down it without
// recomputing.
package selector

import (
	"fmt"
	"sort"
	"strings"

	"github.com/promoforge/promo-video-engine/internal/core/model"
)

// Scoring weights. Explicit assessment recommendations outrank every
// heuristic signal; the duration penalty effectively disqualifies.
const (
	baseScore            = 50.0
	strengthBonus        = 20.0
	weaknessPenalty      = 15.0
	fidelityBonusPerTier = 5.0
	durationPenalty      = 100.0
	recommendedBonus     = 25.0
	avoidedPenalty       = 40.0

	// lowFidelityPenalty keeps near-static providers away from prompts whose
	// difficulty is precisely about motion and coherence.
	lowFidelityPenalty = 20.0
	lowFidelityTier    = 2
)

// Selector ranks candidates from a static provider catalogue.
type Selector struct {
	catalog []*model.ProviderProfile
}

// NewSelector builds a Selector over the given catalogue. The catalogue is
// treated as read-only reference data.
func NewSelector(catalog []*model.ProviderProfile) *Selector {
	return &Selector{catalog: catalog}
}

// Catalog returns the provider reference set the selector ranks over.
func (s *Selector) Catalog() []*model.ProviderProfile {
	return s.catalog
}

// Profile returns the profile for a provider id, or nil when unknown.
func (s *Selector) Profile(id string) *model.ProviderProfile {
	for _, p := range s.catalog {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Rank scores every catalogue provider for the request and returns the
// preference-ordered result. Ties break by lower cost per second, then by
// provider id, so identical inputs always produce the identical ranking.
func (s *Selector) Rank(req model.SceneRequest, assessment *model.ComplexityAssessment) *model.ProviderRanking {
	hardPrompt := assessment != nil &&
		(assessment.Category == model.ComplexityComplex || assessment.Category == model.ComplexityImpossible)

	candidates := make([]model.RankedProvider, 0, len(s.catalog))
	for _, p := range s.catalog {
		score := baseScore
		var reasons []string

		if p.HasStrength(string(req.ContentType)) || p.HasStrength(string(req.SceneType)) {
			score += strengthBonus
			reasons = append(reasons, "matches strength")
		}
		if p.HasWeakness(string(req.ContentType)) || p.HasWeakness(string(req.SceneType)) {
			score -= weaknessPenalty
			reasons = append(reasons, "matches weakness")
		}

		// Hard prompts route toward providers with better motion fidelity.
		if hardPrompt {
			fidelity := float64(p.MotionQuality+p.TemporalConsistency) / 2
			score += fidelity * fidelityBonusPerTier
			reasons = append(reasons, fmt.Sprintf("fidelity tier %.1f for hard prompt", fidelity))
			if p.MotionQuality <= lowFidelityTier {
				score -= lowFidelityPenalty
				reasons = append(reasons, "low motion quality for hard prompt")
			}
		}

		if req.Duration > p.MaxDurationSeconds {
			score -= durationPenalty
			reasons = append(reasons, fmt.Sprintf("duration %.1fs exceeds max %.1fs", req.Duration, p.MaxDurationSeconds))
		}

		if assessment != nil {
			if contains(assessment.RecommendedProviders, p.ID) {
				score += recommendedBonus
				reasons = append(reasons, "recommended by assessment")
			}
			if contains(assessment.AvoidedProviders, p.ID) {
				score -= avoidedPenalty
				reasons = append(reasons, "avoided by assessment")
			}
		}

		candidates = append(candidates, model.RankedProvider{
			ProviderID: p.ID,
			Score:      score,
			Reason:     strings.Join(reasons, "; "),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		pa, pb := s.Profile(a.ProviderID), s.Profile(b.ProviderID)
		if pa.CostPerSecond != pb.CostPerSecond {
			return pa.CostPerSecond < pb.CostPerSecond
		}
		return a.ProviderID < b.ProviderID
	})

	ranking := &model.ProviderRanking{
		SceneIndex: req.SceneIndex,
		Candidates: candidates,
	}

	if len(candidates) == 0 {
		ranking.Warnings = append(ranking.Warnings, "provider catalogue is empty")
	} else if candidates[0].Score <= 0 {
		ranking.Warnings = append(ranking.Warnings, "no provider scored above zero; generation is unlikely to succeed")
	}
	return ranking
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
