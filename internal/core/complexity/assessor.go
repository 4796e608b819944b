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

// Package complexity scores scene prompts for intrinsic generation
// difficulty, independent of any provider. Scoring is a pure function of the
// prompt text: three keyword dimensions (specific physical actions, material
// properties, precise motion) contribute bounded additive weights, extra
// named objects add a fixed penalty each, and a detected temporal sequence
// adds a flat bonus. The clamped score is bucketed into a category, and for
// hard prompts the assessor derives a simplified prompt plus an alternative
// approach keyed by whichever dimension dominated.
package complexity

import (
	"sort"
	"strings"

	"github.com/promoforge/promo-video-engine/internal/core/model"
)

// Keyword weights per difficulty tier.
const (
	weightEasy     = 0.10
	weightHard     = 0.25
	weightVeryHard = 0.40

	// objectPenalty is charged once per named object beyond the first.
	objectPenalty = 0.05
	// sequenceBonus is charged when the prompt encodes a required "after X,
	// then Y" ordering.
	sequenceBonus = 0.15
)

// Category thresholds over the clamped [0,1] score.
const (
	thresholdModerate   = 0.3
	thresholdComplex    = 0.5
	thresholdImpossible = 0.8
)

// actionKeywords maps specific physical actions to their base weight. Hand
// and finger interactions upgrade a hard action to very-hard: articulated
// hands are where generation models fail most visibly.
var actionKeywords = map[string]float64{
	"stretching": weightHard,
	"kneading":   weightHard,
	"folding":    weightHard,
	"pouring":    weightHard,
	"slicing":    weightHard,
	"tying":      weightVeryHard,
	"threading":  weightVeryHard,
	"juggling":   weightVeryHard,
	"typing":     weightHard,
	"writing":    weightHard,
	"grabbing":   weightEasy,
	"holding":    weightEasy,
	"walking":    weightEasy,
	"smiling":    weightEasy,
}

// handWords trigger the very-hard upgrade for actions.
var handWords = []string{"hand", "hands", "finger", "fingers"}

// materialKeywords maps material and physical properties to weights.
// Translucency and fluid dynamics are the classic failure modes.
var materialKeywords = map[string]float64{
	"translucent": weightVeryHard,
	"transparent": weightVeryHard,
	"refracting":  weightVeryHard,
	"viscous":     weightVeryHard,
	"molten":      weightVeryHard,
	"dripping":    weightHard,
	"foaming":     weightHard,
	"glossy":      weightEasy,
	"matte":       weightEasy,
	"metallic":    weightEasy,
	"wet":         weightEasy,
}

// motionKeywords maps precise motion direction and tempo words to weights.
var motionKeywords = map[string]float64{
	"clockwise":        weightVeryHard,
	"counterclockwise": weightVeryHard,
	"outward":          weightHard,
	"inward":           weightHard,
	"upward":           weightEasy,
	"downward":         weightEasy,
	"slow-motion":      weightHard,
	"accelerating":     weightHard,
	"oscillating":      weightVeryHard,
	"spinning":         weightEasy,
}

// sequenceMarkers signal a required temporal ordering in the prompt.
var sequenceMarkers = []string{"after ", " then ", "followed by", "before "}

// Assessor scores prompts. It holds no state; the zero value is usable.
type Assessor struct{}

// NewAssessor returns an Assessor.
func NewAssessor() *Assessor {
	return &Assessor{}
}

// Assess scores the request's prompt and returns a fresh assessment. Same
// prompt in, same assessment out: no randomness, no external calls.
func (a *Assessor) Assess(req model.SceneRequest) *model.ComplexityAssessment {
	prompt := strings.ToLower(req.Prompt)
	words := tokenize(prompt)

	var score float64
	var factors []model.DifficultyFactor
	var matched []string
	dims := map[model.DifficultyFactor]float64{}

	hasHands := containsAny(words, handWords)

	actionScore := dimensionScore(words, actionKeywords, &matched)
	if actionScore > 0 {
		if hasHands && actionScore >= weightHard {
			actionScore = weightVeryHard
		}
		score += actionScore
		dims[model.FactorSpecificAction] = actionScore
		factors = append(factors, model.FactorSpecificAction)
	}

	materialScore := dimensionScore(words, materialKeywords, &matched)
	if materialScore > 0 {
		score += materialScore
		dims[model.FactorMaterialProperty] = materialScore
		factors = append(factors, model.FactorMaterialProperty)
	}

	motionScore := dimensionScore(words, motionKeywords, &matched)
	if motionScore > 0 {
		score += motionScore
		dims[model.FactorPreciseMotion] = motionScore
		factors = append(factors, model.FactorPreciseMotion)
	}

	if extra := extraObjectCount(prompt); extra > 0 {
		score += float64(extra) * objectPenalty
		factors = append(factors, model.FactorElementCount)
	}

	if hasSequence(prompt) {
		score += sequenceBonus
		factors = append(factors, model.FactorTemporalSequence)
	}

	if score > 1 {
		score = 1
	}

	out := &model.ComplexityAssessment{
		Score:    score,
		Category: categorize(score),
		Factors:  factors,
	}

	if out.Category == model.ComplexityComplex || out.Category == model.ComplexityImpossible {
		out.SimplifiedPrompt = simplify(req.Prompt, matched)
		out.Alternative = alternativeFor(dims)
	}
	return out
}

// dimensionScore sums the weights of every keyword of one dimension found in
// the prompt, capped at very-hard so a single dimension cannot saturate the
// whole budget. Matched keywords are appended for later prompt stripping.
func dimensionScore(words []string, keywords map[string]float64, matched *[]string) float64 {
	var total float64
	for _, w := range words {
		if weight, ok := keywords[w]; ok {
			total += weight
			*matched = append(*matched, w)
		}
	}
	if total > weightVeryHard {
		total = weightVeryHard
	}
	return total
}

// categorize buckets the clamped score.
func categorize(score float64) model.ComplexityCategory {
	switch {
	case score < thresholdModerate:
		return model.ComplexitySimple
	case score < thresholdComplex:
		return model.ComplexityModerate
	case score < thresholdImpossible:
		return model.ComplexityComplex
	default:
		return model.ComplexityImpossible
	}
}

// extraObjectCount approximates how many named objects beyond the first the
// prompt enumerates, by counting list separators.
func extraObjectCount(prompt string) int {
	n := strings.Count(prompt, ", ")
	n += strings.Count(prompt, " and ")
	return n
}

// hasSequence reports whether the prompt encodes a required ordering.
func hasSequence(prompt string) bool {
	for _, marker := range sequenceMarkers {
		if strings.Contains(prompt, marker) {
			return true
		}
	}
	return false
}

// simplify strips the matched difficulty keywords from the prompt,
// deterministically, and collapses the leftover whitespace. The result is the
// fallback prompt the regeneration strategist reaches for once providers are
// exhausted.
func simplify(prompt string, matched []string) string {
	// Sort for determinism regardless of match order.
	sorted := append([]string(nil), matched...)
	sort.Strings(sorted)

	out := prompt
	for _, kw := range sorted {
		out = removeWordFold(out, kw)
	}
	return strings.Join(strings.Fields(out), " ")
}

// removeWordFold removes case-insensitive whole-word occurrences of kw.
func removeWordFold(s, kw string) string {
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		if strings.EqualFold(strings.Trim(f, ",."), kw) {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// alternativeFor picks the suggestion matching the dominant dimension:
// material problems photograph better than they synthesize (reference image),
// articulated actions are cheapest from stock, and precise motion is a job
// for motion graphics.
func alternativeFor(dims map[model.DifficultyFactor]float64) model.AlternativeApproach {
	best := model.FactorSpecificAction
	bestScore := -1.0
	// Fixed iteration order for determinism.
	order := []model.DifficultyFactor{
		model.FactorMaterialProperty,
		model.FactorSpecificAction,
		model.FactorPreciseMotion,
	}
	for _, f := range order {
		if s, ok := dims[f]; ok && s > bestScore {
			best = f
			bestScore = s
		}
	}
	switch best {
	case model.FactorMaterialProperty:
		return model.ApproachReferenceImage
	case model.FactorPreciseMotion:
		return model.ApproachMotionGraphic
	default:
		return model.ApproachStockAsset
	}
}

func tokenize(prompt string) []string {
	raw := strings.FieldsFunc(prompt, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == ';' || r == ':'
	})
	return raw
}

func containsAny(words []string, targets []string) bool {
	for _, w := range words {
		for _, t := range targets {
			if w == t {
				return true
			}
		}
	}
	return false
}
