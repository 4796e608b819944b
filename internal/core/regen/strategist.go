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

// Package regen decides how a rejected or needs-review scene gets retried.
// The decision ladder runs in a fixed order, first applicable wins: budget
// check, impossible-prompt alternative approach, next unexhausted provider in
// the ranking, then a single simplified-prompt fallback on the top candidate.
// Every attempt lands in the project's append-only history.
package regen

import (
	"fmt"

	"github.com/promoforge/promo-video-engine/internal/core/model"
)

// ErrBudgetExhausted is returned once a scene's regeneration count reaches
// the configured maximum. Callers surface it with the full attempt history so
// a human can decide what to do.
var ErrBudgetExhausted = &ExhaustionError{}

// ExhaustionError is the terminal failure for a scene that has burned every
// retry strategy. It carries the history so the failure report can show what
// was tried.
type ExhaustionError struct {
	SceneIndex int
	Attempts   []*model.RegenAttempt
}

func (e *ExhaustionError) Error() string {
	return fmt.Sprintf("scene %d: regeneration budget exhausted after %d attempts", e.SceneIndex, len(e.Attempts))
}

// Is lets errors.Is match any ExhaustionError against ErrBudgetExhausted.
func (e *ExhaustionError) Is(target error) bool {
	_, ok := target.(*ExhaustionError)
	return ok
}

// Decision is the strategist's answer for one retry: which strategy to run,
// the derived request, and which provider should attempt it. A nil provider
// id with an alternative strategy means the attempt is not a plain
// text-to-video call (stock lookup, reference shoot, motion graphic).
type Decision struct {
	Strategy    model.RegenStrategy
	ProviderID  string
	Request     model.SceneRequest
	Alternative model.AlternativeApproach
	Reason      string
}

// Config bounds the strategist.
type Config struct {
	MaxAttempts int `toml:"max_attempts"`
}

// DefaultConfig allows three regeneration attempts per scene.
func DefaultConfig() Config {
	return Config{MaxAttempts: 3}
}

// Strategist picks the next retry strategy for failing scenes.
type Strategist struct {
	cfg Config
}

// NewStrategist returns a Strategist with the given bounds.
func NewStrategist(cfg Config) *Strategist {
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultConfig()
	}
	return &Strategist{cfg: cfg}
}

// MaxAttempts exposes the configured retry budget.
func (s *Strategist) MaxAttempts() int {
	return s.cfg.MaxAttempts
}

// Next runs the decision ladder for a scene. The caller supplies the scene's
// current request, its quality status (for the regeneration count), the
// retained ranking, the complexity assessment, and the project history log.
//
// Ladder, first applicable wins:
//  1. budget exhausted -> ExhaustionError with full history
//  2. impossible prompt with a suggested alternative -> switch approach
//  3. next unexhausted provider in ranking order
//  4. all ranked providers tried -> simplified prompt on the top candidate,
//     once
func (s *Strategist) Next(
	req model.SceneRequest,
	status *model.SceneQualityStatus,
	ranking *model.ProviderRanking,
	assessment *model.ComplexityAssessment,
	history *model.HistoryLog,
) (*Decision, error) {
	attempts := history.ForScene(req.SceneIndex)

	if status.RegenCount >= s.cfg.MaxAttempts {
		return nil, &ExhaustionError{SceneIndex: req.SceneIndex, Attempts: attempts}
	}

	if assessment != nil && assessment.Category == model.ComplexityImpossible && assessment.Alternative != "" {
		reqOut := req
		if assessment.SimplifiedPrompt != "" {
			reqOut = req.DeriveRequest(assessment.SimplifiedPrompt)
		}
		return &Decision{
			Strategy:    model.StrategyAlternative,
			Request:     reqOut,
			Alternative: assessment.Alternative,
			Reason:      fmt.Sprintf("prompt assessed impossible, switching to %s", assessment.Alternative),
		}, nil
	}

	tried := toSet(history.ProvidersTried(req.SceneIndex))
	for _, candidate := range ranking.Candidates {
		if tried[candidate.ProviderID] {
			continue
		}
		return &Decision{
			Strategy:   model.StrategyNextProvider,
			ProviderID: candidate.ProviderID,
			Request:    req,
			Reason:     fmt.Sprintf("advancing to next ranked provider %s", candidate.ProviderID),
		}, nil
	}

	// Every ranked provider has been tried. Fall back to the simplified
	// prompt on the top candidate, but only once; a second simplified run
	// would just repeat the first.
	if assessment != nil && assessment.SimplifiedPrompt != "" && !simplifiedTried(attempts) && len(ranking.Candidates) > 0 {
		top := ranking.Candidates[0].ProviderID
		return &Decision{
			Strategy:   model.StrategySimplifiedPrompt,
			ProviderID: top,
			Request:    req.DeriveRequest(assessment.SimplifiedPrompt),
			Reason:     fmt.Sprintf("all providers exhausted, retrying %s with simplified prompt", top),
		}, nil
	}

	return nil, &ExhaustionError{SceneIndex: req.SceneIndex, Attempts: attempts}
}

func simplifiedTried(attempts []*model.RegenAttempt) bool {
	for _, a := range attempts {
		if a.Strategy == model.StrategySimplifiedPrompt {
			return true
		}
	}
	return false
}

func toSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}
