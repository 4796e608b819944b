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

// Package quality converts raw vision-analysis evidence into per-scene
// accept/reject/review decisions and aggregates them into the project-level
// report. The gate never looks at pixels; it applies thresholds to what the
// analyzer reported and tracks the per-scene state machine.
package quality

import (
	"fmt"
	"sync"

	"github.com/promoforge/promo-video-engine/internal/core/model"
)

// Thresholds are the policy knobs for scene and project gating. They load
// from TOML configuration; DefaultThresholds covers tests and local runs.
type Thresholds struct {
	AutoApproveScore   float64 `toml:"auto_approve_score"`   // at or above: approved without review
	MinSceneScore      float64 `toml:"min_scene_score"`      // below: rejected
	MinProjectScore    float64 `toml:"min_project_score"`    // project mean gate
	MaxCriticalIssues  int     `toml:"max_critical_issues"`  // project-wide budget
	MaxMajorIssues     int     `toml:"max_major_issues"`     // project-wide budget
	RequireReviewClear bool    `toml:"require_review_clear"` // true: needs-review scenes block passesThreshold
}

// DefaultThresholds returns the stock gating policy.
func DefaultThresholds() Thresholds {
	return Thresholds{
		AutoApproveScore:   85,
		MinSceneScore:      70,
		MinProjectScore:    75,
		MaxCriticalIssues:  0,
		MaxMajorIssues:     3,
		RequireReviewClear: false,
	}
}

// RecommendationCriticalFail is the analyzer recommendation that forces a
// rejection regardless of score.
const RecommendationCriticalFail = "critical-fail"

// Gate owns the per-scene quality statuses of one project and derives the
// project report from them. All mutation happens under one lock so a report
// recompute can never interleave with a status update.
type Gate struct {
	mu         sync.Mutex
	projectID  string
	thresholds Thresholds
	scenes     map[int]*model.SceneQualityStatus
}

// NewGate creates a gate for a project with every scene pending.
func NewGate(projectID string, sceneCount int, thresholds Thresholds) *Gate {
	scenes := make(map[int]*model.SceneQualityStatus, sceneCount)
	for i := 0; i < sceneCount; i++ {
		scenes[i] = &model.SceneQualityStatus{SceneIndex: i, Status: model.StatusPending}
	}
	return &Gate{projectID: projectID, thresholds: thresholds, scenes: scenes}
}

// Apply records a new QualityAnalysis for a scene and runs the transition
// rule: a critical issue or a critical-fail recommendation rejects regardless
// of score; a score at or above the auto-approve threshold approves; a score
// below the scene minimum rejects; anything else lands in needs-review.
//
// Critical issues overriding a high score is deliberate: a 90 with a critical
// defect is not approvable without a human.
func (g *Gate) Apply(sceneIndex int, analysis *model.QualityAnalysis) (*model.SceneQualityStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.scenes[sceneIndex]
	if !ok {
		return nil, fmt.Errorf("unknown scene index %d", sceneIndex)
	}

	st.Score = analysis.OverallScore
	st.Issues = append([]model.Issue(nil), analysis.Issues...)
	st.AutoApproved = false

	switch {
	case analysis.HasSeverity(model.SeverityCritical),
		analysis.Recommendation == RecommendationCriticalFail,
		analysis.OverallScore < g.thresholds.MinSceneScore:
		st.Status = model.StatusRejected
	case analysis.OverallScore >= g.thresholds.AutoApproveScore:
		st.Status = model.StatusApproved
		st.AutoApproved = true
	default:
		st.Status = model.StatusNeedsReview
	}

	copied := *st
	return &copied, nil
}

// Approve marks a needs-review scene approved by explicit user action.
func (g *Gate) Approve(sceneIndex int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.scenes[sceneIndex]
	if !ok {
		return fmt.Errorf("unknown scene index %d", sceneIndex)
	}
	if st.Status != model.StatusNeedsReview {
		return fmt.Errorf("scene %d is %s, only needs-review scenes can be user approved", sceneIndex, st.Status)
	}
	st.Status = model.StatusApproved
	st.UserApproved = true
	return nil
}

// Reject marks a scene rejected by explicit user action. A pending scene has
// no analysis to reject yet, so the caller must wait for one.
func (g *Gate) Reject(sceneIndex int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.scenes[sceneIndex]
	if !ok {
		return fmt.Errorf("unknown scene index %d", sceneIndex)
	}
	if st.Status == model.StatusPending {
		return fmt.Errorf("scene %d is pending, there is no result to reject", sceneIndex)
	}
	st.Status = model.StatusRejected
	st.UserApproved = false
	st.AutoApproved = false
	return nil
}

// BeginRegeneration moves a rejected or needs-review scene back to pending
// and increments its regeneration count. This is the only path back to
// pending, and the count never decreases.
func (g *Gate) BeginRegeneration(sceneIndex int) (*model.SceneQualityStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.scenes[sceneIndex]
	if !ok {
		return nil, fmt.Errorf("unknown scene index %d", sceneIndex)
	}
	if st.Status != model.StatusRejected && st.Status != model.StatusNeedsReview {
		return nil, fmt.Errorf("scene %d is %s, nothing to regenerate", sceneIndex, st.Status)
	}
	st.Status = model.StatusPending
	st.AutoApproved = false
	st.UserApproved = false
	st.RegenCount++

	copied := *st
	return &copied, nil
}

// Status returns a copy of one scene's current status.
func (g *Gate) Status(sceneIndex int) (*model.SceneQualityStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.scenes[sceneIndex]
	if !ok {
		return nil, fmt.Errorf("unknown scene index %d", sceneIndex)
	}
	copied := *st
	return &copied, nil
}

// Statuses returns copies of all scene statuses in scene order.
func (g *Gate) Statuses() []*model.SceneQualityStatus {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.statusesLocked()
}

func (g *Gate) statusesLocked() []*model.SceneQualityStatus {
	out := make([]*model.SceneQualityStatus, 0, len(g.scenes))
	for i := 0; i < len(g.scenes); i++ {
		if st, ok := g.scenes[i]; ok {
			copied := *st
			out = append(out, &copied)
		}
	}
	return out
}
