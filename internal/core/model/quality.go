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

// IssueSeverity classifies a quality issue reported by the vision analyzer.
type IssueSeverity string

const (
	SeverityCritical IssueSeverity = "critical"
	SeverityMajor    IssueSeverity = "major"
	SeverityMinor    IssueSeverity = "minor"
)

// Issue is one defect the vision analyzer found in a rendered asset.
type Issue struct {
	Severity    IssueSeverity `json:"severity"`
	Description string        `json:"description"`
}

// QualityAnalysis is the raw evidence returned by the vision-analysis
// collaborator for one asset. It is treated as opaque input: the decision
// layer never recomputes scores from pixels, it only applies policy to
// what the analyzer reports.
type QualityAnalysis struct {
	OverallScore   float64            `json:"overall_score"` // 0..100
	SubScores      map[string]float64 `json:"sub_scores,omitempty"`
	Issues         []Issue            `json:"issues,omitempty"`
	ContentMatch   bool               `json:"content_match"`
	StyleMatch     bool               `json:"style_match"`
	Recommendation string             `json:"recommendation,omitempty"` // e.g. "accept", "regenerate", "critical-fail"
	Summary        *SceneSummary      `json:"summary,omitempty"`
	Obstructions   *ObstructionMap    `json:"obstructions,omitempty"`
}

// HasSeverity reports whether any issue with the given severity is present.
func (q *QualityAnalysis) HasSeverity(sev IssueSeverity) bool {
	for _, iss := range q.Issues {
		if iss.Severity == sev {
			return true
		}
	}
	return false
}

// CountSeverity returns how many issues carry the given severity.
func (q *QualityAnalysis) CountSeverity(sev IssueSeverity) int {
	n := 0
	for _, iss := range q.Issues {
		if iss.Severity == sev {
			n++
		}
	}
	return n
}

// SceneStatus is the per-scene quality lifecycle state.
//
// The machine is: pending -> {approved | needs-review | rejected};
// needs-review -> approved happens only through an explicit user action, and
// rejected -> pending only through a new regeneration attempt.
type SceneStatus string

const (
	StatusPending     SceneStatus = "pending"
	StatusApproved    SceneStatus = "approved"
	StatusNeedsReview SceneStatus = "needs-review"
	StatusRejected    SceneStatus = "rejected"
)

// SceneQualityStatus tracks the current quality verdict for one scene. The
// regeneration count only ever increases; it survives status resets so the
// retry budget cannot be laundered by re-entering pending.
type SceneQualityStatus struct {
	SceneIndex   int         `json:"scene_index"`
	Score        float64     `json:"score"`
	Status       SceneStatus `json:"status"`
	Issues       []Issue     `json:"issues,omitempty"`
	UserApproved bool        `json:"user_approved"`
	AutoApproved bool        `json:"auto_approved"`
	RegenCount   int         `json:"regen_count"`
}

// ProjectQualityReport is the project-level aggregate derived from all scene
// statuses. It is always recomputed wholesale, never patched incrementally,
// so the counts and blocking reasons can never drift out of sync with the
// per-scene evidence.
type ProjectQualityReport struct {
	ProjectID       string   `json:"project_id"`
	OverallScore    float64  `json:"overall_score"`
	TotalScenes     int      `json:"total_scenes"`
	ApprovedCount   int      `json:"approved_count"`
	ReviewCount     int      `json:"review_count"`
	RejectedCount   int      `json:"rejected_count"`
	PendingCount    int      `json:"pending_count"`
	CriticalIssues  int      `json:"critical_issues"`
	MajorIssues     int      `json:"major_issues"`
	MinorIssues     int      `json:"minor_issues"`
	PassesThreshold bool     `json:"passes_threshold"`
	CanRender       bool     `json:"can_render"`
	BlockingReasons []string `json:"blocking_reasons,omitempty"`
}
