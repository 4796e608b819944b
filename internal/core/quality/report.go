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

package quality

import (
	"fmt"

	"github.com/promoforge/promo-video-engine/internal/core/model"
)

// pendingReviewBlocker is the one blocking reason canRender is allowed to
// override: scenes awaiting human review do not stop a user who explicitly
// wants to render anyway.
const pendingReviewBlocker = "scenes pending review"

// Report recomputes the project-level quality report wholesale from the
// current scene statuses. Nothing is patched incrementally; every call walks
// every scene, so the aggregate can never go stale.
func (g *Gate) Report() *model.ProjectQualityReport {
	g.mu.Lock()
	defer g.mu.Unlock()

	statuses := g.statusesLocked()
	report := &model.ProjectQualityReport{
		ProjectID:   g.projectID,
		TotalScenes: len(statuses),
	}

	var scoreSum float64
	for _, st := range statuses {
		scoreSum += st.Score
		switch st.Status {
		case model.StatusApproved:
			report.ApprovedCount++
		case model.StatusNeedsReview:
			report.ReviewCount++
		case model.StatusRejected:
			report.RejectedCount++
		case model.StatusPending:
			report.PendingCount++
		}
		for _, iss := range st.Issues {
			switch iss.Severity {
			case model.SeverityCritical:
				report.CriticalIssues++
			case model.SeverityMajor:
				report.MajorIssues++
			case model.SeverityMinor:
				report.MinorIssues++
			}
		}
	}
	if len(statuses) > 0 {
		report.OverallScore = scoreSum / float64(len(statuses))
	}

	// Blocking reasons are rebuilt from scratch in a fixed order.
	if report.OverallScore < g.thresholds.MinProjectScore {
		report.BlockingReasons = append(report.BlockingReasons,
			fmt.Sprintf("overall score %.1f below project minimum %.1f", report.OverallScore, g.thresholds.MinProjectScore))
	}
	if report.CriticalIssues > g.thresholds.MaxCriticalIssues {
		report.BlockingReasons = append(report.BlockingReasons,
			fmt.Sprintf("%d critical issues exceed budget of %d", report.CriticalIssues, g.thresholds.MaxCriticalIssues))
	}
	if report.MajorIssues > g.thresholds.MaxMajorIssues {
		report.BlockingReasons = append(report.BlockingReasons,
			fmt.Sprintf("%d major issues exceed budget of %d", report.MajorIssues, g.thresholds.MaxMajorIssues))
	}
	if report.RejectedCount > 0 {
		report.BlockingReasons = append(report.BlockingReasons,
			fmt.Sprintf("%d scenes rejected", report.RejectedCount))
	}
	if report.PendingCount > 0 {
		report.BlockingReasons = append(report.BlockingReasons,
			fmt.Sprintf("%d scenes pending analysis", report.PendingCount))
	}
	if report.ReviewCount > 0 && g.thresholds.RequireReviewClear {
		report.BlockingReasons = append(report.BlockingReasons, pendingReviewBlocker)
	}

	report.PassesThreshold = len(report.BlockingReasons) == 0

	// canRender is the looser predicate: true when the only outstanding
	// blocker is the explicit review-override path.
	report.CanRender = report.PassesThreshold ||
		(len(report.BlockingReasons) == 1 && report.BlockingReasons[0] == pendingReviewBlocker)

	return report
}
