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

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// RegenStrategy names the retry approach one attempt used.
type RegenStrategy string

const (
	StrategyInitial          RegenStrategy = "initial"
	StrategyNextProvider     RegenStrategy = "next-provider"
	StrategyAlternative      RegenStrategy = "alternative-approach"
	StrategySimplifiedPrompt RegenStrategy = "simplified-prompt"
)

// RegenAttempt is one immutable history entry recording a generation attempt
// for a scene. Entries are only ever appended; a user can revert to any prior
// asset because superseded locators stay in the log.
type RegenAttempt struct {
	ID              string        `json:"id" bigquery:"id"`
	ProjectID       string        `json:"project_id" bigquery:"project_id"`
	SceneIndex      int           `json:"scene_index" bigquery:"scene_index"`
	Strategy        RegenStrategy `json:"strategy" bigquery:"strategy"`
	ProviderID      string        `json:"provider_id" bigquery:"provider_id"`
	PreviousLocator string        `json:"previous_locator,omitempty" bigquery:"previous_locator"`
	NewLocator      string        `json:"new_locator,omitempty" bigquery:"new_locator"`
	Outcome         string        `json:"outcome" bigquery:"outcome"` // e.g. "approved", "rejected", "transient-error"
	Timestamp       time.Time     `json:"timestamp" bigquery:"timestamp"`
}

// NewRegenAttempt stamps a new attempt entry with a uuid and the current time.
func NewRegenAttempt(projectID string, sceneIndex int, strategy RegenStrategy, providerID string) *RegenAttempt {
	return &RegenAttempt{
		ID:         uuid.NewString(),
		ProjectID:  projectID,
		SceneIndex: sceneIndex,
		Strategy:   strategy,
		ProviderID: providerID,
		Timestamp:  time.Now().UTC(),
	}
}

// HistoryLog is the append-only attempt log for one project. Appends take a
// short lock; readers get copies, so concurrent reads never observe a
// partially written entry and entries are never rewritten in place.
type HistoryLog struct {
	mu      sync.Mutex
	entries []*RegenAttempt
}

// Append adds an entry to the end of the log.
func (l *HistoryLog) Append(entry *RegenAttempt) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

// All returns a snapshot of every entry in append order.
func (l *HistoryLog) All() []*RegenAttempt {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*RegenAttempt, len(l.entries))
	copy(out, l.entries)
	return out
}

// ForScene returns a snapshot of the entries for one scene, in append order.
func (l *HistoryLog) ForScene(sceneIndex int) []*RegenAttempt {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*RegenAttempt
	for _, e := range l.entries {
		if e.SceneIndex == sceneIndex {
			out = append(out, e)
		}
	}
	return out
}

// ProvidersTried returns the distinct provider ids recorded for a scene, in
// first-use order. The regeneration strategist uses this to find the next
// unexhausted candidate in a ranking.
func (l *HistoryLog) ProvidersTried(sceneIndex int) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, e := range l.entries {
		if e.SceneIndex != sceneIndex || e.ProviderID == "" {
			continue
		}
		if !seen[e.ProviderID] {
			seen[e.ProviderID] = true
			out = append(out, e.ProviderID)
		}
	}
	return out
}
