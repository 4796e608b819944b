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

// Package services holds the stateful layer between the HTTP surface and the
// workflow chains: the in-process project registry, asset access with signed
// URLs, and attempt-history reads from BigQuery.
package services

import (
	"fmt"
	"sync"

	"github.com/promoforge/promo-video-engine/internal/core/model"
	"github.com/promoforge/promo-video-engine/internal/core/quality"
)

// projectState is everything the registry tracks for one project. Scene
// requests are immutable after creation; assets, analyses, and rankings are
// replaced as attempts complete. Superseded asset locators are never
// discarded, they move to the superseded list so a revert is always possible.
type projectState struct {
	requests    map[int]*model.SceneRequest
	assessments map[int]*model.ComplexityAssessment
	rankings    map[int]*model.ProviderRanking
	analyses    map[int]*model.QualityAnalysis
	current     map[int]*model.GeneratedAsset
	superseded  map[int][]string
	sceneLocks  map[int]*sync.Mutex
	gate        *quality.Gate
	history     *model.HistoryLog
}

// ProjectRegistry is the process-wide owner of per-project state. All access
// goes through it; workflow commands reach it through the narrow lookup
// interfaces they declare. Each project gets its own quality gate, history
// log, and per-scene locks, so concurrent work on different scenes of the
// same project never serializes on the registry itself.
type ProjectRegistry struct {
	mu       sync.RWMutex
	projects map[string]*projectState
}

func NewProjectRegistry() *ProjectRegistry {
	return &ProjectRegistry{projects: make(map[string]*projectState)}
}

// CreateProject registers a new project with its full scene list. Scene
// indexes must be dense from zero; the quality gate is sized from the count.
func (r *ProjectRegistry) CreateProject(projectID string, requests []model.SceneRequest, thresholds quality.Thresholds) error {
	if projectID == "" {
		return fmt.Errorf("project id must not be empty")
	}
	if len(requests) == 0 {
		return fmt.Errorf("project %s has no scene requests", projectID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.projects[projectID]; exists {
		return fmt.Errorf("project %s already exists", projectID)
	}

	state := &projectState{
		requests:    make(map[int]*model.SceneRequest, len(requests)),
		assessments: make(map[int]*model.ComplexityAssessment),
		rankings:    make(map[int]*model.ProviderRanking),
		analyses:    make(map[int]*model.QualityAnalysis),
		current:     make(map[int]*model.GeneratedAsset),
		superseded:  make(map[int][]string),
		sceneLocks:  make(map[int]*sync.Mutex, len(requests)),
		gate:        quality.NewGate(projectID, len(requests), thresholds),
		history:     &model.HistoryLog{},
	}
	for i := range requests {
		req := requests[i]
		if req.SceneIndex != i {
			return fmt.Errorf("scene request %d carries index %d, indexes must be dense from zero", i, req.SceneIndex)
		}
		req.ProjectID = projectID
		state.requests[i] = &req
		state.sceneLocks[i] = &sync.Mutex{}
	}
	r.projects[projectID] = state
	return nil
}

// lookup is safe for the immutable parts of a project (requests, locks,
// gate, history). Reads of mutable maps must hold r.mu across the access.
func (r *ProjectRegistry) lookup(projectID string) (*projectState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.projects[projectID]
	return state, ok
}

// Exists reports whether a project is registered.
func (r *ProjectRegistry) Exists(projectID string) bool {
	_, ok := r.lookup(projectID)
	return ok
}

// SceneRequest resolves the immutable request for one scene.
func (r *ProjectRegistry) SceneRequest(projectID string, sceneIndex int) (*model.SceneRequest, bool) {
	state, ok := r.lookup(projectID)
	if !ok {
		return nil, false
	}
	req, ok := state.requests[sceneIndex]
	return req, ok
}

// SceneRequests returns the project's requests in scene order.
func (r *ProjectRegistry) SceneRequests(projectID string) ([]*model.SceneRequest, bool) {
	state, ok := r.lookup(projectID)
	if !ok {
		return nil, false
	}
	out := make([]*model.SceneRequest, len(state.requests))
	for i := 0; i < len(state.requests); i++ {
		out[i] = state.requests[i]
	}
	return out, true
}

// Gate resolves the project's quality gate.
func (r *ProjectRegistry) Gate(projectID string) (*quality.Gate, bool) {
	state, ok := r.lookup(projectID)
	if !ok {
		return nil, false
	}
	return state.gate, true
}

// History resolves the project's append-only attempt log.
func (r *ProjectRegistry) History(projectID string) (*model.HistoryLog, bool) {
	state, ok := r.lookup(projectID)
	if !ok {
		return nil, false
	}
	return state.history, true
}

// SceneLock returns the mutex serializing regeneration of one scene.
// Different scenes regenerate concurrently; two regenerations of the same
// scene never interleave.
func (r *ProjectRegistry) SceneLock(projectID string, sceneIndex int) (*sync.Mutex, bool) {
	state, ok := r.lookup(projectID)
	if !ok {
		return nil, false
	}
	lock, ok := state.sceneLocks[sceneIndex]
	return lock, ok
}

// SetAssessment stores the complexity assessment for a scene.
func (r *ProjectRegistry) SetAssessment(projectID string, sceneIndex int, a *model.ComplexityAssessment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state, ok := r.projects[projectID]; ok {
		state.assessments[sceneIndex] = a
	}
}

// Assessment resolves the stored complexity assessment for a scene.
func (r *ProjectRegistry) Assessment(projectID string, sceneIndex int) (*model.ComplexityAssessment, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.projects[projectID]
	if !ok {
		return nil, false
	}
	a, ok := state.assessments[sceneIndex]
	return a, ok
}

// SetRanking stores the provider ranking computed for a scene.
func (r *ProjectRegistry) SetRanking(projectID string, sceneIndex int, ranking *model.ProviderRanking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state, ok := r.projects[projectID]; ok {
		state.rankings[sceneIndex] = ranking
	}
}

// Ranking resolves the stored provider ranking for a scene.
func (r *ProjectRegistry) Ranking(projectID string, sceneIndex int) (*model.ProviderRanking, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.projects[projectID]
	if !ok {
		return nil, false
	}
	ranking, ok := state.rankings[sceneIndex]
	return ranking, ok
}

// SetAnalysis stores the latest quality analysis for a scene. The visual
// facts it carries (scene summary, obstruction map) feed transition planning
// and overlay placement.
func (r *ProjectRegistry) SetAnalysis(projectID string, sceneIndex int, analysis *model.QualityAnalysis) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state, ok := r.projects[projectID]; ok {
		state.analyses[sceneIndex] = analysis
	}
}

// Analysis resolves the latest quality analysis for a scene.
func (r *ProjectRegistry) Analysis(projectID string, sceneIndex int) (*model.QualityAnalysis, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.projects[projectID]
	if !ok {
		return nil, false
	}
	analysis, ok := state.analyses[sceneIndex]
	return analysis, ok
}

// SetCurrentAsset installs a new asset for its scene and returns the locator
// it superseded, empty when the scene had none. The superseded locator is
// retained for revert.
func (r *ProjectRegistry) SetCurrentAsset(projectID string, asset *model.GeneratedAsset) (prevLocator string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.projects[projectID]
	if !ok {
		return "", fmt.Errorf("project %s not found", projectID)
	}
	if _, ok := state.requests[asset.SceneIndex]; !ok {
		return "", fmt.Errorf("project %s has no scene %d", projectID, asset.SceneIndex)
	}
	if prev, ok := state.current[asset.SceneIndex]; ok {
		prevLocator = prev.Locator
		state.superseded[asset.SceneIndex] = append(state.superseded[asset.SceneIndex], prev.Locator)
	}
	state.current[asset.SceneIndex] = asset
	return prevLocator, nil
}

// CurrentAsset resolves the active asset for a scene.
func (r *ProjectRegistry) CurrentAsset(projectID string, sceneIndex int) (*model.GeneratedAsset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.projects[projectID]
	if !ok {
		return nil, false
	}
	asset, ok := state.current[sceneIndex]
	return asset, ok
}

// SupersededLocators returns the replaced asset locators for a scene, oldest
// first.
func (r *ProjectRegistry) SupersededLocators(projectID string, sceneIndex int) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.projects[projectID]
	if !ok {
		return nil
	}
	out := make([]string, len(state.superseded[sceneIndex]))
	copy(out, state.superseded[sceneIndex])
	return out
}
