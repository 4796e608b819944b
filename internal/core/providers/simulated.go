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

// Package providers contains GenerationProvider implementations. The engine
// addresses providers by id; real generation backends sit behind the same
// interface, so the simulated provider here is what local runs and tests
// wire in place of live endpoints.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/promoforge/promo-video-engine/internal/core/model"
)

// Simulated is a GenerationProvider that persists a stub asset to the object
// store instead of calling a live backend. It honors cancellation the same
// way a real provider must, so timeout handling upstream is exercised
// end to end.
type Simulated struct {
	profile *model.ProviderProfile
	store   model.ObjectStore
	latency time.Duration
}

// NewSimulated builds a simulated provider for one catalogue profile.
func NewSimulated(profile *model.ProviderProfile, store model.ObjectStore, latency time.Duration) *Simulated {
	return &Simulated{profile: profile, store: store, latency: latency}
}

func (p *Simulated) ID() string { return p.profile.ID }

// Generate writes a JSON stand-in for the rendered scene and returns its
// locator. A cancelled context surfaces as a transient error, matching what
// callers expect from a timed-out live call.
func (p *Simulated) Generate(ctx context.Context, req model.SceneRequest) (*model.GeneratedAsset, error) {
	if p.latency > 0 {
		select {
		case <-ctx.Done():
			return nil, &model.TransientError{Err: ctx.Err()}
		case <-time.After(p.latency):
		}
	}

	payload, err := json.Marshal(map[string]interface{}{
		"provider": p.profile.ID,
		"prompt":   req.Prompt,
		"duration": req.Duration,
	})
	if err != nil {
		return nil, &model.PermanentError{Err: err}
	}

	name := fmt.Sprintf("projects/%s/scenes/%d/%s.mp4", req.ProjectID, req.SceneIndex, uuid.NewString())
	locator, err := p.store.Put(ctx, name, payload)
	if err != nil {
		return nil, &model.TransientError{Err: fmt.Errorf("failed to store generated asset: %w", err)}
	}

	return &model.GeneratedAsset{
		SceneIndex: req.SceneIndex,
		ProviderID: p.profile.ID,
		Locator:    locator,
		Duration:   req.Duration,
		Cost:       p.profile.CostPerSecond * req.Duration,
	}, nil
}

// BuildSet wires one simulated provider per catalogue entry, keyed by id.
func BuildSet(catalog []*model.ProviderProfile, store model.ObjectStore) map[string]model.GenerationProvider {
	out := make(map[string]model.GenerationProvider, len(catalog))
	for _, profile := range catalog {
		out[profile.ID] = NewSimulated(profile, store, 0)
	}
	return out
}
