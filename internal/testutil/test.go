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

// Package test provides shared helpers for the engine's test suite: a test
// configuration singleton, canned storage notifications, and in-memory fakes
// for the external collaborators (generation providers, object store,
// render engine).
package test

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/promoforge/promo-video-engine/internal/cloud"
	"github.com/promoforge/promo-video-engine/internal/core/model"
)

// StateManager caches the test configuration between test runs.
type StateManager struct {
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is set.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("Error reading config file: %v", err)
	}
}

// GetTestAssetMessageText simulates the storage notification for a scene
// asset finalized under the asset bucket's canonical layout.
func GetTestAssetMessageText() string {
	return `{
  "kind": "storage#object",
  "id": "promo_assets/projects/demo-promo/scenes/0/asset-001.mp4/1728615848664286",
  "selfLink": "https://www.googleapis.com/storage/v1/b/promo_assets/o/projects%2Fdemo-promo%2Fscenes%2F0%2Fasset-001.mp4",
  "name": "projects/demo-promo/scenes/0/asset-001.mp4",
  "bucket": "promo_assets",
  "generation": "1728615848664286",
  "metageneration": "1",
  "contentType": "video/mp4",
  "timeCreated": "2024-10-11T03:04:08.672Z",
  "updated": "2024-10-11T03:04:08.672Z",
  "storageClass": "STANDARD",
  "timeStorageClassUpdated": "2024-10-11T03:04:08.672Z",
  "size": "10443709",
  "md5Hash": "67c1rAU+1RYZzK5zp8iBkA==",
  "mediaLink": "https://storage.googleapis.com/download/storage/v1/b/promo_assets/o/projects%2Fdemo-promo%2Fscenes%2F0%2Fasset-001.mp4?generation=1728615848664286&alt=media",
  "crc32c": "IYeSTw==",
  "etag": "CN658+yrhYkDEAE="
}`
}

// SetupOS points the configuration loader at the test TOML overlay.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig is the singleton accessor for the test configuration.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// MemoryObjectStore is an in-memory model.ObjectStore.
type MemoryObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryObjectStore() *MemoryObjectStore {
	return &MemoryObjectStore{objects: make(map[string][]byte)}
}

func (s *MemoryObjectStore) Put(_ context.Context, name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = data
	return "mem://" + name, nil
}

func (s *MemoryObjectStore) Get(_ context.Context, locator string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[strings.TrimPrefix(locator, "mem://")]
	if !ok {
		return nil, fmt.Errorf("object %s not found", locator)
	}
	return data, nil
}

// Len reports how many objects the store holds.
func (s *MemoryObjectStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// FakeProvider is a scriptable model.GenerationProvider. Err, when set, is
// returned for every call; otherwise each call succeeds with a fresh
// locator.
type FakeProvider struct {
	ProviderID string
	Err        error

	mu    sync.Mutex
	calls int
}

func (p *FakeProvider) ID() string { return p.ProviderID }

func (p *FakeProvider) Generate(ctx context.Context, req model.SceneRequest) (*model.GeneratedAsset, error) {
	if err := ctx.Err(); err != nil {
		return nil, &model.TransientError{Err: err}
	}
	p.mu.Lock()
	p.calls++
	n := p.calls
	p.mu.Unlock()

	if p.Err != nil {
		return nil, p.Err
	}
	return &model.GeneratedAsset{
		SceneIndex: req.SceneIndex,
		ProviderID: p.ProviderID,
		Locator:    fmt.Sprintf("mem://projects/%s/scenes/%d/%s-%d.mp4", req.ProjectID, req.SceneIndex, p.ProviderID, n),
		Duration:   req.Duration,
	}, nil
}

// Calls reports how many times Generate ran.
func (p *FakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// FakeRenderEngine renders chunks in memory and records the frame ranges it
// was asked for. FailFrames marks chunk start frames that should error.
type FakeRenderEngine struct {
	FailFrames map[int]int // start frame -> failures remaining

	mu     sync.Mutex
	ranges [][2]int
}

func (e *FakeRenderEngine) RenderChunk(_ context.Context, _ string, startFrame, endFrame int) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ranges = append(e.ranges, [2]int{startFrame, endFrame})
	if remaining, ok := e.FailFrames[startFrame]; ok && remaining > 0 {
		e.FailFrames[startFrame] = remaining - 1
		return "", fmt.Errorf("chunk render failed at frame %d", startFrame)
	}
	return fmt.Sprintf("mem://chunks/%d-%d.mp4", startFrame, endFrame), nil
}

func (e *FakeRenderEngine) Stitch(_ context.Context, locators []string) (string, error) {
	return fmt.Sprintf("mem://final/%d-parts.mp4", len(locators)), nil
}

// Ranges returns every frame range RenderChunk received.
func (e *FakeRenderEngine) Ranges() [][2]int {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][2]int, len(e.ranges))
	copy(out, e.ranges)
	return out
}

// NewSceneRequests builds a dense scene list for one project.
func NewSceneRequests(projectID string, prompts ...string) []model.SceneRequest {
	out := make([]model.SceneRequest, len(prompts))
	for i, prompt := range prompts {
		out[i] = model.SceneRequest{
			ProjectID:   projectID,
			SceneIndex:  i,
			SceneType:   model.SceneTypeFeature,
			ContentType: model.ContentTypeProduct,
			Prompt:      prompt,
			Duration:    5,
		}
	}
	return out
}
