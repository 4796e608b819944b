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

package services

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/h2non/filetype"

	"github.com/promoforge/promo-video-engine/internal/cloud"
	"github.com/promoforge/promo-video-engine/internal/core/model"
)

// DefaultSignedURLExpiry bounds how long a streaming URL stays valid.
const DefaultSignedURLExpiry = 15 * time.Minute

// AssetService mediates access to stored scene assets: uploads of reference
// material, locator resolution, and time-limited signed URLs so a browser
// can stream private objects without credentials.
type AssetService struct {
	Registry *ProjectRegistry
	Store    *cloud.GCSObjectStore
}

// AssetObjectName builds the canonical object name for a scene asset.
func AssetObjectName(projectID string, sceneIndex int, fileName string) string {
	return fmt.Sprintf("projects/%s/scenes/%d/%s", projectID, sceneIndex, path.Base(fileName))
}

// Upload sniffs the payload type, rejects anything that is not video or
// image content, and stores it under the scene's canonical path. Reference
// images uploaded this way feed reference-based regeneration.
func (s *AssetService) Upload(ctx context.Context, projectID string, sceneIndex int, fileName string, data []byte) (string, error) {
	if _, ok := s.Registry.SceneRequest(projectID, sceneIndex); !ok {
		return "", fmt.Errorf("project %s has no scene %d", projectID, sceneIndex)
	}

	kind, err := filetype.Match(data)
	if err != nil {
		return "", fmt.Errorf("failed to sniff upload type: %w", err)
	}
	if !filetype.IsVideo(data) && !filetype.IsImage(data) {
		return "", fmt.Errorf("unsupported upload type %q, only video and image content is accepted", kind.MIME.Value)
	}

	locator, err := s.Store.Put(ctx, AssetObjectName(projectID, sceneIndex, fileName), data)
	if err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	return locator, nil
}

// StreamURL returns a signed GET URL for the scene's active asset.
func (s *AssetService) StreamURL(ctx context.Context, projectID string, sceneIndex int, expires time.Duration) (string, error) {
	asset, ok := s.Registry.CurrentAsset(projectID, sceneIndex)
	if !ok {
		return "", fmt.Errorf("project %s scene %d has no active asset", projectID, sceneIndex)
	}
	if expires <= 0 {
		expires = DefaultSignedURLExpiry
	}
	return s.Store.SignedURL(ctx, asset.Locator, expires)
}

// SignLocator returns a signed GET URL for an arbitrary stored locator, used
// to stream superseded assets during review.
func (s *AssetService) SignLocator(ctx context.Context, locator string, expires time.Duration) (string, error) {
	if expires <= 0 {
		expires = DefaultSignedURLExpiry
	}
	return s.Store.SignedURL(ctx, locator, expires)
}

// SniffMIME reports the detected MIME type of a payload, falling back to
// video/mp4 for payloads the matcher does not recognize.
func SniffMIME(data []byte) string {
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	return "video/mp4"
}

// InstallAsset records a generated asset as the scene's active one and
// returns the locator it replaced.
func (s *AssetService) InstallAsset(projectID string, asset *model.GeneratedAsset) (string, error) {
	return s.Registry.SetCurrentAsset(projectID, asset)
}
