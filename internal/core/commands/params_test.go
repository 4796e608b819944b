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

package commands_test

import (
	"testing"

	"github.com/promoforge/promo-video-engine/internal/core/commands"
	"github.com/stretchr/testify/assert"
)

// TestParseAssetObjectName covers the canonical asset layout and the
// malformed shapes the parser must refuse.
func TestParseAssetObjectName(t *testing.T) {
	projectID, sceneIndex, err := commands.ParseAssetObjectName("projects/demo-promo/scenes/2/asset-001.mp4")
	assert.NoError(t, err)
	assert.Equal(t, "demo-promo", projectID)
	assert.Equal(t, 2, sceneIndex)

	// Nested file names keep the scene addressing intact.
	projectID, sceneIndex, err = commands.ParseAssetObjectName("projects/p1/scenes/0/takes/take-3.mp4")
	assert.NoError(t, err)
	assert.Equal(t, "p1", projectID)
	assert.Equal(t, 0, sceneIndex)

	for _, name := range []string{
		"",
		"uploads/demo-promo/asset.mp4",
		"projects/demo-promo/asset.mp4",
		"projects/demo-promo/scenes/two/asset.mp4",
		"projects/demo-promo/scenes/3",
	} {
		_, _, err = commands.ParseAssetObjectName(name)
		assert.Error(t, err, "expected %q to be rejected", name)
	}
}
