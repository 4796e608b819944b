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
	"context"
	"testing"

	"github.com/promoforge/promo-video-engine/internal/cloud"
	"github.com/promoforge/promo-video-engine/internal/core/commands"
	"github.com/promoforge/promo-video-engine/internal/core/cor"
	test "github.com/promoforge/promo-video-engine/internal/testutil"
	"github.com/stretchr/testify/assert"
)

// TestAssetTriggerToRef feeds the command a canned GCS notification and
// expects a scene-addressed AssetRef plus the simplified object handle.
func TestAssetTriggerToRef(t *testing.T) {
	cmd := commands.NewAssetTriggerToRef("asset-trigger-to-ref")

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, test.GetTestAssetMessageText())

	assert.True(t, cmd.IsExecutable(chainCtx))
	cmd.Execute(chainCtx)
	assert.False(t, chainCtx.HasErrors())

	ref, ok := chainCtx.Get(commands.GetAssetRefParameterName()).(*commands.AssetRef)
	assert.True(t, ok)
	assert.Equal(t, "demo-promo", ref.ProjectID)
	assert.Equal(t, 0, ref.SceneIndex)
	assert.Equal(t, "gs://promo_assets/projects/demo-promo/scenes/0/asset-001.mp4", ref.Locator)
	assert.Equal(t, "video/mp4", ref.MIMEType)

	obj, ok := chainCtx.Get(cloud.GetGCSObjectName()).(*cloud.GCSObject)
	assert.True(t, ok)
	assert.Equal(t, "promo_assets", obj.Bucket)
}

// TestAssetTriggerToRefRejectsForeignObject checks an object outside the
// project layout records an error rather than a ref.
func TestAssetTriggerToRefRejectsForeignObject(t *testing.T) {
	cmd := commands.NewAssetTriggerToRef("asset-trigger-to-ref")

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	chainCtx.Add(cor.CtxIn, `{"bucket":"promo_assets","name":"tmp/scratch.mp4","contentType":"video/mp4"}`)

	cmd.Execute(chainCtx)
	assert.True(t, chainCtx.HasErrors())
	assert.Nil(t, chainCtx.Get(commands.GetAssetRefParameterName()))
}
