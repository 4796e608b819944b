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

// Entry command for workflows triggered by a generated asset landing in the
// asset bucket. GCS publishes an object-change notification to Pub/Sub; this
// command parses it, recovers which project and scene the asset belongs to
// from the object layout, and hands a compact AssetRef to the rest of the
// chain.
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/promoforge/promo-video-engine/internal/cloud"
	"github.com/promoforge/promo-video-engine/internal/core/cor"
)

// AssetTriggerToRef parses a GCS Pub/Sub notification into an AssetRef.
type AssetTriggerToRef struct {
	cor.BaseCommand
}

// NewAssetTriggerToRef constructs the command.
func NewAssetTriggerToRef(name string) *AssetTriggerToRef {
	return &AssetTriggerToRef{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute parses the raw notification JSON from the chain input and emits
// both the simplified GCSObject and the scene-addressed AssetRef.
func (c *AssetTriggerToRef) Execute(context cor.Context) {
	in := context.Get(c.GetInputParam()).(string)

	var out cloud.GCSPubSubNotification
	err := json.Unmarshal([]byte(in), &out)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to unmarshal GCS notification: %w", err))
		return
	}

	projectID, sceneIndex, err := ParseAssetObjectName(out.Name)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)

	obj := &cloud.GCSObject{Bucket: out.Bucket, Name: out.Name, MIMEType: out.ContentType}
	ref := &AssetRef{
		ProjectID:  projectID,
		SceneIndex: sceneIndex,
		Locator:    fmt.Sprintf("gs://%s/%s", out.Bucket, out.Name),
		MIMEType:   out.ContentType,
	}

	context.Add(cloud.GetGCSObjectName(), obj)
	context.Add(GetAssetRefParameterName(), ref)
	context.Add(c.GetOutputParam(), ref)
}
