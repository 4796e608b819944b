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

// Package main contains the logic for starting the Pub/Sub listeners that
// react to asset writes in the storage bucket.
package main

import (
	"context"

	"github.com/promoforge/promo-video-engine/internal/cloud"
	"github.com/promoforge/promo-video-engine/internal/core/workflow"
)

// SetupListeners attaches the asset analysis workflow to the storage
// notification topic. Every object finalized under the asset bucket flows
// through quality analysis and the project's gate.
func SetupListeners(cloudClients *cloud.ServiceClients, assetAnalysis *workflow.AssetAnalysisWorkflow, ctx context.Context) {
	cloudClients.PubSubListeners["AssetTopic"].SetCommand(assetAnalysis)
	cloudClients.PubSubListeners["AssetTopic"].Listen(ctx)
}
