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

// Package main contains the setup and initialization logic for the engine's
// process-wide state: configuration, Google Cloud service clients, the
// project registry, the workflow pipelines, and the storage listeners.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"

	credentials "cloud.google.com/go/iam/credentials/apiv1"

	"github.com/promoforge/promo-video-engine/internal/cloud"
	"github.com/promoforge/promo-video-engine/internal/core/commands"
	"github.com/promoforge/promo-video-engine/internal/core/cor"
	"github.com/promoforge/promo-video-engine/internal/core/model"
	"github.com/promoforge/promo-video-engine/internal/core/placement"
	"github.com/promoforge/promo-video-engine/internal/core/providers"
	"github.com/promoforge/promo-video-engine/internal/core/render"
	"github.com/promoforge/promo-video-engine/internal/core/services"
	"github.com/promoforge/promo-video-engine/internal/core/transition"
	"github.com/promoforge/promo-video-engine/internal/core/workflow"
)

// StateManager holds the shared dependencies for the server process.
type StateManager struct {
	config      *cloud.Config
	cloud       *cloud.ServiceClients
	registry    *services.ProjectRegistry
	assets      *services.AssetService
	composition *services.CompositionService
	history     *services.HistoryService
	generation  *workflow.SceneGenerationWorkflow
	regen       *workflow.RegenerationWorkflow
	analysis    *workflow.AssetAnalysisWorkflow
	publish     cor.Chain
}

var state = &StateManager{}

// SetupOS points the configuration loader at the configs directory and the
// local runtime overlay.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "local")
	return err
}

// GetConfig loads the configuration once and caches it.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup os environment: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// InitState builds every service the server needs and starts the
// storage-notification listeners.
func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}

	iamClient, err := credentials.NewIamCredentialsClient(ctx)
	if err != nil {
		panic(err)
	}
	cloudClients.IAMClient = iamClient
	state.cloud = cloudClients

	assetStore := cloud.NewGCSObjectStore(
		cloudClients.StorageClient,
		iamClient,
		config.Storage.AssetBucket,
		config.Application.SignerServiceAccountEmail)

	state.registry = services.NewProjectRegistry()
	state.assets = &services.AssetService{
		Registry: state.registry,
		Store:    assetStore,
	}
	state.history = &services.HistoryService{
		BigqueryClient: cloudClients.BigQueryClient,
		DatasetName:    config.BigQueryDataSource.DatasetName,
		AttemptsTable:  config.BigQueryDataSource.AttemptsTable,
	}

	engine := render.NewFFmpegEngine(config.Storage.FFmpegPath, config.Storage.WorkDir)
	state.composition = &services.CompositionService{
		Registry: state.registry,
		Planner:  transition.NewPlanner(),
		Resolver: placement.NewResolver(slog.Default()),
		Render:   render.NewOrchestrator(engine, config.Render, slog.Default()),
	}

	// The render engine reads local files, so remote scene assets are
	// staged down before compositing and the stitched output is published
	// back to the render bucket.
	stage := commands.NewGCSToTempFile("scene-asset-to-temp-file", cloudClients.StorageClient, "scene-asset-")
	state.composition.Stage = func(ctx context.Context, locator string) (string, error) {
		bucket, object, found := strings.Cut(strings.TrimPrefix(locator, "gs://"), "/")
		if !found {
			return locator, nil
		}
		chainCtx := cor.NewBaseContext()
		chainCtx.SetContext(ctx)
		chainCtx.Add(cor.CtxIn, &cloud.GCSObject{Bucket: bucket, Name: object})
		stage.Execute(chainCtx)
		for _, err := range chainCtx.GetErrors() {
			return "", err
		}
		path, _ := chainCtx.Get(stage.GetOutputParam()).(string)
		return path, nil
	}

	publish := cor.NewBaseChain("render-publication")
	publish.AddCommand(commands.NewGCSFileUpload("publish-final-render", cloudClients.StorageClient, config.Storage.RenderBucket))
	state.publish = publish

	providerSet := buildProviders(config, assetStore)
	state.generation = workflow.NewSceneGenerationWorkflow(config, cloudClients, state.registry, providerSet)
	state.regen = workflow.NewRegenerationWorkflow(config, cloudClients, state.registry, providerSet)
	state.analysis = workflow.NewAssetAnalysisWorkflow(config, cloudClients, state.registry, "quality-judge")

	SetupListeners(cloudClients, state.analysis, ctx)
}

// buildProviders wires one provider per catalogue entry. Live backends slot
// in here by id; everything else in the engine treats them uniformly.
func buildProviders(config *cloud.Config, store model.ObjectStore) map[string]model.GenerationProvider {
	return providers.BuildSet(config.ProviderCatalog(), store)
}
