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

// Package cloud holds the application configuration structures, loaded from
// hierarchical TOML files, plus the clients and wrappers for the Google Cloud
// services the engine talks to: Cloud Storage for assets, Pub/Sub for asset
// notifications, BigQuery for attempt history analytics, and the GenAI API
// for vision analysis.
package cloud

import (
	"sort"

	"google.golang.org/genai"

	"github.com/promoforge/promo-video-engine/internal/core/model"
	"github.com/promoforge/promo-video-engine/internal/core/quality"
	"github.com/promoforge/promo-video-engine/internal/core/regen"
	"github.com/promoforge/promo-video-engine/internal/core/render"
)

// DefaultSafetySettings defines the content safety thresholds for the vision
// analysis models. Non-restrictive: the inputs are the project's own rendered
// assets, not untrusted user content.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// BigQueryDataSource names the dataset and table where regeneration attempt
// history is persisted for analytics.
type BigQueryDataSource struct {
	DatasetName   string `toml:"dataset"`
	AttemptsTable string `toml:"attempts_table"`
}

// PromptTemplates holds the text templates sent to the GenAI models. The
// quality prompt receives the scene request and a few-shot example; the
// summary prompt extracts colors, lighting and obstruction regions.
type PromptTemplates struct {
	QualityPrompt string `toml:"quality"`
	SummaryPrompt string `toml:"summary"`
}

// VertexAiLLMModel configures one Vertex AI model used by the analyzer.
type VertexAiLLMModel struct {
	Model              string  `toml:"model"`
	SystemInstructions string  `toml:"system_instructions"`
	Temperature        float32 `toml:"temperature"`
	TopP               float32 `toml:"top_p"`
	TopK               float32 `toml:"top_k"`
	MaxTokens          int32   `toml:"max_tokens"`
	OutputFormat       string  `toml:"output_format"`
	RateLimit          int     `toml:"rate_limit"` // requests per second
}

// TopicSubscription configures a single Pub/Sub subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`
	DeadLetterTopic  string `toml:"dead_letter_topic"`
	TimeoutInSeconds int    `toml:"timeout_in_seconds"`
}

// Storage names the GCS buckets the engine reads and writes, and the local
// scratch directory render chunks land in before upload.
type Storage struct {
	AssetBucket  string `toml:"asset_bucket"`  // generated scene assets
	UploadBucket string `toml:"upload_bucket"` // user reference/stock uploads
	RenderBucket string `toml:"render_bucket"` // stitched render outputs
	WorkDir      string `toml:"work_dir"`      // local scratch for ffmpeg
	FFmpegPath   string `toml:"ffmpeg_path"`
}

// Config is the root of the application configuration, loaded from
// .env.toml plus a runtime-specific override file.
type Config struct {
	Application struct {
		Name                      string `toml:"name"`
		GoogleProjectId           string `toml:"google_project_id"`
		GoogleLocation            string `toml:"location"`
		ThreadPoolSize            int    `toml:"thread_pool_size"` // bounds concurrent scene generations
		SignerServiceAccountEmail string `toml:"signer_service_account_email"`
		GenerateTimeoutSeconds    int    `toml:"generate_timeout_seconds"` // per-generation deadline
	} `toml:"application"`
	Storage            Storage                          `toml:"storage"`
	BigQueryDataSource BigQueryDataSource               `toml:"big_query_data_source"`
	PromptTemplates    PromptTemplates                  `toml:"prompt_templates"`
	TopicSubscriptions map[string]TopicSubscription     `toml:"topic_subscriptions"`
	AgentModels        map[string]VertexAiLLMModel      `toml:"agent_models"`
	Providers          map[string]model.ProviderProfile `toml:"providers"` // overrides the built-in catalogue when set
	Quality            quality.Thresholds               `toml:"quality"`
	Regeneration       regen.Config                     `toml:"regeneration"`
	Render             render.Config                    `toml:"render"`
}

// NewConfig creates an initialized Config. Maps must be allocated before the
// TOML decoder populates them.
func NewConfig() *Config {
	return &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		AgentModels:        make(map[string]VertexAiLLMModel),
		Providers:          make(map[string]model.ProviderProfile),
	}
}

// ProviderCatalog returns the configured provider profiles in a deterministic
// order, falling back to the built-in catalogue when none are configured.
func (c *Config) ProviderCatalog() []*model.ProviderProfile {
	if len(c.Providers) == 0 {
		return model.DefaultProviderCatalog()
	}
	out := make([]*model.ProviderProfile, 0, len(c.Providers))
	for key := range c.Providers {
		p := c.Providers[key]
		if p.ID == "" {
			p.ID = key
		}
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
