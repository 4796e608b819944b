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

// Package commands provides the concrete Command implementations that the
// workflow chains are assembled from: complexity assessment, provider
// ranking, asset generation, quality analysis, gate decisions, attempt
// recording and persistence, plus GCS transfer steps.
//
// Commands exchange their artifacts through well-known context parameter
// names so any chain ordering can find them.
package commands

import (
	"fmt"
	"strconv"
	"strings"
)

// Context parameter names shared across chains.
const (
	sceneRequestParam = "__SCENE_REQUEST__"
	complexityParam   = "__COMPLEXITY__"
	rankingParam      = "__RANKING__"
	assetParam        = "__ASSET__"
	analysisParam     = "__ANALYSIS__"
	attemptParam      = "__ATTEMPT__"
	assetRefParam     = "__ASSET_REF__"
	strategyParam     = "__STRATEGY__"
	providerParam     = "__PROVIDER__"
	prevLocatorParam  = "__PREV_LOCATOR__"
	outcomeParam      = "__OUTCOME__"
)

func GetSceneRequestParameterName() string { return sceneRequestParam }
func GetComplexityParameterName() string   { return complexityParam }
func GetRankingParameterName() string      { return rankingParam }
func GetAssetParameterName() string        { return assetParam }
func GetAnalysisParameterName() string     { return analysisParam }
func GetAttemptParameterName() string      { return attemptParam }
func GetAssetRefParameterName() string     { return assetRefParam }
func GetStrategyParameterName() string     { return strategyParam }
func GetProviderParameterName() string     { return providerParam }
func GetPrevLocatorParameterName() string  { return prevLocatorParam }
func GetOutcomeParameterName() string      { return outcomeParam }

// AssetRef identifies the scene a stored asset belongs to. Generated assets
// are written under projects/<project>/scenes/<index>/..., so the reference
// can be recovered from the object name alone.
type AssetRef struct {
	ProjectID  string
	SceneIndex int
	Locator    string
	MIMEType   string
}

// ParseAssetObjectName recovers the project id and scene index from an asset
// object name of the form projects/<project>/scenes/<index>/<file>.
func ParseAssetObjectName(name string) (projectID string, sceneIndex int, err error) {
	parts := strings.Split(name, "/")
	if len(parts) < 5 || parts[0] != "projects" || parts[2] != "scenes" {
		return "", 0, fmt.Errorf("object name %q does not follow the asset layout", name)
	}
	idx, err := strconv.Atoi(parts[3])
	if err != nil {
		return "", 0, fmt.Errorf("object name %q has a non-numeric scene index: %w", name, err)
	}
	return parts[1], idx, nil
}
