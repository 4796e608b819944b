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

const (
	// QryAttemptsByProject pulls every persisted generation attempt for one
	// project, oldest first, matching the in-memory log's ordering.
	// Placeholder: attempts table FQN.
	QryAttemptsByProject = "SELECT * FROM `%s` WHERE project_id = @project ORDER BY timestamp asc"

	// QryAttemptsByScene narrows the attempt history to one scene.
	// Placeholder: attempts table FQN.
	QryAttemptsByScene = "SELECT * FROM `%s` WHERE project_id = @project AND scene_index = @scene ORDER BY timestamp asc"

	// QryProviderOutcomes aggregates attempt outcomes per provider across all
	// projects, feeding the provider comparison view.
	// Placeholder: attempts table FQN.
	QryProviderOutcomes = "SELECT provider_id, outcome, COUNT(*) as attempts FROM `%s` GROUP BY provider_id, outcome ORDER BY provider_id"
)
