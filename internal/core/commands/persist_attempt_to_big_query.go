// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"fmt"
	"log/slog"

	"cloud.google.com/go/bigquery"

	"github.com/promoforge/promo-video-engine/internal/core/cor"
	"github.com/promoforge/promo-video-engine/internal/core/model"
)

// AttemptPersistToBigQuery streams a recorded attempt into the analytics
// table so attempt history survives process restarts and feeds reporting.
type AttemptPersistToBigQuery struct {
	cor.BaseCommand
	client       *bigquery.Client
	dataset      string
	table        string
	attemptParam string
}

func NewAttemptPersistToBigQuery(name string, client *bigquery.Client, dataset string, table string, attemptParam string) *AttemptPersistToBigQuery {
	return &AttemptPersistToBigQuery{BaseCommand: *cor.NewBaseCommand(name), client: client, dataset: dataset, table: table, attemptParam: attemptParam}
}

// IsExecutable requires a recorded attempt in the context and a wired
// client. Local runs without BigQuery keep the in-memory log only.
func (s *AttemptPersistToBigQuery) IsExecutable(context cor.Context) bool {
	return context != nil && s.client != nil && context.Get(s.attemptParam) != nil
}

func (s *AttemptPersistToBigQuery) Execute(context cor.Context) {
	attempt := context.Get(s.attemptParam).(*model.RegenAttempt)

	i := s.client.Dataset(s.dataset).Table(s.table).Inserter()

	if err := i.Put(context.GetContext(), attempt); err != nil {
		slog.ErrorContext(context.GetContext(), "failed to persist attempt",
			"project", attempt.ProjectID,
			"scene", attempt.SceneIndex,
			"error", err)
		s.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(s.GetName(), fmt.Errorf("bigquery insert failed for attempt %s: %w", attempt.ID, err))
		return
	}

	s.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(cor.CtxOut, attempt)
}
