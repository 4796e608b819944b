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
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/promoforge/promo-video-engine/internal/core/model"
)

// ProviderOutcome is one row of the provider comparison aggregate.
type ProviderOutcome struct {
	ProviderID string `bigquery:"provider_id"`
	Outcome    string `bigquery:"outcome"`
	Attempts   int64  `bigquery:"attempts"`
}

// HistoryService reads persisted generation attempts back out of BigQuery.
// The in-memory log answers hot-path queries; this service serves audit
// views that must survive process restarts.
type HistoryService struct {
	BigqueryClient *bigquery.Client
	DatasetName    string
	AttemptsTable  string
}

// GetFQN returns the dot-separated fully qualified attempts table name.
func (s *HistoryService) GetFQN() string {
	fqn := s.BigqueryClient.Dataset(s.DatasetName).Table(s.AttemptsTable).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", -1)
}

// AttemptsForProject returns every persisted attempt for a project, oldest
// first.
func (s *HistoryService) AttemptsForProject(ctx context.Context, projectID string) ([]*model.RegenAttempt, error) {
	q := s.BigqueryClient.Query(fmt.Sprintf(QryAttemptsByProject, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "project", Value: projectID},
	}
	return s.readAttempts(ctx, q)
}

// AttemptsForScene returns every persisted attempt for one scene, oldest
// first.
func (s *HistoryService) AttemptsForScene(ctx context.Context, projectID string, sceneIndex int) ([]*model.RegenAttempt, error) {
	q := s.BigqueryClient.Query(fmt.Sprintf(QryAttemptsByScene, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "project", Value: projectID},
		{Name: "scene", Value: sceneIndex},
	}
	return s.readAttempts(ctx, q)
}

func (s *HistoryService) readAttempts(ctx context.Context, q *bigquery.Query) ([]*model.RegenAttempt, error) {
	out := make([]*model.RegenAttempt, 0)
	itr, err := q.Read(ctx)
	if err != nil {
		return out, fmt.Errorf("failed to read from BigQuery: %w", err)
	}
	for {
		r := &model.RegenAttempt{}
		err := itr.Next(r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return out, fmt.Errorf("failed to iterate results: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}

// ProviderOutcomes aggregates persisted attempts per provider and outcome.
func (s *HistoryService) ProviderOutcomes(ctx context.Context) ([]*ProviderOutcome, error) {
	out := make([]*ProviderOutcome, 0)
	q := s.BigqueryClient.Query(fmt.Sprintf(QryProviderOutcomes, s.GetFQN()))
	itr, err := q.Read(ctx)
	if err != nil {
		return out, fmt.Errorf("failed to read from BigQuery: %w", err)
	}
	for {
		r := &ProviderOutcome{}
		err := itr.Next(r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return out, fmt.Errorf("failed to iterate results: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}
