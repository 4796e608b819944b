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

// Package main contains the statistics routes backed by the persisted
// attempt history.
package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Dashboard exposes aggregate views over the persisted attempt history.
func Dashboard(r *gin.RouterGroup) {
	stats := r.Group("/stats")
	{
		// GET /stats/providers aggregates attempt outcomes per provider
		// across all projects.
		stats.GET("/providers", func(c *gin.Context) {
			outcomes, err := state.history.ProviderOutcomes(c)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, outcomes)
		})
	}
}
