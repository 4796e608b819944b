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

// Package main is the entry point for the promo video engine server.
//
// The server exposes a REST API over the decision layer: project creation
// kicks off concurrent scene generation, storage notifications drive quality
// analysis through the Pub/Sub listeners, and the remaining routes cover
// review actions, regeneration, composition planning, and chunked rendering.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/promoforge/promo-video-engine/internal/cloud"
	"github.com/promoforge/promo-video-engine/internal/core/cor"
	"github.com/promoforge/promo-video-engine/internal/core/model"
	"github.com/promoforge/promo-video-engine/internal/core/regen"
	"github.com/promoforge/promo-video-engine/internal/telemetry"
)

func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()

	_, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	InitState(ctx)
	slog.Info("Initialized State")

	r := gin.Default()
	r.Use(otelgin.Middleware("promo-video-engine"))
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		ProjectRouter(apiV1)
		RenderRouter(apiV1)
		FileUpload(apiV1)
		Dashboard(apiV1)
	}

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      r,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen: ", "error", err)
		}
	}()
	slog.Info("Server Ready on port 8080")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}

	log.Println("Server exiting")
}

// createProjectRequest is the POST /projects payload.
type createProjectRequest struct {
	ProjectID string               `json:"project_id" binding:"required"`
	Scenes    []model.SceneRequest `json:"scenes" binding:"required"`
}

// sceneParam parses the :scene_id path segment.
func sceneParam(c *gin.Context) (int, bool) {
	idx, err := strconv.Atoi(c.Param("scene_id"))
	if err != nil || idx < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scene_id must be a non-negative integer"})
		return 0, false
	}
	return idx, true
}

// ProjectRouter defines the project lifecycle routes: creation, per-scene
// review actions, regeneration, composition planning, and reporting.
func ProjectRouter(r *gin.RouterGroup) {
	projects := r.Group("/projects")
	{
		// POST /projects creates a project and starts generating all of its
		// scenes in the background.
		projects.POST("", func(c *gin.Context) {
			var req createProjectRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := state.registry.CreateProject(req.ProjectID, req.Scenes, state.config.Quality); err != nil {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}

			requests, _ := state.registry.SceneRequests(req.ProjectID)
			go func() {
				if err := state.generation.RunProject(context.Background(), requests); err != nil {
					slog.Error("project generation finished with failures",
						"project", req.ProjectID,
						"error", err)
				}
			}()
			c.JSON(http.StatusAccepted, gin.H{"project_id": req.ProjectID, "scenes": len(req.Scenes)})
		})

		// GET /projects/:id/report returns the aggregate quality report.
		projects.GET("/:id/report", func(c *gin.Context) {
			gate, ok := state.registry.Gate(c.Param("id"))
			if !ok {
				c.Status(http.StatusNotFound)
				return
			}
			c.JSON(http.StatusOK, gate.Report())
		})

		// GET /projects/:id/scenes lists every scene's quality status.
		projects.GET("/:id/scenes", func(c *gin.Context) {
			gate, ok := state.registry.Gate(c.Param("id"))
			if !ok {
				c.Status(http.StatusNotFound)
				return
			}
			c.JSON(http.StatusOK, gate.Statuses())
		})

		// GET /projects/:id/scenes/:scene_id returns the full decision state
		// for one scene.
		projects.GET("/:id/scenes/:scene_id", func(c *gin.Context) {
			id := c.Param("id")
			idx, ok := sceneParam(c)
			if !ok {
				return
			}
			gate, ok := state.registry.Gate(id)
			if !ok {
				c.Status(http.StatusNotFound)
				return
			}
			status, err := gate.Status(idx)
			if err != nil {
				c.Status(http.StatusNotFound)
				return
			}
			out := gin.H{"status": status}
			if assessment, ok := state.registry.Assessment(id, idx); ok {
				out["complexity"] = assessment
			}
			if ranking, ok := state.registry.Ranking(id, idx); ok {
				out["ranking"] = ranking
			}
			if analysis, ok := state.registry.Analysis(id, idx); ok {
				out["analysis"] = analysis
			}
			if asset, ok := state.registry.CurrentAsset(id, idx); ok {
				out["asset"] = asset
			}
			c.JSON(http.StatusOK, out)
		})

		// POST /projects/:id/scenes/:scene_id/analyze re-runs quality analysis
		// on the scene's current asset, the same path a storage notification
		// takes.
		projects.POST("/:id/scenes/:scene_id/analyze", func(c *gin.Context) {
			id := c.Param("id")
			idx, ok := sceneParam(c)
			if !ok {
				return
			}
			asset, ok := state.registry.CurrentAsset(id, idx)
			if !ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "scene has no asset to analyze"})
				return
			}
			bucket, object, found := strings.Cut(strings.TrimPrefix(asset.Locator, "gs://"), "/")
			if !found {
				c.JSON(http.StatusConflict, gin.H{"error": "asset is not addressable in object storage"})
				return
			}
			trigger, err := json.Marshal(cloud.GCSPubSubNotification{
				Bucket:      bucket,
				Name:        object,
				ContentType: "video/mp4",
			})
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			go func() {
				chainCtx := cor.NewBaseContext()
				chainCtx.SetContext(context.Background())
				chainCtx.Add(cor.CtxIn, string(trigger))
				defer chainCtx.Close()
				state.analysis.Execute(chainCtx)
			}()
			c.JSON(http.StatusAccepted, gin.H{"project_id": id, "scene_index": idx})
		})

		// POST /projects/:id/scenes/:scene_id/approve records a user approval.
		projects.POST("/:id/scenes/:scene_id/approve", func(c *gin.Context) {
			id := c.Param("id")
			idx, ok := sceneParam(c)
			if !ok {
				return
			}
			gate, ok := state.registry.Gate(id)
			if !ok {
				c.Status(http.StatusNotFound)
				return
			}
			if err := gate.Approve(idx); err != nil {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.Status(http.StatusNoContent)
		})

		// POST /projects/:id/scenes/:scene_id/reject records a user rejection.
		projects.POST("/:id/scenes/:scene_id/reject", func(c *gin.Context) {
			id := c.Param("id")
			idx, ok := sceneParam(c)
			if !ok {
				return
			}
			gate, ok := state.registry.Gate(id)
			if !ok {
				c.Status(http.StatusNotFound)
				return
			}
			if err := gate.Reject(idx); err != nil {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.Status(http.StatusNoContent)
		})

		// POST /projects/:id/scenes/:scene_id/regenerate runs the next retry
		// strategy for a failing scene. An exhausted budget maps to 409 with
		// the attempt history attached.
		projects.POST("/:id/scenes/:scene_id/regenerate", func(c *gin.Context) {
			id := c.Param("id")
			idx, ok := sceneParam(c)
			if !ok {
				return
			}
			decision, err := state.regen.RunScene(c.Request.Context(), id, idx)
			if err != nil {
				var exhausted *regen.ExhaustionError
				if errors.As(err, &exhausted) {
					c.JSON(http.StatusConflict, gin.H{
						"error":    exhausted.Error(),
						"attempts": exhausted.Attempts,
					})
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"strategy":    decision.Strategy,
				"provider_id": decision.ProviderID,
				"alternative": decision.Alternative,
				"reason":      decision.Reason,
			})
		})

		// GET /projects/:id/scenes/:scene_id/stream returns a signed URL for
		// the scene's active asset.
		projects.GET("/:id/scenes/:scene_id/stream", func(c *gin.Context) {
			id := c.Param("id")
			idx, ok := sceneParam(c)
			if !ok {
				return
			}
			signedURL, err := state.assets.StreamURL(c, id, idx, 15*time.Minute)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"url": signedURL})
		})

		// GET /projects/:id/history returns the in-memory attempt log.
		projects.GET("/:id/history", func(c *gin.Context) {
			history, ok := state.registry.History(c.Param("id"))
			if !ok {
				c.Status(http.StatusNotFound)
				return
			}
			c.JSON(http.StatusOK, history.All())
		})

		// GET /projects/:id/transitions plans the transitions between all
		// adjacent scenes.
		projects.GET("/:id/transitions", func(c *gin.Context) {
			plans, err := state.composition.PlanTransitions(c.Param("id"))
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, plans)
		})

		// POST /projects/:id/scenes/:scene_id/placements resolves overlay
		// positions against the scene's obstruction map.
		projects.POST("/:id/scenes/:scene_id/placements", func(c *gin.Context) {
			id := c.Param("id")
			idx, ok := sceneParam(c)
			if !ok {
				return
			}
			var overlays []model.TextOverlay
			if err := c.ShouldBindJSON(&overlays); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			placements, err := state.composition.ResolvePlacements(id, idx, overlays)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, placements)
		})
	}
}

// RenderRouter defines the chunked-render routes.
func RenderRouter(r *gin.RouterGroup) {
	renders := r.Group("/projects/:id/render")
	{
		// POST /projects/:id/render prepares a job and launches it in the
		// background. Readiness is decided by the quality gate's report.
		renders.POST("", func(c *gin.Context) {
			id := c.Param("id")
			job, err := state.composition.PrepareRender(id)
			if err != nil {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			go func() {
				if err := state.composition.StartRender(context.Background(), id, job.ID); err != nil {
					slog.Error("render failed", "project", id, "job", job.ID, "error", err)
					return
				}
				done, ok := state.composition.RenderStatus(job.ID)
				if !ok || done.Status != model.RenderDone {
					return
				}
				chainCtx := cor.NewBaseContext()
				chainCtx.SetContext(context.Background())
				chainCtx.Add(cor.CtxIn, done.OutputLocator)
				defer chainCtx.Close()
				state.publish.Execute(chainCtx)
				if published, ok := chainCtx.Get(cor.CtxIn).(string); ok {
					slog.Info("render published", "project", id, "job", job.ID, "locator", published)
				}
			}()
			c.JSON(http.StatusAccepted, job)
		})

		// GET /projects/:id/render/:job_id snapshots a job's progress.
		renders.GET("/:job_id", func(c *gin.Context) {
			job, ok := state.composition.RenderStatus(c.Param("job_id"))
			if !ok {
				c.Status(http.StatusNotFound)
				return
			}
			c.JSON(http.StatusOK, job)
		})
	}
}

// FileUpload accepts reference material for a scene: multipart files under
// the "files" field, stored at the scene's canonical asset path after type
// sniffing.
func FileUpload(r *gin.RouterGroup) {
	upload := r.Group("/uploads")
	{
		upload.POST("/:id/scenes/:scene_id", func(c *gin.Context) {
			id := c.Param("id")
			idx, ok := sceneParam(c)
			if !ok {
				return
			}
			form, err := c.MultipartForm()
			if err != nil {
				c.String(http.StatusBadRequest, "get form err: %s", err.Error())
				return
			}
			files := form.File["files"]
			locators := make([]string, 0, len(files))

			for _, file := range files {
				src, err := file.Open()
				if err != nil {
					c.String(http.StatusBadRequest, "open file err: %s", err.Error())
					return
				}
				content, err := io.ReadAll(src)
				_ = src.Close()
				if err != nil {
					c.Status(http.StatusInternalServerError)
					return
				}
				locator, err := state.assets.Upload(c, id, idx, file.Filename, content)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				locators = append(locators, locator)
			}
			c.JSON(http.StatusOK, gin.H{"locators": locators})
		})
	}
}
