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

package render_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/promoforge/promo-video-engine/internal/core/model"
	"github.com/promoforge/promo-video-engine/internal/core/render"
	"github.com/zeebo/assert"
)

// writeStubFFmpeg installs a shell script that records its argv, captures
// whatever file follows -i, and creates its last argument as the output.
func writeStubFFmpeg(t *testing.T, dir string) (binPath, argsLog, inputCopy string) {
	t.Helper()
	argsLog = filepath.Join(dir, "args.log")
	inputCopy = filepath.Join(dir, "input.copy")
	script := fmt.Sprintf(`#!/bin/sh
prev=""
last=""
for a in "$@"; do
  printf '%%s\n' "$a" >> "%s"
  if [ "$prev" = "-i" ]; then cp "$a" "%s"; fi
  prev="$a"
  last="$a"
done
: > "$last"
`, argsLog, inputCopy)
	binPath = filepath.Join(dir, "ffmpeg")
	assert.NoError(t, os.WriteFile(binPath, []byte(script), 0o755))
	return binPath, argsLog, inputCopy
}

func compositionJSON(t *testing.T, assets ...string) string {
	t.Helper()
	spec, err := json.Marshal(model.CompositionSpec{ProjectID: "demo-promo", Assets: assets})
	assert.NoError(t, err)
	return string(spec)
}

// TestFFmpegRenderChunk verifies the engine turns the composition spec into
// a concat manifest and never passes the spec document to ffmpeg as media.
func TestFFmpegRenderChunk(t *testing.T) {
	dir := t.TempDir()
	bin, argsLog, inputCopy := writeStubFFmpeg(t, dir)

	assetA := filepath.Join(dir, "scene-0.mp4")
	assetB := filepath.Join(dir, "scene-1.mp4")
	assert.NoError(t, os.WriteFile(assetA, []byte("a"), 0o644))
	assert.NoError(t, os.WriteFile(assetB, []byte("b"), 0o644))

	engine := render.NewFFmpegEngine(bin, dir)
	locator, err := engine.RenderChunk(context.Background(), compositionJSON(t, assetA, assetB), 0, 150)
	assert.NoError(t, err)

	_, err = os.Stat(locator)
	assert.NoError(t, err)

	args, err := os.ReadFile(argsLog)
	assert.NoError(t, err)
	argv := string(args)
	assert.True(t, strings.Contains(argv, "concat"))
	assert.True(t, strings.Contains(argv, "-frames:v\n150\n"))
	assert.True(t, strings.Contains(argv, `select=between(n\,0\,149),setpts=PTS-STARTPTS`))
	assert.False(t, strings.Contains(argv, "project_id"))

	manifest, err := os.ReadFile(inputCopy)
	assert.NoError(t, err)
	content := string(manifest)
	assert.True(t, strings.Contains(content, fmt.Sprintf("file '%s'", assetA)))
	assert.True(t, strings.Contains(content, fmt.Sprintf("file '%s'", assetB)))
	assert.True(t, strings.Index(content, assetA) < strings.Index(content, assetB))
}

// TestFFmpegRenderChunkRejectsBadSpec covers malformed and empty
// compositions; neither may reach the binary.
func TestFFmpegRenderChunkRejectsBadSpec(t *testing.T) {
	dir := t.TempDir()
	bin, argsLog, _ := writeStubFFmpeg(t, dir)
	engine := render.NewFFmpegEngine(bin, dir)

	_, err := engine.RenderChunk(context.Background(), "not json", 0, 150)
	assert.Error(t, err)

	_, err = engine.RenderChunk(context.Background(), compositionJSON(t), 0, 150)
	assert.Error(t, err)

	_, err = os.Stat(argsLog)
	assert.True(t, os.IsNotExist(err))
}

// TestFFmpegStitch verifies chunk outputs are concatenated in order via the
// concat demuxer with stream copy.
func TestFFmpegStitch(t *testing.T) {
	dir := t.TempDir()
	bin, argsLog, inputCopy := writeStubFFmpeg(t, dir)

	chunkA := filepath.Join(dir, "chunk-0.mp4")
	chunkB := filepath.Join(dir, "chunk-1.mp4")
	assert.NoError(t, os.WriteFile(chunkA, []byte("a"), 0o644))
	assert.NoError(t, os.WriteFile(chunkB, []byte("b"), 0o644))

	engine := render.NewFFmpegEngine(bin, dir)
	locator, err := engine.Stitch(context.Background(), []string{chunkA, chunkB})
	assert.NoError(t, err)

	_, err = os.Stat(locator)
	assert.NoError(t, err)

	args, err := os.ReadFile(argsLog)
	assert.NoError(t, err)
	assert.True(t, strings.Contains(string(args), "copy"))

	manifest, err := os.ReadFile(inputCopy)
	assert.NoError(t, err)
	content := string(manifest)
	assert.True(t, strings.Index(content, chunkA) < strings.Index(content, chunkB))

	_, err = engine.Stitch(context.Background(), nil)
	assert.Error(t, err)
}
