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

package render

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/promoforge/promo-video-engine/internal/core/model"
)

const (
	// chunkArgs concatenates the composition's scene assets through the
	// concat demuxer, trims the result to one frame range, and re-encodes it.
	// -y overwrites without prompting.
	chunkArgs = "-y -hide_banner -f concat -safe 0 -i %s -vf select=between(n\\,%d\\,%d),setpts=PTS-STARTPTS -frames:v %d -f mp4 %s"
	// stitchArgs concatenates pre-encoded chunk files without re-encoding.
	stitchArgs = "-y -hide_banner -f concat -safe 0 -i %s -c copy -f mp4 %s"

	chunkFilePrefix = "render-chunk-"
	argSeparator    = " "
)

// FFmpegEngine renders chunks by invoking ffmpeg on a local composition file
// and stitches them with the concat demuxer. Locators are paths under the
// work directory.
type FFmpegEngine struct {
	commandPath string
	workDir     string
}

// NewFFmpegEngine builds an engine around the ffmpeg binary at commandPath,
// writing its outputs under workDir.
func NewFFmpegEngine(commandPath, workDir string) *FFmpegEngine {
	return &FFmpegEngine{commandPath: commandPath, workDir: workDir}
}

var _ model.RenderEngine = (*FFmpegEngine)(nil)

// RenderChunk encodes frames [startFrame,endFrame) of the composition into a
// standalone mp4 and returns its path. The spec's asset list becomes a
// concat demuxer manifest; ffmpeg never sees the spec document itself.
func (e *FFmpegEngine) RenderChunk(ctx context.Context, compositionSpec string, startFrame, endFrame int) (string, error) {
	var spec model.CompositionSpec
	if err := json.Unmarshal([]byte(compositionSpec), &spec); err != nil {
		return "", fmt.Errorf("could not parse composition spec: %w", err)
	}
	if len(spec.Assets) == 0 {
		return "", fmt.Errorf("composition for project %s has no assets", spec.ProjectID)
	}

	listFile, err := e.writeConcatList(spec.Assets)
	if err != nil {
		return "", err
	}
	defer os.Remove(listFile)

	out := filepath.Join(e.workDir, fmt.Sprintf("%s%s.mp4", chunkFilePrefix, uuid.NewString()))
	args := fmt.Sprintf(chunkArgs, listFile, startFrame, endFrame-1, endFrame-startFrame, out)
	cmd := exec.CommandContext(ctx, e.commandPath, strings.Split(args, argSeparator)...)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("error running ffmpeg for frames [%d,%d): %w", startFrame, endFrame, err)
	}
	return out, nil
}

// Stitch concatenates chunk files in the given order into one artifact using
// ffmpeg's concat demuxer, which copies streams instead of re-encoding.
func (e *FFmpegEngine) Stitch(ctx context.Context, locators []string) (string, error) {
	if len(locators) == 0 {
		return "", fmt.Errorf("no chunk outputs to stitch")
	}
	listFile, err := e.writeConcatList(locators)
	if err != nil {
		return "", err
	}
	defer os.Remove(listFile)

	out := filepath.Join(e.workDir, fmt.Sprintf("render-final-%s.mp4", uuid.NewString()))
	args := fmt.Sprintf(stitchArgs, listFile, out)
	cmd := exec.CommandContext(ctx, e.commandPath, strings.Split(args, argSeparator)...)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("error running ffmpeg concat: %w", err)
	}
	return out, nil
}

// writeConcatList writes the concat demuxer's input manifest, one file line
// per chunk in stitch order.
func (e *FFmpegEngine) writeConcatList(locators []string) (string, error) {
	f, err := os.CreateTemp(e.workDir, "concat-list-")
	if err != nil {
		return "", fmt.Errorf("could not create concat list: %w", err)
	}
	defer f.Close()
	for _, locator := range locators {
		if _, err := fmt.Fprintf(f, "file '%s'\n", locator); err != nil {
			return "", fmt.Errorf("could not write concat list: %w", err)
		}
	}
	return f.Name(), nil
}
