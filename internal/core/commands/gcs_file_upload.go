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

package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"github.com/promoforge/promo-video-engine/internal/cloud"
	"github.com/promoforge/promo-video-engine/internal/core/cor"
)

// GCSFileUpload streams a local file (a stitched render output or a spliced
// asset) into the destination bucket. When the context carries the original
// GCS object metadata the upload reuses its object name, so a reprocessed
// asset lands back at its canonical projects/<id>/scenes/<n>/ path;
// otherwise the local file name is used. The local file is removed after
// the upload attempt.
type GCSFileUpload struct {
	cor.BaseCommand
	client *storage.Client
	bucket string
}

func NewGCSFileUpload(name string, client *storage.Client, bucket string) *GCSFileUpload {
	return &GCSFileUpload{BaseCommand: *cor.NewBaseCommand(name), client: client, bucket: bucket}
}

func (c *GCSFileUpload) Execute(context cor.Context) {
	path := context.Get(c.GetInputParam()).(string)
	name := filepath.Base(path)

	original, _ := context.Get(cloud.GetGCSObjectName()).(*cloud.GCSObject)

	dat, err := os.Open(path)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to open file %s: %w", path, err))
		return
	}

	defer func(name string) {
		if err := os.Remove(name); err != nil {
			slog.Warn("failed to remove local file", "path", name, "error", err)
		}
	}(path)

	writerBucket := c.client.Bucket(c.bucket)
	var obj *storage.ObjectHandle
	if original != nil {
		obj = writerBucket.Object(original.Name)
	} else {
		obj = writerBucket.Object(name)
	}

	writer := obj.NewWriter(context.GetContext())
	defer func(writer *storage.Writer) {
		if err := writer.Close(); err != nil {
			slog.Warn("failed to close GCS writer", "error", err)
		}
	}(writer)

	if written, err := io.Copy(writer, dat); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed upload to gs://%s/%s after %d bytes: %w", c.bucket, obj.ObjectName(), written, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.InfoContext(context.GetContext(), "uploaded file",
		"file", name,
		"bucket", c.bucket,
		"object", obj.ObjectName())
	context.Add(c.GetOutputParam(), fmt.Sprintf("gs://%s/%s", c.bucket, obj.ObjectName()))
}
