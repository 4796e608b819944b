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

// This file defines the contracts for the external collaborators the decision
// layer depends on. The policies never reach past these interfaces: providers
// synthesize, the analyzer scores, the engine renders, the store holds bytes.
package model

import (
	"context"
	"errors"
	"fmt"
)

// GenerationProvider is one interchangeable generation backend addressed by
// provider id. Implementations must honor context cancellation; a cancelled
// or timed-out call is treated as a transient failure upstream.
type GenerationProvider interface {
	// ID returns the provider id matching its ProviderProfile.
	ID() string
	// Generate synthesizes an asset for the request. Errors should be wrapped
	// as TransientError or PermanentError so retry policy can classify them.
	Generate(ctx context.Context, req SceneRequest) (*GeneratedAsset, error)
}

// VisionAnalyzer scores a rendered asset against its scene context.
type VisionAnalyzer interface {
	Analyze(ctx context.Context, locator string, req SceneRequest) (*QualityAnalysis, error)
}

// RenderEngine turns a composition into pixels, one bounded frame range at a
// time, and stitches finished chunk outputs into one artifact.
type RenderEngine interface {
	RenderChunk(ctx context.Context, compositionSpec string, startFrame, endFrame int) (locator string, err error)
	Stitch(ctx context.Context, locators []string) (locator string, err error)
}

// ObjectStore hands out opaque locators for stored bytes.
type ObjectStore interface {
	Put(ctx context.Context, name string, data []byte) (locator string, err error)
	Get(ctx context.Context, locator string) ([]byte, error)
}

// TransientError marks a provider failure worth retrying elsewhere: timeouts,
// rate limits, temporary capacity. The regeneration strategist routes these
// to the next-provider path without burning the scene's terminal state.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a provider failure retrying will not fix, e.g. an
// unsupported input shape or a policy block.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return fmt.Sprintf("permanent: %v", e.Err) }
func (e *PermanentError) Unwrap() error { return e.Err }

// IsTransient reports whether err is (or wraps) a TransientError. Context
// cancellation and deadline expiry count as transient.
func IsTransient(err error) bool {
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
