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

package workflow_test

import (
	"os"
	"testing"

	"github.com/promoforge/promo-video-engine/internal/telemetry"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const tName = "github.com/promoforge/promo-video-engine/internal/core/workflow/tests"

// logger bridges the suite's log records into the global OpenTelemetry
// logger provider, a no-op unless a test installs one.
var logger = otelslog.NewLogger(tName)

// TestMain installs the structured logging pipeline once for the whole
// suite so chain execution logs carry the same shape they do in production.
func TestMain(m *testing.M) {
	telemetry.SetupLogging()
	logger.Info("workflow suite starting")
	os.Exit(m.Run())
}
