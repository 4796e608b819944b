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

// Package cor (Chain of Responsibility) provides the building blocks the
// generation and analysis pipelines are assembled from. A workflow is a Chain
// of Commands sharing one Context; the chain pipes each command's output into
// the next command's input and stops at the first recorded error unless told
// otherwise.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// CtxIn is the context key the chain fills with the previous command's
	// output before each step runs.
	CtxIn = "__IN__"
	// CtxOut is the context key a command writes its primary output to.
	CtxOut = "__OUT__"
)

// Context is the shared state bag passed through a chain execution. It
// carries data between commands, collects per-command errors, and tracks
// temporary files for end-of-run cleanup.
type Context interface {
	// SetContext sets the Go context used for cancellation and tracing.
	SetContext(context context.Context)

	// GetContext returns the current Go context.
	GetContext() context.Context

	// Add stores a key-value pair and returns the Context for chaining.
	Add(key string, value interface{}) Context

	// AddError records an error under the producing command's name.
	AddError(key string, err error)

	// GetErrors returns all errors collected so far, keyed by command name.
	GetErrors() map[string]error

	// Get retrieves a stored value, or nil when absent.
	Get(key string) interface{}

	// Remove deletes a stored key.
	Remove(key string)

	// HasErrors reports whether any command recorded an error.
	HasErrors() bool

	// AddTempFile registers a temporary file for cleanup at Close.
	AddTempFile(file string)

	// GetTempFiles lists all registered temporary files.
	GetTempFiles() []string

	// Close removes registered temporary files. Defer it at workflow start.
	Close()
}

// Executable is anything with a core execution step.
type Executable interface {
	// Execute reads inputs from the Context and writes results back to it.
	Execute(context Context)
}

// Command is an atomic, thread-safe unit of pipeline work.
type Command interface {
	Executable

	// GetName returns the command's unique name for logging and telemetry.
	GetName() string

	// GetInputParam returns the context key the command reads its input from.
	GetInputParam() string

	// GetOutputParam returns the context key the command writes its output to.
	GetOutputParam() string

	// IsExecutable is the precondition check run before Execute.
	IsExecutable(context Context) bool

	// GetTracer returns the command's OpenTelemetry tracer.
	GetTracer() trace.Tracer

	// GetMeter returns the command's OpenTelemetry meter.
	GetMeter() metric.Meter

	// GetSuccessCounter counts successful executions.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter counts failed executions.
	GetErrorCounter() metric.Int64Counter
}

// Chain is an ordered sequence of commands. A Chain is itself a Command, so
// chains nest.
type Chain interface {
	Command

	// ContinueOnFailure controls whether the chain keeps executing after a
	// command records an error.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
