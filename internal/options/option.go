// Copyright 2024 The original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package options holds the option state for the GCP formatting stage.

The Options struct lives in an internal package so subpackages, k8s among
them, can contribute entry augmentors without widening the public surface.
*/
package options

import (
	"context"
	"log/slog"

	"cloud.google.com/go/logging"

	"m4o.io/otelfmt"
)

// EntryAugmentor amends an outgoing logging.Entry before it is passed to
// the logger, e.g. to attach labels.
type EntryAugmentor func(ctx context.Context, e *logging.Entry)

// Options holds the state needed to construct a GCP formatting stage.
type Options struct {
	// Level is the minimum event level rendered.
	Level slog.Leveler

	// ProjectID, when set, qualifies promoted trace identifiers as
	// "projects/<id>/traces/<trace-id>", per Cloud Logging conventions.
	ProjectID string

	// TraceKey and SpanKey are the field names recognized as injected
	// correlation identifiers and promoted onto the entry.
	TraceKey string
	SpanKey  string

	// EntryAugmentors run in order over every outgoing entry.
	EntryAugmentors []EntryAugmentor
}

// OptionProcessor mutates Options during construction.
type OptionProcessor func(o *Options)

// Apply folds the processors over defaulted Options.
func Apply(opts ...OptionProcessor) *Options {
	o := &Options{
		Level:    slog.LevelInfo,
		TraceKey: otelfmt.TraceIDKey,
		SpanKey:  otelfmt.SpanIDKey,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}
