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

package gcp

import (
	"log/slog"

	"m4o.io/otelfmt/internal/options"
)

// WithLogLeveler returns an option that sets the minimum level of events
// the stage renders.  The default is slog.LevelInfo.
func WithLogLeveler(leveler slog.Leveler) options.OptionProcessor {
	if leveler == nil {
		panic("gcp: leveler is nil")
	}

	return func(o *options.Options) {
		o.Level = leveler
	}
}

// WithProjectID returns an option that qualifies promoted trace identifiers
// as "projects/<projectID>/traces/<trace-id>", the form Cloud Logging uses
// to link entries to Cloud Trace.
func WithProjectID(projectID string) options.OptionProcessor {
	return func(o *options.Options) {
		o.ProjectID = projectID
	}
}

// WithCorrelationKeys returns an option that sets the field names the stage
// recognizes as injected correlation identifiers.  They must match the names
// configured on the pipeline's builder.
func WithCorrelationKeys(traceKey, spanKey string) options.OptionProcessor {
	return func(o *options.Options) {
		o.TraceKey = traceKey
		o.SpanKey = spanKey
	}
}
