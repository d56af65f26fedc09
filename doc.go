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
Package otelfmt merges OpenTelemetry trace identifiers into structured log
output.

It sits between a tracing-context stage and a formatting stage in a
lifecycle-event pipeline.  The Injector wraps the formatting stage and
forwards every event to it unchanged, except span entry: there it queries
the active trace context and, when one is valid, replays a record pairing
the trace.id and span.id field names with the string-rendered identifiers.
Downstream log lines for that span then carry correlation identifiers
without any call site adding them.

A Builder assembles the two stages into a Pipeline ordered so the tracing
stage observes each event before the injector queries it:

	tracing := otelstage.New(tracer)
	formatter := fmtstage.New(slog.NewJSONHandler(os.Stdout, nil))

	pipeline := otelfmt.NewBuilder(tracing, formatter).
		WithFieldNames("custom.trace.id", "custom.span.id").
		Build()

The subpackages supply the collaborating stages: otelstage bridges lifecycle
events to an OpenTelemetry tracer and answers the active-context query,
fmtstage renders events through any slog.Handler, and gcp renders them into
Google Cloud Logging entries.
*/
package otelfmt
