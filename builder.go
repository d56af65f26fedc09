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

package otelfmt

const (
	// TraceIDKey is the default field name for the injected trace
	// identifier.
	TraceIDKey = "trace.id"
	// SpanIDKey is the default field name for the injected span
	// identifier.
	SpanIDKey = "span.id"
)

// Builder assembles a tracing-context stage and a formatting stage into a
// Pipeline.  A Builder is single use: Build consumes it.
type Builder struct {
	tracing   TracingStage
	formatter Stage

	traceKey string
	spanKey  string

	built bool
}

// NewBuilder returns a Builder over the two stages, with the field names
// defaulted to TraceIDKey and SpanIDKey.
func NewBuilder(tracing TracingStage, formatter Stage) *Builder {
	if tracing == nil {
		panic("otelfmt: tracing stage is nil")
	}
	if formatter == nil {
		panic("otelfmt: formatting stage is nil")
	}

	return &Builder{
		tracing:   tracing,
		formatter: formatter,
		traceKey:  TraceIDKey,
		spanKey:   SpanIDKey,
	}
}

// WithFieldNames replaces the names the injected trace and span identifier
// fields are recorded under.  The names are not validated; uniqueness is the
// caller's responsibility.  Calling WithFieldNames after Build has no
// effect on the built pipeline.
func (b *Builder) WithFieldNames(traceKey, spanKey string) *Builder {
	b.traceKey = traceKey
	b.spanKey = spanKey

	return b
}

// Build produces the composite pipeline, ordered so the tracing stage
// observes every event before the injector queries it.  Build consumes the
// builder; a second call panics.
func (b *Builder) Build() *Pipeline {
	if b.built {
		panic("otelfmt: builder already consumed")
	}
	b.built = true

	return &Pipeline{
		tracing: b.tracing,
		injector: &Injector{
			next:     b.formatter,
			resolver: b.tracing,
			traceKey: b.traceKey,
			spanKey:  b.spanKey,
		},
	}
}
