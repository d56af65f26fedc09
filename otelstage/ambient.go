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

package otelstage

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"m4o.io/otelfmt"
)

// Ambient returns a tracing stage that creates no spans of its own and
// answers the active-context query from the dispatch context alone.  It is
// the stage to compose when the process is already instrumented with
// OpenTelemetry and every dispatch threads the instrumented context.
//
// Its predicates decline everything, so composing it never widens what the
// formatting side would have accepted on its own.
func Ambient() otelfmt.TracingStage {
	return ambient{}
}

type ambient struct{}

func (ambient) OnAttach(_ otelfmt.Registry) {}

func (ambient) RegisterCallsite(_ *otelfmt.Metadata) otelfmt.Interest {
	return otelfmt.InterestNever
}

func (ambient) Enabled(_ context.Context, _ *otelfmt.Metadata) bool { return false }

func (ambient) MaxLevelHint() (slog.Level, bool) { return 0, false }

func (ambient) OnNewSpan(_ context.Context, _ *otelfmt.Attributes, _ otelfmt.ID) {}

func (ambient) OnRecord(_ context.Context, _ otelfmt.ID, _ otelfmt.Record) {}

func (ambient) OnFollowsFrom(_ context.Context, _, _ otelfmt.ID) {}

func (ambient) EventEnabled(_ context.Context, _ *otelfmt.Event) bool { return false }

func (ambient) OnEvent(_ context.Context, _ *otelfmt.Event) {}

func (ambient) OnEnter(_ context.Context, _ otelfmt.ID) {}

func (ambient) OnExit(_ context.Context, _ otelfmt.ID) {}

func (ambient) OnClose(_ context.Context, _ otelfmt.ID) {}

func (ambient) OnIDChange(_ context.Context, _, _ otelfmt.ID) {}

func (ambient) ActiveSpanContext(ctx context.Context, _ otelfmt.ID) trace.SpanContext {
	return trace.SpanContextFromContext(ctx)
}
