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

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Pipeline is the composite of a tracing-context stage and an Injector,
// usable anywhere a single Stage is accepted.  For every event type, without
// exception, the tracing stage observes the event first, so its notion of
// the active trace context is current by the time the injector queries it.
//
// Predicates consult both inner stages, in the same order, and combine
// toward the permissive side: the registry must keep dispatching while
// either stage still wants events.
type Pipeline struct {
	tracing  TracingStage
	injector *Injector
}

var _ TracingStage = &Pipeline{}

func (p *Pipeline) OnAttach(r Registry) {
	p.tracing.OnAttach(r)
	p.injector.OnAttach(r)
}

func (p *Pipeline) RegisterCallsite(md *Metadata) Interest {
	ti := p.tracing.RegisterCallsite(md)
	fi := p.injector.RegisterCallsite(md)

	return mostPermissive(ti, fi)
}

func (p *Pipeline) Enabled(ctx context.Context, md *Metadata) bool {
	te := p.tracing.Enabled(ctx, md)
	fe := p.injector.Enabled(ctx, md)

	return te || fe
}

func (p *Pipeline) MaxLevelHint() (slog.Level, bool) {
	tl, tok := p.tracing.MaxLevelHint()
	fl, fok := p.injector.MaxLevelHint()

	switch {
	case !tok:
		return fl, fok
	case !fok:
		return tl, tok
	case tl < fl:
		return tl, true
	default:
		return fl, true
	}
}

func (p *Pipeline) OnNewSpan(ctx context.Context, attrs *Attributes, id ID) {
	p.tracing.OnNewSpan(ctx, attrs, id)
	p.injector.OnNewSpan(ctx, attrs, id)
}

func (p *Pipeline) OnRecord(ctx context.Context, id ID, rec Record) {
	p.tracing.OnRecord(ctx, id, rec)
	p.injector.OnRecord(ctx, id, rec)
}

func (p *Pipeline) OnFollowsFrom(ctx context.Context, id, follows ID) {
	p.tracing.OnFollowsFrom(ctx, id, follows)
	p.injector.OnFollowsFrom(ctx, id, follows)
}

func (p *Pipeline) EventEnabled(ctx context.Context, ev *Event) bool {
	te := p.tracing.EventEnabled(ctx, ev)
	fe := p.injector.EventEnabled(ctx, ev)

	return te || fe
}

func (p *Pipeline) OnEvent(ctx context.Context, ev *Event) {
	p.tracing.OnEvent(ctx, ev)
	p.injector.OnEvent(ctx, ev)
}

func (p *Pipeline) OnEnter(ctx context.Context, id ID) {
	p.tracing.OnEnter(ctx, id)
	p.injector.OnEnter(ctx, id)
}

func (p *Pipeline) OnExit(ctx context.Context, id ID) {
	p.tracing.OnExit(ctx, id)
	p.injector.OnExit(ctx, id)
}

func (p *Pipeline) OnClose(ctx context.Context, id ID) {
	p.tracing.OnClose(ctx, id)
	p.injector.OnClose(ctx, id)
}

func (p *Pipeline) OnIDChange(ctx context.Context, old, new ID) {
	p.tracing.OnIDChange(ctx, old, new)
	p.injector.OnIDChange(ctx, old, new)
}

// ActiveSpanContext delegates the active-trace-context query to the tracing
// half, so the composite is itself a TracingStage and can be composed again.
func (p *Pipeline) ActiveSpanContext(ctx context.Context, id ID) trace.SpanContext {
	return p.tracing.ActiveSpanContext(ctx, id)
}

// Unwrap returns the injector half of the pipeline, so As can reach the
// wrapped formatting stage.
func (p *Pipeline) Unwrap() Stage {
	return p.injector
}
