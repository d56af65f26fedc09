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
	"fmt"
	"log/slog"
)

// Injector wraps a formatting stage and behaves identically to it for every
// lifecycle event except span entry.  On entry it snapshots the active trace
// context through its resolver and, when the snapshot is valid, replays a
// synthetic record pairing the configured field names with the
// string-rendered trace and span identifiers into the wrapped stage, so the
// span's recorded fields carry correlation identifiers from then on.
//
// An Injector is created by Builder.Build.  Its only state is the wrapped
// stage, the resolver, the two field names, and the registry handle set at
// attach time; none of it changes afterwards, so an Injector is as safe for
// concurrent use as the stages it composes.
type Injector struct {
	next     Stage
	resolver ContextResolver

	traceKey string
	spanKey  string

	// set once by OnAttach, read-only afterwards
	registry Registry
}

var _ Stage = &Injector{}

func (inj *Injector) OnAttach(r Registry) {
	inj.registry = r
	inj.next.OnAttach(r)
}

func (inj *Injector) RegisterCallsite(md *Metadata) Interest {
	return inj.next.RegisterCallsite(md)
}

func (inj *Injector) Enabled(ctx context.Context, md *Metadata) bool {
	return inj.next.Enabled(ctx, md)
}

func (inj *Injector) MaxLevelHint() (slog.Level, bool) {
	return inj.next.MaxLevelHint()
}

func (inj *Injector) OnNewSpan(ctx context.Context, attrs *Attributes, id ID) {
	inj.next.OnNewSpan(ctx, attrs, id)
}

func (inj *Injector) OnRecord(ctx context.Context, id ID, rec Record) {
	inj.next.OnRecord(ctx, id, rec)
}

func (inj *Injector) OnFollowsFrom(ctx context.Context, id, follows ID) {
	inj.next.OnFollowsFrom(ctx, id, follows)
}

func (inj *Injector) EventEnabled(ctx context.Context, ev *Event) bool {
	return inj.next.EventEnabled(ctx, ev)
}

func (inj *Injector) OnEvent(ctx context.Context, ev *Event) {
	inj.next.OnEvent(ctx, ev)
}

// OnEnter forwards the entry unconditionally, then injects the correlation
// fields when a valid trace context is active.  The wrapped stage's own
// entry output is emitted before the injected fields take effect, so
// injection augments the span's recorded fields without rewriting anything
// already written.
func (inj *Injector) OnEnter(ctx context.Context, id ID) {
	sc := inj.resolver.ActiveSpanContext(ctx, id)

	inj.next.OnEnter(ctx, id)

	if !sc.IsValid() {
		return
	}

	inj.next.OnRecord(ctx, id, Record{
		Origin: inj.spanMetadata(id),
		Fields: []slog.Attr{
			slog.String(inj.traceKey, sc.TraceID().String()),
			slog.String(inj.spanKey, sc.SpanID().String()),
		},
	})
}

func (inj *Injector) OnExit(ctx context.Context, id ID) {
	inj.next.OnExit(ctx, id)
}

func (inj *Injector) OnClose(ctx context.Context, id ID) {
	inj.next.OnClose(ctx, id)
}

func (inj *Injector) OnIDChange(ctx context.Context, old, new ID) {
	inj.next.OnIDChange(ctx, old, new)
}

// Unwrap returns the wrapped formatting stage, for capability probes via As.
func (inj *Injector) Unwrap() Stage {
	return inj.next
}

// spanMetadata resolves the metadata of a span whose entry is being
// processed.  A registry that dispatches enter-span for a span it cannot
// resolve has broken its contract, and continuing would silently decorrelate
// the output, so that is fatal rather than recoverable.
func (inj *Injector) spanMetadata(id ID) *Metadata {
	if inj.registry == nil {
		panic("otelfmt: span entered before the stage was attached to a registry")
	}

	md := inj.registry.SpanMetadata(id)
	if md == nil {
		panic(fmt.Sprintf("otelfmt: no metadata for entered span %d; the dispatch registry broke its contract", id))
	}

	return md
}
