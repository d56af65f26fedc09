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
Package otelstage bridges lifecycle events to an OpenTelemetry tracer.

The Stage starts a real OpenTelemetry span for every span the registry
creates, keeps recorded fields and events flowing into it, and answers the
active-trace-context query that the pipeline's injector makes on span entry.
Processes that are already instrumented with OpenTelemetry and only need the
query can use Ambient instead.
*/
package otelstage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"m4o.io/otelfmt"
)

// Stage owns the active trace context for a pipeline.  It maintains a table
// keyed by registry span ID, so the context query works even when the
// dispatching caller does not thread OpenTelemetry context values; when a
// span is unknown the query falls back to the context lookup.
type Stage struct {
	tracer trace.Tracer

	mu    sync.RWMutex
	spans map[otelfmt.ID]*spanRecord
}

type spanRecord struct {
	span trace.Span
	sc   trace.SpanContext
}

var _ otelfmt.TracingStage = &Stage{}

// New returns a Stage that starts its spans on the given tracer.
func New(tracer trace.Tracer) *Stage {
	if tracer == nil {
		panic("otelstage: tracer is nil")
	}

	return &Stage{
		tracer: tracer,
		spans:  make(map[otelfmt.ID]*spanRecord),
	}
}

func (s *Stage) OnAttach(_ otelfmt.Registry) {}

// RegisterCallsite always answers InterestAlways: sampling decisions belong
// to the tracer, not the log level.
func (s *Stage) RegisterCallsite(_ *otelfmt.Metadata) otelfmt.Interest {
	return otelfmt.InterestAlways
}

func (s *Stage) Enabled(_ context.Context, _ *otelfmt.Metadata) bool {
	return true
}

func (s *Stage) MaxLevelHint() (slog.Level, bool) {
	return 0, false
}

func (s *Stage) OnNewSpan(ctx context.Context, attrs *otelfmt.Attributes, id otelfmt.ID) {
	parent := ctx
	if attrs.Parent != 0 {
		if rec, ok := s.lookup(attrs.Parent); ok {
			parent = trace.ContextWithSpanContext(ctx, rec.sc)
		}
	}

	_, span := s.tracer.Start(parent, attrs.Metadata.Name,
		trace.WithAttributes(keyValues(attrs.Fields)...))

	s.mu.Lock()
	s.spans[id] = &spanRecord{span: span, sc: span.SpanContext()}
	s.mu.Unlock()
}

func (s *Stage) OnRecord(_ context.Context, id otelfmt.ID, rec otelfmt.Record) {
	if r, ok := s.lookup(id); ok {
		r.span.SetAttributes(keyValues(rec.Fields)...)
	}
}

// OnFollowsFrom records the relationship as a span event carrying the
// followed span's identifiers.
func (s *Stage) OnFollowsFrom(_ context.Context, id, follows otelfmt.ID) {
	r, ok := s.lookup(id)
	if !ok {
		return
	}

	f, ok := s.lookup(follows)
	if !ok {
		return
	}

	r.span.AddEvent("follows_from", trace.WithAttributes(
		attribute.String("trace.id", f.sc.TraceID().String()),
		attribute.String("span.id", f.sc.SpanID().String()),
	))
}

func (s *Stage) EventEnabled(_ context.Context, _ *otelfmt.Event) bool {
	return true
}

func (s *Stage) OnEvent(_ context.Context, ev *otelfmt.Event) {
	if r, ok := s.lookup(ev.Span); ok {
		r.span.AddEvent(ev.Message, trace.WithAttributes(keyValues(ev.Fields)...))
	}
}

func (s *Stage) OnEnter(_ context.Context, _ otelfmt.ID) {}

func (s *Stage) OnExit(_ context.Context, _ otelfmt.ID) {}

func (s *Stage) OnClose(_ context.Context, id otelfmt.ID) {
	s.mu.Lock()
	rec, ok := s.spans[id]
	delete(s.spans, id)
	s.mu.Unlock()

	if ok {
		rec.span.End()
	}
}

func (s *Stage) OnIDChange(_ context.Context, old, new otelfmt.ID) {
	s.mu.Lock()
	if rec, ok := s.spans[old]; ok {
		delete(s.spans, old)
		s.spans[new] = rec
	}
	s.mu.Unlock()
}

// ActiveSpanContext answers the active-trace-context query.  A tracked span
// wins; otherwise the snapshot comes from the context, which covers spans
// created outside this pipeline.
func (s *Stage) ActiveSpanContext(ctx context.Context, id otelfmt.ID) trace.SpanContext {
	if rec, ok := s.lookup(id); ok {
		return rec.sc
	}

	return trace.SpanContextFromContext(ctx)
}

func (s *Stage) lookup(id otelfmt.ID) (*spanRecord, bool) {
	s.mu.RLock()
	rec, ok := s.spans[id]
	s.mu.RUnlock()

	return rec, ok
}

// keyValues converts log fields to OpenTelemetry attributes.  Groups flatten
// to dotted keys; values with no direct attribute representation render as
// strings.
func keyValues(fields []slog.Attr) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, 0, len(fields))

	for _, f := range fields {
		kvs = appendKeyValue(kvs, "", f)
	}

	return kvs
}

func appendKeyValue(kvs []attribute.KeyValue, prefix string, f slog.Attr) []attribute.KeyValue {
	key := f.Key
	if prefix != "" {
		key = prefix + "." + f.Key
	}

	v := f.Value.Resolve()

	switch v.Kind() {
	case slog.KindString:
		return append(kvs, attribute.String(key, v.String()))
	case slog.KindInt64:
		return append(kvs, attribute.Int64(key, v.Int64()))
	case slog.KindUint64:
		return append(kvs, attribute.String(key, v.String()))
	case slog.KindFloat64:
		return append(kvs, attribute.Float64(key, v.Float64()))
	case slog.KindBool:
		return append(kvs, attribute.Bool(key, v.Bool()))
	case slog.KindDuration:
		return append(kvs, attribute.String(key, v.Duration().String()))
	case slog.KindTime:
		return append(kvs, attribute.String(key, v.Time().String()))
	case slog.KindGroup:
		for _, ga := range v.Group() {
			kvs = appendKeyValue(kvs, key, ga)
		}

		return kvs
	default:
		return append(kvs, attribute.String(key, fmt.Sprint(v.Any())))
	}
}
