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
Package fmtstage renders lifecycle events through a slog.Handler.

The Stage accumulates each span's fields -- the values it was created with
plus every record replayed onto it, injected correlation identifiers
included -- and attaches them to the log records it emits for events inside
that span.  Span lifecycle transitions can optionally be logged as well.
*/
package fmtstage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"m4o.io/otelfmt"
)

// SpanEvents selects which span lifecycle transitions the stage logs as
// records of their own.
type SpanEvents uint8

const (
	// SpanEventsNew logs span creation.
	SpanEventsNew SpanEvents = 1 << iota
	// SpanEventsEnter logs span activation.
	SpanEventsEnter
	// SpanEventsExit logs span deactivation.
	SpanEventsExit
	// SpanEventsClose logs span closure.
	SpanEventsClose
)

const (
	// SpanEventsNone logs no lifecycle transitions.  The default.
	SpanEventsNone SpanEvents = 0
	// SpanEventsFull logs all of them.
	SpanEventsFull = SpanEventsNew | SpanEventsEnter | SpanEventsExit | SpanEventsClose
)

// SpanKey is the field name the enclosing span's name is logged under on
// lifecycle records.
const SpanKey = "span"

// Option configures a Stage at construction time.
type Option func(s *Stage)

// WithLeveler sets the minimum level of events the stage renders.  The
// default is slog.LevelInfo.
func WithLeveler(leveler slog.Leveler) Option {
	if leveler == nil {
		panic("fmtstage: leveler is nil")
	}

	return func(s *Stage) {
		s.level = leveler
	}
}

// WithSpanEvents selects which span lifecycle transitions are logged.
func WithSpanEvents(ev SpanEvents) Option {
	return func(s *Stage) {
		s.spanEvents = ev
	}
}

// WithBaggage directs the stage to add OpenTelemetry baggage members found
// in the dispatch context to every event record, under keys prefixed with
// "otel-baggage/".
func WithBaggage() Option {
	return func(s *Stage) {
		s.baggage = true
	}
}

// WithGroup renders the enclosing span's accumulated fields under the named
// group instead of inline beside the event's own fields.
func WithGroup(name string) Option {
	return func(s *Stage) {
		s.group = name
	}
}

// Stage is a formatting stage backed by a slog.Handler.
type Stage struct {
	handler    slog.Handler
	level      slog.Leveler
	spanEvents SpanEvents
	baggage    bool
	group      string

	mu    sync.Mutex
	spans map[otelfmt.ID]*spanState
}

type spanState struct {
	name   string
	level  slog.Level
	fields []slog.Attr
}

var _ otelfmt.Stage = &Stage{}

// New returns a Stage rendering through the handler.
func New(handler slog.Handler, opts ...Option) *Stage {
	if handler == nil {
		panic("fmtstage: handler is nil")
	}

	s := &Stage{
		handler: handler,
		level:   slog.LevelInfo,
		spans:   make(map[otelfmt.ID]*spanState),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Stage) OnAttach(_ otelfmt.Registry) {}

func (s *Stage) RegisterCallsite(md *otelfmt.Metadata) otelfmt.Interest {
	if _, dynamic := s.level.(*slog.LevelVar); dynamic {
		return otelfmt.InterestSometimes
	}

	if md.Level < s.level.Level() {
		return otelfmt.InterestNever
	}

	return otelfmt.InterestAlways
}

func (s *Stage) Enabled(_ context.Context, md *otelfmt.Metadata) bool {
	return md.Level >= s.level.Level()
}

func (s *Stage) MaxLevelHint() (slog.Level, bool) {
	return s.level.Level(), true
}

func (s *Stage) OnNewSpan(ctx context.Context, attrs *otelfmt.Attributes, id otelfmt.ID) {
	st := &spanState{
		name:   attrs.Metadata.Name,
		level:  attrs.Metadata.Level,
		fields: slices.Clone(attrs.Fields),
	}

	s.mu.Lock()
	s.spans[id] = st
	s.mu.Unlock()

	s.logLifecycle(ctx, SpanEventsNew, "new", id)
}

func (s *Stage) OnRecord(_ context.Context, id otelfmt.ID, rec otelfmt.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.spans[id]
	if !ok {
		// Recording onto a span this stage never saw created; start
		// tracking it so the fields are not lost.
		st = &spanState{level: slog.LevelInfo}
		s.spans[id] = st
	}

	st.fields = append(st.fields, rec.Fields...)
}

func (s *Stage) OnFollowsFrom(_ context.Context, _, _ otelfmt.ID) {}

func (s *Stage) EventEnabled(ctx context.Context, ev *otelfmt.Event) bool {
	return s.Enabled(ctx, ev.Metadata)
}

func (s *Stage) OnEvent(ctx context.Context, ev *otelfmt.Event) {
	if !s.EventEnabled(ctx, ev) {
		return
	}

	t := ev.Time
	if t.IsZero() {
		t = time.Now()
	}

	rec := slog.NewRecord(t, ev.Metadata.Level, ev.Message, 0)
	s.addSpanFields(&rec, ev.Span)
	rec.AddAttrs(ev.Fields...)

	if s.baggage {
		rec.AddAttrs(baggageAttrs(ctx)...)
	}

	s.emit(ctx, rec)
}

func (s *Stage) OnEnter(ctx context.Context, id otelfmt.ID) {
	s.logLifecycle(ctx, SpanEventsEnter, "enter", id)
}

func (s *Stage) OnExit(ctx context.Context, id otelfmt.ID) {
	s.logLifecycle(ctx, SpanEventsExit, "exit", id)
}

func (s *Stage) OnClose(ctx context.Context, id otelfmt.ID) {
	s.logLifecycle(ctx, SpanEventsClose, "close", id)

	s.mu.Lock()
	delete(s.spans, id)
	s.mu.Unlock()
}

func (s *Stage) OnIDChange(_ context.Context, old, new otelfmt.ID) {
	s.mu.Lock()
	if st, ok := s.spans[old]; ok {
		delete(s.spans, old)
		s.spans[new] = st
	}
	s.mu.Unlock()
}

func (s *Stage) logLifecycle(ctx context.Context, which SpanEvents, msg string, id otelfmt.ID) {
	if s.spanEvents&which == 0 {
		return
	}

	name, level := s.spanInfo(id)
	if level < s.level.Level() {
		return
	}

	rec := slog.NewRecord(time.Now(), level, msg, 0)
	rec.AddAttrs(slog.String(SpanKey, name))
	s.addSpanFields(&rec, id)

	s.emit(ctx, rec)
}

func (s *Stage) emit(ctx context.Context, rec slog.Record) {
	if err := s.handler.Handle(ctx, rec); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "fmtstage: error emitting log record: %s\n", err)
	}
}

func (s *Stage) spanInfo(id otelfmt.ID) (string, slog.Level) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.spans[id]; ok {
		return st.name, st.level
	}

	return "", slog.LevelInfo
}

func (s *Stage) addSpanFields(rec *slog.Record, id otelfmt.ID) {
	if id == 0 {
		return
	}

	s.mu.Lock()
	st, ok := s.spans[id]
	var fields []slog.Attr
	if ok {
		fields = slices.Clone(st.fields)
	}
	s.mu.Unlock()

	if len(fields) == 0 {
		return
	}

	if s.group != "" {
		rec.AddAttrs(slog.Attr{Key: s.group, Value: slog.GroupValue(fields...)})
		return
	}

	rec.AddAttrs(fields...)
}
