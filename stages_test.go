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

package otelfmt_test

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"m4o.io/otelfmt"
)

// call captures one dispatch observed by a recorder.
type call struct {
	method  string
	id      otelfmt.ID
	other   otelfmt.ID
	attrs   *otelfmt.Attributes
	rec     otelfmt.Record
	ev      *otelfmt.Event
	md      *otelfmt.Metadata
	reg     otelfmt.Registry
	enabled bool
}

// recorder is a Stage that records every dispatch it observes.  When
// journal is non-nil it also appends "<name>:<method>" entries, so ordering
// across stages can be asserted.
type recorder struct {
	name    string
	journal *[]string

	enabled  bool
	interest otelfmt.Interest
	hint     slog.Level
	hintOK   bool

	calls []call
}

var _ otelfmt.Stage = &recorder{}

func newRecorder(name string, journal *[]string) *recorder {
	return &recorder{name: name, journal: journal, enabled: true, interest: otelfmt.InterestAlways}
}

func (r *recorder) observe(c call) {
	r.calls = append(r.calls, c)
	if r.journal != nil {
		*r.journal = append(*r.journal, r.name+":"+c.method)
	}
}

func (r *recorder) OnAttach(reg otelfmt.Registry) {
	r.observe(call{method: "OnAttach", reg: reg})
}

func (r *recorder) RegisterCallsite(md *otelfmt.Metadata) otelfmt.Interest {
	r.observe(call{method: "RegisterCallsite", md: md})
	return r.interest
}

func (r *recorder) Enabled(_ context.Context, md *otelfmt.Metadata) bool {
	r.observe(call{method: "Enabled", md: md})
	return r.enabled
}

func (r *recorder) MaxLevelHint() (slog.Level, bool) {
	r.observe(call{method: "MaxLevelHint"})
	return r.hint, r.hintOK
}

func (r *recorder) OnNewSpan(_ context.Context, attrs *otelfmt.Attributes, id otelfmt.ID) {
	r.observe(call{method: "OnNewSpan", attrs: attrs, id: id})
}

func (r *recorder) OnRecord(_ context.Context, id otelfmt.ID, rec otelfmt.Record) {
	r.observe(call{method: "OnRecord", id: id, rec: rec})
}

func (r *recorder) OnFollowsFrom(_ context.Context, id, follows otelfmt.ID) {
	r.observe(call{method: "OnFollowsFrom", id: id, other: follows})
}

func (r *recorder) EventEnabled(_ context.Context, ev *otelfmt.Event) bool {
	r.observe(call{method: "EventEnabled", ev: ev})
	return r.enabled
}

func (r *recorder) OnEvent(_ context.Context, ev *otelfmt.Event) {
	r.observe(call{method: "OnEvent", ev: ev})
}

func (r *recorder) OnEnter(_ context.Context, id otelfmt.ID) {
	r.observe(call{method: "OnEnter", id: id})
}

func (r *recorder) OnExit(_ context.Context, id otelfmt.ID) {
	r.observe(call{method: "OnExit", id: id})
}

func (r *recorder) OnClose(_ context.Context, id otelfmt.ID) {
	r.observe(call{method: "OnClose", id: id})
}

func (r *recorder) OnIDChange(_ context.Context, old, new otelfmt.ID) {
	r.observe(call{method: "OnIDChange", id: old, other: new})
}

// tracingStub is a TracingStage that answers the active-context query with
// a fixed snapshot and otherwise records like its embedded recorder.
type tracingStub struct {
	*recorder
	sc trace.SpanContext
}

var _ otelfmt.TracingStage = &tracingStub{}

func newTracingStub(sc trace.SpanContext, journal *[]string) *tracingStub {
	r := newRecorder("tracing", journal)
	r.enabled = false
	r.interest = otelfmt.InterestNever

	return &tracingStub{recorder: r, sc: sc}
}

func (t *tracingStub) ActiveSpanContext(_ context.Context, _ otelfmt.ID) trace.SpanContext {
	return t.sc
}

// testRegistry is a dispatch-registry lookup fake.
type testRegistry map[otelfmt.ID]*otelfmt.Metadata

func (r testRegistry) SpanMetadata(id otelfmt.ID) *otelfmt.Metadata {
	return r[id]
}

func validSpanContext() trace.SpanContext {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")

	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
}
