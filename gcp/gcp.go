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
Package gcp renders lifecycle events into Google Cloud Logging entries.

The Stage accumulates each span's fields and, on every event emitted inside
that span, produces a logging.Entry whose payload carries the span and event
fields.  Injected correlation fields are promoted to the entry's first-class
Trace and SpanID slots, per Cloud Logging conventions, instead of being
buried in the payload.
*/
package gcp

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"sync"
	"time"

	"cloud.google.com/go/logging"
	"github.com/pkg/errors"
	spb "google.golang.org/protobuf/types/known/structpb"

	"m4o.io/otelfmt"
	"m4o.io/otelfmt/internal/attr"
	"m4o.io/otelfmt/internal/options"
)

const (
	// MessageKey is the payload key used for the event message, per
	// Google Cloud Logging.
	MessageKey = "message"
)

// Stage is a formatting stage backed by Google Cloud Logging.
type Stage struct {
	// *logging.Logger, except for testing
	log   Logger
	level slog.Leveler

	projectID  string
	traceKey   string
	spanKey    string
	augmentors []options.EntryAugmentor

	mu    sync.Mutex
	spans map[otelfmt.ID]*spanState
}

type spanState struct {
	fields []slog.Attr
}

var _ otelfmt.Stage = &Stage{}

// NewStage creates a Cloud Logging backed formatting stage.
func NewStage(logger Logger, opts ...options.OptionProcessor) *Stage {
	if logger == nil {
		panic("gcp: logger is nil")
	}

	o := options.Apply(opts...)

	return &Stage{
		log:        logger,
		level:      o.Level,
		projectID:  o.ProjectID,
		traceKey:   o.TraceKey,
		spanKey:    o.SpanKey,
		augmentors: o.EntryAugmentors,
		spans:      make(map[otelfmt.ID]*spanState),
	}
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

func (s *Stage) OnNewSpan(_ context.Context, attrs *otelfmt.Attributes, id otelfmt.ID) {
	s.mu.Lock()
	s.spans[id] = &spanState{fields: slices.Clone(attrs.Fields)}
	s.mu.Unlock()
}

func (s *Stage) OnRecord(_ context.Context, id otelfmt.ID, rec otelfmt.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.spans[id]
	if !ok {
		st = &spanState{}
		s.spans[id] = st
	}

	st.fields = append(st.fields, rec.Fields...)
}

func (s *Stage) OnFollowsFrom(_ context.Context, _, _ otelfmt.ID) {}

func (s *Stage) EventEnabled(ctx context.Context, ev *otelfmt.Event) bool {
	return s.Enabled(ctx, ev.Metadata)
}

// OnEvent translates the event into a logging.Entry.  Severities at or
// above Critical are delivered synchronously so they survive a crash.
func (s *Stage) OnEvent(ctx context.Context, ev *otelfmt.Event) {
	if !s.EventEnabled(ctx, ev) {
		return
	}

	var e logging.Entry

	payload := &spb.Struct{Fields: make(map[string]*spb.Value)}
	attr.Decorate(payload, slog.String(MessageKey, ev.Message))

	for _, f := range s.spanFields(ev.Span) {
		s.place(&e, payload, f)
	}
	for _, f := range ev.Fields {
		s.place(&e, payload, f)
	}

	e.Payload = payload
	e.Severity = levelToSeverity(ev.Metadata.Level)
	e.Labels = maps.Clone(ExtractLabels(ctx))

	e.Timestamp = ev.Time.UTC()
	if ev.Time.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	for _, augment := range s.augmentors {
		augment(ctx, &e)
	}

	if e.Severity >= logging.Critical {
		if err := s.log.LogSync(ctx, e); err != nil {
			err = errors.Wrap(err, "logging synchronously")
			_, _ = fmt.Fprintf(os.Stderr, "gcp: %s: %s\n", err, ev.Message)
		}
	} else {
		s.log.Log(e)
	}
}

func (s *Stage) OnEnter(_ context.Context, _ otelfmt.ID) {}

func (s *Stage) OnExit(_ context.Context, _ otelfmt.ID) {}

func (s *Stage) OnClose(_ context.Context, id otelfmt.ID) {
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

// Flush blocks until every buffered entry has been delivered.
func (s *Stage) Flush() error {
	return errors.Wrap(s.log.Flush(), "flush cloud logging")
}

// place routes a field either to the entry's first-class correlation slots
// or into the payload.
func (s *Stage) place(e *logging.Entry, payload *spb.Struct, f slog.Attr) {
	switch f.Key {
	case s.traceKey:
		e.Trace = s.tracePath(f.Value.Resolve().String())
	case s.spanKey:
		e.SpanID = f.Value.Resolve().String()
	default:
		attr.Decorate(payload, f)
	}
}

func (s *Stage) tracePath(traceID string) string {
	if s.projectID == "" {
		return traceID
	}

	return "projects/" + s.projectID + "/traces/" + traceID
}

func (s *Stage) spanFields(id otelfmt.ID) []slog.Attr {
	if id == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.spans[id]; ok {
		return slices.Clone(st.fields)
	}

	return nil
}
