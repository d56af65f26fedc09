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
	"reflect"

	"go.opentelemetry.io/otel/trace"
)

// ID identifies a live span within the dispatch registry.  IDs are assigned
// by the registry and may be reused after a span closes.  The zero ID never
// names a span.
type ID uint64

// Interest expresses how a stage wants a callsite's dispatches handled.  It
// is a hint the registry may cache, so a stage whose enablement can change at
// runtime should answer InterestSometimes.
type Interest int

const (
	// InterestNever means the stage will never handle dispatches from the
	// callsite.
	InterestNever Interest = iota
	// InterestSometimes means the stage must be asked per dispatch.
	InterestSometimes
	// InterestAlways means the stage handles every dispatch from the
	// callsite.
	InterestAlways
)

func (i Interest) String() string {
	switch i {
	case InterestNever:
		return "never"
	case InterestSometimes:
		return "sometimes"
	case InterestAlways:
		return "always"
	default:
		return "unknown"
	}
}

func mostPermissive(a, b Interest) Interest {
	if a > b {
		return a
	}

	return b
}

// Registry is the lookup surface of the external dispatch registry.  It is
// handed to stages via OnAttach before any events flow.
type Registry interface {
	// SpanMetadata returns the metadata the span was created with, or nil
	// if the registry is not tracking the span.
	SpanMetadata(id ID) *Metadata
}

// Stage is a pluggable pipeline component subscribed to span and event
// lifecycle dispatches.  The registry delivers events synchronously, one at
// a time, on whichever goroutine generated the corresponding call; the
// context carries whatever ambient state, OpenTelemetry span context
// included, that caller had.
//
// Implementations that wrap another Stage should expose the wrapped instance
// through an Unwrap() Stage method so capability probes via As keep working.
type Stage interface {
	// OnAttach is invoked once, when the stage is installed into the
	// registry, before any events are dispatched.
	OnAttach(r Registry)

	// RegisterCallsite is invoked once per callsite and reports the
	// stage's interest in it.
	RegisterCallsite(md *Metadata) Interest

	// Enabled reports whether a span or event from the callsite should be
	// dispatched at all.
	Enabled(ctx context.Context, md *Metadata) bool

	// MaxLevelHint reports the most verbose level the stage will ever
	// handle.  ok is false when the stage cannot bound its interest.
	MaxLevelHint() (level slog.Level, ok bool)

	// OnNewSpan is invoked when a span is created.
	OnNewSpan(ctx context.Context, attrs *Attributes, id ID)

	// OnRecord is invoked when fields are recorded on an existing span.
	OnRecord(ctx context.Context, id ID, rec Record)

	// OnFollowsFrom is invoked when span id declares a follows-from
	// relationship on span follows.
	OnFollowsFrom(ctx context.Context, id, follows ID)

	// EventEnabled reports whether OnEvent should be invoked for the
	// event.
	EventEnabled(ctx context.Context, ev *Event) bool

	// OnEvent is invoked when an event is emitted.
	OnEvent(ctx context.Context, ev *Event)

	// OnEnter is invoked when a span becomes the active unit of work.
	OnEnter(ctx context.Context, id ID)

	// OnExit is invoked when a span stops being the active unit of work.
	OnExit(ctx context.Context, id ID)

	// OnClose is invoked when a span is closed.  The ID may be reused
	// afterwards.
	OnClose(ctx context.Context, id ID)

	// OnIDChange is invoked when the registry renumbers a span.
	OnIDChange(ctx context.Context, old, new ID)
}

// ContextResolver answers the active-trace-context query: a point-in-time
// snapshot of the distributed-tracing identifiers in effect for the given
// dispatch.  The returned SpanContext is invalid when no trace is active.
type ContextResolver interface {
	ActiveSpanContext(ctx context.Context, id ID) trace.SpanContext
}

// TracingStage is a Stage that owns the active trace context and can answer
// the ContextResolver query for spans it has observed.  Within a Pipeline
// the tracing stage observes every event before the formatting side, so its
// answer is up to date by the time it is queried.
type TracingStage interface {
	Stage
	ContextResolver
}

type wrapper interface {
	Unwrap() Stage
}

var stageType = reflect.TypeOf((*Stage)(nil)).Elem()

// As finds the first stage in s's unwrap chain assignable to the value
// pointed to by target, and if one is found, sets target to it and returns
// true.  It is the capability probe for decorated stages, shaped after
// errors.As.
//
// As panics if target is not a non-nil pointer to either a type that
// implements Stage, or to any interface type.
func As(s Stage, target any) bool {
	if target == nil {
		panic("otelfmt: target cannot be nil")
	}

	val := reflect.ValueOf(target)
	typ := val.Type()

	if typ.Kind() != reflect.Pointer || val.IsNil() {
		panic("otelfmt: target must be a non-nil pointer")
	}

	targetType := typ.Elem()
	if targetType.Kind() != reflect.Interface && !targetType.Implements(stageType) {
		panic("otelfmt: *target must be interface or implement Stage")
	}

	for s != nil {
		if reflect.TypeOf(s).AssignableTo(targetType) {
			val.Elem().Set(reflect.ValueOf(s))
			return true
		}

		w, ok := s.(wrapper)
		if !ok {
			return false
		}

		s = w.Unwrap()
	}

	return false
}
