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
	"log/slog"
	"time"
)

// Metadata describes the callsite a span or event originates from.  The
// registry registers each Metadata value once; its pointer identity is the
// callsite token, so stages compare metadata by pointer.
type Metadata struct {
	// Name is the span name, or a short description for events.
	Name string

	// Target is the dotted path of the instrumented component, typically
	// a package path.
	Target string

	// Level is the verbosity of everything dispatched from the callsite.
	Level slog.Level

	// File and Line locate the callsite in source, when known.
	File string
	Line int
}

// Attributes is the payload of a new-span dispatch.
type Attributes struct {
	// Metadata is the span's callsite.  Never nil.
	Metadata *Metadata

	// Fields are the values the span was created with, in declaration
	// order.
	Fields []slog.Attr

	// Parent names an explicit parent span, or 0 when the parent is
	// contextual.
	Parent ID
}

// Event is the payload of an emit-event dispatch.
type Event struct {
	// Metadata is the event's callsite.  Never nil.
	Metadata *Metadata

	// Message is the human-readable event text.
	Message string

	// Fields are the event's values, in declaration order.
	Fields []slog.Attr

	// Span names the enclosing span, or 0 when the event is emitted
	// outside any span.
	Span ID

	// Time is when the event occurred.  The zero value means "at
	// rendering time".
	Time time.Time
}

// Record is the payload of a record-fields dispatch: a batch of fields to be
// merged into a span's recorded values.  Field order is preserved all the
// way to the output.
type Record struct {
	// Origin is the callsite the fields belong to.  For records
	// synthesized during span activation it is the entered span's own
	// metadata.
	Origin *Metadata

	// Fields are the recorded values, in order.
	Fields []slog.Attr
}
