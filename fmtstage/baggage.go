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

package fmtstage

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/baggage"
)

// BaggageKey is the prefix for fields obtained from OpenTelemetry baggage,
// to mitigate collision with other log fields.
const BaggageKey = "otel-baggage/"

// baggageAttrs maps the context's baggage members to log fields.  A member
// without properties maps to a string field.  A member with properties maps
// to a group with a "value" field and a "properties" subgroup; properties
// without values map to nil.
//
// For example, "a=one,b=two;p1;p2=val2" maps to
//
//	slog.String("otel-baggage/a", "one")
//	slog.Group("otel-baggage/b",
//		slog.String("value", "two"),
//		slog.Group("properties",
//			slog.Any("p1", nil),
//			slog.String("p2", "val2"),
//		),
//	)
func baggageAttrs(ctx context.Context) []slog.Attr {
	members := baggage.FromContext(ctx).Members()
	if len(members) == 0 {
		return nil
	}

	attrs := make([]slog.Attr, 0, len(members))
	for _, m := range members {
		attrs = append(attrs, baggageAttr(m))
	}

	return attrs
}

func baggageAttr(m baggage.Member) slog.Attr {
	key := BaggageKey + m.Key()

	if len(m.Properties()) == 0 {
		return slog.String(key, m.Value())
	}

	props := make([]any, 0, len(m.Properties()))

	for _, p := range m.Properties() {
		if val, has := p.Value(); has {
			props = append(props, slog.String(p.Key(), val))
		} else {
			props = append(props, slog.Any(p.Key(), nil))
		}
	}

	return slog.Group(key,
		slog.String("value", m.Value()),
		slog.Group("properties", props...))
}
