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
Package attr maps slog.Attr fields to their corresponding structpb.Value
payload values.
*/
package attr

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"time"

	spb "google.golang.org/protobuf/types/known/structpb"
)

// NilValue is the structpb rendering of an absent value.
var NilValue = &spb.Value{Kind: &spb.Value_NullValue{NullValue: spb.NullValue_NULL_VALUE}}

// Decorate adds the field to the struct's Fields.  Fields that cannot be
// mapped to a spb.Value are dropped.  Group fields with an empty key are
// inlined.
func Decorate(p *spb.Struct, a slog.Attr) {
	rv := a.Value.Resolve()
	if a.Key == "" && rv.Any() == nil {
		return
	}

	val, ok := ToValue(rv)
	if !ok {
		return
	}

	if a.Key == "" && rv.Kind() == slog.KindGroup {
		for k, v := range val.GetStructValue().GetFields() {
			p.Fields[k] = v
		}

		return
	}

	p.Fields[a.Key] = val
}

// ToValue maps a resolved slog.Value to a spb.Value.  Values of kind
// slog.KindAny are mapped with the following precedence:
//
//   - an error that is not a json.Marshaler maps to its Error() string
//   - a value directly mappable via structpb.NewValue maps to that value
//   - a value encodable as JSON maps to the structpb form of that JSON
//   - anything else is dropped
func ToValue(v slog.Value) (*spb.Value, bool) {
	switch v.Kind() {
	case slog.KindString:
		return spb.NewStringValue(v.String()), true
	case slog.KindInt64:
		return spb.NewNumberValue(float64(v.Int64())), true
	case slog.KindUint64:
		return spb.NewNumberValue(float64(v.Uint64())), true
	case slog.KindFloat64:
		return spb.NewNumberValue(v.Float64()), true
	case slog.KindBool:
		return spb.NewBoolValue(v.Bool()), true
	case slog.KindDuration:
		return spb.NewNumberValue(float64(v.Duration())), true
	case slog.KindTime:
		return spb.NewStringValue(v.Time().Format(time.RFC3339Nano)), true
	case slog.KindGroup:
		if len(v.Group()) == 0 {
			return nil, false
		}

		return groupValue(v.Group()), true
	case slog.KindAny:
		return anyValue(v.Any())
	default:
		return nil, false
	}
}

func groupValue(group []slog.Attr) *spb.Value {
	p := &spb.Struct{Fields: make(map[string]*spb.Value)}
	for _, a := range group {
		Decorate(p, a)
	}

	return spb.NewStructValue(p)
}

func anyValue(a any) (*spb.Value, bool) {
	if a == nil {
		return NilValue, true
	}

	_, marshaler := a.(json.Marshaler)
	if err, ok := a.(error); ok && !marshaler {
		return spb.NewStringValue(err.Error()), true
	}

	if nv, err := spb.NewValue(a); err == nil {
		return nv, true
	}

	return asJSON(a)
}

// asJSON round-trips the value through JSON and maps the result.
func asJSON(a any) (*spb.Value, bool) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(a); err != nil {
		return nil, false
	}

	var decoded any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		return nil, false
	}

	nv, err := spb.NewValue(decoded)
	if err != nil {
		return nil, false
	}

	return nv, true
}
