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

package gcp

import (
	"context"
	"log/slog"
)

const (
	maxLabels = 64
)

// LabelPair is a key-value string pair destined for an entry's labels.
type LabelPair struct {
	valid bool
	key   string
	val   string
}

// LogValue returns the slog.Value of the label pair.
func (lp LabelPair) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("key", lp.key),
		slog.String("value", lp.val))
}

// Label returns a new LabelPair from a key and a value.
func Label(key, value string) LabelPair {
	return LabelPair{valid: true, key: key, val: value}
}

type labelsKey struct{}

// WithLabels returns a new Context carrying labels to be placed on every
// entry emitted using that context.  Labels accumulate; a later pair with
// the same key overrides the earlier one.
func WithLabels(ctx context.Context, labelPairs ...LabelPair) context.Context {
	parent, _ := ctx.Value(labelsKey{}).(map[string]string)

	merged := make(map[string]string, len(parent)+len(labelPairs))
	for k, v := range parent {
		merged[k] = v
	}

	for _, lp := range labelPairs {
		if !lp.valid {
			panic("invalid label passed to WithLabels()")
		}

		if _, exists := merged[lp.key]; !exists && len(merged) >= maxLabels {
			slog.Error("Too many labels", "ignored", lp)

			continue
		}

		merged[lp.key] = lp.val
	}

	return context.WithValue(ctx, labelsKey{}, merged)
}

// ExtractLabels returns the labels associated with the context by
// WithLabels.  The returned map must not be mutated.
func ExtractLabels(ctx context.Context) map[string]string {
	labels, _ := ctx.Value(labelsKey{}).(map[string]string)

	return labels
}
