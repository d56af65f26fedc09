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

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"m4o.io/otelfmt"
)

var _ = Describe("otelfmt builder", func() {
	var ctx context.Context
	var tracing *tracingStub
	var formatter *recorder
	var builder *otelfmt.Builder

	BeforeEach(func() {
		ctx = context.Background()
		tracing = newTracingStub(validSpanContext(), nil)
		formatter = newRecorder("fmt", nil)
		builder = otelfmt.NewBuilder(tracing, formatter)
	})

	injectedKeys := func(p *otelfmt.Pipeline) []string {
		p.OnAttach(testRegistry{1: spanMD})
		formatter.calls = nil

		p.OnEnter(ctx, 1)

		Ω(formatter.calls).Should(HaveLen(2))
		rec := formatter.calls[1].rec

		keys := make([]string, 0, len(rec.Fields))
		for _, f := range rec.Fields {
			keys = append(keys, f.Key)
		}

		return keys
	}

	When("built with defaults", func() {
		It("injects under the well-known field names", func() {
			Ω(injectedKeys(builder.Build())).Should(Equal([]string{"trace.id", "span.id"}))
		})
	})

	When("built with custom field names", func() {
		BeforeEach(func() {
			builder = builder.WithFieldNames("custom.trace.id", "custom.span.id")
		})

		It("injects under the custom field names", func() {
			Ω(injectedKeys(builder.Build())).Should(Equal([]string{"custom.trace.id", "custom.span.id"}))
		})
	})

	When("field names are replaced after build", func() {
		It("the built pipeline is unaffected", func() {
			p := builder.Build()
			builder.WithFieldNames("too", "late")

			Ω(injectedKeys(p)).Should(Equal([]string{"trace.id", "span.id"}))
		})
	})

	When("built twice", func() {
		It("panics on the second build", func() {
			builder.Build()

			Ω(func() { builder.Build() }).Should(PanicWith("otelfmt: builder already consumed"))
		})
	})

	When("constructed with nil stages", func() {
		It("panics", func() {
			Ω(func() { otelfmt.NewBuilder(nil, formatter) }).Should(PanicWith("otelfmt: tracing stage is nil"))
			Ω(func() { otelfmt.NewBuilder(tracing, nil) }).Should(PanicWith("otelfmt: formatting stage is nil"))
		})
	})

	When("hints are combined", func() {
		BeforeEach(func() {
			formatter.hint, formatter.hintOK = slog.LevelInfo, true
		})

		It("takes the only hint available", func() {
			level, ok := builder.Build().MaxLevelHint()

			Ω(ok).Should(BeTrue())
			Ω(level).Should(Equal(slog.LevelInfo))
		})

		It("takes the most verbose hint when both answer", func() {
			tracing.hint, tracing.hintOK = slog.LevelDebug, true

			level, ok := builder.Build().MaxLevelHint()

			Ω(ok).Should(BeTrue())
			Ω(level).Should(Equal(slog.LevelDebug))
		})
	})
})
