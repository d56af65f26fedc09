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
	"go.opentelemetry.io/otel/trace"

	"m4o.io/otelfmt"
)

var _ = Describe("otelfmt pipeline", func() {
	var ctx context.Context
	var journal []string
	var tracing *tracingStub
	var formatter *recorder
	var pipeline *otelfmt.Pipeline

	BeforeEach(func() {
		ctx = context.Background()
		journal = nil
		tracing = newTracingStub(trace.SpanContext{}, &journal)
		formatter = newRecorder("fmt", &journal)
		pipeline = otelfmt.NewBuilder(tracing, formatter).Build()
	})

	DescribeTable("the tracing stage observes every event first",
		func(method string, dispatch func()) {
			dispatch()

			Ω(journal).Should(Equal([]string{"tracing:" + method, "fmt:" + method}))
		},
		Entry("layer attach", "OnAttach",
			func() { pipeline.OnAttach(testRegistry{}) }),
		Entry("callsite registration", "RegisterCallsite",
			func() { pipeline.RegisterCallsite(spanMD) }),
		Entry("enabled query", "Enabled",
			func() { pipeline.Enabled(ctx, spanMD) }),
		Entry("max level query", "MaxLevelHint",
			func() { pipeline.MaxLevelHint() }),
		Entry("new span", "OnNewSpan",
			func() { pipeline.OnNewSpan(ctx, &otelfmt.Attributes{Metadata: spanMD}, 1) }),
		Entry("record fields", "OnRecord",
			func() { pipeline.OnRecord(ctx, 1, otelfmt.Record{}) }),
		Entry("follows from", "OnFollowsFrom",
			func() { pipeline.OnFollowsFrom(ctx, 1, 2) }),
		Entry("event enabled query", "EventEnabled",
			func() { pipeline.EventEnabled(ctx, &otelfmt.Event{Metadata: spanMD}) }),
		Entry("emit event", "OnEvent",
			func() { pipeline.OnEvent(ctx, &otelfmt.Event{Metadata: spanMD}) }),
		Entry("enter span", "OnEnter",
			func() { pipeline.OnEnter(ctx, 1) }),
		Entry("exit span", "OnExit",
			func() { pipeline.OnExit(ctx, 1) }),
		Entry("close span", "OnClose",
			func() { pipeline.OnClose(ctx, 1) }),
		Entry("change id", "OnIDChange",
			func() { pipeline.OnIDChange(ctx, 1, 2) }),
	)

	When("only one inner stage is enabled", func() {
		It("the pipeline stays enabled and both stages are consulted", func() {
			formatter.enabled = true

			Ω(pipeline.Enabled(ctx, spanMD)).Should(BeTrue())
			Ω(journal).Should(Equal([]string{"tracing:Enabled", "fmt:Enabled"}))
		})
	})

	When("no inner stage is enabled", func() {
		It("the pipeline is disabled", func() {
			formatter.enabled = false

			Ω(pipeline.Enabled(ctx, spanMD)).Should(BeFalse())
		})
	})

	When("interests are combined", func() {
		It("the most permissive wins", func() {
			formatter.interest = otelfmt.InterestSometimes

			Ω(pipeline.RegisterCallsite(spanMD)).Should(Equal(otelfmt.InterestSometimes))
		})
	})

	When("no inner stage bounds its level", func() {
		It("neither does the pipeline", func() {
			_, ok := pipeline.MaxLevelHint()

			Ω(ok).Should(BeFalse())
		})
	})

	When("a span is entered with a valid ambient context", func() {
		BeforeEach(func() {
			tracing.sc = validSpanContext()
			pipeline.OnAttach(testRegistry{1: spanMD})
			journal = nil
		})

		It("entry output precedes the injected record", func() {
			pipeline.OnEnter(ctx, 1)

			Ω(journal).Should(Equal([]string{"tracing:OnEnter", "fmt:OnEnter", "fmt:OnRecord"}))
		})

		It("the injected record names the entered span's callsite", func() {
			pipeline.OnEnter(ctx, 1)

			last := formatter.calls[len(formatter.calls)-1]
			Ω(last.method).Should(Equal("OnRecord"))
			Ω(last.rec.Origin).Should(BeIdenticalTo(spanMD))
			Ω(last.rec.Fields).Should(HaveLen(2))
		})
	})

	When("interest is stringified", func() {
		It("reads naturally", func() {
			Ω(otelfmt.InterestNever.String()).Should(Equal("never"))
			Ω(otelfmt.InterestSometimes.String()).Should(Equal("sometimes"))
			Ω(otelfmt.InterestAlways.String()).Should(Equal("always"))
			Ω(otelfmt.Interest(42).String()).Should(Equal("unknown"))
		})
	})
})

var _ = Describe("otelfmt level hints", func() {
	It("prefers the formatting hint when tracing has none", func() {
		tracing := newTracingStub(trace.SpanContext{}, nil)
		formatter := newRecorder("fmt", nil)
		formatter.hint, formatter.hintOK = slog.LevelError, true

		level, ok := otelfmt.NewBuilder(tracing, formatter).Build().MaxLevelHint()

		Ω(ok).Should(BeTrue())
		Ω(level).Should(Equal(slog.LevelError))
	})
})
