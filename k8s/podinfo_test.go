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

package k8s_test

import (
	"context"

	"cloud.google.com/go/logging"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"m4o.io/otelfmt/internal/options"
	"m4o.io/otelfmt/k8s"
)

var _ = Describe("WithPodinfoLabels", func() {
	var root string
	var entry *logging.Entry

	BeforeEach(func() {
		entry = &logging.Entry{}
	})

	JustBeforeEach(func() {
		o := options.Apply(k8s.WithPodinfoLabels(root))
		Ω(o.EntryAugmentors).Should(HaveLen(1))

		o.EntryAugmentors[0](context.Background(), entry)
	})

	When("the podinfo labels file exists", func() {
		BeforeEach(func() {
			root = "testdata/etc/podinfo"
		})

		It("labels entries with the k8s-pod/ prefix", func() {
			Ω(entry.Labels).Should(Equal(map[string]string{
				"k8s-pod/app":         "hello-world",
				"k8s-pod/empty":       "",
				"k8s-pod/environment": "stg",
				"k8s-pod/tier":        "backend",
				"k8s-pod/track":       "stable",
			}))
		})

		When("the entry already carries labels", func() {
			BeforeEach(func() {
				entry.Labels = map[string]string{"a": "one"}
			})

			It("merges rather than replaces", func() {
				Ω(entry.Labels).Should(HaveKeyWithValue("a", "one"))
				Ω(entry.Labels).Should(HaveKeyWithValue("k8s-pod/app", "hello-world"))
			})
		})
	})

	When("the podinfo labels file is missing", func() {
		BeforeEach(func() {
			root = "testdata/nowhere/podinfo"
		})

		It("leaves entries untouched", func() {
			Ω(entry.Labels).Should(BeNil())
		})
	})

	When("the podinfo labels file is malformed", func() {
		BeforeEach(func() {
			root = "testdata/ouch/podinfo"
		})

		It("leaves entries untouched", func() {
			Ω(entry.Labels).Should(BeNil())
		})
	})
})
