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
Package k8s labels Cloud Logging entries with Kubernetes Downward API
podinfo labels.

Placing the option in a separate package keeps the dependency out of
pipelines that do not run on Kubernetes.
*/
package k8s

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"cloud.google.com/go/logging"
	"github.com/magiconair/properties"
	"github.com/pkg/errors"

	"m4o.io/otelfmt/internal/options"
)

const (
	// PodPrefix is the prefix for labels obtained from the Kubernetes
	// Downward API podinfo labels file, per the Google Cloud Logging
	// conventions for Kubernetes Pod labels.
	PodPrefix = "k8s-pod/"
)

// WithPodinfoLabels returns an option that directs the GCP stage to label
// every entry with the Kubernetes Downward API podinfo labels.  The labels
// file is expected in the directory specified by root and MUST be named
// "labels", per the Downward API for Pods.
func WithPodinfoLabels(root string) options.OptionProcessor {
	return func(o *options.Options) {
		o.EntryAugmentors = append(o.EntryAugmentors, podinfoAugmentor(root))
	}
}

func podinfoAugmentor(root string) options.EntryAugmentor {
	path := filepath.Join(root, "labels")

	props, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("Podinfo file does not exist", "path", path)
		} else {
			slog.Warn("Unable to load podinfo labels", "error", errors.Wrapf(err, "load %s", path))
		}

		return func(_ context.Context, _ *logging.Entry) {}
	}

	return func(_ context.Context, entry *logging.Entry) {
		if entry.Labels == nil {
			entry.Labels = make(map[string]string)
		}

		for key, val := range props.Map() {
			if len(val) > 1 && val[0] == '"' {
				val = val[1 : len(val)-1]
			}

			entry.Labels[PodPrefix+key] = val
		}
	}
}
