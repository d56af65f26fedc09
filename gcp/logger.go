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

	"cloud.google.com/go/logging"
)

// Logger wraps the methods the stage uses when interacting with a
// logging.Logger.  The interface exists so the Cloud Logging client can be
// stubbed out for testing and benchmarking.
type Logger interface {
	// Log buffers the entry for asynchronous delivery.
	Log(e logging.Entry)

	// LogSync delivers the entry immediately, for severities that must
	// not be lost to a crash.
	LogSync(ctx context.Context, e logging.Entry) error

	// Flush blocks until buffered entries are delivered.
	Flush() error
}

// The LoggerFunc type is an adapter to allow the use of ordinary functions
// as a Logger.
type LoggerFunc func(e logging.Entry)

func (fn LoggerFunc) Log(e logging.Entry) {
	fn(e)
}

func (fn LoggerFunc) LogSync(_ context.Context, e logging.Entry) error {
	fn(e)
	return nil
}

func (fn LoggerFunc) Flush() error { return nil }

type discard struct{}

func (discard) Log(_ logging.Entry) {}

func (discard) LogSync(_ context.Context, _ logging.Entry) error { return nil }

func (discard) Flush() error { return nil }

// Discard is a do-nothing Logger for tests and benchmarks.
var Discard Logger = discard{}
