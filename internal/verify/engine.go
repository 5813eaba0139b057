// Copyright 2026 The Firmware Hashcheck authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package verify identifies firmware images against a catalog and checks
// the integrity of the regions the matching descriptor lists.
//
// A run is two sequential stages over a single seekable source:
//
//	d, ok, err := verify.Identify(src, catalog.Builtin())
//	...
//	res, err := verify.Verify(src, d)
//
// Unidentified images and digest mismatches are results, not errors; only
// failures to read the source are returned as errors.
package verify

import (
	"io"

	"github.com/transparency-dev/firmware-hashcheck/internal/catalog"
)

// Tracker observes the bytes read while a region is hashed.
type Tracker interface {
	// Track is called before region r of firmware name is hashed. The
	// returned reader is used in place of rd, and done is called once the
	// region has been read.
	Track(name string, r catalog.Region, rd io.Reader) (tracked io.Reader, done func())
}

// Option configures an Engine.
type Option func(*Engine)

// WithTracker sets a tracker which is notified as regions are hashed.
func WithTracker(t Tracker) Option {
	return func(e *Engine) {
		e.tracker = t
	}
}

// WithMetrics sets the metrics updated by the engine.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// Engine performs identification and verification of firmware images.
// An Engine holds no per-image state and may be used concurrently, provided
// any configured Tracker is safe for concurrent use.
type Engine struct {
	tracker Tracker
	metrics *Metrics
}

// New creates an engine configured with the given options.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, o := range opts {
		o(e)
	}
	return e
}

var defaultEngine = New()

// Identify returns the first descriptor in c matching src, using a default
// engine.
func Identify(src io.ReadSeeker, c *catalog.Catalog) (catalog.Descriptor, bool, error) {
	return defaultEngine.Identify(src, c)
}

// Verify checks every region of d against src, using a default engine.
func Verify(src io.ReadSeeker, d catalog.Descriptor) (*Result, error) {
	return defaultEngine.Verify(src, d)
}

// Reporter receives the outcome of each stage of a Check.
type Reporter interface {
	// Identified is called once identification completes. ok is false if
	// no descriptor matched, in which case d is the zero value and no
	// further calls are made.
	Identified(d catalog.Descriptor, ok bool) error
	// Verified is called once all regions have been checked.
	Verified(r *Result) error
}

// Check identifies src against c and, if a descriptor matches, verifies its
// regions. Each stage is passed to rep as soon as it completes, so the
// identification outcome is reported even if verification later fails with
// an error.
func (e *Engine) Check(src io.ReadSeeker, c *catalog.Catalog, rep Reporter) (*Result, error) {
	d, ok, err := e.Identify(src, c)
	if err != nil {
		return nil, err
	}
	if err := rep.Identified(d, ok); err != nil {
		return nil, err
	}
	if !ok {
		return &Result{}, nil
	}
	res, err := e.Verify(src, d)
	if err != nil {
		return nil, err
	}
	if err := rep.Verified(res); err != nil {
		return nil, err
	}
	return res, nil
}
