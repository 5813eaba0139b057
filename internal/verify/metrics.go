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

package verify

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters updated by an Engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	identifiedImages   *prometheus.CounterVec
	unidentifiedImages prometheus.Counter
	regionsChecked     *prometheus.CounterVec
	errors             prometheus.Counter
}

// NewMetrics creates the engine counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		identifiedImages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hashcheck_images_identified_total",
			Help: "Number of images matched to a catalog entry.",
		}, []string{"firmware"}),
		unidentifiedImages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hashcheck_images_unidentified_total",
			Help: "Number of images which matched no catalog entry.",
		}),
		regionsChecked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hashcheck_regions_checked_total",
			Help: "Number of regions hashed, by firmware and outcome.",
		}, []string{"firmware", "result"}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hashcheck_errors_total",
			Help: "Number of checks aborted by an error reading the image.",
		}),
	}
	reg.MustRegister(m.identifiedImages, m.unidentifiedImages, m.regionsChecked, m.errors)
	return m
}

func (m *Metrics) identified(name string) {
	if m == nil {
		return
	}
	m.identifiedImages.WithLabelValues(name).Inc()
}

func (m *Metrics) unidentified() {
	if m == nil {
		return
	}
	m.unidentifiedImages.Inc()
}

func (m *Metrics) region(name string, passed bool) {
	if m == nil {
		return
	}
	result := "fail"
	if passed {
		result = "pass"
	}
	m.regionsChecked.WithLabelValues(name, result).Inc()
}

func (m *Metrics) failed() {
	if m == nil {
		return
	}
	m.errors.Inc()
}
