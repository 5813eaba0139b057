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
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/transparency-dev/firmware-hashcheck/internal/catalog"
)

// TextReporter writes the human readable report, one line per event.
type TextReporter struct {
	W io.Writer
}

// Identified implements Reporter.
func (t TextReporter) Identified(d catalog.Descriptor, ok bool) error {
	if !ok {
		_, err := fmt.Fprintln(t.W, "Firmware not identified.")
		return err
	}
	_, err := fmt.Fprintf(t.W, "Firmware identified: %s\n", d.Name)
	return err
}

// Verified implements Reporter.
func (t TextReporter) Verified(r *Result) error {
	for _, rr := range r.Failed() {
		if _, err := fmt.Fprintf(t.W, "Region from 0x%x to 0x%x failed to verify.\n", rr.Region.Start, rr.Region.End); err != nil {
			return err
		}
	}
	msg := "Firmware data verified."
	if !r.Passed() {
		msg = "One or more regions of firmware data failed to verify."
	}
	_, err := fmt.Fprintln(t.W, msg)
	return err
}

// WriteText writes the complete text report for a finished check to w.
func WriteText(w io.Writer, r *Result) error {
	t := TextReporter{W: w}
	if err := t.Identified(catalog.Descriptor{Name: r.Name}, r.Identified); err != nil {
		return err
	}
	if !r.Identified {
		return nil
	}
	return t.Verified(r)
}

// JSONReporter writes a single JSON document describing the outcome once
// the check completes.
type JSONReporter struct {
	W io.Writer
}

type jsonRegion struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Expected string `json:"expected_sha256"`
	Computed string `json:"computed_sha256"`
	Passed   bool   `json:"passed"`
}

type jsonReport struct {
	Firmware   string       `json:"firmware,omitempty"`
	Identified bool         `json:"identified"`
	Verified   bool         `json:"verified"`
	Root       string       `json:"regions_root,omitempty"`
	Regions    []jsonRegion `json:"regions,omitempty"`
}

// Identified implements Reporter.
func (j JSONReporter) Identified(_ catalog.Descriptor, ok bool) error {
	if ok {
		return nil
	}
	return j.write(jsonReport{})
}

// Verified implements Reporter.
func (j JSONReporter) Verified(r *Result) error {
	root, err := r.Root()
	if err != nil {
		return err
	}
	rep := jsonReport{
		Firmware:   r.Name,
		Identified: r.Identified,
		Verified:   r.Passed(),
		Root:       hex.EncodeToString(root),
	}
	for _, rr := range r.Regions {
		rep.Regions = append(rep.Regions, jsonRegion{
			Start:    fmt.Sprintf("0x%x", rr.Region.Start),
			End:      fmt.Sprintf("0x%x", rr.Region.End),
			Expected: rr.Region.Digest.String(),
			Computed: rr.Digest.String(),
			Passed:   rr.Passed,
		})
	}
	return j.write(rep)
}

func (j JSONReporter) write(rep jsonReport) error {
	enc := json.NewEncoder(j.W)
	enc.SetIndent("", " ")
	return enc.Encode(rep)
}

// NewReporter returns the reporter for the named format, "text" or "json",
// writing to w.
func NewReporter(format string, w io.Writer) (Reporter, error) {
	switch format {
	case "text":
		return TextReporter{W: w}, nil
	case "json":
		return JSONReporter{W: w}, nil
	}
	return nil, fmt.Errorf("unknown report format %q", format)
}
