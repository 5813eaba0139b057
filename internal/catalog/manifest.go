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

package catalog

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/coreos/go-semver/semver"
	"golang.org/x/mod/sumdb/note"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

// Manifest is a versioned list of additional firmware descriptors,
// distributed as a signed note.
type Manifest struct {
	Version     semver.Version
	Descriptors []Descriptor
}

// manifestBody is the YAML form of a manifest's note text.
type manifestBody struct {
	Version     string `yaml:"version"`
	Descriptors []struct {
		Name     string `yaml:"name"`
		Identify []struct {
			Offset uint64 `yaml:"offset"`
			Width  int    `yaml:"width"`
			Value  uint64 `yaml:"value"`
		} `yaml:"identify"`
		Regions []struct {
			Start  uint64 `yaml:"start"`
			End    uint64 `yaml:"end"`
			SHA256 string `yaml:"sha256"`
		} `yaml:"regions"`
	} `yaml:"descriptors"`
}

// OpenManifest verifies the signature on a manifest note and parses its
// contents. The note must carry a valid signature from at least one of the
// provided verifiers.
func OpenManifest(msg []byte, verifiers ...note.Verifier) (*Manifest, error) {
	if len(verifiers) == 0 {
		return nil, errors.New("no manifest verifiers provided")
	}
	n, err := note.Open(msg, note.VerifierList(verifiers...))
	if err != nil {
		return nil, fmt.Errorf("failed to verify manifest: %w", err)
	}
	for _, s := range n.Sigs {
		klog.V(1).Infof("Manifest signed by %q (hash %08x)", s.Name, s.Hash)
	}
	return ParseManifest([]byte(n.Text))
}

// ParseManifest parses the YAML text of a manifest.
// It performs no signature verification, see OpenManifest.
func ParseManifest(text []byte) (*Manifest, error) {
	var body manifestBody
	dec := yaml.NewDecoder(bytes.NewReader(text))
	dec.KnownFields(true)
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("invalid manifest contents: %w", err)
	}

	v, err := semver.NewVersion(body.Version)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest version %q: %w", body.Version, err)
	}
	m := &Manifest{Version: *v}

	for _, bd := range body.Descriptors {
		d := Descriptor{Name: bd.Name}
		for _, c := range bd.Identify {
			d.Identify = append(d.Identify, Check{Offset: c.Offset, Width: c.Width, Value: c.Value})
		}
		for i, r := range bd.Regions {
			dg, err := ParseDigest(r.SHA256)
			if err != nil {
				return nil, fmt.Errorf("descriptor %q region %d: %w", bd.Name, i, err)
			}
			d.Regions = append(d.Regions, Region{Start: r.Start, End: r.End, Digest: dg})
		}
		if err := d.Validate(); err != nil {
			return nil, err
		}
		m.Descriptors = append(m.Descriptors, d)
	}
	return m, nil
}

// CheckVersion returns an error if the manifest is older than minVer.
func (m *Manifest) CheckVersion(minVer semver.Version) error {
	if m.Version.LessThan(minVer) {
		return fmt.Errorf("manifest version %s is older than minimum %s", m.Version, minVer)
	}
	return nil
}

// Catalog returns a catalog holding the manifest's descriptors.
func (m *Manifest) Catalog() (*Catalog, error) {
	return New(m.Descriptors...)
}
