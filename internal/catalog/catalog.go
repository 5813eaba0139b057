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

// Package catalog describes the known firmware variants: how to recognise
// each of them, and which regions of the image must hash to known-good
// values.
package catalog

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"math"
	"slices"
)

// DigestSize is the length in bytes of a region digest (SHA-256).
const DigestSize = sha256.Size

// Digest is the SHA-256 digest of a region of a firmware image.
type Digest [DigestSize]byte

// Check is a single identification step: the Width bytes found at Offset,
// decoded as a little-endian unsigned integer, must equal Value.
type Check struct {
	// Offset is the absolute position in the image of the first byte read.
	Offset uint64
	// Width is the number of bytes read, one of 1, 2, 4 or 8.
	Width int
	// Value is the expected decoded value.
	Value uint64
}

// Validate checks that the check is self-consistent.
func (c Check) Validate() error {
	switch c.Width {
	case 1, 2, 4, 8:
	default:
		return fmt.Errorf("invalid check width %d at offset %#x", c.Width, c.Offset)
	}
	if c.Width < 8 && c.Value>>(8*c.Width) != 0 {
		return fmt.Errorf("check value %#x at offset %#x does not fit in %d bytes", c.Value, c.Offset, c.Width)
	}
	if c.Offset > math.MaxInt64-uint64(c.Width) {
		return fmt.Errorf("check offset %#x out of range", c.Offset)
	}
	return nil
}

// Region is a contiguous range of an image, [Start, End] inclusive, which
// must hash to Digest.
type Region struct {
	Start  uint64
	End    uint64
	Digest Digest
}

// Len returns the number of bytes covered by the region.
func (r Region) Len() uint64 {
	return r.End - r.Start + 1
}

// Contains reports whether the byte at offset off falls inside the region.
func (r Region) Contains(off uint64) bool {
	return off >= r.Start && off <= r.End
}

// Validate checks that the region describes a sensible range.
func (r Region) Validate() error {
	if r.End < r.Start {
		return fmt.Errorf("invalid region: end %#x before start %#x", r.End, r.Start)
	}
	if r.End >= math.MaxInt64 {
		return fmt.Errorf("invalid region: end %#x out of range", r.End)
	}
	return nil
}

func (r Region) String() string {
	return fmt.Sprintf("[%#x, %#x]", r.Start, r.End)
}

// Descriptor describes one known firmware variant.
type Descriptor struct {
	// Name is a human readable identifier, unique within a Catalog.
	Name string
	// Identify lists the checks which must all succeed for an image to be
	// considered an instance of this firmware.
	Identify []Check
	// Regions lists the ranges to verify, in report order.
	Regions []Region
}

// Validate checks that the descriptor can be used for identification and
// verification.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return errors.New("descriptor has no name")
	}
	if len(d.Identify) == 0 {
		return fmt.Errorf("descriptor %q has no identification checks", d.Name)
	}
	for i, c := range d.Identify {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("descriptor %q check %d: %v", d.Name, i, err)
		}
	}
	for i, r := range d.Regions {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("descriptor %q region %d: %v", d.Name, i, err)
		}
	}
	return nil
}

func (d Descriptor) clone() Descriptor {
	return Descriptor{
		Name:     d.Name,
		Identify: slices.Clone(d.Identify),
		Regions:  slices.Clone(d.Regions),
	}
}

// Catalog is an ordered, immutable collection of firmware descriptors.
//
// Order matters: when more than one descriptor could match an image, the
// earliest one wins.
type Catalog struct {
	entries []Descriptor
}

// New returns a catalog holding copies of the given descriptors, in order.
func New(ds ...Descriptor) (*Catalog, error) {
	c := &Catalog{entries: make([]Descriptor, 0, len(ds))}
	seen := make(map[string]bool, len(ds))
	for _, d := range ds {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("duplicate descriptor name %q", d.Name)
		}
		seen[d.Name] = true
		c.entries = append(c.entries, d.clone())
	}
	return c, nil
}

// Merge returns a new catalog containing the entries of base followed by
// those of extra.
func Merge(base, extra *Catalog) (*Catalog, error) {
	return New(append(base.Entries(), extra.Entries()...)...)
}

// Entries returns the catalog's descriptors in order.
// The returned descriptors are copies; modifying them does not affect the
// catalog.
func (c *Catalog) Entries() []Descriptor {
	r := make([]Descriptor, len(c.entries))
	for i, d := range c.entries {
		r[i] = d.clone()
	}
	return r
}

// Len returns the number of descriptors in the catalog.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Lookup returns the descriptor with the given name.
func (c *Catalog) Lookup(name string) (Descriptor, bool) {
	for _, d := range c.entries {
		if d.Name == name {
			return d.clone(), true
		}
	}
	return Descriptor{}, false
}
