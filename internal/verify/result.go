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
	"fmt"

	"github.com/transparency-dev/merkle/compact"
	"github.com/transparency-dev/merkle/rfc6962"

	"github.com/transparency-dev/firmware-hashcheck/internal/catalog"
)

// RegionResult is the outcome of checking a single region.
type RegionResult struct {
	Region catalog.Region
	// Digest is the digest computed over the region's bytes.
	Digest catalog.Digest
	Passed bool
}

// Result is the outcome of checking an image.
type Result struct {
	// Name is the name of the matched descriptor, empty if Identified is
	// false.
	Name       string
	Identified bool
	// Regions holds the per-region outcomes in descriptor order.
	Regions []RegionResult
}

// Passed returns true iff the image was identified and every region
// verified.
func (r *Result) Passed() bool {
	if !r.Identified {
		return false
	}
	for _, rr := range r.Regions {
		if !rr.Passed {
			return false
		}
	}
	return true
}

// Failed returns the regions which did not verify, in order.
func (r *Result) Failed() []RegionResult {
	var f []RegionResult
	for _, rr := range r.Regions {
		if !rr.Passed {
			f = append(f, rr)
		}
	}
	return f
}

// Root returns the RFC 6962 Merkle tree root committing to the computed
// region digests, in order. Two images have the same root iff every region
// hashed identically.
func (r *Result) Root() ([]byte, error) {
	h := rfc6962.DefaultHasher
	if len(r.Regions) == 0 {
		return h.EmptyRoot(), nil
	}
	rf := compact.RangeFactory{Hash: h.HashChildren}
	cr := rf.NewEmptyRange(0)
	for i, rr := range r.Regions {
		if err := cr.Append(h.HashLeaf(rr.Digest[:]), nil); err != nil {
			return nil, fmt.Errorf("append region %d: %v", i, err)
		}
	}
	return cr.GetRootHash(nil)
}
