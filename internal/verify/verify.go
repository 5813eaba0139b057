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
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"k8s.io/klog/v2"

	"github.com/transparency-dev/firmware-hashcheck/internal/catalog"
)

// Verify hashes every region of d, in order, and compares the result with
// the region's expected digest. A mismatching region does not stop the
// remaining regions from being checked.
//
// If src ends before a region does, a *TruncatedError is returned and no
// further regions are checked.
func (e *Engine) Verify(src io.ReadSeeker, d catalog.Descriptor) (*Result, error) {
	res := &Result{
		Name:       d.Name,
		Identified: true,
		Regions:    make([]RegionResult, 0, len(d.Regions)),
	}
	for _, r := range d.Regions {
		got, err := e.hashRegion(src, d.Name, r)
		if err != nil {
			e.metrics.failed()
			return nil, err
		}
		passed := bytes.Equal(got[:], r.Digest[:])
		if !passed {
			klog.V(1).Infof("%s region %s: got %s, want %s", d.Name, r, got, r.Digest)
		}
		e.metrics.region(d.Name, passed)
		res.Regions = append(res.Regions, RegionResult{
			Region: r,
			Digest: got,
			Passed: passed,
		})
	}
	return res, nil
}

func (e *Engine) hashRegion(src io.ReadSeeker, name string, r catalog.Region) (catalog.Digest, error) {
	var d catalog.Digest
	if _, err := src.Seek(int64(r.Start), io.SeekStart); err != nil {
		return d, fmt.Errorf("seek to region %s: %w", r, err)
	}

	var rd io.Reader = src
	if e.tracker != nil {
		var done func()
		rd, done = e.tracker.Track(name, r, src)
		defer done()
	}

	klog.V(1).Infof("Hashing %s region %s (%d bytes)", name, r, r.Len())
	h := sha256.New()
	n, err := io.CopyN(h, rd, int64(r.Len()))
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return d, &TruncatedError{Region: r, Available: uint64(n)}
		}
		return d, fmt.Errorf("read region %s: %w", r, err)
	}
	copy(d[:], h.Sum(nil))
	return d, nil
}
