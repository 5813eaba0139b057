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
	"errors"
	"fmt"
	"io"

	"k8s.io/klog/v2"

	"github.com/transparency-dev/firmware-hashcheck/internal/catalog"
)

// Identify returns the first descriptor in c whose identification checks all
// succeed against src. Descriptors after the first match are not evaluated.
//
// A check which reads beyond the end of src does not match; it is not an
// error. Other read or seek failures are returned.
func (e *Engine) Identify(src io.ReadSeeker, c *catalog.Catalog) (catalog.Descriptor, bool, error) {
	for _, d := range c.Entries() {
		ok, err := matches(src, d.Identify)
		if err != nil {
			e.metrics.failed()
			return catalog.Descriptor{}, false, fmt.Errorf("identifying %q: %w", d.Name, err)
		}
		if ok {
			klog.V(1).Infof("Image matches %q", d.Name)
			e.metrics.identified(d.Name)
			return d, true, nil
		}
	}
	klog.V(1).Infof("Image matches none of %d catalog entries", c.Len())
	e.metrics.unidentified()
	return catalog.Descriptor{}, false, nil
}

// matches evaluates checks in order, stopping at the first which fails.
func matches(src io.ReadSeeker, checks []catalog.Check) (bool, error) {
	var buf [8]byte
	for _, c := range checks {
		if _, err := src.Seek(int64(c.Offset), io.SeekStart); err != nil {
			return false, fmt.Errorf("seek to %#x: %w", c.Offset, err)
		}
		b := buf[:c.Width]
		if _, err := io.ReadFull(src, b); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				klog.V(2).Infof("Check at %#x: short read", c.Offset)
				return false, nil
			}
			return false, fmt.Errorf("read %d bytes at %#x: %w", c.Width, c.Offset, err)
		}
		if v := littleEndian(b); v != c.Value {
			klog.V(2).Infof("Check at %#x: got %#x, want %#x", c.Offset, v, c.Value)
			return false, nil
		}
	}
	return true, nil
}

func littleEndian(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
