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

// Package testonly provides firmware image fixtures for tests.
package testonly

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/transparency-dev/firmware-hashcheck/internal/catalog"
)

// Image is a simple in-memory firmware image.
type Image struct {
	Data []byte
}

// NewImage creates a zero filled image of the given size.
func NewImage(t *testing.T, size int) *Image {
	t.Helper()
	return &Image{Data: make([]byte, size)}
}

// Apply writes the values expected by the given checks into the image, so
// that it will be identified by them.
func (img *Image) Apply(t *testing.T, checks ...catalog.Check) *Image {
	t.Helper()
	for _, c := range checks {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], c.Value)
		if end := c.Offset + uint64(c.Width); end > uint64(len(img.Data)) {
			t.Fatalf("check at %#x (width %d) does not fit in %d byte image", c.Offset, c.Width, len(img.Data))
		}
		copy(img.Data[c.Offset:], b[:c.Width])
	}
	return img
}

// Fill writes a deterministic, non-zero byte pattern into [start, end].
func (img *Image) Fill(start, end uint64) *Image {
	for i := start; i <= end && i < uint64(len(img.Data)); i++ {
		img.Data[i] = byte(i*7 + i>>8 + 1)
	}
	return img
}

// Flip inverts the byte at off.
func (img *Image) Flip(off uint64) *Image {
	img.Data[off] ^= 0xff
	return img
}

// Reader returns a fresh seekable reader over a copy of the image contents.
func (img *Image) Reader() *bytes.Reader {
	return bytes.NewReader(bytes.Clone(img.Data))
}

// Truncated returns a reader over the first n bytes of the image.
func (img *Image) Truncated(n int) *bytes.Reader {
	return bytes.NewReader(bytes.Clone(img.Data[:n]))
}

// Region returns a region spanning [start, end] whose digest matches the
// current contents of the image.
func (img *Image) Region(t *testing.T, start, end uint64) catalog.Region {
	t.Helper()
	if end >= uint64(len(img.Data)) || end < start {
		t.Fatalf("invalid region [%#x, %#x] for %d byte image", start, end, len(img.Data))
	}
	return catalog.Region{
		Start:  start,
		End:    end,
		Digest: sha256.Sum256(img.Data[start : end+1]),
	}
}

// WriteFile stores the image in a new file under the test's temporary
// directory and returns its path.
func (img *Image) WriteFile(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, img.Data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return p
}

// NewCatalog creates a catalog from the given descriptors, failing the test
// on error.
func NewCatalog(t *testing.T, ds ...catalog.Descriptor) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(ds...)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return c
}

// FailingReader is an io.ReadSeeker whose reads fail with Err once the read
// position reaches FailAt.
type FailingReader struct {
	*bytes.Reader
	FailAt int64
	Err    error
}

// Read implements io.Reader.
func (f *FailingReader) Read(p []byte) (int, error) {
	pos, err := f.Reader.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	if pos >= f.FailAt {
		return 0, f.Err
	}
	if rem := f.FailAt - pos; int64(len(p)) > rem {
		p = p[:rem]
	}
	return f.Reader.Read(p)
}
