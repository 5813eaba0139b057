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
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/transparency-dev/firmware-hashcheck/internal/catalog"
	"github.com/transparency-dev/firmware-hashcheck/internal/testonly"
)

const fixtureSize = 0x1000

var fixtureCheck = catalog.Check{Offset: 0x100, Width: 4, Value: 0xcafef00d}

// fixture returns an image and a descriptor describing it exactly. The
// descriptor has two overlapping regions, a gap, and a third region.
func fixture(t *testing.T) (*testonly.Image, catalog.Descriptor) {
	t.Helper()
	img := testonly.NewImage(t, fixtureSize).Fill(0, fixtureSize-1).Apply(t, fixtureCheck)
	d := catalog.Descriptor{
		Name:     "fixture",
		Identify: []catalog.Check{fixtureCheck},
		Regions: []catalog.Region{
			img.Region(t, 0x0, 0x3ff),
			img.Region(t, 0x200, 0x7ff),
			img.Region(t, 0xc00, 0xfff),
		},
	}
	return img, d
}

func TestCanonicalImagePasses(t *testing.T) {
	img, d := fixture(t)
	c := testonly.NewCatalog(t, d)

	src := img.Reader()
	got, ok, err := Identify(src, c)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if !ok || got.Name != d.Name {
		t.Fatalf("Identify() = %q, %t, want %q, true", got.Name, ok, d.Name)
	}

	res, err := Verify(src, got)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !res.Passed() {
		t.Fatalf("Got failing regions %v, want pass", res.Failed())
	}
	if got, want := len(res.Regions), len(d.Regions); got != want {
		t.Fatalf("Got %d region results, want %d", got, want)
	}
	for i, rr := range res.Regions {
		if rr.Digest != d.Regions[i].Digest {
			t.Errorf("Region %d: got digest %s, want %s", i, rr.Digest, d.Regions[i].Digest)
		}
	}
}

func TestFlippedByteFailsCoveringRegions(t *testing.T) {
	for _, test := range []struct {
		off        uint64
		wantFailed []int
	}{
		{off: 0x0, wantFailed: []int{0}},
		{off: 0x1ff, wantFailed: []int{0}},
		{off: 0x200, wantFailed: []int{0, 1}},
		{off: 0x3ff, wantFailed: []int{0, 1}},
		{off: 0x400, wantFailed: []int{1}},
		{off: 0x900, wantFailed: nil},
		{off: 0xfff, wantFailed: []int{2}},
	} {
		t.Run(fmt.Sprintf("%#x", test.off), func(t *testing.T) {
			img, d := fixture(t)
			img.Flip(test.off)
			c := testonly.NewCatalog(t, d)

			src := img.Reader()
			got, ok, err := Identify(src, c)
			if err != nil || !ok {
				t.Fatalf("Identify() = %t, %v, want true, nil", ok, err)
			}
			res, err := Verify(src, got)
			if err != nil {
				t.Fatalf("Verify: %v", err)
			}
			var failed []int
			for i, rr := range res.Regions {
				if !rr.Passed {
					failed = append(failed, i)
				}
				if covers := d.Regions[i].Contains(test.off); covers == rr.Passed {
					t.Errorf("Region %d %s: passed=%t, but covers flipped byte=%t", i, rr.Region, rr.Passed, covers)
				}
			}
			if diff := cmp.Diff(test.wantFailed, failed); diff != "" {
				t.Errorf("Got diff in failed regions: %s", diff)
			}
			if got, want := res.Passed(), len(test.wantFailed) == 0; got != want {
				t.Errorf("Passed() = %t, want %t", got, want)
			}
		})
	}
}

func TestIdentifyOrder(t *testing.T) {
	check := []catalog.Check{{Offset: 4, Width: 2, Value: 0xbeef}}
	a := catalog.Descriptor{Name: "a", Identify: check}
	b := catalog.Descriptor{Name: "b", Identify: check}
	img := testonly.NewImage(t, 16).Apply(t, check...)

	for _, test := range []struct {
		name string
		ds   []catalog.Descriptor
		want string
	}{
		{name: "a first", ds: []catalog.Descriptor{a, b}, want: "a"},
		{name: "b first", ds: []catalog.Descriptor{b, a}, want: "b"},
	} {
		t.Run(test.name, func(t *testing.T) {
			got, ok, err := Identify(img.Reader(), testonly.NewCatalog(t, test.ds...))
			if err != nil || !ok {
				t.Fatalf("Identify() = %t, %v, want true, nil", ok, err)
			}
			if got.Name != test.want {
				t.Fatalf("Identify() = %q, want %q", got.Name, test.want)
			}
		})
	}
}

func TestIdentifyShortSource(t *testing.T) {
	far := catalog.Descriptor{
		Name:     "far",
		Identify: []catalog.Check{{Offset: 0x10000, Width: 4, Value: 0}},
	}
	straddling := catalog.Descriptor{
		Name:     "straddling",
		Identify: []catalog.Check{{Offset: 14, Width: 4, Value: 0}},
	}
	near := catalog.Descriptor{
		Name:     "near",
		Identify: []catalog.Check{{Offset: 0, Width: 1, Value: 0}},
	}
	img := testonly.NewImage(t, 16)

	for _, test := range []struct {
		name   string
		src    io.ReadSeeker
		ds     []catalog.Descriptor
		want   string
		wantOK bool
	}{
		{
			name:   "later candidate still evaluated",
			src:    img.Reader(),
			ds:     []catalog.Descriptor{far, straddling, near},
			want:   "near",
			wantOK: true,
		}, {
			name: "nothing in range",
			src:  img.Reader(),
			ds:   []catalog.Descriptor{far, straddling},
		}, {
			name: "builtin catalog, tiny image",
			src:  bytes.NewReader([]byte{0x60, 0xf0}),
			ds:   catalog.Builtin().Entries(),
		}, {
			name: "builtin catalog, empty image",
			src:  bytes.NewReader(nil),
			ds:   catalog.Builtin().Entries(),
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			got, ok, err := Identify(test.src, testonly.NewCatalog(t, test.ds...))
			if err != nil {
				t.Fatalf("Identify: %v", err)
			}
			if ok != test.wantOK || got.Name != test.want {
				t.Fatalf("Identify() = %q, %t, want %q, %t", got.Name, ok, test.want, test.wantOK)
			}
		})
	}
}

func TestIdentifyReadError(t *testing.T) {
	_, d := fixture(t)
	wantErr := errors.New("device on fire")
	src := &testonly.FailingReader{Reader: bytes.NewReader(make([]byte, fixtureSize)), FailAt: 0, Err: wantErr}
	if _, _, err := Identify(src, testonly.NewCatalog(t, d)); !errors.Is(err, wantErr) {
		t.Fatalf("Identify() = %v, want %v", err, wantErr)
	}
}

func TestVerifyTruncated(t *testing.T) {
	img, d := fixture(t)
	src := img.Truncated(0xc80)

	got, ok, err := Identify(src, testonly.NewCatalog(t, d))
	if err != nil || !ok {
		t.Fatalf("Identify() = %t, %v, want true, nil", ok, err)
	}
	res, err := Verify(src, got)
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("Verify() = %v, want %v", err, ErrTruncated)
	}
	if res != nil {
		t.Errorf("Got result %+v alongside error", res)
	}
	var te *TruncatedError
	if !errors.As(err, &te) {
		t.Fatalf("Verify() error %T is not a *TruncatedError", err)
	}
	if got, want := te.Region, d.Regions[2]; got != want {
		t.Errorf("Got truncated region %s, want %s", got, want)
	}
	if got, want := te.Available, uint64(0x80); got != want {
		t.Errorf("Got %#x bytes available, want %#x", got, want)
	}
}

func TestVerifyReadError(t *testing.T) {
	img, d := fixture(t)
	wantErr := errors.New("bad sector")
	src := &testonly.FailingReader{Reader: img.Reader(), FailAt: 0x500, Err: wantErr}
	_, err := Verify(src, d)
	if !errors.Is(err, wantErr) {
		t.Fatalf("Verify() = %v, want %v", err, wantErr)
	}
	if errors.Is(err, ErrTruncated) {
		t.Fatalf("Read error %v reported as truncation", err)
	}
}

func TestVerifyIgnoresPriorPosition(t *testing.T) {
	img, d := fixture(t)
	src := img.Reader()
	if _, err := src.Seek(0x7ff, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	res, err := Verify(src, d)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !res.Passed() {
		t.Fatalf("Got failing regions %v, want pass", res.Failed())
	}
}

func TestCheckIdempotent(t *testing.T) {
	img, d := fixture(t)
	img.Flip(0xd00)
	c := testonly.NewCatalog(t, d)
	src := img.Reader()

	var first, second bytes.Buffer
	if _, err := New().Check(src, c, TextReporter{W: &first}); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if _, err := New().Check(src, c, TextReporter{W: &second}); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if diff := cmp.Diff(first.String(), second.String()); diff != "" {
		t.Fatalf("Reports differ: %s", diff)
	}
}

func TestCheckReportsIdentityBeforeTruncation(t *testing.T) {
	img, d := fixture(t)
	var out bytes.Buffer
	_, err := New().Check(img.Truncated(0x800), testonly.NewCatalog(t, d), TextReporter{W: &out})
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("Check() = %v, want %v", err, ErrTruncated)
	}
	if got, want := out.String(), "Firmware identified: fixture\n"; got != want {
		t.Fatalf("Got output %q, want %q", got, want)
	}
}

// The 8MiB image is zero except for the "Digimon Color" signature, so it is
// identified but neither of its regions verifies.
func TestDigimonColorSignatureOnly(t *testing.T) {
	img := testonly.NewImage(t, 0x800000).Apply(t, catalog.Check{Offset: 0x9f6a, Width: 4, Value: 0x0344f060})
	if got, want := img.Data[0x9f6a:0x9f6e], []byte{0x60, 0xf0, 0x44, 0x03}; !bytes.Equal(got, want) {
		t.Fatalf("Signature bytes = %x, want %x", got, want)
	}

	var out bytes.Buffer
	res, err := New().Check(img.Reader(), catalog.Builtin(), TextReporter{W: &out})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	want := "Firmware identified: Digimon Color\n" +
		"Region from 0x0 to 0x7fcfff failed to verify.\n" +
		"Region from 0x7ff000 to 0x7fffff failed to verify.\n" +
		"One or more regions of firmware data failed to verify.\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Fatalf("Got diff in report: %s", diff)
	}
	if res.Passed() {
		t.Fatal("Passed() = true, want false")
	}
}

func TestDigimonColorVer2Identified(t *testing.T) {
	img := testonly.NewImage(t, 0x8000).Apply(t, catalog.Check{Offset: 0x7366, Width: 4, Value: 0x8e11f060})
	got, ok, err := Identify(img.Reader(), catalog.Builtin())
	if err != nil || !ok {
		t.Fatalf("Identify() = %t, %v, want true, nil", ok, err)
	}
	if want := "Digimon Color Ver.2"; got.Name != want {
		t.Fatalf("Identify() = %q, want %q", got.Name, want)
	}
}

type recordingTracker struct {
	names   []string
	regions []catalog.Region
	read    []int64
}

type countingReader struct {
	r io.Reader
	n *int64
}

func (c countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	*c.n += int64(n)
	return n, err
}

func (rt *recordingTracker) Track(name string, r catalog.Region, rd io.Reader) (io.Reader, func()) {
	rt.names = append(rt.names, name)
	rt.regions = append(rt.regions, r)
	n := new(int64)
	return countingReader{r: rd, n: n}, func() {
		rt.read = append(rt.read, *n)
	}
}

func TestTracker(t *testing.T) {
	img, d := fixture(t)
	rt := &recordingTracker{}
	if _, err := New(WithTracker(rt)).Verify(img.Reader(), d); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if diff := cmp.Diff(d.Regions, rt.regions); diff != "" {
		t.Errorf("Got diff in tracked regions: %s", diff)
	}
	for i, r := range d.Regions {
		if got, want := rt.read[i], int64(r.Len()); got != want {
			t.Errorf("Region %d: tracked %d bytes, want %d", i, got, want)
		}
		if rt.names[i] != d.Name {
			t.Errorf("Region %d: tracked name %q, want %q", i, rt.names[i], d.Name)
		}
	}
}

func TestRoot(t *testing.T) {
	img, d := fixture(t)
	res, err := Verify(img.Reader(), d)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	root, err := res.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	again, err := res.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if !bytes.Equal(root, again) {
		t.Fatalf("Root not deterministic: %x != %x", root, again)
	}

	res2, err := Verify(img.Flip(0xfff).Reader(), d)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	root2, err := res2.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if bytes.Equal(root, root2) {
		t.Fatal("Root unchanged after modifying a region")
	}

	empty, err := (&Result{}).Root()
	if err != nil || len(empty) != 32 {
		t.Fatalf("Root() of empty result = %x, %v", empty, err)
	}
}
