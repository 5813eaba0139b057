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
	"encoding/hex"
	"fmt"
	"sync"
)

// builtinDescriptors lists the firmware releases known to this tool.
// Both Digimon Color releases are 8MiB flash dumps; the range
// [0x7fd000, 0x7fefff] is not covered by any region.
var builtinDescriptors = []Descriptor{
	{
		Name: "Digimon Color",
		Identify: []Check{
			{Offset: 0x9f6a, Width: 4, Value: 0x0344f060},
		},
		Regions: []Region{
			{Start: 0x0, End: 0x7fcfff, Digest: mustParseDigest("ac6b8f141869df57890a33b1ff012ced7d88a46699ef52c37cfc2d7abf58aac4")},
			{Start: 0x7ff000, End: 0x7fffff, Digest: mustParseDigest("f49b860561e2ee40861f83824b292324608e8fb059736d0391dcddabac1ca965")},
		},
	},
	{
		Name: "Digimon Color Ver.2",
		Identify: []Check{
			{Offset: 0x7366, Width: 4, Value: 0x8e11f060},
		},
		Regions: []Region{
			{Start: 0x0, End: 0x7fcfff, Digest: mustParseDigest("7eb74d793ddbb56188074630e9f3e6567d6618b297c25f614d05ddabc8d9052d")},
			{Start: 0x7ff000, End: 0x7fffff, Digest: mustParseDigest("51518f6ebfc26dfe1a22daeb57c65d42e164fa3687376ea7a036fea05643a73e")},
		},
	},
}

// Builtin returns the catalog of firmware releases compiled into the tool.
// It is built on first use and shared by all callers.
var Builtin = sync.OnceValue(func() *Catalog {
	c, err := New(builtinDescriptors...)
	if err != nil {
		panic(fmt.Errorf("invalid built-in catalog: %v", err))
	}
	return c
})

// ParseDigest decodes a hex encoded SHA-256 digest.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	b, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("invalid digest %q: %v", s, err)
	}
	if len(b) != DigestSize {
		return d, fmt.Errorf("invalid digest %q: got %d bytes, want %d", s, len(b), DigestSize)
	}
	copy(d[:], b)
	return d, nil
}

func mustParseDigest(s string) Digest {
	d, err := ParseDigest(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}
