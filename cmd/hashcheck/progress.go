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

package main

import (
	"fmt"
	"io"

	"github.com/cheggaaa/pb/v3"

	"github.com/transparency-dev/firmware-hashcheck/internal/catalog"
)

// progressBars draws one progress bar per region as it is hashed.
type progressBars struct {
	w io.Writer
}

// Track implements verify.Tracker.
func (p progressBars) Track(name string, r catalog.Region, rd io.Reader) (io.Reader, func()) {
	bar := pb.New64(int64(r.Len())).
		SetTemplate(pb.Full).
		SetWriter(p.w).
		Set(pb.Bytes, true).
		Set("prefix", fmt.Sprintf("%s %s ", name, r))
	bar.Start()
	return bar.NewProxyReader(rd), func() { bar.Finish() }
}
