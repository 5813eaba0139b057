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
	"context"
	"os"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/transparency-dev/firmware-hashcheck/internal/catalog"
)

// FileResult is the outcome of checking one image file.
type FileResult struct {
	Path string
	// Result is nil if Err is set.
	Result *Result
	Err    error
}

// CheckFile opens the image at path and checks it against c.
func (e *Engine) CheckFile(c *catalog.Catalog, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			klog.Errorf("Close(%q): %v", path, err)
		}
	}()

	d, ok, err := e.Identify(f, c)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Result{}, nil
	}
	return e.Verify(f, d)
}

// CheckFiles checks each of the image files in paths against c, running at
// most parallelism checks at once (no limit if parallelism <= 0).
//
// Results are returned in the same order as paths. A failure to read one
// image is recorded in its FileResult and does not affect the others; an
// error is only returned if ctx is done before all images were checked.
func (e *Engine) CheckFiles(ctx context.Context, c *catalog.Catalog, paths []string, parallelism int) ([]FileResult, error) {
	results := make([]FileResult, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := e.CheckFile(c, p)
			if err != nil {
				klog.Warningf("Failed to check %q: %v", p, err)
			}
			results[i] = FileResult{Path: p, Result: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
