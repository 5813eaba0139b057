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

	"github.com/transparency-dev/firmware-hashcheck/internal/catalog"
)

// ErrTruncated is matched by errors returned when an image ends before a
// region it must contain.
var ErrTruncated = errors.New("firmware image truncated")

// TruncatedError reports a region which extends past the end of the image.
type TruncatedError struct {
	Region catalog.Region
	// Available is the number of bytes of the region present in the image.
	Available uint64
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("%v: region %s needs %d bytes, only %d available", ErrTruncated, e.Region, e.Region.Len(), e.Available)
}

// Is reports whether target is ErrTruncated.
func (e *TruncatedError) Is(target error) bool {
	return target == ErrTruncated
}
