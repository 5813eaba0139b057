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
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/coreos/go-semver/semver"
	"golang.org/x/mod/sumdb/note"
	"k8s.io/klog/v2"
)

// LoadOpts describes where to find an additional, signed, catalog manifest.
type LoadOpts struct {
	// Location is a file path, or a file://, http:// or https:// URL.
	// If empty, only the built-in catalog is used.
	Location string
	// PubKeyFile is a file holding the note verifier key the manifest must
	// be signed with.
	PubKeyFile string
	// MinVersion, if set, is the oldest manifest version accepted.
	MinVersion string
}

// Load returns the built-in catalog, extended with the descriptors from the
// manifest described by opts, if any.
func Load(ctx context.Context, opts LoadOpts) (*Catalog, error) {
	if opts.Location == "" {
		return Builtin(), nil
	}
	if opts.PubKeyFile == "" {
		return nil, errors.New("a catalog public key file is required to load a catalog manifest")
	}
	v, err := verifierFromFile(opts.PubKeyFile)
	if err != nil {
		return nil, err
	}
	raw, err := fetch(ctx, opts.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog manifest %q: %w", opts.Location, err)
	}
	m, err := OpenManifest(raw, v)
	if err != nil {
		return nil, err
	}
	if opts.MinVersion != "" {
		minVer, err := semver.NewVersion(opts.MinVersion)
		if err != nil {
			return nil, fmt.Errorf("invalid minimum catalog version %q: %w", opts.MinVersion, err)
		}
		if err := m.CheckVersion(*minVer); err != nil {
			return nil, err
		}
	}
	extra, err := m.Catalog()
	if err != nil {
		return nil, err
	}
	klog.Infof("Loaded %d descriptors from catalog manifest %q version %s", extra.Len(), opts.Location, m.Version)
	return Merge(Builtin(), extra)
}

func verifierFromFile(p string) (note.Verifier, error) {
	vs, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog pub key file %q: %w", p, err)
	}
	v, err := note.NewVerifier(strings.TrimSpace(string(vs)))
	if err != nil {
		return nil, fmt.Errorf("invalid catalog note verifier string %q: %w", vs, err)
	}
	return v, nil
}

func fetch(ctx context.Context, loc string) ([]byte, error) {
	u, err := url.Parse(loc)
	if err != nil {
		return nil, err
	}
	get := getByScheme[u.Scheme]
	if get == nil {
		return nil, fmt.Errorf("unsupported URL scheme %s", u.Scheme)
	}
	return get(ctx, u)
}

var getByScheme = map[string]func(context.Context, *url.URL) ([]byte, error){
	"":      readFile,
	"file":  readFile,
	"http":  readHTTP,
	"https": readHTTP,
}

func readFile(_ context.Context, u *url.URL) ([]byte, error) {
	return os.ReadFile(u.Path)
}

func readHTTP(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			klog.Errorf("resp.Body.Close(): %v", err)
		}
	}()
	switch resp.StatusCode {
	case http.StatusNotFound:
		klog.Infof("Not found: %q", u.String())
		return nil, os.ErrNotExist
	case http.StatusOK:
	default:
		return nil, fmt.Errorf("unexpected http status %q", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
