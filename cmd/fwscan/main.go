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
//
// The fwscan tool checks a batch of firmware dumps concurrently, printing a
// hashcheck report for each of them in the order they were given.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/klog/v2"

	"github.com/transparency-dev/firmware-hashcheck/internal/catalog"
	"github.com/transparency-dev/firmware-hashcheck/internal/verify"
)

const usage = "Usage: fwscan [flags] <firmwarePath>..."

var (
	catalogLocation   = flag.String("catalog", "", "Signed catalog manifest (path or file/http/https URL) adding descriptors after the built-in ones.")
	catalogPubKeyFile = flag.String("catalog_pubkey_file", "", "File containing the note verifier key for -catalog.")
	catalogMinVersion = flag.String("catalog_min_version", "", "Reject catalog manifests older than this semantic version.")
	parallelism       = flag.Int("j", runtime.NumCPU(), "Maximum number of images checked at once.")
	metricsFile       = flag.String("metrics_file", "", "If set, write Prometheus metrics for this run to this file.")
)

func main() {
	klog.InitFlags(nil)
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	defer klog.Flush()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	opts := catalog.LoadOpts{
		Location:   *catalogLocation,
		PubKeyFile: *catalogPubKeyFile,
		MinVersion: *catalogMinVersion,
	}
	code := run(ctx, opts, *parallelism, *metricsFile, flag.Args(), os.Stdout)
	cancel()
	os.Exit(code)
}

// run checks every image in paths and returns the process exit status: 1 for
// usage errors, 2 if any image (or the catalog) could not be read, 0
// otherwise.
func run(ctx context.Context, opts catalog.LoadOpts, parallelism int, metricsFile string, paths []string, stdout io.Writer) int {
	if len(paths) == 0 {
		fmt.Fprintln(stdout, usage)
		return 1
	}
	cat, err := catalog.Load(ctx, opts)
	if err != nil {
		fmt.Fprintf(stdout, "Error while verifying: %v\n", err)
		return 2
	}

	reg := prometheus.NewRegistry()
	e := verify.New(verify.WithMetrics(verify.NewMetrics(reg)))
	results, err := e.CheckFiles(ctx, cat, paths, parallelism)
	if err != nil {
		fmt.Fprintf(stdout, "Error while verifying: %v\n", err)
		return 2
	}
	if metricsFile != "" {
		if err := prometheus.WriteToTextfile(metricsFile, reg); err != nil {
			klog.Errorf("Failed to write metrics to %q: %v", metricsFile, err)
		}
	}

	code := 0
	passed := 0
	for _, r := range results {
		fmt.Fprintf(stdout, "== %s\n", r.Path)
		if r.Err != nil {
			fmt.Fprintf(stdout, "Error while verifying: %v\n", r.Err)
			code = 2
			continue
		}
		if err := verify.WriteText(stdout, r.Result); err != nil {
			klog.Errorf("Failed to write report for %q: %v", r.Path, err)
			return 2
		}
		if r.Result.Passed() {
			passed++
		}
	}
	klog.Infof("%d of %d images verified", passed, len(results))
	return code
}
