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
// The hashcheck tool identifies a firmware dump and checks that it matches a
// known-good release.
//
// Exit status is 0 whenever a report was produced, even if the image was not
// identified or failed to verify; scripts should parse the report. Usage
// errors exit 1, errors reading the image or catalog exit 2.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/klog/v2"

	"github.com/transparency-dev/firmware-hashcheck/internal/catalog"
	"github.com/transparency-dev/firmware-hashcheck/internal/verify"
)

const usage = "Usage: hashcheck [flags] <firmwarePath>"

// Config holds the command line configuration.
type Config struct {
	catalog     catalog.LoadOpts
	format      string
	progress    bool
	metricsFile string
	progressOut io.Writer
}

var conf = &Config{progressOut: os.Stderr}

func init() {
	flag.StringVar(&conf.catalog.Location, "catalog", "", "Signed catalog manifest (path or file/http/https URL) adding descriptors after the built-in ones.")
	flag.StringVar(&conf.catalog.PubKeyFile, "catalog_pubkey_file", "", "File containing the note verifier key for -catalog.")
	flag.StringVar(&conf.catalog.MinVersion, "catalog_min_version", "", "Reject catalog manifests older than this semantic version.")
	flag.StringVar(&conf.format, "format", "text", "Report format: text or json.")
	flag.BoolVar(&conf.progress, "progress", false, "Show progress on stderr while hashing regions.")
	flag.StringVar(&conf.metricsFile, "metrics_file", "", "If set, write Prometheus metrics for this run to this file.")
}

func main() {
	klog.InitFlags(nil)
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	defer klog.Flush()

	os.Exit(run(context.Background(), conf, flag.Args(), os.Stdout))
}

// run checks the single image named in args, writing the report to stdout,
// and returns the process exit status.
func run(ctx context.Context, cfg *Config, args []string, stdout io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stdout, usage)
		return 1
	}
	if err := check(ctx, cfg, args[0], stdout); err != nil {
		fmt.Fprintf(stdout, "Error while verifying: %v\n", err)
		return 2
	}
	return 0
}

func check(ctx context.Context, cfg *Config, path string, stdout io.Writer) error {
	rep, err := verify.NewReporter(cfg.format, stdout)
	if err != nil {
		return err
	}
	cat, err := catalog.Load(ctx, cfg.catalog)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	opts := []verify.Option{verify.WithMetrics(verify.NewMetrics(reg))}
	if cfg.progress {
		opts = append(opts, verify.WithTracker(progressBars{w: cfg.progressOut}))
	}
	if cfg.metricsFile != "" {
		defer func() {
			if err := prometheus.WriteToTextfile(cfg.metricsFile, reg); err != nil {
				klog.Errorf("Failed to write metrics to %q: %v", cfg.metricsFile, err)
			}
		}()
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil {
			klog.Errorf("Close(%q): %v", path, err)
		}
	}()

	res, err := verify.New(opts...).Check(f, cat, rep)
	if err != nil {
		return err
	}
	if res.Identified {
		root, err := res.Root()
		if err != nil {
			return err
		}
		klog.V(1).Infof("%q: %s regions root %x", path, res.Name, root)
	}
	return nil
}
