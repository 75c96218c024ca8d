/*
 * Copyright 2025 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Command mdriver replays malloc-lab allocation traces against the heap
// allocator and reports correctness, space utilization and throughput.
//
//	mdriver -t ./traces
//	mdriver -f short1.rep -f short2.rep --check -V
//
// Flag defaults come from MDRIVER_* environment variables, see Config.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/alecthomas/kingpin/v2"
	"github.com/sirupsen/logrus"

	"github.com/cloudwego/mmheap/internal/driver"
	"github.com/cloudwego/mmheap/internal/trace"
	"github.com/cloudwego/mmheap/memlib"
)

var errTraceFailed = errors.New("one or more traces failed")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "mdriver:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	app := kingpin.New("mdriver", "Replays malloc-lab traces against the heap allocator.")
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)
	// kingpin calls terminate once help or completion output is printed
	helped := false
	app.Terminate(func(int) { helped = true })
	files := app.Flag("file", "Trace file to run, repeatable. Overrides --trace-dir.").Short('f').ExistingFiles()
	traceDir := app.Flag("trace-dir", "Directory with *.rep trace files.").Short('t').Default(cfg.TraceDir).String()
	limit := app.Flag("limit", "Max bytes the heap may grow to.").Short('l').Default(strconv.Itoa(cfg.HeapLimit)).Int()
	backing := app.Flag("backing", "Backing memory of the heap.").Default(cfg.Backing).Enum("slice", "mmap")
	verbose := app.Flag("verbose", "Print the error of every failed trace.").Short('V').Default(strconv.FormatBool(cfg.Verbose)).Bool()
	check := app.Flag("check", "Run the heap checker after every operation.").Default(strconv.FormatBool(cfg.Check)).Bool()
	logLevel := app.Flag("log-level", "Log level.").Default(cfg.LogLevel).String()
	if _, err := app.Parse(args); err != nil {
		return err
	}
	if helped {
		return nil
	}

	logger := logrus.New()
	logger.SetOutput(stderr)
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	paths := *files
	if len(paths) == 0 {
		if paths, err = filepath.Glob(filepath.Join(*traceDir, "*.rep")); err != nil {
			return err
		}
		sort.Strings(paths)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no trace files in %q", *traceDir)
	}

	o := driver.DefaultOption()
	o.Check = *check
	o.Logger = logger
	o.NewMemory = newMemoryFunc(*backing, *limit)

	failed := false
	results := make([]driver.Result, 0, len(paths))
	for _, path := range paths {
		tr, err := trace.Load(path)
		if err != nil {
			logger.WithError(err).WithField("path", path).Error("cannot load trace")
			failed = true
			continue
		}
		logger.WithFields(logrus.Fields{
			"trace": tr.Name,
			"ops":   len(tr.Ops),
			"ids":   tr.NumIDs,
		}).Debug("running trace")
		r := driver.Run(tr, o)
		if !r.Valid {
			failed = true
		}
		results = append(results, r)
	}

	printResults(stdout, results, *verbose)
	if failed {
		return errTraceFailed
	}
	return nil
}

func newMemoryFunc(backing string, limit int) func() (memlib.Memory, error) {
	if backing == "mmap" {
		return func() (memlib.Memory, error) { return memlib.NewMmapMemory(limit) }
	}
	return func() (memlib.Memory, error) { return memlib.NewSliceMemory(limit) }
}
