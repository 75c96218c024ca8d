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

package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cloudwego/mmheap/internal/driver"
)

// libcThroughput is the reference throughput in ops/sec a trace has to
// reach to get full marks for speed.
const libcThroughput = 600e3

// utilWeight is the share of utilization in the performance index.
const utilWeight = 0.6

func printResults(w io.Writer, results []driver.Result, verbose bool) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "trace\tvalid\tutil\tops\tsecs\tKops\t")

	var util, secs float64
	ops, valid := 0, 0
	for _, r := range results {
		if !r.Valid {
			fmt.Fprintf(tw, "%s\tno\t-\t-\t-\t-\t\n", r.Name)
			continue
		}
		fmt.Fprintf(tw, "%s\tyes\t%.1f%%\t%d\t%.6f\t%.0f\t\n", r.Name, r.Util*100, r.Ops, r.Secs, r.Kops)
		valid++
		util += r.Util
		ops += r.Ops
		secs += r.Secs
	}
	if valid > 0 {
		util /= float64(valid)
		kops := 0.0
		if secs > 0 {
			kops = float64(ops) / secs / 1e3
		}
		fmt.Fprintf(tw, "total\t\t%.1f%%\t%d\t%.6f\t%.0f\t\n", util*100, ops, secs, kops)
	}
	tw.Flush()

	if valid == len(results) && valid > 0 && secs > 0 {
		tput := float64(ops) / secs
		fmt.Fprintf(w, "perf index = %.0f/100\n", perfIndex(util, tput)*100)
	}
	if verbose {
		for _, r := range results {
			if r.Err != nil {
				fmt.Fprintf(w, "%s: %v\n", r.Name, r.Err)
			}
		}
	}
}

// perfIndex weighs the mean utilization against the throughput relative
// to libcThroughput. Both terms are capped at 1.
func perfIndex(util, tput float64) float64 {
	t := tput / libcThroughput
	if t > 1 {
		t = 1
	}
	if util > 1 {
		util = 1
	}
	return utilWeight*util + (1-utilWeight)*t
}
