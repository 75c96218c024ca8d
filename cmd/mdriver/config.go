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

import "github.com/kelseyhightower/envconfig"

const envPrefix = "MDRIVER"

// Config holds the defaults of the command line flags.
// Every field can be set from the environment, e.g. MDRIVER_TRACE_DIR.
type Config struct {
	TraceDir  string `envconfig:"TRACE_DIR" default:"traces"`
	HeapLimit int    `envconfig:"HEAP_LIMIT" default:"20971520"`
	Backing   string `envconfig:"BACKING" default:"slice"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"warning"`
	Verbose   bool   `envconfig:"VERBOSE"`
	Check     bool   `envconfig:"CHECK"`
}

func loadConfig() (*Config, error) {
	c := &Config{}
	if err := envconfig.Process(envPrefix, c); err != nil {
		return nil, err
	}
	return c, nil
}
