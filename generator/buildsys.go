// Copyright 2024 Google Inc. All rights reserved.
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

package generator

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"time"
)

// A BuildSystem produces the files the Generator extracts modules from.
type BuildSystem interface {
	// Prepare clears stale state from buildDir and makes sure it exists.
	Prepare(ctx context.Context, buildDir string) error

	// Configure generates the build files for srcDir into buildDir.
	Configure(ctx context.Context, srcDir, buildDir string) error

	// Build runs the generated build in buildDir.
	Build(ctx context.Context, buildDir string) error
}

// CMake runs cmake and make.
type CMake struct {
	// Extra arguments passed to cmake, after -DCMAKE_BUILD_TYPE.
	Args []string

	// BuildType is passed as CMAKE_BUILD_TYPE, "Release" if empty.
	BuildType string

	// Number of make jobs, runtime.NumCPU() if 0.
	Jobs int

	// Executables to run, "cmake" and "make" if empty.
	CMakeCommand string
	MakeCommand  string

	// Logger receives the commands being run. Nil discards them.
	Logger *log.Logger

	// Output of the commands. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer
}

var _ BuildSystem = (*CMake)(nil)

func (c *CMake) Prepare(ctx context.Context, buildDir string) error {
	// Only the cache is removed, the makefiles of the previous run are reused.
	if err := os.Remove(filepath.Join(buildDir, "CMakeCache.txt")); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.MkdirAll(buildDir, 0777)
}

func (c *CMake) Configure(ctx context.Context, srcDir, buildDir string) error {
	buildType := c.BuildType
	if buildType == "" {
		buildType = "Release"
	}
	args := append([]string{"-DCMAKE_BUILD_TYPE=" + buildType}, c.Args...)
	args = append(args, srcDir)
	return c.run(ctx, "cmake", buildDir, orDefault(c.CMakeCommand, "cmake"), args...)
}

func (c *CMake) Build(ctx context.Context, buildDir string) error {
	jobs := c.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	return c.run(ctx, "make", buildDir, orDefault(c.MakeCommand, "make"), "-j"+strconv.Itoa(jobs))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func (c *CMake) verbosef(format string, v ...interface{}) {
	if c.Logger != nil {
		c.Logger.Printf(format, v...)
	}
}

func (c *CMake) run(ctx context.Context, name, dir, executable string, args ...string) error {
	cmd := exec.CommandContext(ctx, executable, args...)
	cmd.Dir = dir
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr

	c.verbosef("%q executing %q %v in %s", name, executable, args, dir)
	started := time.Now()

	err := cmd.Run()

	if cmd.ProcessState != nil {
		c.verbosef("%q finished with exit code %d (%s real)",
			name, cmd.ProcessState.ExitCode(), time.Since(started).Round(time.Millisecond))
	}

	if e, ok := err.(*exec.ExitError); ok {
		return fmt.Errorf("%s failed with: %v", name, e.ProcessState.String())
	} else if err != nil {
		return fmt.Errorf("failed to run %s: %v", name, err)
	}
	return nil
}
