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

package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"android/cmake2bp/config"
	"android/cmake2bp/generator"

	"github.com/google/blueprint/proptools"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `cmake2bp, a tool to create Android.bp files from CMake projects

The tool reads the makefiles CMake generates for each library declared in the
project file and fills the project's templates with their sources, flags,
include directories and libraries.

Usage: %s [-src <dir>] [-root <dir>] [-templates <dir>] [-cmake] [-make] [-format] [-d <depfile>] [-manifest <file>] <project.star>

  -src <dir>
     Root of the CMake project. Android.bp files are written relative to it.
     Defaults to the directory of the project file.
  -root <dir>
     Directory holding __build__/<project>, where CMake runs. Defaults to -src.
  -templates <dir>
     Directory holding the templates, <src>/bp by default.
  -cmake
     Run cmake before generating.
  -make
     Also run make after cmake.
  -jobs <n>
     Number of make jobs, the number of CPUs by default.
  -format
     Reformat the generated files with the Blueprint formatter.
  -d <depfile>
     Write a depfile listing the project file, templates and CMake files read.
  -manifest <file>
     Write a text proto listing the generated files.
  -dump-config
     Print the loaded project file and exit.
  -write-cmd
     Write the command line as a comment at the top of every generated file.
  -v
     Verbose output.
`, os.Args[0])
	}

	var srcDir, rootDir, templateDir, depFile, manifest string
	var runCMake, runMake, format, dumpConfig, writeCmd, verbose bool
	var jobs int

	flag.StringVar(&srcDir, "src", "", "Root of the CMake project")
	flag.StringVar(&rootDir, "root", "", "Directory holding the __build__ directory")
	flag.StringVar(&templateDir, "templates", "", "Directory holding the templates")
	flag.BoolVar(&runCMake, "cmake", false, "Run cmake before generating")
	flag.BoolVar(&runMake, "make", false, "Run make after cmake")
	flag.IntVar(&jobs, "jobs", 0, "Number of make jobs")
	flag.BoolVar(&format, "format", false, "Reformat the generated files")
	flag.StringVar(&depFile, "d", "", "Write a depfile")
	flag.StringVar(&manifest, "manifest", "", "Write a manifest of the generated files")
	flag.BoolVar(&dumpConfig, "dump-config", false, "Print the loaded project file and exit")
	flag.BoolVar(&writeCmd, "write-cmd", false, "Write command line arguments as a comment")
	flag.BoolVar(&verbose, "v", false, "Verbose output")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	projectFile := flag.Arg(0)

	if srcDir == "" {
		srcDir = filepath.Dir(projectFile)
	}
	srcDir, err := filepath.Abs(srcDir)
	if err != nil {
		log.Fatal(err)
	}
	if rootDir == "" {
		rootDir = srcDir
	}

	f, err := config.Load(projectFile, nil, config.Options{
		SrcDir:  srcDir,
		RootDir: rootDir,
		Print:   func(msg string) { fmt.Fprintln(os.Stderr, msg) },
	})
	if err != nil {
		log.Fatal(err)
	}

	if dumpConfig {
		fmt.Print(f.Format())
		return
	}

	logger := log.New(ioutil.Discard, "", 0)
	if verbose {
		logger = log.New(os.Stderr, "cmake2bp: ", 0)
	}

	var header string
	if writeCmd {
		buf := &bytes.Buffer{}
		fmt.Fprintln(buf, "// This is a generated file. Do not modify directly.")
		fmt.Fprintln(buf, "// Automatically generated with:")
		fmt.Fprint(buf, "// cmake2bp ", strings.Join(proptools.ShellEscapeList(os.Args[1:]), " "))
		header = buf.String()
	}

	var buildDir string
	if f.Project.BuildDir != "" {
		buildDir = generator.JoinPath(rootDir, f.Project.BuildDir)
	}

	g, err := generator.New(generator.Config{
		Name:        f.Project.Name,
		SrcDir:      srcDir,
		RootDir:     rootDir,
		BuildDir:    buildDir,
		TemplateDir: templateDir,
		Template:    f.Project.Template,
		Templates:   f.Templates(),
		Defaults:    f.Defaults,
		BuildSystem: &generator.CMake{
			Args:   f.Project.CMakeArgs,
			Jobs:   jobs,
			Logger: logger,
			Stdout: os.Stdout,
			Stderr: os.Stderr,
		},
		Format: format,
		Header: header,
		Logger: logger,
	})
	if err != nil {
		log.Fatal(err)
	}
	if err := g.Register(f.Modules...); err != nil {
		log.Fatalf("%s: %v", projectFile, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := g.Generate(ctx, generator.Options{CMake: runCMake, Make: runMake})
	if err != nil {
		log.Fatal(err)
	}

	if depFile != "" {
		res.Inputs = append([]string{projectFile}, res.Inputs...)
		if err := res.WriteDepFile(depFile); err != nil {
			log.Fatalf("Failed to write %q: %v", depFile, err)
		}
	}
	if manifest != "" {
		if err := res.WriteManifest(manifest); err != nil {
			log.Fatalf("Failed to write %q: %v", manifest, err)
		}
	}
}
