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
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const moduleTemplate = `# Template for the libraries of the test project.
@module {
    name: "@name",
    defaults: [
@defaults
    ],
    srcs: [
@srcs
    ],
    cflags: [
@cflags
    ],
    cppflags: [
@cppflags
    ],
    local_include_dirs: [
@local_include_dirs
    ],
    shared_libs: [
@shared_libs
    ],
    static_libs: [
@static_libs
    ],
}
`

const defaultsTemplate = `# Template for the defaults.
cc_defaults {
    name: "@name",
    cflags: [
@cflags
    ],
    shared_libs: [
@shared_libs
    ],
}

build = [
@build
]
`

const fooBuildMake = `# CMAKE generated file: DO NOT EDIT!
# Generated by "Unix Makefiles" Generator, CMake Version 3.22

# Include any dependencies generated for this target.
include media/CMakeFiles/foo.dir/depend.make

media/CMakeFiles/foo.dir/src/a.c.o: media/CMakeFiles/foo.dir/flags.make
media/CMakeFiles/foo.dir/src/a.c.o: ../../src/media/src/a.c
	$(CMAKE_COMMAND) -E cmake_echo_color --switch=$(COLOR) --green "Building C object"

libfoo.so: media/CMakeFiles/foo.dir/src/a.c.o
libfoo.so: media/CMakeFiles/foo.dir/src/b.cpp.o
libfoo.so: media/CMakeFiles/foo.dir/__/common/c.c.o
libfoo.so: media/CMakeFiles/foo.dir/src/a.c.o
libfoo.so: CMakeFiles/foo.dir/bar.o
libfoo.so: /usr/lib/x86_64-linux-gnu/libbar.so.1.2
libfoo.so: /usr/lib/libdl.so
libfoo.so: ../baz/libbaz.a
libfoo.so: libfoo.so.1
libfoo.so: media/CMakeFiles/foo.dir/build.make
libfoo.so: media/CMakeFiles/foo.dir/link.txt
	$(CMAKE_COMMAND) -E cmake_link_script CMakeFiles/foo.dir/link.txt --verbose=$(VERBOSE)

.PHONY : media/CMakeFiles/foo.dir/build
`

const fooFlagsMake = `# CMAKE generated file: DO NOT EDIT!
# Generated by "Unix Makefiles" Generator, CMake Version 3.22

# compile C with /usr/bin/cc
# compile CXX with /usr/bin/c++
C_DEFINES = -DFOO=1 -DEMPTY=""

C_INCLUDES = -I@SRC@/inc -I@SRC@/missing -I/usr/include -I@SRC@/../outside -isystem @SRC@/sub

C_FLAGS = -O2   -fPIC

CXX_DEFINES = -DFOO=1

CXX_INCLUDES = -I@SRC@/inc

CXX_FLAGS = -O2 -std=c++14
`

const bazBuildMake = `libbaz.a: CMakeFiles/baz.dir/baz.c.o
libbaz.a: CMakeFiles/baz.dir/build.make
`

const bazFlagsMake = `C_FLAGS = -O2
`

// testProject is a CMake project with two modules, foo and baz, whose CMake
// files have already been generated.
type testProject struct {
	src   string
	root  string
	build string
}

func newTestProject(t *testing.T) *testProject {
	t.Helper()
	top := t.TempDir()
	p := &testProject{
		src:  filepath.Join(top, "src"),
		root: filepath.Join(top, "out"),
	}
	p.build = filepath.Join(p.root, buildDirName, "module")

	writeFiles(t, p.src, map[string]string{
		"bp/module.tpl":   moduleTemplate,
		"bp/defaults.tpl": defaultsTemplate,
		"inc/.keep":       "",
		"sub/.keep":       "",
	})
	writeFiles(t, top, map[string]string{
		"outside/.keep": "",
	})
	writeFiles(t, p.build, map[string]string{
		"media/CMakeFiles/foo.dir/build.make": fooBuildMake,
		"media/CMakeFiles/foo.dir/flags.make": strings.ReplaceAll(fooFlagsMake, "@SRC@", p.src),
		"CMakeFiles/baz.dir/build.make":       bazBuildMake,
		"CMakeFiles/baz.dir/flags.make":       bazFlagsMake,
	})
	return p
}

func (p *testProject) modules() []*ModuleInfo {
	return []*ModuleInfo{
		{
			Name:      "foo",
			BpFile:    "media/Android.bp",
			CMakeDir:  "CMakeFiles/foo.dir/",
			MiddleDir: "media/",
			Type:      SharedLibrary,
			Defaults:  "test_defaults",
		},
		{
			Name:     "baz",
			BpFile:   "media/Android.bp",
			CMakeDir: "CMakeFiles/baz.dir/",
			Type:     StaticLibrary,
			Defaults: "test_defaults",
		},
	}
}

func (p *testProject) config() Config {
	return Config{
		SrcDir:   p.src,
		RootDir:  p.root,
		Template: "module.tpl",
		Defaults: &Defaults{
			Name:       "test_defaults",
			Cflags:     []string{"-Wall", "-Werror"},
			SharedLibs: []string{"liblog"},
			BpFiles:    []string{"media/Android.bp"},
		},
		Stdout: &strings.Builder{},
	}
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, contents := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(contents), 0666); err != nil {
			t.Fatal(err)
		}
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
