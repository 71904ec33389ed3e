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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"android/cmake2bp/makefile"
)

var (
	// ErrUnknownModule is returned when extracting from a module that was
	// never registered.
	ErrUnknownModule = errors.New("unknown module")

	// ErrMissingSource is returned by Generate when the source directory does
	// not exist.
	ErrMissingSource = errors.New("source directory does not exist")
)

// LibraryKind selects the link dependencies returned by Extractor.Libraries.
type LibraryKind int

const (
	SharedLibs LibraryKind = iota
	StaticLibs
)

func (k LibraryKind) String() string {
	switch k {
	case SharedLibs:
		return "shared"
	case StaticLibs:
		return "static"
	default:
		return fmt.Sprintf("LibraryKind(%d)", int(k))
	}
}

var (
	objectRegexp      = regexp.MustCompile(`CMakeFiles/.*?\.dir/(.+)\.o$`)
	sharedLibRegexp   = regexp.MustCompile(`^(.+)\.so(?:\.[0-9]+)*$`)
	staticLibRegexp   = regexp.MustCompile(`^(.+)\.a$`)
	includeFlagRegexp = regexp.MustCompile(`^-(?:I|isystem|iquote|idirafter)`)
)

// An Extractor reads the files CMake generated for registered modules and
// extracts their sources, flags, include directories and libraries. Every
// call reads the files again; nothing is cached.
type Extractor struct {
	buildDir string
	srcDir   string
	modules  map[string]*ModuleInfo

	// onRead is called with the path of every artifact file read.
	onRead func(path string)
}

// NewExtractor returns an Extractor reading the files of modules from
// buildDir. Include directories are kept relative to srcDir.
func NewExtractor(buildDir, srcDir string, modules []*ModuleInfo) *Extractor {
	e := &Extractor{
		buildDir: buildDir,
		srcDir:   filepath.Clean(srcDir),
		modules:  make(map[string]*ModuleInfo, len(modules)),
	}
	for _, m := range modules {
		e.modules[m.Name] = m
	}
	return e
}

func (e *Extractor) module(name string) (*ModuleInfo, error) {
	m, ok := e.modules[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownModule, name)
	}
	return m, nil
}

func (e *Extractor) parse(rel string) (*makefile.File, error) {
	path := JoinPath(e.buildDir, rel)
	if e.onRead != nil {
		e.onRead(path)
	}
	return makefile.ParseFile(path)
}

// Sources returns the sources compiled into the module, as named by the object
// files its link rules depend on. CMake names the object of "a/b.c" as
// "CMakeFiles/<target>.dir/a/b.c.o" and encodes ".." path elements as "__".
func (e *Extractor) Sources(name string) ([]string, error) {
	m, err := e.module(name)
	if err != nil {
		return nil, err
	}

	f, err := e.parse(m.BuildMake())
	if err != nil {
		return nil, err
	}

	var srcs []string
	for _, rule := range f.Rules {
		for _, prereq := range rule.Prerequisites {
			match := objectRegexp.FindStringSubmatch(prereq)
			if match == nil {
				continue
			}
			srcs = append(srcs, decodeObjectPath(match[1]))
		}
	}

	return FirstUniqueStrings(srcs), nil
}

func decodeObjectPath(obj string) string {
	parts := strings.Split(obj, "/")
	for i, p := range parts {
		if p == "__" {
			parts[i] = ".."
		}
	}
	return strings.Join(parts, "/")
}

// Defines returns the tokens of every "title = ..." line of the module's
// flags file, in order. An empty string value (FOO="") is collapsed to FOO=
// so that it does not end up quoted twice.
func (e *Extractor) Defines(name, title string) ([]string, error) {
	m, err := e.module(name)
	if err != nil {
		return nil, err
	}

	f, err := e.parse(m.FlagsMake())
	if err != nil {
		return nil, err
	}

	var tokens []string
	for _, a := range f.Lookup(title) {
		value := strings.ReplaceAll(a.Value, `=""`, "=")
		tokens = append(tokens, strings.Fields(value)...)
	}
	return tokens, nil
}

// Includes returns the include directories of a "title = ..." line of the
// module's flags file, relative to the source directory. Directories outside
// the source directory, or that do not exist, are dropped.
func (e *Extractor) Includes(name, title string) ([]string, error) {
	tokens, err := e.Defines(name, title)
	if err != nil {
		return nil, err
	}

	var dirs []string
	for _, token := range tokens {
		p := includeFlagRegexp.ReplaceAllString(token, "")
		if p == "" || !filepath.IsAbs(p) {
			continue
		}
		p = filepath.Clean(p)

		rel, err := filepath.Rel(e.srcDir, p)
		if err != nil || rel == ".." || strings.HasPrefix(rel, "../") {
			continue
		}
		if info, err := os.Stat(p); err != nil || !info.IsDir() {
			continue
		}
		dirs = append(dirs, rel)
	}
	return dirs, nil
}

// Libraries returns the basenames, without extension, of the libraries of the
// given kind that the module links against. The module's own library is never
// returned.
func (e *Extractor) Libraries(name string, kind LibraryKind) ([]string, error) {
	m, err := e.module(name)
	if err != nil {
		return nil, err
	}

	f, err := e.parse(m.BuildMake())
	if err != nil {
		return nil, err
	}

	re := sharedLibRegexp
	if kind == StaticLibs {
		re = staticLibRegexp
	}

	var libs []string
	for _, rule := range f.Rules {
		for _, prereq := range rule.Prerequisites {
			match := re.FindStringSubmatch(filepath.Base(prereq))
			if match == nil {
				continue
			}
			lib := match[1]
			if strings.HasSuffix(lib, m.Name) {
				continue
			}
			libs = append(libs, lib)
		}
	}

	return FirstUniqueStrings(libs), nil
}
