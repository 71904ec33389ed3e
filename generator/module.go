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
	"fmt"
)

// ModuleType is the Soong module type a CMake target is converted into.
type ModuleType string

const (
	SharedLibrary ModuleType = "cc_library_shared"
	StaticLibrary ModuleType = "cc_library_static"
)

func (t ModuleType) Valid() bool {
	return t == SharedLibrary || t == StaticLibrary
}

// ModuleInfo describes one CMake target that is rendered into one module block.
type ModuleInfo struct {
	// Name of the module, unique within a Generator. It is also the name of the
	// CMake target, and is used to recognize the target's own library among its
	// link dependencies.
	Name string

	// Android.bp file the module is written to, relative to the source directory.
	BpFile string

	// Directory, relative to the build directory, holding the target's
	// build.make and flags.make. It usually ends in "CMakeFiles/<target>.dir/".
	CMakeDir string

	// Optional prefix placed in front of CMakeDir.
	MiddleDir string

	Type ModuleType

	// Name of the cc_defaults module referenced from the module.
	Defaults string

	// Template overrides the project template for this module.
	Template string

	AddSrcs       []string
	AddCflags     []string
	AddStaticLibs []string
	AddSharedLibs []string

	// Update maps replace an extracted value with another one. An empty
	// replacement removes the value.
	UpdateCflags     map[string]string
	UpdateStaticLibs map[string]string
	UpdateSharedLibs map[string]string
}

// BuildMake returns the path of the target's link rules, relative to the
// build directory.
func (m *ModuleInfo) BuildMake() string {
	return m.MiddleDir + m.CMakeDir + "build.make"
}

// FlagsMake returns the path of the target's compiler flags, relative to the
// build directory.
func (m *ModuleInfo) FlagsMake() string {
	return m.MiddleDir + m.CMakeDir + "flags.make"
}

func (m *ModuleInfo) validate() error {
	if m.Name == "" {
		return fmt.Errorf("module is missing a name")
	}
	if m.BpFile == "" {
		return fmt.Errorf("module %q: missing bp file", m.Name)
	}
	if !m.Type.Valid() {
		return fmt.Errorf("module %q: unsupported module type %q, must be %q or %q",
			m.Name, m.Type, SharedLibrary, StaticLibrary)
	}
	return nil
}

// Defaults describes the cc_defaults block shared by every module of a project.
type Defaults struct {
	Name        string
	Cflags      []string
	Cppflags    []string
	ClangCflags []string
	IncludeDirs []string
	SharedLibs  []string
	StaticLibs  []string

	// Android.bp files of the modules, listed in the defaults file so that a
	// single file pulls in the whole project.
	BpFiles []string

	// Template file name in the template directory, "defaults.tpl" if empty.
	Template string

	// Output file relative to the source directory, "Android.bp" if empty.
	BpFile string
}

func (d *Defaults) templateName() string {
	if d.Template == "" {
		return "defaults.tpl"
	}
	return d.Template
}

func (d *Defaults) bpFileName() string {
	if d.BpFile == "" {
		return "Android.bp"
	}
	return d.BpFile
}
