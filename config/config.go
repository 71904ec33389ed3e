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

// Package config loads cmake2bp project files.
//
// A project file is a Starlark program that declares the project, its
// cc_defaults block and its libraries:
//
//	project(
//	    name = "media_driver",
//	    template = "module.tpl",
//	    cmake_args = ["-DENABLE_KERNELS=ON"],
//	)
//
//	defaults = cc_defaults(
//	    name = "media_driver_defaults",
//	    cflags = ["-Wno-unused-parameter"],
//	    bp_files = ["media_driver/Android.bp"],
//	)
//
//	cc_library_shared(
//	    name = "iHD_drv_video",
//	    bp_file = "media_driver/Android.bp",
//	    cmake_dir = "media_driver/CMakeFiles/iHD_drv_video.dir/",
//	    defaults = defaults,
//	    update_shared_libs = {"libva": "libva_android"},
//	)
package config

import (
	"fmt"
	"runtime"

	"android/cmake2bp/generator"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// Project holds the arguments of the project() builtin.
type Project struct {
	Name      string            `star:"name"`
	Template  string            `star:"template"`
	Templates map[string]string `star:"templates"`
	CMakeArgs []string          `star:"cmake_args"`
	BuildDir  string            `star:"build_dir"`
}

type defaultsArgs struct {
	Name        string   `star:"name"`
	Cflags      []string `star:"cflags"`
	Cppflags    []string `star:"cppflags"`
	ClangCflags []string `star:"clang_cflags"`
	IncludeDirs []string `star:"include_dirs"`
	SharedLibs  []string `star:"shared_libs"`
	StaticLibs  []string `star:"static_libs"`
	BpFiles     []string `star:"bp_files"`
	Template    string   `star:"template"`
	BpFile      string   `star:"bp_file"`
}

type moduleArgs struct {
	Name             string            `star:"name"`
	BpFile           string            `star:"bp_file"`
	CMakeDir         string            `star:"cmake_dir"`
	Defaults         string            `star:"defaults"`
	MiddleDir        string            `star:"middle_dir"`
	Template         string            `star:"template"`
	AddSrcs          []string          `star:"add_srcs"`
	AddCflags        []string          `star:"add_cflags"`
	AddStaticLibs    []string          `star:"add_static_libs"`
	AddSharedLibs    []string          `star:"add_shared_libs"`
	UpdateCflags     map[string]string `star:"update_cflags"`
	UpdateStaticLibs map[string]string `star:"update_static_libs"`
	UpdateSharedLibs map[string]string `star:"update_shared_libs"`
}

// File is a loaded project file.
type File struct {
	Project  *Project
	Defaults *generator.Defaults
	Modules  []*generator.ModuleInfo
}

// Templates returns the per module type templates of the project.
func (f *File) Templates() map[generator.ModuleType]string {
	if len(f.Project.Templates) == 0 {
		return nil
	}
	ret := make(map[generator.ModuleType]string, len(f.Project.Templates))
	for k, v := range f.Project.Templates {
		ret[generator.ModuleType(k)] = v
	}
	return ret
}

type Options struct {
	// Values of the predeclared SRC_DIR and ROOT_DIR strings.
	SrcDir  string
	RootDir string

	// Print receives the output of print() calls. Nil discards it.
	Print func(msg string)
}

type loader struct {
	file    *File
	modules map[string]bool
}

// Load executes a project file. If src is nil the file is read from
// filename, otherwise src is its contents as a string, []byte or io.Reader.
func Load(filename string, src interface{}, opts Options) (*File, error) {
	l := &loader{
		file:    &File{},
		modules: make(map[string]bool),
	}

	thread := &starlark.Thread{
		Name: filename,
		Print: func(_ *starlark.Thread, msg string) {
			if opts.Print != nil {
				opts.Print(msg)
			}
		},
	}

	if _, err := starlark.ExecFile(thread, filename, src, l.predeclared(opts)); err != nil {
		if evalErr, ok := err.(*starlark.EvalError); ok {
			return nil, fmt.Errorf("%s", evalErr.Backtrace())
		}
		return nil, err
	}

	if err := l.finish(filename); err != nil {
		return nil, err
	}
	return l.file, nil
}

func (l *loader) predeclared(opts Options) starlark.StringDict {
	return starlark.StringDict{
		"project":           starlark.NewBuiltin("project", l.project),
		"cc_defaults":       starlark.NewBuiltin("cc_defaults", l.defaults),
		"cc_library_shared": starlark.NewBuiltin("cc_library_shared", l.library(generator.SharedLibrary)),
		"cc_library_static": starlark.NewBuiltin("cc_library_static", l.library(generator.StaticLibrary)),
		"struct":            starlark.NewBuiltin("struct", starlarkstruct.Make),
		"SRC_DIR":           starlark.String(opts.SrcDir),
		"ROOT_DIR":          starlark.String(opts.RootDir),
		"HOST_OS":           starlark.String(runtime.GOOS),
	}
}

type builtinFunc func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error)

func unmarshalArgs[T any](fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (T, error) {
	if len(args) > 0 {
		var zero T
		return zero, fmt.Errorf("%s: only keyword arguments are accepted", fn.Name())
	}
	ret, err := UnmarshalKwargs[T](kwargs)
	if err != nil {
		return ret, fmt.Errorf("%s: %w", fn.Name(), err)
	}
	return ret, nil
}

func (l *loader) project(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if l.file.Project != nil {
		return nil, fmt.Errorf("%s: called more than once", fn.Name())
	}
	p, err := unmarshalArgs[Project](fn, args, kwargs)
	if err != nil {
		return nil, err
	}
	for k := range p.Templates {
		if !generator.ModuleType(k).Valid() {
			return nil, fmt.Errorf("%s: templates: unsupported module type %q", fn.Name(), k)
		}
	}
	l.file.Project = &p
	return starlark.String(p.Name), nil
}

func (l *loader) defaults(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if l.file.Defaults != nil {
		return nil, fmt.Errorf("%s: called more than once", fn.Name())
	}
	d, err := unmarshalArgs[defaultsArgs](fn, args, kwargs)
	if err != nil {
		return nil, err
	}
	if d.Name == "" {
		return nil, fmt.Errorf("%s: missing name", fn.Name())
	}
	l.file.Defaults = &generator.Defaults{
		Name:        d.Name,
		Cflags:      d.Cflags,
		Cppflags:    d.Cppflags,
		ClangCflags: d.ClangCflags,
		IncludeDirs: d.IncludeDirs,
		SharedLibs:  d.SharedLibs,
		StaticLibs:  d.StaticLibs,
		BpFiles:     d.BpFiles,
		Template:    d.Template,
		BpFile:      d.BpFile,
	}
	return starlark.String(d.Name), nil
}

func (l *loader) library(typ generator.ModuleType) builtinFunc {
	return func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		m, err := unmarshalArgs[moduleArgs](fn, args, kwargs)
		if err != nil {
			return nil, err
		}
		if m.Name == "" {
			return nil, fmt.Errorf("%s: missing name", fn.Name())
		}
		if l.modules[m.Name] {
			return nil, fmt.Errorf("%s: module %q declared twice", fn.Name(), m.Name)
		}
		if m.BpFile == "" {
			return nil, fmt.Errorf("%s: module %q: missing bp_file", fn.Name(), m.Name)
		}
		l.modules[m.Name] = true

		l.file.Modules = append(l.file.Modules, &generator.ModuleInfo{
			Name:             m.Name,
			BpFile:           m.BpFile,
			CMakeDir:         m.CMakeDir,
			MiddleDir:        m.MiddleDir,
			Type:             typ,
			Defaults:         m.Defaults,
			Template:         m.Template,
			AddSrcs:          m.AddSrcs,
			AddCflags:        m.AddCflags,
			AddStaticLibs:    m.AddStaticLibs,
			AddSharedLibs:    m.AddSharedLibs,
			UpdateCflags:     m.UpdateCflags,
			UpdateStaticLibs: m.UpdateStaticLibs,
			UpdateSharedLibs: m.UpdateSharedLibs,
		})
		return starlark.String(m.Name), nil
	}
}

// finish checks the declarations once the whole file has run. Modules that
// name no defaults block use the project's.
func (l *loader) finish(filename string) error {
	if l.file.Project == nil {
		return fmt.Errorf("%s: missing project()", filename)
	}
	if l.file.Defaults == nil {
		return fmt.Errorf("%s: missing cc_defaults()", filename)
	}
	for _, m := range l.file.Modules {
		if m.Defaults == "" {
			m.Defaults = l.file.Defaults.Name
		}
	}
	return nil
}
