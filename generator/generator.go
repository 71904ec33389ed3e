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

// Package generator converts the makefiles CMake generates for a project into
// Android.bp files.
//
// A Generator is configured with the project's directories, a cc_defaults
// block and one ModuleInfo per CMake library target. Generate optionally runs
// CMake, then reads each target's flags.make and build.make, fills the
// project's templates with the extracted sources, flags, include directories
// and libraries, and writes the resulting Android.bp files.
package generator

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"android/cmake2bp/bpfix/bpfix"
)

const (
	buildDirName    = "__build__"
	templateDirName = "bp"
)

type Config struct {
	// Name of the project. The CMake build directory is
	// <RootDir>/__build__/<Name>. Defaults to the module template name without
	// its extension.
	Name string

	// SrcDir is the root of the CMake project. Android.bp paths are relative to
	// it, and only include directories inside it are kept.
	SrcDir string

	// RootDir holds the __build__ directory.
	RootDir string

	// BuildDir overrides <RootDir>/__build__/<Name>.
	BuildDir string

	// TemplateDir holds the templates, <SrcDir>/bp if empty.
	TemplateDir string

	// Template is the module template used when neither the module nor
	// Templates selects one.
	Template string

	// Templates maps a module type to the template used for it.
	Templates map[ModuleType]string

	Defaults *Defaults

	Hooks Hooks

	// BuildSystem runs when Generate is asked to, &CMake{} if nil.
	BuildSystem BuildSystem

	// Format passes every generated file through the Blueprint formatter.
	Format bool

	// Header is written at the top of every generated file.
	Header string

	// Logger receives verbose output and warnings. Nil discards them.
	Logger *log.Logger

	// Stdout receives a line for every generated file, os.Stdout if nil.
	Stdout io.Writer
}

type Options struct {
	// CMake runs the build system's Prepare and Configure steps first.
	CMake bool

	// Make also runs the build system's Build step. Ignored without CMake.
	Make bool
}

// Output is one file written by Generate.
type Output struct {
	Path    string
	Modules []string
	Size    int
}

// Result describes what Generate read and wrote.
type Result struct {
	Outputs []Output

	// DefaultsFile is the path of the generated defaults file.
	DefaultsFile string

	// Inputs are the templates and CMake files that were read.
	Inputs []string
}

type Generator struct {
	config   Config
	logger   *log.Logger
	stdout   io.Writer
	modules  []*ModuleInfo
	byName   map[string]*ModuleInfo
	buildDir string
	tmplDir  string
}

func New(config Config) (*Generator, error) {
	if config.SrcDir == "" {
		return nil, fmt.Errorf("missing source directory")
	}
	if config.Template == "" && len(config.Templates) == 0 {
		return nil, fmt.Errorf("missing module template")
	}
	if config.Defaults == nil {
		return nil, fmt.Errorf("missing defaults")
	}

	srcDir, err := filepath.Abs(config.SrcDir)
	if err != nil {
		return nil, err
	}
	config.SrcDir = srcDir

	if config.RootDir == "" {
		config.RootDir = srcDir
	}
	if config.Name == "" {
		config.Name = strings.TrimSuffix(config.Template, filepath.Ext(config.Template))
	}

	g := &Generator{
		config: config,
		logger: config.Logger,
		stdout: config.Stdout,
		byName: make(map[string]*ModuleInfo),
	}
	if g.logger == nil {
		g.logger = log.New(ioutil.Discard, "", 0)
	}
	if g.stdout == nil {
		g.stdout = os.Stdout
	}
	if g.config.BuildSystem == nil {
		g.config.BuildSystem = &CMake{}
	}

	g.buildDir = config.BuildDir
	if g.buildDir == "" {
		g.buildDir = filepath.Join(config.RootDir, buildDirName, config.Name)
	}
	g.tmplDir = filepath.Join(srcDir, templateDirName)
	if config.TemplateDir != "" {
		g.tmplDir = JoinPath(srcDir, config.TemplateDir)
	}

	return g, nil
}

// Register adds a module. Modules are generated in registration order.
func (g *Generator) Register(modules ...*ModuleInfo) error {
	for _, m := range modules {
		if err := m.validate(); err != nil {
			return err
		}
		if _, exists := g.byName[m.Name]; exists {
			return fmt.Errorf("module %q registered twice", m.Name)
		}
		g.byName[m.Name] = m
		g.modules = append(g.modules, m)
	}
	return nil
}

func (g *Generator) Modules() []*ModuleInfo {
	return append([]*ModuleInfo(nil), g.modules...)
}

func (g *Generator) SrcDir() string {
	return g.config.SrcDir
}

func (g *Generator) BuildDir() string {
	return g.buildDir
}

func (g *Generator) TemplateDir() string {
	return g.tmplDir
}

// Extractor returns an Extractor over the registered modules.
func (g *Generator) Extractor() *Extractor {
	return NewExtractor(g.buildDir, g.config.SrcDir, g.modules)
}

// Generate writes the Android.bp files of every registered module and the
// defaults file. Files already written are left in place if a later one
// fails.
func (g *Generator) Generate(ctx context.Context, opts Options) (*Result, error) {
	if _, err := os.Stat(g.config.SrcDir); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingSource, g.config.SrcDir)
	}

	if opts.CMake {
		g.runBuildSystem(ctx, opts.Make)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if g.config.Hooks.AdjustFiles != nil {
		if err := g.config.Hooks.AdjustFiles(g); err != nil {
			return nil, err
		}
	}

	res := &Result{}
	inputs := newInputSet()
	e := g.Extractor()
	e.onRead = inputs.add

	templates := make(map[string]*Template)
	loadTemplate := func(name string) (*Template, error) {
		path := JoinPath(g.tmplDir, name)
		if t, ok := templates[path]; ok {
			return t, nil
		}
		inputs.add(path)
		t, err := LoadTemplate(path)
		if err != nil {
			return nil, err
		}
		templates[path] = t
		return t, nil
	}

	outputs := newOutputSet()

	for _, m := range g.modules {
		tmpl, err := loadTemplate(g.templateFor(m))
		if err != nil {
			return nil, err
		}
		text, err := g.renderModule(e, m, tmpl)
		if err != nil {
			return nil, err
		}
		outputs.append(JoinPath(g.config.SrcDir, m.BpFile), m.Name, text)
	}

	tmpl, err := loadTemplate(g.config.Defaults.templateName())
	if err != nil {
		return nil, err
	}
	res.DefaultsFile = JoinPath(g.config.SrcDir, g.config.Defaults.bpFileName())
	if prev := outputs.set(res.DefaultsFile, g.config.Defaults.Name, g.renderDefaults(tmpl)); len(prev) > 0 {
		g.logger.Printf("warning: defaults file %s replaces modules %v", res.DefaultsFile, prev)
	}

	for _, out := range outputs.list {
		size, err := g.write(out.path, out.text())
		if err != nil {
			return nil, err
		}
		res.Outputs = append(res.Outputs, Output{
			Path:    out.path,
			Modules: out.modules,
			Size:    size,
		})
		fmt.Fprintln(g.stdout, out.path+" has been generated.")
	}

	res.Inputs = inputs.list
	return res, nil
}

func (g *Generator) runBuildSystem(ctx context.Context, build bool) {
	// The CMake build is not supported from Windows hosts, where the tool is
	// only used to debug templates against existing build files.
	if runtime.GOOS == "windows" {
		g.logger.Printf("skipping the build system on %s", runtime.GOOS)
		return
	}

	bs := g.config.BuildSystem
	if err := bs.Prepare(ctx, g.buildDir); err != nil {
		g.logger.Printf("warning: preparing %s: %v", g.buildDir, err)
	}
	if err := bs.Configure(ctx, g.config.SrcDir, g.buildDir); err != nil {
		g.logger.Printf("warning: configuring %s: %v", g.config.SrcDir, err)
	}
	if build {
		fmt.Fprintln(g.stdout, "It is making: "+g.config.SrcDir)
		if err := bs.Build(ctx, g.buildDir); err != nil {
			g.logger.Printf("warning: building %s: %v", g.config.SrcDir, err)
		}
	}
}

func (g *Generator) templateFor(m *ModuleInfo) string {
	if m.Template != "" {
		return m.Template
	}
	if t, ok := g.config.Templates[m.Type]; ok && t != "" {
		return t
	}
	return g.config.Template
}

// properties returns the merged and adjusted lists of a module, as they are
// rendered.
func (g *Generator) properties(e *Extractor, m *ModuleInfo) (*moduleProperties, error) {
	props := &moduleProperties{}
	var err error

	if props.Srcs, err = e.Sources(m.Name); err != nil {
		return nil, err
	}

	for _, f := range []struct {
		dst    *[]string
		titles []string
	}{
		{&props.Cflags, []string{"C_FLAGS", "C_DEFINES"}},
		{&props.Cppflags, []string{"CXX_FLAGS", "CXX_DEFINES"}},
	} {
		for _, title := range f.titles {
			tokens, err := e.Defines(m.Name, title)
			if err != nil {
				return nil, err
			}
			*f.dst = append(*f.dst, tokens...)
		}
	}

	for _, title := range []string{"C_INCLUDES", "CXX_INCLUDES"} {
		dirs, err := e.Includes(m.Name, title)
		if err != nil {
			return nil, err
		}
		props.Local_include_dirs = append(props.Local_include_dirs, dirs...)
	}

	if props.Shared_libs, err = e.Libraries(m.Name, SharedLibs); err != nil {
		return nil, err
	}
	if props.Static_libs, err = e.Libraries(m.Name, StaticLibs); err != nil {
		return nil, err
	}

	if err := merge(m, props); err != nil {
		return nil, fmt.Errorf("module %q: %v", m.Name, err)
	}
	g.config.Hooks.adjust(m, props)

	g.logger.Printf("%s: %d srcs, %d cflags, %d cppflags, %d include dirs, %d shared libs, %d static libs",
		m.Name, len(props.Srcs), len(props.Cflags), len(props.Cppflags),
		len(props.Local_include_dirs), len(props.Shared_libs), len(props.Static_libs))

	return props, nil
}

func (g *Generator) renderModule(e *Extractor, m *ModuleInfo, tmpl *Template) (string, error) {
	props, err := g.properties(e, m)
	if err != nil {
		return "", err
	}

	text := tmpl.Expand(moduleTokens, map[string]string{
		"@module":             string(m.Type),
		"@name":               m.Name,
		"@defaults":           RenderList([]string{m.Defaults}, 2),
		"@srcs":               RenderList(props.Srcs, 2),
		"@cflags":             RenderList(props.Cflags, 2),
		"@cppflags":           RenderList(props.Cppflags, 2),
		"@local_include_dirs": RenderList(props.Local_include_dirs, 2),
		"@shared_libs":        RenderList(props.Shared_libs, 2),
		"@static_libs":        RenderList(props.Static_libs, 2),
	})
	g.warnUnresolved(tmpl, text)
	return text, nil
}

func (g *Generator) renderDefaults(tmpl *Template) string {
	d := g.config.Defaults
	text := tmpl.Expand(defaultsTokens, map[string]string{
		"@name":         d.Name,
		"@cflags":       RenderList(d.Cflags, 2),
		"@cppflags":     RenderList(d.Cppflags, 2),
		"@clang_cflags": RenderList(d.ClangCflags, 2),
		"@include_dirs": RenderList(d.IncludeDirs, 2),
		"@shared_libs":  RenderList(d.SharedLibs, 2),
		"@static_libs":  RenderList(d.StaticLibs, 2),
		"@build":        RenderList(d.BpFiles, 1),
	})
	g.warnUnresolved(tmpl, text)
	return text
}

func (g *Generator) warnUnresolved(tmpl *Template, text string) {
	if left := Unresolved(text); len(left) > 0 {
		g.logger.Printf("warning: %s: unresolved placeholders %v", tmpl.Path, left)
	}
}

// write replaces the file at path with text.
func (g *Generator) write(path, text string) (int, error) {
	if g.config.Header != "" {
		text = g.config.Header + "\n" + text
	}
	if g.config.Format {
		formatted, err := bpfix.Reformat(text)
		if err != nil {
			return 0, fmt.Errorf("formatting %s: %v", path, err)
		}
		text = formatted
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		return 0, err
	}
	if err := ioutil.WriteFile(path, []byte(text), 0666); err != nil {
		return 0, err
	}
	return len(text), nil
}

type output struct {
	path    string
	modules []string
	blocks  []string
}

func (o *output) text() string {
	return strings.Join(o.blocks, "\n\n")
}

// outputSet keeps the generated files in the order they were first added.
type outputSet struct {
	list   []*output
	byPath map[string]*output
}

func newOutputSet() *outputSet {
	return &outputSet{byPath: make(map[string]*output)}
}

func (s *outputSet) get(path string) *output {
	path = filepath.Clean(path)
	if o, ok := s.byPath[path]; ok {
		return o
	}
	o := &output{path: path}
	s.byPath[path] = o
	s.list = append(s.list, o)
	return o
}

func (s *outputSet) append(path, module, text string) {
	o := s.get(path)
	o.modules = append(o.modules, module)
	o.blocks = append(o.blocks, text)
}

// set replaces the contents of path, returning the modules it replaced.
func (s *outputSet) set(path, module, text string) []string {
	o := s.get(path)
	prev := o.modules
	o.modules = []string{module}
	o.blocks = []string{text}
	return prev
}

type inputSet struct {
	list []string
	seen map[string]bool
}

func newInputSet() *inputSet {
	return &inputSet{seen: make(map[string]bool)}
}

func (s *inputSet) add(path string) {
	if !s.seen[path] {
		s.seen[path] = true
		s.list = append(s.list, path)
	}
}
