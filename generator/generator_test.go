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
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"android/cmake2bp/bpfix/bpfix"
)

const emptyList = "        "

var expectedMediaBp = `cc_library_shared {
    name: "foo",
    defaults: [
        "test_defaults",
    ],
    srcs: [
        "src/a.c",
        "src/b.cpp",
        "../common/c.c",
        "bar",
    ],
    cflags: [
        "-O2",
        "-fPIC",
        "-DFOO=1",
        "-DEMPTY=",
    ],
    cppflags: [
        "-O2",
        "-std=c++14",
        "-DFOO=1",
    ],
    local_include_dirs: [
        "inc",
        "sub",
    ],
    shared_libs: [
        "libbar",
        "libdl",
    ],
    static_libs: [
        "libbaz",
    ],
}

cc_library_static {
    name: "baz",
    defaults: [
        "test_defaults",
    ],
    srcs: [
        "baz.c",
    ],
    cflags: [
        "-O2",
    ],
    cppflags: [
` + emptyList + `
    ],
    local_include_dirs: [
` + emptyList + `
    ],
    shared_libs: [
` + emptyList + `
    ],
    static_libs: [
` + emptyList + `
    ],
}`

const expectedDefaultsBp = `cc_defaults {
    name: "test_defaults",
    cflags: [
        "-Wall",
        "-Werror",
    ],
    shared_libs: [
        "liblog",
    ],
}

build = [
    "media/Android.bp",
]`

func newTestGenerator(t *testing.T, config Config, modules []*ModuleInfo) *Generator {
	t.Helper()
	g, err := New(config)
	AssertNoError(t, "New", err)
	AssertNoError(t, "Register", g.Register(modules...))
	return g
}

func TestGenerate(t *testing.T) {
	p := newTestProject(t)
	config := p.config()
	stdout := &strings.Builder{}
	config.Stdout = stdout
	g := newTestGenerator(t, config, p.modules())

	res, err := g.Generate(context.Background(), Options{})
	AssertNoError(t, "Generate", err)

	mediaBp := filepath.Join(p.src, "media/Android.bp")
	defaultsBp := filepath.Join(p.src, "Android.bp")

	AssertStringEquals(t, "media/Android.bp", expectedMediaBp, readFile(t, mediaBp))
	AssertStringEquals(t, "Android.bp", expectedDefaultsBp, readFile(t, defaultsBp))

	AssertDeepEquals(t, "outputs", []Output{
		{Path: mediaBp, Modules: []string{"foo", "baz"}, Size: len(expectedMediaBp)},
		{Path: defaultsBp, Modules: []string{"test_defaults"}, Size: len(expectedDefaultsBp)},
	}, res.Outputs)
	AssertStringEquals(t, "defaults file", defaultsBp, res.DefaultsFile)
	AssertStringEquals(t, "stdout",
		mediaBp+" has been generated.\n"+defaultsBp+" has been generated.\n",
		stdout.String())

	AssertDeepEquals(t, "inputs", []string{
		filepath.Join(p.src, "bp/module.tpl"),
		filepath.Join(p.build, "media/CMakeFiles/foo.dir/build.make"),
		filepath.Join(p.build, "media/CMakeFiles/foo.dir/flags.make"),
		filepath.Join(p.build, "CMakeFiles/baz.dir/build.make"),
		filepath.Join(p.build, "CMakeFiles/baz.dir/flags.make"),
		filepath.Join(p.src, "bp/defaults.tpl"),
	}, res.Inputs)
}

func TestGenerateIsIdempotent(t *testing.T) {
	p := newTestProject(t)
	g := newTestGenerator(t, p.config(), p.modules())

	_, err := g.Generate(context.Background(), Options{})
	AssertNoError(t, "first Generate", err)
	first := readFile(t, filepath.Join(p.src, "media/Android.bp"))
	firstDefaults := readFile(t, filepath.Join(p.src, "Android.bp"))

	_, err = g.Generate(context.Background(), Options{})
	AssertNoError(t, "second Generate", err)
	AssertStringEquals(t, "media/Android.bp", first, readFile(t, filepath.Join(p.src, "media/Android.bp")))
	AssertStringEquals(t, "Android.bp", firstDefaults, readFile(t, filepath.Join(p.src, "Android.bp")))
}

func TestGenerateReplacesStaleFile(t *testing.T) {
	p := newTestProject(t)
	writeFiles(t, p.src, map[string]string{
		"media/Android.bp": strings.Repeat("stale\n", 1000),
	})
	g := newTestGenerator(t, p.config(), p.modules())

	_, err := g.Generate(context.Background(), Options{})
	AssertNoError(t, "Generate", err)
	AssertStringEquals(t, "media/Android.bp", expectedMediaBp, readFile(t, filepath.Join(p.src, "media/Android.bp")))
}

func TestGenerateAbsoluteBpFile(t *testing.T) {
	p := newTestProject(t)
	out := filepath.Join(t.TempDir(), "abs", "Android.bp")
	modules := p.modules()
	modules[1].BpFile = out
	g := newTestGenerator(t, p.config(), modules)

	res, err := g.Generate(context.Background(), Options{})
	AssertNoError(t, "Generate", err)

	if !strings.HasPrefix(readFile(t, out), "cc_library_static {") {
		t.Errorf("expected baz in %s", out)
	}
	var paths []string
	for _, o := range res.Outputs {
		paths = append(paths, o.Path)
	}
	AssertDeepEquals(t, "outputs", []string{
		filepath.Join(p.src, "media/Android.bp"),
		out,
		filepath.Join(p.src, "Android.bp"),
	}, paths)
}

func TestGenerateMissingSource(t *testing.T) {
	p := newTestProject(t)
	config := p.config()
	config.SrcDir = filepath.Join(p.src, "missing")
	g := newTestGenerator(t, config, p.modules())

	_, err := g.Generate(context.Background(), Options{})
	AssertErrorIs(t, "Generate", ErrMissingSource, err)
}

func TestGenerateMissingArtifact(t *testing.T) {
	p := newTestProject(t)
	AssertNoError(t, "remove", os.Remove(filepath.Join(p.build, "CMakeFiles/baz.dir/build.make")))
	g := newTestGenerator(t, p.config(), p.modules())

	_, err := g.Generate(context.Background(), Options{})
	AssertErrorIs(t, "Generate", os.ErrNotExist, err)

	for _, f := range []string{"media/Android.bp", "Android.bp"} {
		if _, err := os.Stat(filepath.Join(p.src, f)); !os.IsNotExist(err) {
			t.Errorf("%s should not have been written", f)
		}
	}
}

func TestRegister(t *testing.T) {
	p := newTestProject(t)
	g, err := New(p.config())
	AssertNoError(t, "New", err)

	AssertNoError(t, "Register", g.Register(p.modules()...))
	if err := g.Register(&ModuleInfo{Name: "foo", BpFile: "Android.bp", Type: StaticLibrary}); err == nil {
		t.Error("expected an error registering foo twice")
	}
	if err := g.Register(&ModuleInfo{Name: "bin", BpFile: "Android.bp", Type: "cc_binary"}); err == nil {
		t.Error("expected an error registering an unsupported module type")
	}
	if err := g.Register(&ModuleInfo{Name: "nobp", Type: StaticLibrary}); err == nil {
		t.Error("expected an error registering a module without a bp file")
	}

	var names []string
	for _, m := range g.Modules() {
		names = append(names, m.Name)
	}
	AssertDeepEquals(t, "modules", []string{"foo", "baz"}, names)
}

func TestNew(t *testing.T) {
	p := newTestProject(t)

	g, err := New(p.config())
	AssertNoError(t, "New", err)
	AssertStringEquals(t, "build dir", p.build, g.BuildDir())
	AssertStringEquals(t, "template dir", filepath.Join(p.src, "bp"), g.TemplateDir())

	config := p.config()
	config.Name = "media_driver"
	config.TemplateDir = "/templates"
	g, err = New(config)
	AssertNoError(t, "New", err)
	AssertStringEquals(t, "build dir", filepath.Join(p.root, "__build__", "media_driver"), g.BuildDir())
	AssertStringEquals(t, "template dir", "/templates", g.TemplateDir())

	config = p.config()
	config.Defaults = nil
	if _, err := New(config); err == nil {
		t.Error("expected an error without defaults")
	}

	config = p.config()
	config.Template = ""
	if _, err := New(config); err == nil {
		t.Error("expected an error without a template")
	}
}

func TestTemplateSelection(t *testing.T) {
	p := newTestProject(t)
	writeFiles(t, p.src, map[string]string{
		"bp/static.tpl": "static @name",
		"bp/baz.tpl":    "# only for baz\nbaz @name",
	})

	config := p.config()
	config.Templates = map[ModuleType]string{StaticLibrary: "static.tpl"}
	modules := p.modules()
	modules = append(modules, &ModuleInfo{
		Name:     "qux",
		BpFile:   "qux/Android.bp",
		CMakeDir: "CMakeFiles/baz.dir/",
		Type:     StaticLibrary,
	})
	modules[1].Template = "baz.tpl"
	g := newTestGenerator(t, config, modules)

	_, err := g.Generate(context.Background(), Options{})
	AssertNoError(t, "Generate", err)

	media := readFile(t, filepath.Join(p.src, "media/Android.bp"))
	if !strings.HasPrefix(media, "cc_library_shared {") {
		t.Errorf("foo should use the default template, got %q", media)
	}
	if !strings.HasSuffix(media, "}\n\nbaz baz") {
		t.Errorf("baz should use its own template, got %q", media)
	}
	AssertStringEquals(t, "qux/Android.bp", "static qux", readFile(t, filepath.Join(p.src, "qux/Android.bp")))
}

func TestGenerateFormatAndHeader(t *testing.T) {
	p := newTestProject(t)
	config := p.config()
	config.Format = true
	config.Header = "// This is a generated file. Do not modify directly."
	g := newTestGenerator(t, config, p.modules())

	_, err := g.Generate(context.Background(), Options{})
	AssertNoError(t, "Generate", err)

	media := readFile(t, filepath.Join(p.src, "media/Android.bp"))
	if !strings.HasPrefix(media, config.Header+"\n") {
		t.Errorf("missing header in %q", media)
	}
	names, err := bpfix.ModuleNames(media)
	AssertNoError(t, "ModuleNames", err)
	AssertDeepEquals(t, "modules", []string{"foo", "baz"}, names)

	formatted, err := bpfix.Reformat(media)
	AssertNoError(t, "Reformat", err)
	AssertStringEquals(t, "already formatted", formatted, media)
}

func TestGenerateDefaultsReplacesModule(t *testing.T) {
	p := newTestProject(t)
	logs := &bytes.Buffer{}
	config := p.config()
	config.Logger = log.New(logs, "", 0)
	modules := p.modules()[1:]
	modules[0].BpFile = "Android.bp"
	g := newTestGenerator(t, config, modules)

	res, err := g.Generate(context.Background(), Options{})
	AssertNoError(t, "Generate", err)
	AssertStringEquals(t, "Android.bp", expectedDefaultsBp, readFile(t, filepath.Join(p.src, "Android.bp")))
	AssertDeepEquals(t, "outputs", 1, len(res.Outputs))
	if !strings.Contains(logs.String(), "replaces modules [baz]") {
		t.Errorf("expected a warning, got %q", logs.String())
	}
}

func TestGenerateUnresolvedWarning(t *testing.T) {
	p := newTestProject(t)
	writeFiles(t, p.src, map[string]string{
		"bp/module.tpl": "@module { name: \"@name\", header_libs: [@header_libs] }",
	})
	logs := &bytes.Buffer{}
	config := p.config()
	config.Logger = log.New(logs, "", 0)
	g := newTestGenerator(t, config, p.modules())

	_, err := g.Generate(context.Background(), Options{})
	AssertNoError(t, "Generate", err)
	if !strings.Contains(logs.String(), "unresolved placeholders [@header_libs]") {
		t.Errorf("expected a warning, got %q", logs.String())
	}
}

type fakeBuildSystem struct {
	calls       []string
	err         error
	onConfigure func()
}

func (f *fakeBuildSystem) Prepare(ctx context.Context, buildDir string) error {
	f.calls = append(f.calls, "prepare "+buildDir)
	return nil
}

func (f *fakeBuildSystem) Configure(ctx context.Context, srcDir, buildDir string) error {
	f.calls = append(f.calls, "configure "+srcDir+" "+buildDir)
	if f.onConfigure != nil {
		f.onConfigure()
	}
	return f.err
}

func (f *fakeBuildSystem) Build(ctx context.Context, buildDir string) error {
	f.calls = append(f.calls, "build "+buildDir)
	return f.err
}

func TestGenerateRunsBuildSystem(t *testing.T) {
	testCases := []struct {
		name     string
		opts     Options
		expected []string
	}{
		{
			name: "no cmake",
			opts: Options{},
		},
		{
			name:     "cmake",
			opts:     Options{CMake: true},
			expected: []string{"prepare", "configure"},
		},
		{
			name:     "cmake and make",
			opts:     Options{CMake: true, Make: true},
			expected: []string{"prepare", "configure", "build"},
		},
		{
			name: "make without cmake",
			opts: Options{Make: true},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := newTestProject(t)
			bs := &fakeBuildSystem{}
			config := p.config()
			config.BuildSystem = bs
			g := newTestGenerator(t, config, p.modules())

			_, err := g.Generate(context.Background(), tc.opts)
			AssertNoError(t, "Generate", err)

			var expected []string
			for _, c := range tc.expected {
				switch c {
				case "prepare":
					expected = append(expected, "prepare "+p.build)
				case "configure":
					expected = append(expected, "configure "+p.src+" "+p.build)
				case "build":
					expected = append(expected, "build "+p.build)
				}
			}
			AssertDeepEquals(t, "calls", expected, bs.calls)
		})
	}
}

func TestGenerateIgnoresBuildSystemErrors(t *testing.T) {
	p := newTestProject(t)
	logs := &bytes.Buffer{}
	config := p.config()
	config.BuildSystem = &fakeBuildSystem{err: errors.New("cmake not found")}
	config.Logger = log.New(logs, "", 0)
	g := newTestGenerator(t, config, p.modules())

	_, err := g.Generate(context.Background(), Options{CMake: true, Make: true})
	AssertNoError(t, "Generate", err)
	if !strings.Contains(logs.String(), "cmake not found") {
		t.Errorf("expected the error to be logged, got %q", logs.String())
	}
}

func TestGenerateCanceledDuringBuildSystem(t *testing.T) {
	p := newTestProject(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bs := &fakeBuildSystem{onConfigure: cancel, err: errors.New("interrupted")}
	config := p.config()
	config.BuildSystem = bs
	g := newTestGenerator(t, config, p.modules())

	_, err := g.Generate(ctx, Options{CMake: true, Make: true})
	AssertErrorIs(t, "Generate", context.Canceled, err)

	for _, f := range []string{"media/Android.bp", "Android.bp"} {
		if _, err := os.Stat(filepath.Join(p.src, f)); !os.IsNotExist(err) {
			t.Errorf("%s should not have been written", f)
		}
	}
}

func TestGenerateAdjustFiles(t *testing.T) {
	p := newTestProject(t)
	config := p.config()
	config.Hooks.AdjustFiles = func(g *Generator) error {
		return os.WriteFile(filepath.Join(g.BuildDir(), "CMakeFiles/baz.dir/flags.make"),
			[]byte("C_FLAGS = -Os\n"), 0666)
	}
	config.Hooks.AdjustSources = func(m *ModuleInfo, srcs []string) []string {
		if m.Name != "baz" {
			return srcs
		}
		return append(srcs, "generated.c")
	}
	g := newTestGenerator(t, config, p.modules())

	_, err := g.Generate(context.Background(), Options{})
	AssertNoError(t, "Generate", err)

	media := readFile(t, filepath.Join(p.src, "media/Android.bp"))
	for _, want := range []string{`"-Os",`, `"generated.c",`} {
		if !strings.Contains(media, want) {
			t.Errorf("expected %s in %q", want, media)
		}
	}

	config.Hooks.AdjustFiles = func(g *Generator) error { return errors.New("patch failed") }
	g = newTestGenerator(t, config, p.modules())
	_, err = g.Generate(context.Background(), Options{})
	if err == nil || err.Error() != "patch failed" {
		t.Errorf("expected the AdjustFiles error, got %v", err)
	}
}

func TestGenerateMergesModuleOverrides(t *testing.T) {
	p := newTestProject(t)
	modules := p.modules()
	modules[0].AddSrcs = []string{"extra.c"}
	modules[0].UpdateSharedLibs = map[string]string{"libdl": ""}
	modules[0].AddStaticLibs = []string{"libextra"}
	g := newTestGenerator(t, p.config(), modules)

	_, err := g.Generate(context.Background(), Options{})
	AssertNoError(t, "Generate", err)

	media := readFile(t, filepath.Join(p.src, "media/Android.bp"))
	for _, want := range []string{
		"        \"bar\",\n        \"extra.c\",\n    ],",
		"shared_libs: [\n        \"libbar\",\n    ],",
		"static_libs: [\n        \"libbaz\",\n        \"libextra\",\n    ],",
	} {
		if !strings.Contains(media, want) {
			t.Errorf("expected %q in %q", want, media)
		}
	}
}
