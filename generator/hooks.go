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

// Hooks let a project adjust what gets rendered without replacing the
// Generator. Any of them may be nil.
type Hooks struct {
	// AdjustSources is called with the merged sources of a module.
	AdjustSources func(m *ModuleInfo, srcs []string) []string

	// AdjustIncludes is called with the merged local include directories of a
	// module.
	AdjustIncludes func(m *ModuleInfo, dirs []string) []string

	// AdjustFlags is called once for cflags and once for cppflags.
	AdjustFlags func(m *ModuleInfo, flags []string, cpp bool) []string

	// AdjustLibraries is called once for shared and once for static libraries.
	AdjustLibraries func(m *ModuleInfo, libs []string, static bool) []string

	// AdjustFiles runs after the build system and before any module is
	// extracted, so it may patch the generated CMake files.
	AdjustFiles func(g *Generator) error
}

func (h *Hooks) adjust(m *ModuleInfo, props *moduleProperties) {
	if h.AdjustSources != nil {
		props.Srcs = h.AdjustSources(m, props.Srcs)
	}
	if h.AdjustIncludes != nil {
		props.Local_include_dirs = h.AdjustIncludes(m, props.Local_include_dirs)
	}
	if h.AdjustFlags != nil {
		props.Cflags = h.AdjustFlags(m, props.Cflags, false)
		props.Cppflags = h.AdjustFlags(m, props.Cppflags, true)
	}
	if h.AdjustLibraries != nil {
		props.Shared_libs = h.AdjustLibraries(m, props.Shared_libs, false)
		props.Static_libs = h.AdjustLibraries(m, props.Static_libs, true)
	}
}
