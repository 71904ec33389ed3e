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
	"github.com/google/blueprint/proptools"
)

// moduleProperties holds the lists rendered into a module block. Field names
// follow the Soong property names.
type moduleProperties struct {
	Srcs               []string
	Cflags             []string
	Cppflags           []string
	Local_include_dirs []string
	Shared_libs        []string
	Static_libs        []string
}

// merge applies the module's update maps to the extracted properties and then
// appends its additional values. Flags keep their duplicates, every other list
// is deduplicated.
func merge(m *ModuleInfo, props *moduleProperties) error {
	props.Cflags = updateList(props.Cflags, m.UpdateCflags)
	props.Cppflags = updateList(props.Cppflags, m.UpdateCflags)
	props.Static_libs = updateList(props.Static_libs, m.UpdateStaticLibs)
	props.Shared_libs = updateList(props.Shared_libs, m.UpdateSharedLibs)

	additions := &moduleProperties{
		Srcs:        CopyOf(m.AddSrcs),
		Cflags:      CopyOf(m.AddCflags),
		Static_libs: CopyOf(m.AddStaticLibs),
		Shared_libs: CopyOf(m.AddSharedLibs),
	}
	if err := proptools.AppendProperties(props, additions, nil); err != nil {
		return err
	}

	props.Srcs = FirstUniqueStrings(props.Srcs)
	props.Local_include_dirs = FirstUniqueStrings(props.Local_include_dirs)
	props.Static_libs = FirstUniqueStrings(props.Static_libs)
	props.Shared_libs = FirstUniqueStrings(props.Shared_libs)

	return nil
}

// updateList replaces every value of list that is a key of updates with the
// corresponding value. Values mapped to "" are removed.
func updateList(list []string, updates map[string]string) []string {
	if len(updates) == 0 {
		return list
	}
	ret := make([]string, 0, len(list))
	for _, s := range list {
		if repl, ok := updates[s]; ok {
			if repl != "" {
				ret = append(ret, repl)
			}
			continue
		}
		ret = append(ret, s)
	}
	return ret
}
