// Copyright 2022 Google Inc. All rights reserved.
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

package config

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

const (
	indent = 4
)

// Indention returns an indent string of the specified level.
func Indention(level int) string {
	if level < 0 {
		panic(fmt.Errorf("indent level cannot be less than 0, but got %d", level))
	}
	return strings.Repeat(" ", level*indent)
}

// PrintAny returns a Starlark expression for value. Structs are printed as
// struct() calls with their zero valued fields left out.
func PrintAny(value any, indentLevel int) string {
	return printAnyRecursive(reflect.ValueOf(value), indentLevel)
}

func printAnyRecursive(value reflect.Value, indentLevel int) string {
	switch value.Type().Kind() {
	case reflect.String:
		return strconv.Quote(value.String())
	case reflect.Bool:
		return PrintBool(value.Bool())
	case reflect.Int:
		return fmt.Sprintf("%d", value.Int())
	case reflect.Pointer:
		return printAnyRecursive(value.Elem(), indentLevel)
	case reflect.Slice:
		if value.Len() == 0 {
			return "[]"
		} else if value.Len() == 1 {
			return "[" + printAnyRecursive(value.Index(0), indentLevel) + "]"
		}
		list := make([]string, 0, value.Len()+2)
		list = append(list, "[")
		innerIndent := Indention(indentLevel + 1)
		for i := 0; i < value.Len(); i++ {
			list = append(list, innerIndent+printAnyRecursive(value.Index(i), indentLevel+1)+`,`)
		}
		list = append(list, Indention(indentLevel)+"]")
		return strings.Join(list, "\n")
	case reflect.Map:
		if value.Len() == 0 {
			return "{}"
		}
		items := make([]string, 0, value.Len())
		for _, key := range value.MapKeys() {
			items = append(items, fmt.Sprintf(`%s%s: %s,`, Indention(indentLevel+1), printAnyRecursive(key, indentLevel+1), printAnyRecursive(value.MapIndex(key), indentLevel+1)))
		}
		sort.Strings(items)
		return fmt.Sprintf(`{
%s
%s}`, strings.Join(items, "\n"), Indention(indentLevel))
	case reflect.Struct:
		return printCall("struct", value, indentLevel)
	default:
		panic("Unhandled kind: " + value.Kind().String())
	}
}

// PrintCall returns a Starlark call of the function name whose keyword
// arguments are the non-zero fields of the struct args.
func PrintCall(name string, args any, indentLevel int) string {
	return printCall(name, reflect.Indirect(reflect.ValueOf(args)), indentLevel)
}

func printCall(name string, value reflect.Value, indentLevel int) string {
	items := make([]string, 0, value.NumField()+2)
	items = append(items, name+"(")
	for i := 0; i < value.NumField(); i++ {
		field := value.Type().Field(i)
		if field.Anonymous {
			panic("anonymous fields aren't supported")
		}
		if field.PkgPath != "" || value.Field(i).IsZero() {
			continue
		}
		items = append(items, fmt.Sprintf(`%s%s = %s,`, Indention(indentLevel+1), starName(field), printAnyRecursive(value.Field(i), indentLevel+1)))
	}
	if len(items) == 1 {
		return name + "()"
	}
	items = append(items, Indention(indentLevel)+")")
	return strings.Join(items, "\n")
}

// PrintBool returns a Starlark compatible bool string.
func PrintBool(item bool) string {
	if item {
		return "True"
	} else {
		return "False"
	}
}

// Format returns a project file that declares the same project, defaults and
// modules as f.
func (f *File) Format() string {
	calls := []string{PrintCall("project", f.Project, 0)}

	if d := f.Defaults; d != nil {
		calls = append(calls, PrintCall("cc_defaults", defaultsArgs{
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
		}, 0))
	}

	for _, m := range f.Modules {
		calls = append(calls, PrintCall(string(m.Type), moduleArgs{
			Name:             m.Name,
			BpFile:           m.BpFile,
			CMakeDir:         m.CMakeDir,
			Defaults:         m.Defaults,
			MiddleDir:        m.MiddleDir,
			Template:         m.Template,
			AddSrcs:          m.AddSrcs,
			AddCflags:        m.AddCflags,
			AddStaticLibs:    m.AddStaticLibs,
			AddSharedLibs:    m.AddSharedLibs,
			UpdateCflags:     m.UpdateCflags,
			UpdateStaticLibs: m.UpdateStaticLibs,
			UpdateSharedLibs: m.UpdateSharedLibs,
		}, 0))
	}

	return strings.Join(calls, "\n\n") + "\n"
}
