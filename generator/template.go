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
	"regexp"
	"sort"
	"strings"
)

// Placeholders recognized in module templates, in substitution order.
var moduleTokens = []string{
	"@module",
	"@name",
	"@defaults",
	"@srcs",
	"@cflags",
	"@cppflags",
	"@local_include_dirs",
	"@shared_libs",
	"@static_libs",
}

// Placeholders recognized in the defaults template, in substitution order.
var defaultsTokens = []string{
	"@name",
	"@cflags",
	"@cppflags",
	"@clang_cflags",
	"@include_dirs",
	"@shared_libs",
	"@static_libs",
	"@build",
}

var (
	commentRegexp     = regexp.MustCompile(`#.*(?:\n|$)`)
	placeholderRegexp = regexp.MustCompile(`@[A-Za-z_]+`)
)

// A Template is the text of a template file with its comments removed.
type Template struct {
	Path string
	text string
}

// LoadTemplate reads a template file. Comments run from '#' to the end of the
// line and are removed together with their newline.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTemplate(path, string(data)), nil
}

func ParseTemplate(path, text string) *Template {
	text = commentRegexp.ReplaceAllString(text, "")
	return &Template{
		Path: path,
		text: strings.TrimSpace(text),
	}
}

func (t *Template) String() string {
	return t.text
}

// Expand replaces every occurrence of each token with its value, in the order
// of tokens. Tokens without a value are replaced with the empty string.
func (t *Template) Expand(tokens []string, values map[string]string) string {
	ret := t.text
	for _, token := range tokens {
		ret = strings.ReplaceAll(ret, token, values[token])
	}
	return ret
}

// Unresolved returns the placeholders left in an expanded template.
func Unresolved(text string) []string {
	found := placeholderRegexp.FindAllString(text, -1)
	if len(found) == 0 {
		return nil
	}
	found = FirstUniqueStrings(found)
	sort.Strings(found)
	return found
}
