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
	"strings"
)

const indent = "    "

var bpStringEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// RenderList formats items as a Blueprint list body: one quoted,
// comma-terminated item per line, each indented by level. Surrounding
// whitespace of the block is trimmed and a single indent is put back in
// front, so an empty list renders as a bare indent.
func RenderList(items []string, level int) string {
	prefix := strings.Repeat(indent, level)

	var b strings.Builder
	for _, item := range items {
		if item == "" {
			continue
		}
		b.WriteString(prefix)
		b.WriteByte('"')
		b.WriteString(bpStringEscaper.Replace(item))
		b.WriteString("\",\n")
	}

	return prefix + strings.TrimSpace(b.String())
}
