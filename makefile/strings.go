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

package makefile

import (
	"strings"
)

// words splits s on unescaped whitespace and resolves the escapes that CMake
// uses in rule targets and prerequisites.
func words(s string) []string {
	var ret []string
	var word strings.Builder
	inWord := false

	flush := func() {
		if inWord {
			ret = append(ret, unescape(word.String()))
			word.Reset()
			inWord = false
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			flush()
		case c == '\\' && i+1 < len(s):
			word.WriteByte(c)
			word.WriteByte(s[i+1])
			inWord = true
			i++
		default:
			word.WriteByte(c)
			inWord = true
		}
	}
	flush()

	return ret
}

func unescape(s string) string {
	s = strings.ReplaceAll(s, "$$", "$")

	ret := ""
	for {
		index := strings.IndexByte(s, '\\')
		if index < 0 {
			break
		}

		if index+1 == len(s) {
			break
		}

		switch s[index+1] {
		case ' ', '\\', '#', ':', '*', '[', '|', '\t':
			ret += s[:index] + s[index+1:index+2]
		default:
			ret += s[:index+2]
		}
		s = s[index+2:]
	}
	return ret + s
}
