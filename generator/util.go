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
	"path/filepath"
)

// CopyOf returns a new slice that has the same contents as s.
func CopyOf(s []string) []string {
	return append([]string(nil), s...)
}

// FirstUniqueStrings returns all unique elements of a slice of strings, keeping the first copy of
// each.  It does not modify the input slice. It returns nil if list is empty.
func FirstUniqueStrings(list []string) []string {
	if len(list) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(list))
	ret := make([]string, 0, len(list))
	for _, s := range list {
		if seen[s] {
			continue
		}
		seen[s] = true
		ret = append(ret, s)
	}
	return ret
}

// JoinPath joins the path strings in the argument list, taking absolute paths
// into account. That is, if one of the strings is an absolute path, the ones
// before are ignored.
func JoinPath(base string, rest ...string) string {
	result := base
	for _, next := range rest {
		if filepath.IsAbs(next) {
			result = next
		} else {
			result = filepath.Join(result, next)
		}
	}
	return result
}
