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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// This file contains general purpose test assert functions.

// AssertStringEquals checks if the expected and actual values are equal and if they are not then
// it reports an error prefixed with the supplied message and including a reason for why it failed.
func AssertStringEquals(t *testing.T, message string, expected string, actual string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected %q, actual %q", message, expected, actual)
	}
}

// AssertDeepEquals checks if the expected and actual values are equal and if they are not then it
// reports an error prefixed with the supplied message and including a diff.
func AssertDeepEquals(t *testing.T, message string, expected interface{}, actual interface{}) {
	t.Helper()
	if diff := cmp.Diff(expected, actual); diff != "" {
		t.Errorf("%s: (-expected +actual):\n%s", message, diff)
	}
}

// AssertErrorIs checks that err wraps target.
func AssertErrorIs(t *testing.T, message string, target error, err error) {
	t.Helper()
	if err == nil {
		t.Errorf("%s: expected error %v but was nil", message, target)
	} else if !errors.Is(err, target) {
		t.Errorf("%s: expected error %v, actual %v", message, target, err)
	}
}

// AssertNoError fails the test immediately if err is not nil.
func AssertNoError(t *testing.T, message string, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", message, err)
	}
}
