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
	"github.com/google/blueprint/deptools"
	"github.com/google/blueprint/pathtools"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/types/known/structpb"
)

// Manifest returns the result as a protobuf Struct:
//
//	outputs: [{path, modules, size}], defaults_file, inputs: [...]
func (r *Result) Manifest() (*structpb.Struct, error) {
	outputs := make([]interface{}, 0, len(r.Outputs))
	for _, o := range r.Outputs {
		modules := make([]interface{}, 0, len(o.Modules))
		for _, m := range o.Modules {
			modules = append(modules, m)
		}
		outputs = append(outputs, map[string]interface{}{
			"path":    o.Path,
			"modules": modules,
			"size":    o.Size,
		})
	}

	inputs := make([]interface{}, 0, len(r.Inputs))
	for _, i := range r.Inputs {
		inputs = append(inputs, i)
	}

	return structpb.NewStruct(map[string]interface{}{
		"outputs":       outputs,
		"defaults_file": r.DefaultsFile,
		"inputs":        inputs,
	})
}

// WriteManifest writes the manifest as a text proto, leaving the file
// untouched if it is already up to date.
func (r *Result) WriteManifest(filename string) error {
	m, err := r.Manifest()
	if err != nil {
		return err
	}
	data, err := prototext.MarshalOptions{Multiline: true}.Marshal(m)
	if err != nil {
		return err
	}
	return pathtools.WriteFileIfChanged(filename, data, 0666)
}

// WriteDepFile writes a Makefile style dependency file making the defaults
// file depend on every template and CMake file that was read.
func (r *Result) WriteDepFile(filename string) error {
	return deptools.WriteDepFile(filename, r.DefaultsFile, r.Inputs)
}
