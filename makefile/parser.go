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

// Package makefile scans the Makefile fragments that CMake writes next to
// every target (flags.make, build.make) into assignments and rules.
//
// It is not a general make parser: there is no variable expansion, no
// conditionals and no recipe handling. CMake only emits a small, regular
// subset of the language in these files.
package makefile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Pos is the position of a logical line in a parsed file.
type Pos struct {
	Filename string
	Line     int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d", p.Filename, p.Line)
}

// An Assignment is a line of the form NAME = VALUE. The value is kept raw,
// with surrounding whitespace trimmed.
type Assignment struct {
	Name  string
	Value string
	Pos   Pos
}

// Words splits the value on runs of whitespace.
func (a *Assignment) Words() []string {
	return strings.Fields(a.Value)
}

// A Rule is a line of the form TARGETS: PREREQUISITES, with escapes already
// resolved in each word.
type Rule struct {
	Targets       []string
	Prerequisites []string
	Pos           Pos
}

type File struct {
	Name        string
	Assignments []*Assignment
	Rules       []*Rule
}

// Lookup returns every assignment to name, in file order.
func (f *File) Lookup(name string) []*Assignment {
	var ret []*Assignment
	for _, a := range f.Assignments {
		if a.Name == name {
			ret = append(ret, a)
		}
	}
	return ret
}

// ParseFile opens and parses the file at path. Errors opening the file are
// returned unmodified so callers can test them with errors.Is.
func ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(path, f)
}

func Parse(filename string, r io.Reader) (*File, error) {
	ret := &File{Name: filename}

	lines, err := logicalLines(filename, r)
	if err != nil {
		return nil, err
	}

	for _, l := range lines {
		if err := ret.parseLine(l); err != nil {
			return nil, err
		}
	}

	return ret, nil
}

type logicalLine struct {
	text string
	pos  Pos
}

// logicalLines joins backslash continued lines. Recipe lines (leading tab),
// including their continuations, are dropped, as are comments and blank lines.
func logicalLines(filename string, r io.Reader) ([]logicalLine, error) {
	var ret []logicalLine

	br := bufio.NewReader(r)
	lineNum := 0
	var cur strings.Builder
	start := 0
	continued := false
	inRecipe := false

	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		if line == "" && err == io.EOF {
			break
		}
		lineNum++

		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")

		if inRecipe || (!continued && strings.HasPrefix(line, "\t")) {
			// Continuation lines of a recipe belong to the recipe.
			inRecipe = endsWithContinuation(line)
			if err == io.EOF {
				break
			}
			continue
		}

		if !continued {
			start = lineNum
		} else {
			line = strings.TrimLeft(line, " \t")
		}

		if endsWithContinuation(line) {
			cur.WriteString(line[:len(line)-1])
			cur.WriteByte(' ')
			continued = true
		} else {
			cur.WriteString(line)
			continued = false
			appendLine(&ret, cur.String(), Pos{filename, start})
			cur.Reset()
		}

		if err == io.EOF {
			break
		}
	}

	if continued {
		appendLine(&ret, cur.String(), Pos{filename, start})
	}

	return ret, nil
}

func appendLine(lines *[]logicalLine, text string, pos Pos) {
	text = stripComment(text)
	if strings.TrimSpace(text) == "" {
		return
	}
	*lines = append(*lines, logicalLine{text, pos})
}

// endsWithContinuation reports whether s ends in an odd number of
// backslashes.
func endsWithContinuation(s string) bool {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

func stripComment(s string) string {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '#':
			return s[:i]
		}
	}
	return s
}

func (f *File) parseLine(l logicalLine) error {
	text := l.text

	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case '=':
			name := text[:i]
			if strings.HasSuffix(name, "+") || strings.HasSuffix(name, "?") {
				name = name[:len(name)-1]
			}
			return f.addAssignment(name, text[i+1:], l.pos)
		case ':':
			if strings.HasPrefix(text[i:], "::=") {
				return f.addAssignment(text[:i], text[i+3:], l.pos)
			} else if strings.HasPrefix(text[i:], ":=") {
				return f.addAssignment(text[:i], text[i+2:], l.pos)
			}
			rest := text[i+1:]
			rest = strings.TrimPrefix(rest, ":")
			if j := indexUnescaped(rest, ';'); j >= 0 {
				rest = rest[:j]
			}
			f.Rules = append(f.Rules, &Rule{
				Targets:       words(text[:i]),
				Prerequisites: words(rest),
				Pos:           l.pos,
			})
			return nil
		}
	}

	// Directives such as "include" carry nothing we need.
	return nil
}

func (f *File) addAssignment(name, value string, pos Pos) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%s: missing variable name", pos)
	}
	f.Assignments = append(f.Assignments, &Assignment{
		Name:  name,
		Value: strings.TrimSpace(value),
		Pos:   pos,
	})
	return nil
}

func indexUnescaped(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			i++
		} else if s[i] == c {
			return i
		}
	}
	return -1
}
