// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.
//
// The N42 library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The N42 library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the N42 library. If not, see <http://www.gnu.org/licenses/>.

// Package diffmodel parses unified-diff hunks into the set of changed line
// numbers on each side of a revision. The hunk-header and hunk-line regexes
// match a unified diff's wire format byte-for-byte rather than approximate it.
package diffmodel

import (
	"bufio"
	"os"
	"regexp"
	"strconv"

	"github.com/n42blockchain/bytecrumb/log"
)

var (
	hunkHeaderRe = regexp.MustCompile(`^(['"]?)@@ (-(\d+)(,(\d+))?)? (\+(\d+)(,(\d+))?)? @@(.*)`)
	hunkLineRe   = regexp.MustCompile(`^\s*(['"]?)(\+|-|\s)(.*)`)
)

// Diff is the ordered set of line numbers changed in one revision side.
type Diff struct {
	Lines []int
}

// Contains reports whether line n was changed.
func (d *Diff) Contains(n int) bool {
	for _, l := range d.Lines {
		if l == n {
			return true
		}
	}
	return false
}

// Before parses the deletion ("-") line numbers from a unified diff file.
func Before(diffFile string) (*Diff, error) {
	lines, err := getDiff(diffFile, true)
	return &Diff{Lines: lines}, err
}

// After parses the insertion ("+") line numbers from a unified diff file.
func After(diffFile string) (*Diff, error) {
	lines, err := getDiff(diffFile, false)
	return &Diff{Lines: lines}, err
}

func getDiff(diffFile string, isBefore bool) ([]int, error) {
	f, err := os.Open(diffFile)
	if err != nil {
		log.Error("get diff fail", "err", err, "file", diffFile)
		return nil, nil
	}
	defer f.Close()

	var diff []int
	start := false
	startLine := 0
	lineNum := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if m := hunkHeaderRe.FindStringSubmatch(line); m != nil {
			var group int
			if isBefore {
				group = 3
			} else {
				group = 7
			}
			n, convErr := strconv.Atoi(m[group])
			if convErr != nil {
				continue
			}
			startLine = n
			lineNum = 0
			start = true
			continue
		}

		if !start {
			continue
		}

		m := hunkLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		sign := m[2]

		if isBefore {
			if sign == "-" {
				diff = append(diff, startLine+lineNum)
			}
			if sign != "+" {
				lineNum++
			}
		} else {
			if sign == "+" {
				diff = append(diff, startLine+lineNum)
			}
			if sign != "-" {
				lineNum++
			}
		}
	}
	if err := scanner.Err(); err != nil {
		log.Error("get diff fail", "err", err, "file", diffFile)
		return nil, nil
	}
	return diff, nil
}
