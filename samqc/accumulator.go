// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package samqc

import (
	"fmt"
	"sort"
)

// Accumulator folds the comparison of one read against the reference bases
// it is aligned to into a running table.  read and ref are compared
// position by position up to the shorter of the two; qual holds one quality
// symbol per read base.
type Accumulator interface {
	Add(read, ref, qual []byte)
}

// NewAccumulator returns an empty table for mode.
func NewAccumulator(mode Mode) Accumulator {
	switch mode {
	case ByPosition:
		return PositionTable{}
	case ByCount:
		return CountTable{}
	case ByQuality:
		return QualityTable{}
	}
	panic(fmt.Sprintf("samqc.NewAccumulator: invalid mode %v", mode))
}

// PositionTable maps a read offset to the number of mismatches observed at
// that offset.
type PositionTable map[int]int

// Add implements Accumulator.
func (t PositionTable) Add(read, ref, _ []byte) {
	n := pairedLen(read, ref)
	for i := 0; i < n; i++ {
		if read[i] != ref[i] {
			t[i]++
		}
	}
}

// CountTable maps a per-read mismatch count to the number of reads with that
// many mismatches.
type CountTable map[int]int

// Add implements Accumulator.
func (t CountTable) Add(read, ref, _ []byte) {
	t[countMismatches(read, ref)]++
}

// QualityCount is the number of bases seen with one quality symbol, and how
// many of them mismatched the reference.  Mismatch <= Total.
type QualityCount struct {
	Total, Mismatch int
}

// QualityTable maps a quality symbol to its base and mismatch counts.
type QualityTable map[byte]QualityCount

// Add implements Accumulator.
func (t QualityTable) Add(read, ref, qual []byte) {
	n := pairedLen(read, ref)
	if len(qual) < n {
		n = len(qual)
	}
	for i := 0; i < n; i++ {
		c := t[qual[i]]
		c.Total++
		if read[i] != ref[i] {
			c.Mismatch++
		}
		t[qual[i]] = c
	}
}

// Symbols returns the quality symbols in t in ascending order.
func (t QualityTable) Symbols() []byte {
	syms := make([]byte, 0, len(t))
	for q := range t {
		syms = append(syms, q)
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i] < syms[j] })
	return syms
}

func pairedLen(a, b []byte) int {
	if len(a) < len(b) {
		return len(a)
	}
	return len(b)
}

func countMismatches(read, ref []byte) int {
	n := pairedLen(read, ref)
	count := 0
	for i := 0; i < n; i++ {
		if read[i] != ref[i] {
			count++
		}
	}
	return count
}
