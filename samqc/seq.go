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
	"math"
)

var complement [256]byte

func init() {
	for i := range complement {
		complement[i] = byte(i)
	}
	complement['A'] = 'T'
	complement['C'] = 'G'
	complement['G'] = 'C'
	complement['T'] = 'A'
}

// ReverseComplement returns the reverse complement of seq.  A, C, G and T
// are complemented; every other byte is copied unchanged.  seq is not
// modified.
func ReverseComplement(seq []byte) []byte {
	n := len(seq)
	out := make([]byte, n)
	for i, b := range seq {
		out[n-1-i] = complement[b]
	}
	return out
}

// QualEncoding identifies how quality symbols map to Phred scores.
type QualEncoding int

const (
	// Phred33 is the Sanger / Illumina 1.8+ encoding.
	Phred33 QualEncoding = iota
	// Phred64 is the Illumina 1.3-1.7 encoding.
	Phred64
)

func (e QualEncoding) String() string {
	switch e {
	case Phred33:
		return "phred33"
	case Phred64:
		return "phred64"
	}
	return "unknown"
}

// SangerQualToScore decodes a Phred+33 quality symbol.
func SangerQualToScore(c byte) float64 {
	return float64(int(c) - 33)
}

// IlluminaQualToScore decodes a Phred+64 quality symbol on the log scale
// used by older Illumina pipelines.
func IlluminaQualToScore(c byte) float64 {
	s := float64(int(c) - 64)
	return 10 * math.Log10(1+math.Pow(10, s)/10)
}

// QualToScore decodes c under enc.
func QualToScore(c byte, enc QualEncoding) float64 {
	if enc == Phred64 {
		return IlluminaQualToScore(c)
	}
	return SangerQualToScore(c)
}

// ScoreToProb converts a quality score to an error probability.
func ScoreToProb(q float64) float64 {
	return 1 / (1 + math.Pow(10, q/10))
}
