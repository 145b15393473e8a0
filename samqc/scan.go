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
	"bytes"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/samqc/encoding/bamprovider"
	"github.com/grailbio/samqc/encoding/fasta"
)

// Stats describes the reads consumed by one Scan.
type Stats struct {
	// Reads and Bases count the reads accepted into the table, and their
	// (possibly trimmed) lengths.
	Reads int
	Bases int
	// Unmapped and Ambiguous count the reads skipped because they were
	// unmapped, or because they contained an N.
	Unmapped  int
	Ambiguous int
}

// Scan compares the reads yielded by iter against ref, and folds each
// accepted read into acc.  It stops after opts.MaxReads reads have been
// accepted.  Unmapped reads and reads containing an N are skipped and don't
// count towards the limit.
//
// The bases of a reverse-strand read are reverse-complemented together with
// the reference, so that offsets count from the 5' end of the read.  The
// quality string keeps its alignment order unless opts.OrientQual is set.
func Scan(iter bamprovider.Iterator, ref fasta.Fasta, opts *Opts, acc Accumulator) (stats Stats, err error) {
	for iter.Scan() {
		if stats.Reads >= opts.MaxReads {
			break
		}
		rec := iter.Record()
		if rec.Flags&sam.Unmapped != 0 || rec.Ref == nil {
			stats.Unmapped++
			continue
		}
		seq := rec.Seq.Expand()
		var refSlice []byte
		if refSlice, err = referenceSlice(ref, rec.Ref.Name(), rec.Pos, len(seq)); err != nil {
			return stats, errors.E(err, "read", rec.Name)
		}
		read, qual := seq, qualString(rec.Qual)
		if opts.Trim > 0 {
			read = truncate(read, opts.Trim)
			refSlice = truncate(refSlice, opts.Trim)
			qual = truncate(qual, opts.Trim)
		}
		if rec.Flags&sam.Reverse != 0 {
			read = ReverseComplement(read)
			refSlice = ReverseComplement(refSlice)
			if opts.OrientQual {
				qual = reverse(qual)
			}
		}
		if bytes.IndexByte(seq, 'N') >= 0 {
			stats.Ambiguous++
			if log.At(log.Debug) {
				log.Debug.Printf("skipping read %s: ambiguous base in %s", rec.Name, seq)
			}
			continue
		}
		stats.Bases += len(read)
		stats.Reads++
		acc.Add(read, refSlice, qual)
	}
	return stats, iter.Err()
}

// referenceSlice returns ref[name][pos:pos+n], clipped to the end of the
// sequence.
func referenceSlice(ref fasta.Fasta, name string, pos, n int) ([]byte, error) {
	refLen, err := ref.Len(name)
	if err != nil {
		return nil, err
	}
	if pos < 0 {
		pos = 0
	}
	start, end := uint64(pos), uint64(pos+n)
	if end > refLen {
		end = refLen
	}
	if start >= end {
		return nil, nil
	}
	s, err := ref.Get(name, start, end)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// qualString renders BAM quality values as Phred+33 symbols.  A missing
// quality string (0xff) yields nil.
func qualString(qual []byte) []byte {
	if len(qual) == 0 || qual[0] == 0xff {
		return nil
	}
	out := make([]byte, len(qual))
	for i, q := range qual {
		out[i] = q + 33
	}
	return out
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}

func reverse(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}
