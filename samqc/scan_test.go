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

package samqc_test

import (
	"strings"
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/grailbio/samqc/encoding/bamprovider"
	"github.com/grailbio/samqc/encoding/fasta"
	"github.com/grailbio/samqc/samqc"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

const testRef = "ACGTACGTACGTACGTACGT"

func newTestRecord(t *testing.T, name string, ref *sam.Reference, pos int, flags sam.Flags, seq, qual string) *sam.Record {
	var (
		cigar []sam.CigarOp
		q     []byte
	)
	if ref != nil {
		cigar = []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, len(seq))}
	}
	for _, c := range []byte(qual) {
		q = append(q, c-33)
	}
	r, err := sam.NewRecord(name, ref, nil, pos, -1, 0, 60, cigar, []byte(seq), q, nil)
	assert.NoError(t, err)
	r.Flags = flags
	return r
}

// testReads returns a provider with a mismatch at the last base of r1 and the
// first aligned base of the reverse-strand read r4.  r2 is unmapped and r3
// has an ambiguous base.
func testReads(t *testing.T) bamprovider.Provider {
	ref, err := sam.NewReference("chr1", "", "", len(testRef), nil, nil)
	assert.NoError(t, err)
	header, err := sam.NewHeader(nil, []*sam.Reference{ref})
	assert.NoError(t, err)
	recs := []*sam.Record{
		newTestRecord(t, "r1", ref, 0, 0, "ACGA", "???+"),
		newTestRecord(t, "r3", ref, 4, 0, "ANGT", "????"),
		newTestRecord(t, "r4", ref, 8, sam.Reverse, "TCGT", "+???"),
		newTestRecord(t, "r2", nil, -1, sam.Unmapped, "ACGT", "????"),
	}
	return bamprovider.NewFakeProvider(header, recs)
}

func testFasta(t *testing.T, data string) fasta.Fasta {
	fa, err := fasta.New(strings.NewReader(data))
	assert.NoError(t, err)
	return fa
}

func scan(t *testing.T, opts samqc.Opts) (samqc.Accumulator, samqc.Stats, error) {
	p := testReads(t)
	iter := p.NewIterator(bamprovider.UniversalShard())
	acc := samqc.NewAccumulator(opts.Mode)
	stats, err := samqc.Scan(iter, testFasta(t, ">chr1\n"+testRef+"\n"), &opts, acc)
	assert.NoError(t, iter.Close())
	assert.NoError(t, p.Close())
	return acc, stats, err
}

func TestScanByPosition(t *testing.T) {
	acc, stats, err := scan(t, samqc.DefaultOpts)
	assert.NoError(t, err)
	// The reverse-strand mismatch is reported from the 5' end of the read.
	expect.EQ(t, acc, samqc.PositionTable{3: 2})
	expect.EQ(t, stats, samqc.Stats{Reads: 2, Bases: 8, Unmapped: 1, Ambiguous: 1})
}

func TestScanByCount(t *testing.T) {
	opts := samqc.DefaultOpts
	opts.Mode = samqc.ByCount
	acc, _, err := scan(t, opts)
	assert.NoError(t, err)
	expect.EQ(t, acc, samqc.CountTable{1: 2})
}

func TestScanByQuality(t *testing.T) {
	opts := samqc.DefaultOpts
	opts.Mode = samqc.ByQuality
	acc, _, err := scan(t, opts)
	assert.NoError(t, err)
	// The quality string of r4 stays in alignment order, so its mismatch is
	// attributed to the symbol at the 3' end.
	expect.EQ(t, acc, samqc.QualityTable{
		'+': {Total: 2, Mismatch: 1},
		'?': {Total: 6, Mismatch: 1},
	})

	opts.OrientQual = true
	acc, _, err = scan(t, opts)
	assert.NoError(t, err)
	expect.EQ(t, acc, samqc.QualityTable{
		'+': {Total: 2, Mismatch: 2},
		'?': {Total: 6, Mismatch: 0},
	})
}

func TestScanTrim(t *testing.T) {
	opts := samqc.DefaultOpts
	opts.Trim = 2
	acc, stats, err := scan(t, opts)
	assert.NoError(t, err)
	// r4 is trimmed to "TC" before it is reverse-complemented.
	expect.EQ(t, acc, samqc.PositionTable{1: 1})
	expect.EQ(t, stats.Reads, 2)
	expect.EQ(t, stats.Bases, 4)

	opts.Trim = 100
	acc, stats, err = scan(t, opts)
	assert.NoError(t, err)
	expect.EQ(t, acc, samqc.PositionTable{3: 2})
	expect.EQ(t, stats.Bases, 8)
}

func TestScanMaxReads(t *testing.T) {
	opts := samqc.DefaultOpts
	opts.MaxReads = 1
	acc, stats, err := scan(t, opts)
	assert.NoError(t, err)
	expect.EQ(t, acc, samqc.PositionTable{3: 1})
	expect.EQ(t, stats, samqc.Stats{Reads: 1, Bases: 4})

	// Skipped reads don't count towards the limit.
	opts.MaxReads = 2
	_, stats, err = scan(t, opts)
	assert.NoError(t, err)
	expect.EQ(t, stats.Reads, 2)

	opts.MaxReads = 0
	acc, stats, err = scan(t, opts)
	assert.NoError(t, err)
	expect.EQ(t, stats.Reads, 0)
	expect.EQ(t, len(acc.(samqc.PositionTable)), 0)
}

func TestScanShortReference(t *testing.T) {
	ref, err := sam.NewReference("chr1", "", "", len(testRef), nil, nil)
	assert.NoError(t, err)
	header, err := sam.NewHeader(nil, []*sam.Reference{ref})
	assert.NoError(t, err)
	p := bamprovider.NewFakeProvider(header, []*sam.Record{
		newTestRecord(t, "r1", ref, 2, 0, "GTAA", "????"),
	})
	opts := samqc.DefaultOpts
	acc := samqc.NewAccumulator(opts.Mode)
	// The read hangs off the end of the FASTA sequence; only the two
	// overlapping bases are compared.
	stats, err := samqc.Scan(p.NewIterator(bamprovider.UniversalShard()), testFasta(t, ">chr1\nACGT\n"), &opts, acc)
	assert.NoError(t, err)
	expect.EQ(t, stats.Reads, 1)
	expect.EQ(t, acc, samqc.PositionTable{})
}

func TestScanUnknownReference(t *testing.T) {
	p := testReads(t)
	opts := samqc.DefaultOpts
	_, err := samqc.Scan(p.NewIterator(bamprovider.UniversalShard()), testFasta(t, ">chr2\nACGT\n"), &opts, samqc.NewAccumulator(opts.Mode))
	expect.NotNil(t, err)
	assert.HasSubstr(t, err.Error(), "chr1")
}
