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
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/samqc/encoding/bamprovider"
	"github.com/grailbio/samqc/samqc"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

const testSAM = "@HD\tVN:1.6\tSO:coordinate\n" +
	"@SQ\tSN:chr1\tLN:20\n" +
	"r1\t0\tchr1\t1\t60\t4M\t*\t0\t0\tACGA\t???+\n" +
	"r3\t0\tchr1\t5\t60\t4M\t*\t0\t0\tANGT\t????\n" +
	"r4\t16\tchr1\t9\t60\t4M\t*\t0\t0\tTCGT\t+???\n" +
	"r2\t4\t*\t0\t0\t*\t*\t0\t0\tACGT\t????\n"

func writeInputs(t *testing.T, dir string) (sampath, fapath string) {
	sampath = filepath.Join(dir, "reads.sam")
	assert.NoError(t, os.WriteFile(sampath, []byte(testSAM), 0600))
	fapath = filepath.Join(dir, "ref.fa")
	assert.NoError(t, os.WriteFile(fapath, []byte(">chr1 test\nACGTACGTAC\nGTACGTACGT\n"), 0600))
	return
}

// writeIndexedBAM converts the SAM file at sampath to a BAM file with a .bai
// index next to it.
func writeIndexedBAM(t *testing.T, sampath string) string {
	p := bamprovider.NewProvider(sampath)
	header, err := p.GetHeader()
	assert.NoError(t, err)
	bampath := sampath[:len(sampath)-len(".sam")] + ".bam"
	out, err := os.Create(bampath)
	assert.NoError(t, err)
	w, err := bam.NewWriter(out, header, 1)
	assert.NoError(t, err)
	iter := p.NewIterator(bamprovider.UniversalShard())
	for iter.Scan() {
		assert.NoError(t, w.Write(iter.Record()))
	}
	assert.NoError(t, iter.Close())
	assert.NoError(t, p.Close())
	assert.NoError(t, w.Close())
	assert.NoError(t, out.Close())

	in, err := os.Open(bampath)
	assert.NoError(t, err)
	r, err := bam.NewReader(in, 1)
	assert.NoError(t, err)
	var idx bam.Index
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		assert.NoError(t, err)
		assert.NoError(t, idx.Add(rec, r.LastChunk()))
	}
	assert.NoError(t, r.Close())
	assert.NoError(t, in.Close())
	index, err := os.Create(bampath + ".bai")
	assert.NoError(t, err)
	assert.NoError(t, bam.WriteIndex(index, &idx))
	assert.NoError(t, index.Close())
	return bampath
}

func TestRunBAM(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := vcontext.Background()
	sampath, fapath := writeInputs(t, tmpdir)
	bampath := writeIndexedBAM(t, sampath)

	for _, test := range []struct {
		region, want string
	}{
		{"", "0\t0\t0\n1\t0\t0\n2\t0\t0\n3\t2\t1\n"},
		{"chr1", "0\t0\t0\n1\t0\t0\n2\t0\t0\n3\t2\t1\n"},
		{"chr1:8:20", "0\t0\t0\n1\t0\t0\n2\t0\t0\n3\t1\t1\n"},
		{"chr1:0:4", "0\t0\t0\n1\t0\t0\n2\t0\t0\n3\t1\t1\n"},
	} {
		opts := samqc.DefaultOpts
		opts.Region = test.region
		var buf bytes.Buffer
		assert.NoError(t, samqc.Run(ctx, bampath, fapath, &opts, &buf), "region %q", test.region)
		expect.EQ(t, buf.String(), test.want, "region %q", test.region)
	}

	// The reads in chr1:4:8 all contain an N.
	opts := samqc.DefaultOpts
	opts.Region = "chr1:4:8"
	err := samqc.Run(ctx, bampath, fapath, &opts, &bytes.Buffer{})
	expect.True(t, errors.Is(errors.Invalid, err))

	opts.Region = "chr1:8:20"
	opts.BamIndexPath = filepath.Join(tmpdir, "missing.bai")
	err = samqc.Run(ctx, bampath, fapath, &opts, &bytes.Buffer{})
	expect.NotNil(t, err)
}

func TestRun(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := vcontext.Background()
	sampath, fapath := writeInputs(t, tmpdir)

	tests := []struct {
		modify func(o *samqc.Opts)
		want   string
	}{
		{
			func(o *samqc.Opts) {},
			"0\t0\t0\n1\t0\t0\n2\t0\t0\n3\t2\t1\n",
		},
		{
			func(o *samqc.Opts) { o.Summary = true },
			"0\t0\t0\n1\t0\t0\n2\t0\t0\n3\t2\t1\n" +
				"Total reads:\t2\nTotal bases:\t8\nTotal error rate:\t0.25\n",
		},
		{
			func(o *samqc.Opts) { o.Mode = samqc.ByCount },
			"0\t0\t0\n1\t2\t1\n",
		},
		{
			func(o *samqc.Opts) { o.Region = "chr1:8:20" },
			"0\t0\t0\n1\t0\t0\n2\t0\t0\n3\t1\t1\n",
		},
		{
			func(o *samqc.Opts) { o.Region = "chr1" },
			"0\t0\t0\n1\t0\t0\n2\t0\t0\n3\t2\t1\n",
		},
		{
			func(o *samqc.Opts) { o.MaxReads = 1; o.Trim = 3 },
			"",
		},
	}
	for i, test := range tests {
		opts := samqc.DefaultOpts
		test.modify(&opts)
		var buf bytes.Buffer
		assert.NoError(t, samqc.Run(ctx, sampath, fapath, &opts, &buf), "test %d", i)
		expect.EQ(t, buf.String(), test.want, "test %d", i)
	}
}

func TestRunInputFormat(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := vcontext.Background()
	sampath, fapath := writeInputs(t, tmpdir)
	txtpath := filepath.Join(tmpdir, "reads.txt")
	assert.NoError(t, os.Rename(sampath, txtpath))

	opts := samqc.DefaultOpts
	opts.Mode = samqc.ByCount
	opts.InputFormat = "sam"
	var buf bytes.Buffer
	assert.NoError(t, samqc.Run(ctx, txtpath, fapath, &opts, &buf))
	expect.EQ(t, buf.String(), "0\t0\t0\n1\t2\t1\n")

	// Guessed from the extension, reads.txt is taken for a BAM file.
	opts.InputFormat = ""
	expect.NotNil(t, samqc.Run(ctx, txtpath, fapath, &opts, &bytes.Buffer{}))
}

func TestRunPlot(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := vcontext.Background()
	sampath, fapath := writeInputs(t, tmpdir)

	opts := samqc.DefaultOpts
	opts.Mode = samqc.ByQuality
	opts.PlotPath = filepath.Join(tmpdir, "quality.png")
	var buf bytes.Buffer
	assert.NoError(t, samqc.Run(ctx, sampath, fapath, &opts, &buf))
	_, err := os.Stat(opts.PlotPath)
	assert.NoError(t, err)

	// Nothing to plot: every quality symbol is mismatch-free.
	opts.MaxReads = 1
	opts.Trim = 3
	opts.PlotPath = filepath.Join(tmpdir, "empty.png")
	assert.NoError(t, samqc.Run(ctx, sampath, fapath, &opts, &buf))
	_, err = os.Stat(opts.PlotPath)
	expect.True(t, os.IsNotExist(err))
}

func TestRunErrors(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := vcontext.Background()
	sampath, fapath := writeInputs(t, tmpdir)

	tests := []struct {
		sampath, fapath string
		modify          func(o *samqc.Opts)
		errStr          string
	}{
		{sampath, fapath, func(o *samqc.Opts) { o.MaxReads = 0 }, "no reads"},
		{sampath, fapath, func(o *samqc.Opts) { o.Trim = -1 }, "trim length"},
		{sampath, fapath, func(o *samqc.Opts) { o.Region = "chr9" }, "chr9"},
		{sampath, fapath, func(o *samqc.Opts) { o.Region = "chr1:5:2" }, "chr1:5:2"},
		{sampath, filepath.Join(tmpdir, "missing.fa"), func(o *samqc.Opts) {}, "missing.fa"},
		{filepath.Join(tmpdir, "missing.sam"), fapath, func(o *samqc.Opts) {}, "missing.sam"},
	}
	for _, test := range tests {
		opts := samqc.DefaultOpts
		test.modify(&opts)
		var buf bytes.Buffer
		err := samqc.Run(ctx, test.sampath, test.fapath, &opts, &buf)
		expect.NotNil(t, err, "expected error containing %q", test.errStr)
		if err != nil {
			assert.HasSubstr(t, err.Error(), test.errStr)
		}
	}

	opts := samqc.DefaultOpts
	opts.MaxReads = 0
	err := samqc.Run(ctx, sampath, fapath, &opts, &bytes.Buffer{})
	expect.True(t, errors.Is(errors.Invalid, err))
}
