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

// Package samqc computes base-calling quality-control statistics from reads
// aligned to a reference: mismatch rates by read position, the distribution
// of mismatches per read, or empirical error rates by quality symbol.
package samqc

import (
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/samqc/encoding/bamprovider"
	"github.com/grailbio/samqc/encoding/fasta"
	"github.com/grailbio/samqc/interval"
)

// Run compares the reads in xampath (BAM or SAM) against the reference in
// fapath, writes the report selected by opts.Mode to out and, if
// opts.PlotPath is set, plots it.
func Run(ctx context.Context, xampath, fapath string, opts *Opts, out io.Writer) (err error) {
	if err = opts.validate(); err != nil {
		return err
	}
	ref, err := fasta.Load(ctx, fapath)
	if err != nil {
		return err
	}
	for _, name := range ref.SeqNames() {
		n, _ := ref.Len(name)
		log.Printf("reference %s: %d bases", name, n)
	}

	provider := bamprovider.NewProvider(xampath, bamprovider.ProviderOpts{
		Index:    opts.BamIndexPath,
		FileType: bamprovider.ParseFileType(opts.InputFormat),
	})
	defer func() {
		if e := provider.Close(); e != nil && err == nil {
			err = e
		}
	}()
	var iter bamprovider.Iterator
	if opts.Region != "" {
		var region interval.Entry
		if region, err = interval.ParseRegionString(opts.Region); err != nil {
			return errors.E(errors.Invalid, err)
		}
		log.Printf("%s: %v report over %v", xampath, opts.Mode, region)
		iter = bamprovider.NewRefIterator(provider, region.RefName, int(region.Start0), int(region.End))
	} else {
		log.Printf("%s: %v report over all reads", xampath, opts.Mode)
		iter = provider.NewIterator(bamprovider.UniversalShard())
	}

	acc := NewAccumulator(opts.Mode)
	stats, err := Scan(iter, ref, opts, acc)
	if e := iter.Close(); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return errors.E(err, xampath)
	}
	log.Printf("%s: accepted %d reads (%d bases), skipped %d unmapped and %d ambiguous reads",
		xampath, stats.Reads, stats.Bases, stats.Unmapped, stats.Ambiguous)

	points, err := WriteReport(out, acc, stats, opts)
	if err != nil {
		return err
	}
	if opts.PlotPath == "" {
		return nil
	}
	if len(points) == 0 {
		log.Printf("samqc: nothing to plot")
		return nil
	}
	return Plot(ctx, points, opts.PlotPath, opts.Mode)
}
