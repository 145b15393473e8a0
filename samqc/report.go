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
	"io"
	"math"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot/plotter"
)

// WriteReport writes the table accumulated by acc to w as TSV, and returns
// the points to plot.
//
// Position and count tables produce one "key count rate" line for every key
// from 0 to the largest key seen, where rate is count/stats.Reads.  Quality
// tables produce one "symbol score prob prop log(prob) log(prop)" line per
// quality symbol with at least one mismatch, in ascending symbol order.
// If opts.Summary is set, a position table is followed by the total read
// count, base count and error rate.
func WriteReport(w io.Writer, acc Accumulator, stats Stats, opts *Opts) (plotter.XYs, error) {
	if stats.Reads == 0 {
		return nil, errors.E(errors.Invalid, "samqc: no reads accepted, can't compute error rates")
	}
	tw := tsv.NewWriter(w)
	var (
		points plotter.XYs
		err    error
	)
	switch t := acc.(type) {
	case PositionTable:
		var counts []float64
		if points, counts, err = writeIntTable(tw, t, stats.Reads); err != nil {
			return nil, err
		}
		if opts.Summary {
			if err = writeSummary(tw, floats.Sum(counts), stats); err != nil {
				return nil, err
			}
		}
	case CountTable:
		if points, _, err = writeIntTable(tw, t, stats.Reads); err != nil {
			return nil, err
		}
	case QualityTable:
		if points, err = writeQualityTable(tw, t, opts.QualEncoding); err != nil {
			return nil, err
		}
	default:
		return nil, errors.E(errors.Invalid, "samqc.WriteReport: unsupported table")
	}
	return points, tw.Flush()
}

// writeIntTable writes the lines of a position or count table.  It returns the
// plot points and the raw count at each key.
func writeIntTable(tw *tsv.Writer, table map[int]int, nReads int) (plotter.XYs, []float64, error) {
	maxKey := -1
	for k := range table {
		if k > maxKey {
			maxKey = k
		}
	}
	points := make(plotter.XYs, maxKey+1)
	counts := make([]float64, maxKey+1)
	for i := 0; i <= maxKey; i++ {
		v := table[i]
		rate := float64(v) / float64(nReads)
		tw.WriteUint32(uint32(i))
		tw.WriteUint32(uint32(v))
		tw.WriteString(formatFloat(rate))
		if err := tw.EndLine(); err != nil {
			return nil, nil, err
		}
		points[i].X = float64(i)
		points[i].Y = rate
		counts[i] = float64(v)
	}
	return points, counts, nil
}

func writeQualityTable(tw *tsv.Writer, table QualityTable, enc QualEncoding) (plotter.XYs, error) {
	var points plotter.XYs
	for _, q := range table.Symbols() {
		c := table[q]
		if c.Mismatch == 0 {
			continue
		}
		score := QualToScore(q, enc)
		prob := ScoreToProb(score)
		prop := float64(c.Mismatch) / float64(c.Total)
		lprob, lprop := math.Log(prob), math.Log(prop)
		tw.WriteByte(q)
		tw.WriteString(formatFloat(score))
		tw.WriteString(formatFloat(prob))
		tw.WriteString(formatFloat(prop))
		tw.WriteString(formatFloat(lprob))
		tw.WriteString(formatFloat(lprop))
		if err := tw.EndLine(); err != nil {
			return nil, err
		}
		points = append(points, plotter.XY{X: lprop, Y: lprob})
	}
	return points, nil
}

func writeSummary(tw *tsv.Writer, mismatches float64, stats Stats) error {
	if stats.Bases == 0 {
		return errors.E(errors.Invalid, "samqc: no bases accepted, can't compute the total error rate")
	}
	tw.WriteString("Total reads:")
	tw.WriteUint32(uint32(stats.Reads))
	if err := tw.EndLine(); err != nil {
		return err
	}
	tw.WriteString("Total bases:")
	tw.WriteUint32(uint32(stats.Bases))
	if err := tw.EndLine(); err != nil {
		return err
	}
	tw.WriteString("Total error rate:")
	tw.WriteString(formatFloat(mismatches / float64(stats.Bases)))
	return tw.EndLine()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
