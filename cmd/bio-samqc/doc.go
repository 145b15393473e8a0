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

/*
bio-samqc measures base-calling error rates by comparing aligned reads against
the reference they were aligned to.  It reads a BAM or SAM file and the
reference FASTA, and prints one of three tab-separated tables:

  -p (default)  for each read position, the number and fraction of reads with
                a mismatch at that position.  Positions on reverse-strand
                reads count from the 5' end of the read.
  -c            for each mismatch count, the number and fraction of reads with
                that many mismatches.
  -q            for each quality symbol with at least one mismatch, the
                predicted error probability next to the observed mismatch
                rate, both also on a log scale.

"-mode position|count|quality" selects the same reports by name.  Alignment
files are read as BAM or SAM according to their extension, or as given by
-input-format.  All options must precede the two positional arguments.

Unmapped reads and reads containing an N are skipped.  At most -n reads
(default 10000) are compared.  -d plots the table; "-d -" opens the plot in
the system image viewer.

Sample usage:
bio-samqc \
    -q -n 100000 \
    --range chr1:0:1000000 \
    -d errors.png \
    my.bam \
    ref.fa
*/
package main
