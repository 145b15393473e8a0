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
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/samqc/encoding/bamprovider"
	"github.com/grailbio/samqc/samqc"
)

var (
	mode         = samqc.DefaultOpts.Mode
	summary      = flag.Bool("s", samqc.DefaultOpts.Summary, "Append total reads, bases and error rate to the position report")
	trim         = flag.Int("t", samqc.DefaultOpts.Trim, "Only compare the first N bases of each read; 0 compares whole reads")
	maxReads     = flag.Int("n", samqc.DefaultOpts.MaxReads, "Maximum number of reads to compare")
	plotPath     = flag.String("d", samqc.DefaultOpts.PlotPath, "Plot the report to this path (format chosen by extension, png by default); '-' opens it in an image viewer")
	region       = flag.String("range", samqc.DefaultOpts.Region, "Only compare reads overlapping this region. Format as <contig ID>:<0-based start>:<end>, or just <contig ID>")
	bamIndexPath = flag.String("index", samqc.DefaultOpts.BamIndexPath, "Input BAM index path. Defaults to bampath + .bai")
	inputFormat  = flag.String("input-format", samqc.DefaultOpts.InputFormat, "Alignment file format, 'bam' or 'sam'. Guessed from the file extension by default")
	phred64      = flag.Bool("phred64", false, "Decode quality symbols as Phred+64 instead of Phred+33")
	orientQual   = flag.Bool("orient-qual", samqc.DefaultOpts.OrientQual, "Reverse the quality string of reverse-strand reads along with their bases")
)

func init() {
	flag.Var(&modeFlag{&mode, samqc.ByPosition}, "p", "Report mismatch rates by read position")
	flag.Var(&modeFlag{&mode, samqc.ByCount}, "c", "Report the distribution of mismatches per read")
	flag.Var(&modeFlag{&mode, samqc.ByQuality}, "q", "Report observed error rates by quality symbol")
	flag.Var((*modeNameFlag)(&mode), "mode", "Report mode by name: 'position', 'count' or 'quality'")
}

// modeFlag is a boolean flag that selects one report mode.  When several mode
// flags are given, the last one wins.
type modeFlag struct {
	dst  *samqc.Mode
	mode samqc.Mode
}

func (f *modeFlag) IsBoolFlag() bool { return true }

func (f *modeFlag) String() string {
	if f == nil || f.dst == nil {
		return "false"
	}
	return strconv.FormatBool(*f.dst == f.mode)
}

func (f *modeFlag) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	if v {
		*f.dst = f.mode
	}
	return nil
}

// modeNameFlag sets the report mode from its name.  It shares its target with
// the -p, -c and -q flags.
type modeNameFlag samqc.Mode

func (f *modeNameFlag) String() string {
	if f == nil {
		return samqc.DefaultOpts.Mode.String()
	}
	return samqc.Mode(*f).String()
}

func (f *modeNameFlag) Set(s string) error {
	m, err := samqc.ParseMode(s)
	if err != nil {
		return err
	}
	*f = modeNameFlag(m)
	return nil
}

func bioSamqcUsage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: %s [OPTIONS] in.bam|in.sam ref.fa\n", os.Args[0])
	fmt.Fprintf(out, "All options must precede the positional arguments.\n")
	fmt.Fprintf(out, "Options:\n")
	flag.PrintDefaults()
}

// checkArgs validates what the flag package can't.
func checkArgs(positionalArgs []string) error {
	if len(positionalArgs) < 2 {
		return fmt.Errorf("missing positional arguments (bampath and fapath required); please check flag syntax: '%s'", strings.Join(positionalArgs, " "))
	}
	if len(positionalArgs) > 2 {
		return fmt.Errorf("too many positional arguments (only bampath and fapath expected); options must precede them: '%s'", strings.Join(positionalArgs, " "))
	}
	if *trim < 0 {
		return fmt.Errorf("-t must be nonnegative, got %d", *trim)
	}
	if *inputFormat != "" && bamprovider.ParseFileType(*inputFormat) == bamprovider.Unknown {
		return fmt.Errorf("-input-format must be bam or sam, got '%s'", *inputFormat)
	}
	if *maxReads < 0 {
		return fmt.Errorf("-n must be nonnegative, got %d", *maxReads)
	}
	return nil
}

func newOpts() samqc.Opts {
	opts := samqc.DefaultOpts
	opts.Mode = mode
	opts.Summary = *summary
	opts.Trim = *trim
	opts.MaxReads = *maxReads
	opts.PlotPath = *plotPath
	opts.Region = *region
	opts.BamIndexPath = *bamIndexPath
	opts.InputFormat = *inputFormat
	opts.OrientQual = *orientQual
	if *phred64 {
		opts.QualEncoding = samqc.Phred64
	}
	return opts
}

func main() {
	flag.Usage = bioSamqcUsage
	shutdown := grail.Init()
	defer shutdown()

	if err := checkArgs(flag.Args()); err != nil {
		fmt.Fprintf(flag.CommandLine.Output(), "%v\n", err)
		flag.Usage()
		shutdown()
		os.Exit(2)
	}
	opts := newOpts()
	if err := samqc.Run(vcontext.Background(), flag.Arg(0), flag.Arg(1), &opts, os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}
	log.Debug.Printf("exiting")
}
