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

	"github.com/grailbio/samqc/encoding/bamprovider"
)

// Mode selects which statistic a run accumulates and reports.
type Mode int

const (
	// ByPosition counts mismatches at each read offset.
	ByPosition Mode = iota
	// ByCount counts reads by their total number of mismatches.
	ByCount
	// ByQuality counts bases and mismatches per quality symbol.
	ByQuality
)

var modeNames = [...]string{"position", "count", "quality"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode parses the name of a mode, as returned by Mode.String().
func ParseMode(name string) (Mode, error) {
	for i, n := range modeNames {
		if n == name {
			return Mode(i), nil
		}
	}
	return ByPosition, fmt.Errorf("samqc.ParseMode: unknown mode %q", name)
}

type Opts struct {
	// Commandline options.
	Mode         Mode
	Summary      bool
	Trim         int
	MaxReads     int
	PlotPath     string
	Region       string
	BamIndexPath string
	InputFormat  string
	QualEncoding QualEncoding
	OrientQual   bool
}

var DefaultOpts = Opts{
	Mode:         ByPosition,
	Summary:      false,
	Trim:         0,
	MaxReads:     10000,
	QualEncoding: Phred33,
	OrientQual:   false,
}

// validate checks the options that can't be expressed by their types.
func (o *Opts) validate() error {
	if o.Mode < ByPosition || o.Mode > ByQuality {
		return fmt.Errorf("samqc: invalid mode %v", o.Mode)
	}
	if o.Trim < 0 {
		return fmt.Errorf("samqc: trim length must be nonnegative, got %d", o.Trim)
	}
	if o.MaxReads < 0 {
		return fmt.Errorf("samqc: read limit must be nonnegative, got %d", o.MaxReads)
	}
	if o.InputFormat != "" && bamprovider.ParseFileType(o.InputFormat) == bamprovider.Unknown {
		return fmt.Errorf("samqc: unknown input format %q, want bam or sam", o.InputFormat)
	}
	if o.QualEncoding != Phred33 && o.QualEncoding != Phred64 {
		return fmt.Errorf("samqc: invalid quality encoding %v", o.QualEncoding)
	}
	return nil
}
