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
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"v.io/x/lib/lookpath"
)

const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 6 * vg.Inch
)

// viewers are the programs tried, in order, to display a plot.
var viewers = []string{"xdg-open", "open"}

// Plot renders points as an unconnected scatter plot.  If dest is "-" the
// plot is opened in the platform's image viewer.  Otherwise it is written to
// dest, in the image format named by its extension (PNG if there is none).
func Plot(ctx context.Context, points plotter.XYs, dest string, mode Mode) error {
	p, err := newScatterPlot(points, mode)
	if err != nil {
		return err
	}
	if dest == "-" {
		return show(ctx, p)
	}
	return save(ctx, p, dest)
}

func newScatterPlot(points plotter.XYs, mode Mode) (*plot.Plot, error) {
	p := plot.New()
	switch mode {
	case ByPosition:
		p.Title.Text = "Mismatches by read position"
		p.X.Label.Text = "Read position"
		p.Y.Label.Text = "Error rate"
	case ByCount:
		p.Title.Text = "Mismatches per read"
		p.X.Label.Text = "Mismatches"
		p.Y.Label.Text = "Fraction of reads"
	case ByQuality:
		p.Title.Text = "Quality vs. empirical error rate"
		p.X.Label.Text = "log(observed error rate)"
		p.Y.Label.Text = "log(error probability)"
	}
	s, err := plotter.NewScatter(points)
	if err != nil {
		return nil, errors.E(err, "samqc: plotting", mode.String())
	}
	p.Add(s)
	return p, nil
}

// plotFormat returns the gonum/plot image format for path.
func plotFormat(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return "png"
	}
	return ext
}

func writerTo(p *plot.Plot, format string) (io.WriterTo, error) {
	wt, err := p.WriterTo(plotWidth, plotHeight, format)
	if err != nil {
		return nil, errors.E(errors.Invalid, err, "samqc: plot format", format)
	}
	return wt, nil
}

// save writes p to path.  An unsupported format is reported before path is
// created.
func save(ctx context.Context, p *plot.Plot, path string) (err error) {
	wt, err := writerTo(p, plotFormat(path))
	if err != nil {
		return err
	}
	var out file.File
	if out, err = file.Create(ctx, path); err != nil {
		return errors.E(err, "samqc: creating plot", path)
	}
	defer file.CloseAndReport(ctx, out, &err)
	_, err = wt.WriteTo(out.Writer(ctx))
	return err
}

// show writes p to a temporary PNG and opens it with the first viewer found
// in $PATH.  The file is left in place for the viewer.
func show(ctx context.Context, p *plot.Plot) error {
	viewer, err := findViewer()
	if err != nil {
		return err
	}
	wt, err := writerTo(p, "png")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp("", "samqc-*.png")
	if err != nil {
		return err
	}
	if _, err = wt.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	log.Printf("samqc: displaying %s with %s", tmp.Name(), viewer)
	return exec.CommandContext(ctx, viewer, tmp.Name()).Run()
}

func findViewer() (string, error) {
	env := map[string]string{"PATH": os.Getenv("PATH")}
	for _, name := range viewers {
		if path, err := lookpath.Look(env, name); err == nil {
			return path, nil
		}
	}
	return "", errors.E(errors.NotExist, "samqc: no image viewer found; tried", strings.Join(viewers, ", "))
}
