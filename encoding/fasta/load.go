package fasta

import (
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/klauspost/compress/gzip"
)

// Load reads the FASTA file at path into memory.  The path may name any file
// supported by github.com/grailbio/base/file.  Gzipped files (*.gz) are
// decompressed on the fly.
func Load(ctx context.Context, path string) (fa Fasta, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return nil, errors.E(err, "fasta.Load", path)
	}
	defer func() {
		if e := infile.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	reader := io.Reader(infile.Reader(ctx))
	if fileio.DetermineType(path) == fileio.Gzip {
		var gz *gzip.Reader
		if gz, err = gzip.NewReader(reader); err != nil {
			return nil, errors.E(err, "fasta.Load", path)
		}
		defer func() {
			if e := gz.Close(); e != nil && err == nil {
				err = e
			}
		}()
		reader = gz
	}
	if fa, err = New(reader); err != nil {
		return nil, errors.E(err, path)
	}
	return fa, nil
}
