package bamprovider

import (
	"io"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/sam"
	"github.com/klauspost/compress/gzip"
	"v.io/x/lib/vlog"
)

// SAMProvider implements Provider for SAM text files, optionally gzipped.
// SAM files have no index, so iterators restricted to a reference scan the
// whole file and filter.
type SAMProvider struct {
	// Path of the *.sam or *.sam.gz file. Must be nonempty.
	Path string
	err  errors.Once

	mu      sync.Mutex
	nActive int
	header  *sam.Header
}

type samIterator struct {
	provider *SAMProvider
	in       file.File
	gz       *gzip.Reader
	reader   *sam.Reader
	shard    Shard

	err  error
	next *sam.Record
}

// open opens the file and parses its header.
func (s *SAMProvider) open(i *samIterator) {
	ctx := vcontext.Background()
	if i.in, i.err = file.Open(ctx, s.Path); i.err != nil {
		return
	}
	r := io.Reader(i.in.Reader(ctx))
	if fileio.DetermineType(s.Path) == fileio.Gzip {
		if i.gz, i.err = gzip.NewReader(r); i.err != nil {
			return
		}
		r = i.gz
	}
	i.reader, i.err = sam.NewReader(r)
}

// GetHeader implements the Provider interface.
func (s *SAMProvider) GetHeader() (*sam.Header, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.header != nil {
		return s.header, nil
	}
	i := samIterator{provider: s}
	s.open(&i)
	err := i.Err()
	i.internalClose()
	if err != nil {
		s.err.Set(err)
		return nil, err
	}
	s.header = i.reader.Header()
	return s.header, nil
}

// Close implements the Provider interface.
func (s *SAMProvider) Close() error {
	if s.nActive > 0 {
		vlog.Fatalf("%d iterators still active for %+v", s.nActive, s)
	}
	return s.err.Err()
}

// NewIterator implements the Provider interface.
func (s *SAMProvider) NewIterator(shard Shard) Iterator {
	s.mu.Lock()
	s.nActive++
	s.mu.Unlock()
	iter := &samIterator{provider: s, shard: shard}
	s.open(iter)
	return iter
}

// Scan implements the Iterator interface.
func (i *samIterator) Scan() bool {
	if i.err != nil {
		return false
	}
	for {
		i.next, i.err = i.reader.Read()
		if i.err != nil {
			return false
		}
		if i.shard.Contains(i.next) {
			return true
		}
	}
}

// Record implements the Iterator interface.
func (i *samIterator) Record() *sam.Record {
	return i.next
}

// Err implements the Iterator interface.
func (i *samIterator) Err() error {
	if i.err == io.EOF {
		return nil
	}
	return i.err
}

func (i *samIterator) internalClose() {
	if i.gz != nil {
		if err := i.gz.Close(); err != nil && i.err == nil {
			i.err = err
		}
		i.gz = nil
	}
	if i.in != nil {
		if err := i.in.Close(vcontext.Background()); err != nil && i.err == nil {
			i.err = err
		}
		i.in = nil
	}
}

// Close implements the Iterator interface.
func (i *samIterator) Close() error {
	i.internalClose()
	err := i.Err()
	i.provider.err.Set(err)
	i.provider.mu.Lock()
	i.provider.nActive--
	if i.provider.nActive < 0 {
		vlog.Fatalf("Negative active count for %+v", i.provider)
	}
	i.provider.mu.Unlock()
	return err
}
