package bamprovider

import (
	"fmt"
	"io"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/bgzf/index"
	"github.com/grailbio/hts/sam"
	"v.io/x/lib/vlog"
)

// BAMProvider implements Provider for BAM files.  Both BAM and the index
// filenames are allowed to be S3 URLs, in which case the data will be read from
// S3. Otherwise the data will be read from the local filesystem.  The index is
// read only for shards restricted to a reference.
type BAMProvider struct {
	// Path of the *.bam file. Must be nonempty.
	Path string
	// Index is the pathname of *.bam.bai file. If "", Path + ".bai"
	Index string
	err   errors.Once

	mu      sync.Mutex
	nActive int
	header  *sam.Header
}

type bamIterator struct {
	provider *BAMProvider
	in       file.File
	reader   *bam.Reader
	// chunks is non-nil when the shard is restricted to a reference.
	chunks *bam.Iterator
	shard  Shard

	err  error
	next *sam.Record
}

func (b *BAMProvider) indexPath() string {
	index := b.Index
	if index == "" {
		index = b.Path + ".bai"
	}
	return index
}

// GetHeader implements the Provider interface.
func (b *BAMProvider) GetHeader() (*sam.Header, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.header != nil {
		return b.header, nil
	}

	ctx := vcontext.Background()
	reader, err := file.Open(ctx, b.Path)
	if err != nil {
		b.err.Set(err)
		return nil, err
	}
	defer reader.Close(ctx)
	bamReader, err := bam.NewReader(reader.Reader(ctx), 1)
	if err != nil {
		b.err.Set(err)
		return nil, err
	}
	defer bamReader.Close()
	b.header = bamReader.Header()
	return b.header, nil
}

// Close implements the Provider interface.
func (b *BAMProvider) Close() error {
	if b.nActive > 0 {
		vlog.Fatalf("%d iterators still active for %+v", b.nActive, b)
	}
	return b.err.Err()
}

func (b *BAMProvider) freeIterator() {
	b.mu.Lock()
	b.nActive--
	if b.nActive < 0 {
		vlog.Fatalf("Negative active count for %+v", b)
	}
	b.mu.Unlock()
}

// NewIterator implements the Provider interface.
func (b *BAMProvider) NewIterator(shard Shard) Iterator {
	b.mu.Lock()
	b.nActive++
	b.mu.Unlock()

	iter := &bamIterator{provider: b, shard: shard}
	ctx := vcontext.Background()
	if iter.in, iter.err = file.Open(ctx, b.Path); iter.err != nil {
		return iter
	}
	if iter.reader, iter.err = bam.NewReader(iter.in.Reader(ctx), 1); iter.err != nil {
		return iter
	}
	if shard.Ref == nil {
		return iter
	}
	if shard.Start >= shard.End {
		iter.err = fmt.Errorf("start pos (%d) not before limit pos (%d)", shard.Start, shard.End)
		return iter
	}

	// Read the index and find the chunks overlapping [Start, End) on the
	// reference.
	var indexIn file.File
	if indexIn, iter.err = file.Open(ctx, b.indexPath()); iter.err != nil {
		return iter
	}
	defer indexIn.Close(ctx)
	var idx *bam.Index
	if idx, iter.err = bam.ReadIndex(indexIn.Reader(ctx)); iter.err != nil {
		return iter
	}
	chunks, err := idx.Chunks(shard.Ref, shard.Start, shard.End)
	if err == index.ErrInvalid || (err == nil && len(chunks) == 0) {
		// No reads for this interval: return an empty iterator.
		vlog.VI(1).Infof("%v: no index chunks for %s:%d-%d", b.Path, shard.Ref.Name(), shard.Start, shard.End)
		iter.err = io.EOF
		return iter
	}
	if err != nil {
		iter.err = err
		return iter
	}
	iter.chunks, iter.err = bam.NewIterator(iter.reader, chunks)
	return iter
}

func (i *bamIterator) read() (*sam.Record, error) {
	if i.chunks == nil {
		return i.reader.Read()
	}
	if !i.chunks.Next() {
		if err := i.chunks.Error(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	return i.chunks.Record(), nil
}

// Scan implements the Iterator interface.
func (i *bamIterator) Scan() bool {
	if i.err != nil {
		return false
	}
	for {
		i.next, i.err = i.read()
		if i.err != nil {
			return false
		}
		if i.shard.Contains(i.next) {
			return true
		}
		if i.shard.past(i.next) {
			i.err = io.EOF
			return false
		}
	}
}

// Record implements the Iterator interface.
func (i *bamIterator) Record() *sam.Record {
	return i.next
}

// Err implements the Iterator interface.
func (i *bamIterator) Err() error {
	if i.err == io.EOF {
		return nil
	}
	return i.err
}

// Close implements the Iterator interface.
func (i *bamIterator) Close() error {
	if i.chunks != nil {
		if err := i.chunks.Close(); err != nil && i.err == nil {
			i.err = err
		}
		i.chunks = nil
	}
	if i.reader != nil {
		if err := i.reader.Close(); err != nil && i.err == nil {
			i.err = err
		}
		i.reader = nil
	}
	if i.in != nil {
		if err := i.in.Close(vcontext.Background()); err != nil && i.err == nil {
			i.err = err
		}
		i.in = nil
	}
	err := i.Err()
	i.provider.err.Set(err)
	i.provider.freeIterator()
	return err
}
