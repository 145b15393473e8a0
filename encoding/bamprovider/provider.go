package bamprovider

import (
	"strings"

	"github.com/grailbio/hts/sam"
	"v.io/x/lib/vlog"
)

// ProviderOpts defines options for NewProvider.
type ProviderOpts struct {
	// Index specifies the name of the BAM index file. This field is meaningful
	// only for BAM files. If Index=="", it defaults to path + ".bai".
	Index string
	// FileType overrides the file type guessed from the path.  Unknown means
	// guess.
	FileType FileType
}

// Shard describes the records an Iterator yields.  If Ref is nil, the shard
// covers every record in the file, including unmapped ones.  Otherwise it
// covers the records on Ref whose alignment overlaps the half-open range
// [Start, End).
type Shard struct {
	Ref        *sam.Reference
	Start, End int
}

// UniversalShard returns a Shard that covers the whole file.
func UniversalShard() Shard {
	return Shard{}
}

// Contains returns true if rec belongs to the shard.
func (s Shard) Contains(rec *sam.Record) bool {
	if s.Ref == nil {
		return true
	}
	if rec.Ref == nil || rec.Ref.ID() != s.Ref.ID() {
		return false
	}
	end := rec.End()
	if end <= rec.Pos {
		end = rec.Pos + 1
	}
	return rec.Pos < s.End && end > s.Start
}

// past returns true if rec, and hence every later record of a
// coordinate-sorted file, lies beyond the shard.
func (s Shard) past(rec *sam.Record) bool {
	if s.Ref == nil || rec.Ref == nil {
		return false
	}
	return rec.Ref.ID() > s.Ref.ID() || (rec.Ref.ID() == s.Ref.ID() && rec.Pos >= s.End)
}

// Provider allows opening iterators over a BAM or SAM file.
type Provider interface {
	// GetHeader returns the header for the provided alignment data.  The callee
	// must not modify the returned header object.
	//
	// REQUIRES: Close has not been called.
	GetHeader() (*sam.Header, error)

	// NewIterator returns an iterator over records contained in the shard.
	//
	// REQUIRES: Close has not been called.
	NewIterator(shard Shard) Iterator

	// Close must be called exactly once. It returns any error encountered
	// by the provider, or any iterator created by the provider.
	//
	// REQUIRES: All the iterators created by NewIterator have been closed.
	Close() error
}

// Iterator iterates over sam.Records in a particular genomic range, in file
// order. Thread compatible.
type Iterator interface {
	// Scan returns where there are any records remaining in the iterator,
	// and if so, advances the iterator to the next record. If the iterator
	// reaches the end of its range, Scan() returns false.  If an error
	// occurs, Scan() returns false and the error can be retrieved by
	// calling Err().
	//
	// REQUIRES: Close has not been called.
	Scan() bool

	// Record returns the current record in the iterator. This must be
	// called only after a call to Scan() returns true.
	//
	// REQUIRES: Close has not been called.
	Record() *sam.Record

	// Err returns the error encoutered during iteration, or nil if no error
	// occurred.  An io.EOF error will be translated to nil.
	Err() error

	// Close must be called exactly once. It returns the value of Err().
	Close() error
}

// FileType represents the type of an alignment file.
type FileType int

const (
	// Unknown is a sentinel.
	Unknown FileType = iota
	// BAM file
	BAM
	// SAM file, optionally gzipped
	SAM
)

// ParseFileType parses the file type string. "bam" returns bamprovider.BAM, for
// example. On error, it returns Unknown.
func ParseFileType(name string) FileType {
	switch name {
	case "bam":
		return BAM
	case "sam":
		return SAM
	default:
		return Unknown
	}
}

// GuessFileType returns the file type from the pathname. Returns Unknown if
// the path has no recognized extension.
func GuessFileType(path string) FileType {
	if strings.HasSuffix(path, ".bam") {
		return BAM
	}
	if strings.HasSuffix(path, ".sam") || strings.HasSuffix(path, ".sam.gz") {
		return SAM
	}
	vlog.VI(1).Infof("%v: could not detect file type.", path)
	return Unknown
}

func mergeOpts(optList []ProviderOpts) ProviderOpts {
	opts := ProviderOpts{}
	for _, o := range optList {
		if o.Index != "" {
			opts.Index = o.Index
		}
		if o.FileType != Unknown {
			opts.FileType = o.FileType
		}
	}
	return opts
}

// NewProvider creates a Provider object that can handle BAM or SAM file of
// "path". Unless ProviderOpts.FileType is set, the file type is autodetected
// from the path; files of unknown type are read as BAM.
func NewProvider(path string, optList ...ProviderOpts) Provider {
	opts := mergeOpts(optList)
	fileType := opts.FileType
	if fileType == Unknown {
		fileType = GuessFileType(path)
	}
	switch fileType {
	case BAM, Unknown:
		return &BAMProvider{Path: path, Index: opts.Index}
	case SAM:
		return &SAMProvider{Path: path}
	}
	panic("shouldn't reach here")
}
