package bamprovider

import (
	"fmt"

	"github.com/grailbio/hts/sam"
)

// RefByName finds a sam.Reference with the given name. It returns nil if a
// reference is not found.
func RefByName(h *sam.Header, refName string) *sam.Reference {
	for _, ref := range h.Refs() {
		if ref.Name() == refName {
			return ref
		}
	}
	return nil
}

// NewRefIterator creates an iterator for half-open range [refName:start,
// refName:limit). Start and limit are both base zero.  The iterator will yield
// reads whose alignments overlap the given range.  A limit past the end of the
// reference is clipped to the reference length.
func NewRefIterator(p Provider, refName string, start, limit int) Iterator {
	h, err := p.GetHeader()
	if err != nil {
		return NewErrorIterator(err)
	}
	ref := RefByName(h, refName)
	if ref == nil {
		return NewErrorIterator(fmt.Errorf("bamprovider.NewRefIterator: reference '%s' not found", refName))
	}
	if limit > ref.Len() {
		limit = ref.Len()
	}
	if start >= limit {
		return NewErrorIterator(fmt.Errorf("bamprovider.NewRefIterator: empty range [%d, %d) on reference '%s' of length %d",
			start, limit, refName, ref.Len()))
	}
	shard := Shard{
		Ref:   ref,
		Start: start,
		End:   limit,
	}
	return p.NewIterator(shard)
}

// errIterator is an Iterator over nothing.  It hands back the error it was
// created with from both Err and Close.
type errIterator struct {
	err error
}

// NewErrorIterator returns an Iterator that yields no records and reports err.
// Provider implementations use it to defer open and lookup failures to the
// caller's Err or Close.
func NewErrorIterator(err error) Iterator {
	return &errIterator{err: err}
}

func (it *errIterator) Scan() bool { return false }

func (it *errIterator) Record() *sam.Record {
	panic("bamprovider: Record called on an iterator with no records")
}

func (it *errIterator) Err() error { return it.err }

func (it *errIterator) Close() error { return it.err }
