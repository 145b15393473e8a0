// Package fasta contains code for parsing FASTA files into memory.  Briefly,
// FASTA files consist of a number of named sequences that may be interrupted
// by newlines.  For example:
//
// >chr7
// ACGTAC
// GAGGAC
// GCG
// >chr8
// ACGT
//
// Note: Sequence names are defined to be the stretch of non-whitespace
// characters immediately after '>'.  Any text after that is ignored.  For
// example, '>chr1 A viral sequence' becomes 'chr1'.
package fasta

import (
	"bufio"
	"io"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

const (
	bufferInitSize = 1024 * 1024 * 300 // 300 MB
)

// Fasta represents FASTA-formatted data, consisting of a set of named
// sequences.
type Fasta interface {
	// Get returns a substring of the given sequence name at the given
	// coordinates, which are treated as a 0-based half-open interval
	// [start, end). Get is thread-safe.
	Get(seqName string, start, end uint64) (string, error)

	// Len returns the length of the given sequence.
	Len(seqName string) (uint64, error)

	// SeqNames returns the names of all sequences, in the order of appearance in
	// the FASTA file.
	SeqNames() []string
}

type fasta struct {
	seqs     map[string]string
	seqNames []string
}

// New creates a new Fasta that holds all the FASTA data from the given reader
// in memory.  Trailing whitespace is stripped from every sequence line.
// Sequences with no bases are dropped.
func New(r io.Reader) (Fasta, error) {
	f := &fasta{seqs: make(map[string]string)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, bufferInitSize)
	var (
		seqName string
		seq     strings.Builder
		inSeq   bool
	)
	for scanner.Scan() {
		line := strings.TrimRightFunc(scanner.Text(), unicode.IsSpace)
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' { // Start a new sequence.
			f.add(seqName, &seq)
			seqName = ""
			if fields := strings.Fields(line[1:]); len(fields) > 0 {
				seqName = fields[0]
			}
			inSeq = true
			continue
		}
		if !inSeq || seqName == "" {
			return nil, errors.Errorf("malformed FASTA file: sequence data without a name: %.20q", line)
		}
		seq.WriteString(line)
	}
	if scanner.Err() != nil {
		return nil, errors.Wrap(scanner.Err(), "couldn't read FASTA data")
	}
	f.add(seqName, &seq)
	return f, nil
}

// add stores the pending sequence, if any, and resets seq.
func (f *fasta) add(seqName string, seq *strings.Builder) {
	if seq.Len() == 0 {
		return
	}
	if _, ok := f.seqs[seqName]; !ok {
		f.seqNames = append(f.seqNames, seqName)
	}
	f.seqs[seqName] = seq.String()
	seq.Reset()
}

// Get implements Fasta.Get().
func (f *fasta) Get(seqName string, start, end uint64) (string, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found: %s", seqName)
	}
	if end <= start {
		return "", errors.Errorf("start must be less than end")
	}
	if end > uint64(len(s)) {
		return "", errors.Errorf("invalid query range %d - %d for sequence %s with length %d",
			start, end, seqName, len(s))
	}
	return s[start:end], nil
}

// Len implements Fasta.Len().
func (f *fasta) Len(seq string) (uint64, error) {
	s, ok := f.seqs[seq]
	if !ok {
		return 0, errors.Errorf("sequence not found: %s", seq)
	}
	return uint64(len(s)), nil
}

// SeqNames implements Fasta.SeqNames().
func (f *fasta) SeqNames() []string {
	return f.seqNames
}
