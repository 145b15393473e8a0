// Package bamprovider provides utilities for scanning a BAM or SAM file,
// optionally restricted to a genomic range.
//
// The Provider is an interface for opening iterators over a BAM or SAM file.
package bamprovider
