package interval

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PosType is the coordinate type of an Entry.
type PosType int32

// PosTypeMax is the maximum value that can be represented by a PosType.
const PosTypeMax = math.MaxInt32

// Entry represents a single interval, with 0-based coordinates.
type Entry struct {
	RefName string
	Start0  PosType
	End     PosType
}

// String renders e in the same form ParseRegionString accepts.
func (e Entry) String() string {
	return fmt.Sprintf("%s:%d:%d", e.RefName, e.Start0, e.End)
}

// ParseRegionString parses a region string of one of the forms
//   [contig ID]:[0-based start]:[end]
//   [contig ID]
// returning a contig ID and 0-based half-open interval boundaries.  The
// interval [0, PosTypeMax - 1) is returned if there is no positional
// restriction.
func ParseRegionString(region string) (result Entry, err error) {
	if len(region) == 0 {
		err = fmt.Errorf("interval.ParseRegionString: empty region string")
		return
	}
	parts := strings.Split(region, ":")
	if parts[0] == "" {
		err = fmt.Errorf("interval.ParseRegionString: empty contig ID in %q", region)
		return
	}
	result.RefName = parts[0]
	switch len(parts) {
	case 1:
		result.Start0 = 0
		result.End = PosTypeMax - 1
		return
	case 3:
	default:
		err = fmt.Errorf("interval.ParseRegionString: %q is not of the form chr:start:stop", region)
		return
	}
	var start0, end int64
	if start0, err = strconv.ParseInt(parts[1], 10, 32); err != nil {
		err = fmt.Errorf("interval.ParseRegionString: invalid start in %q: %v", region, err)
		return
	}
	if end, err = strconv.ParseInt(parts[2], 10, 32); err != nil {
		err = fmt.Errorf("interval.ParseRegionString: invalid stop in %q: %v", region, err)
		return
	}
	// Prohibit end == PosTypeMax so that a whole-contig interval can't be
	// confused with an explicit one.
	if start0 < 0 || end <= start0 || end >= PosTypeMax {
		err = fmt.Errorf("interval.ParseRegionString: invalid range [%d, %d) in %q", start0, end, region)
		return
	}
	result.Start0 = PosType(start0)
	result.End = PosType(end)
	return
}
