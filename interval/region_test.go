package interval

import (
	"math"
	"testing"

	"github.com/grailbio/testutil/expect"
)

func TestParseRegionString(t *testing.T) {
	tests := []struct {
		region  string
		chrName string
		start0  PosType
		end     PosType
	}{
		{
			"chr1:0:1000",
			"chr1",
			0,
			1000,
		},
		{
			"chr1:999:1000",
			"chr1",
			999,
			1000,
		},
		{
			"chr1",
			"chr1",
			0,
			math.MaxInt32 - 1,
		},
	}

	for _, tt := range tests {
		result, err := ParseRegionString(tt.region)
		expect.NoError(t, err)
		expect.EQ(t, tt.chrName, result.RefName)
		expect.EQ(t, tt.start0, result.Start0)
		expect.EQ(t, tt.end, result.End)
	}
}

func TestParseRegionStringErrors(t *testing.T) {
	for _, region := range []string{
		"",
		":0:10",
		"chr1:10",
		"chr1:1-10",
		"chr1:a:10",
		"chr1:0:b",
		"chr1:10:10",
		"chr1:10:5",
		"chr1:-1:5",
		"chr1:0:2147483647",
		"chr1:0:10:20",
	} {
		_, err := ParseRegionString(region)
		expect.NotNil(t, err, "region %q", region)
	}
}

func TestEntryString(t *testing.T) {
	e, err := ParseRegionString("chrX:5:17")
	expect.NoError(t, err)
	expect.EQ(t, "chrX:5:17", e.String())
}
