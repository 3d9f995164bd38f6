package response

import (
	"strings"
	"testing"

	"github.com/poiesic/vibegrep/core"
	"github.com/poiesic/vibegrep/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBatch() core.Batch {
	return core.Batch{Index: 4, Files: []core.CandidateFile{
		{Path: "a.py", Seq: 10, Content: []byte("import os\n\ndef load():\n    try:\n        return open('x')\n    except OSError:\n        return None\n")},
		{Path: "b.py", Seq: 11, Content: []byte("x = 1\ny = 2\nz = 3\n")},
	}}
}

func parse(t *testing.T, raw string) Parsed {
	t.Helper()
	batch := testBatch()
	p, err := Parse(raw, request.Encode(batch, "q", "m"), batch)
	require.NoError(t, err)
	return p
}

func TestParse_Directives(t *testing.T) {
	p := parse(t, "1: 4-7\n2: 2")

	require.Len(t, p.Records, 2)
	assert.Empty(t, p.Diagnostics)
	assert.False(t, p.Verbatim)

	a := p.Records[0]
	assert.Equal(t, "a.py", a.Path)
	assert.Equal(t, 10, a.Seq)
	assert.Equal(t, []core.LineRange{{Start: 4, End: 7}}, a.Ranges)
	assert.Equal(t, "    except OSError:", a.Snippets[6])
	assert.Len(t, a.Snippets, 4)

	b := p.Records[1]
	assert.Equal(t, "b.py", b.Path)
	assert.Equal(t, []core.LineRange{{Start: 2, End: 2}}, b.Ranges)
	assert.Equal(t, map[int]string{2: "y = 2"}, b.Snippets)
}

func TestParse_FormsAndNoise(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string][]core.LineRange
	}{
		{"bullets and fences", "```\n- 1: 1\n* 2: 3\n```", map[string][]core.LineRange{
			"a.py": {{Start: 1, End: 1}},
			"b.py": {{Start: 3, End: 3}},
		}},
		{"spacing", "  1 :3 - 5 ,  7  \n", map[string][]core.LineRange{
			"a.py": {{Start: 3, End: 5}, {Start: 7, End: 7}},
		}},
		{"merge overlapping and adjacent", "1: 5-6, 1, 3-4, 4", map[string][]core.LineRange{
			"a.py": {{Start: 1, End: 1}, {Start: 3, End: 6}},
		}},
		{"repeated id", "2: 1\n2: 3", map[string][]core.LineRange{
			"b.py": {{Start: 1, End: 1}, {Start: 3, End: 3}},
		}},
		{"commentary ignored next to directives", "Here are the matches:\n1: 2", map[string][]core.LineRange{
			"a.py": {{Start: 2, End: 2}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := parse(t, tt.raw)
			got := make(map[string][]core.LineRange)
			for _, r := range p.Records {
				got[r.Path] = r.Ranges
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_NoMatches(t *testing.T) {
	for _, raw := range []string{"", "   \n\n", "NONE", "none\n", "```\nNONE\n```"} {
		p := parse(t, raw)
		assert.Empty(t, p.Records, "raw %q", raw)
		assert.Empty(t, p.Diagnostics, "raw %q", raw)
	}
}

func TestParse_DropsOutOfRange(t *testing.T) {
	// b.py has 3 lines
	p := parse(t, "2: 2, 40-42\n1: 0, 3-2, 1")

	require.Len(t, p.Records, 2)
	assert.Equal(t, []core.LineRange{{Start: 1, End: 1}}, p.Records[0].Ranges)
	assert.Equal(t, []core.LineRange{{Start: 2, End: 2}}, p.Records[1].Ranges)
	assert.Len(t, p.Diagnostics, 3)
	assert.Contains(t, p.Diagnostics[0], "b.py")
	assert.Contains(t, p.Diagnostics[0], "40-42")
}

func TestParse_UnknownID(t *testing.T) {
	p := parse(t, "7: 1\n1: 1")

	require.Len(t, p.Records, 1)
	assert.Equal(t, "a.py", p.Records[0].Path)
	require.Len(t, p.Diagnostics, 1)
	assert.Equal(t, "batch 5: unknown file id 7", p.Diagnostics[0])
}

func TestParse_ReportsIgnoredLines(t *testing.T) {
	p := parse(t, "Here are the matches:\n1: 2\nThat is all.")

	require.Len(t, p.Records, 1)
	assert.Equal(t, []core.LineRange{{Start: 2, End: 2}}, p.Records[0].Ranges)
	assert.Equal(t, []string{"batch 5: ignored 2 unrecognized lines"}, p.Diagnostics)
}

func TestParse_DiagnosticsNumberBatchesFromOne(t *testing.T) {
	p := parse(t, "2: 9")

	require.Len(t, p.Diagnostics, 1)
	assert.True(t, strings.HasPrefix(p.Diagnostics[0], "batch 5: b.py: dropped range"), p.Diagnostics[0])
}

func TestParse_Verbatim(t *testing.T) {
	p := parse(t, "    except OSError:\nreturn None\ny = 2")

	assert.True(t, p.Verbatim)
	require.Len(t, p.Records, 2)
	assert.Equal(t, []core.LineRange{{Start: 6, End: 7}}, p.Records[0].Ranges)
	assert.Equal(t, []core.LineRange{{Start: 2, End: 2}}, p.Records[1].Ranges)
}

func TestParse_Malformed(t *testing.T) {
	batch := testBatch()
	_, err := Parse("I could not find anything relevant.", request.Encode(batch, "q", "m"), batch)
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.NotContains(t, err.Error(), "batch")
}

func TestParse_BatchMismatch(t *testing.T) {
	batch := testBatch()
	_, err := Parse("1: 1", nil, batch)
	assert.ErrorIs(t, err, ErrBatchMismatch)

	other := core.Batch{Files: batch.Files[:1]}
	_, err = Parse("1: 1", request.Encode(other, "q", "m"), batch)
	assert.ErrorIs(t, err, ErrBatchMismatch)
}

func TestParse_Idempotent(t *testing.T) {
	raws := []string{
		"1: 4-7\n2: 2",
		"2: 2, 40-42\n9: 1",
		"    except OSError:\nreturn None",
		"NONE",
	}
	for _, raw := range raws {
		first := parse(t, raw)
		second := parse(t, raw)
		assert.Equal(t, first, second, "raw %q", raw)
	}
}

func TestFindLines(t *testing.T) {
	src := []string{"a", "b", "a", "c", "  b  "}

	tests := []struct {
		name   string
		copied []string
		want   []int
	}{
		{"in order", []string{"a", "c"}, []int{1, 4}},
		{"no reuse", []string{"a", "a", "a"}, []int{1, 3}},
		{"wraps to top", []string{"c", "a"}, []int{4, 1}},
		{"trimmed equality", []string{"b", "b"}, []int{2, 5}},
		{"blank ignored", []string{"", "c"}, []int{4}},
		{"missing", []string{"zzz"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, findLines(src, tt.copied))
		})
	}
}
