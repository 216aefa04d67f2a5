package trajectory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	ls, err := Build([]int{1, 2, 3})
	require.NoError(t, err)

	assert.False(t, ls.IsEmpty())
	assert.Equal(t, "LINESTRING(0 1,1 2,2 3)", ls.AsText())
}

func TestBuild_Turnaround(t *testing.T) {
	ls, err := Build([]int{1, 2, 2, 1})
	require.NoError(t, err)

	assert.Equal(t, "LINESTRING(0 1,1 2,2 2,3 1)", ls.AsText())
	assert.Equal(t, 2, FloorsTravelled(ls))
}

func TestBuild_TooShort(t *testing.T) {
	ls, err := Build(nil)
	require.NoError(t, err)
	assert.True(t, ls.IsEmpty())

	ls, err = Build([]int{4})
	require.NoError(t, err)
	assert.True(t, ls.IsEmpty())
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name      string
		path      []int
		travelled int
	}{
		{"empty", nil, 0},
		{"single up sweep", []int{1, 2, 3, 4}, 3},
		{"up then down", []int{1, 2, 3, 4, 4, 3, 2, 1}, 6},
		{"three sweeps", []int{1, 2, 3, 3, 2, 1, 1, 2, 3}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wkt, travelled, err := Summary(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.travelled, travelled)
			assert.NotEmpty(t, wkt)
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	path := []int{1, 2, 3, 4, 4, 3, 2, 1}
	wkt, _, err := Summary(path)
	require.NoError(t, err)

	got, err := Parse(wkt)
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse("not wkt")
	assert.Error(t, err)

	_, err = Parse("POINT(1 2)")
	assert.ErrorContains(t, err, "not a line string")
}
