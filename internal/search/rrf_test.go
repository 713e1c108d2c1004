package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuseRRFCombinesRankings(t *testing.T) {
	// "b" appears high in both lists and must win over single-list tops.
	vector := []string{"a", "b", "c"}
	keyword := []string{"b", "d"}

	fusedHits := fuseRRF(60, vector, keyword)
	require.Len(t, fusedHits, 4)
	assert.Equal(t, "b", fusedHits[0].ID)

	expected := 1.0/62.0 + 1.0/61.0
	assert.InDelta(t, expected, fusedHits[0].Score, 1e-9)
}

func TestFuseRRFSingleList(t *testing.T) {
	fusedHits := fuseRRF(60, []string{"a", "b"}, nil)
	require.Len(t, fusedHits, 2)
	assert.Equal(t, "a", fusedHits[0].ID)
	assert.Greater(t, fusedHits[0].Score, fusedHits[1].Score)
}

func TestFuseRRFDeterministicTieBreak(t *testing.T) {
	// Same rank in disjoint lists produces equal scores; IDs break the tie.
	fusedHits := fuseRRF(60, []string{"z"}, []string{"a"})
	require.Len(t, fusedHits, 2)
	assert.Equal(t, "a", fusedHits[0].ID)
	assert.Equal(t, "z", fusedHits[1].ID)
	assert.Equal(t, fusedHits[0].Score, fusedHits[1].Score)
}

func TestFuseRRFEmpty(t *testing.T) {
	assert.Empty(t, fuseRRF(60, nil, nil))
}

func TestNormalize(t *testing.T) {
	results := []Result{{ID: "a", Score: 0.5}, {ID: "b", Score: 0.25}}
	normalize(results)

	assert.Equal(t, 1.0, results[0].Score)
	assert.Equal(t, 0.5, results[1].Score)
}

func TestNormalizeEmpty(t *testing.T) {
	normalize(nil)
	normalize([]Result{})
}
