package runtable

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFactors() []Factor {
	return []Factor{
		{Name: "compiler", Levels: []string{"a", "b"}},
		{Name: "benchmark", Levels: []string{"x", "y", "z"}},
	}
}

func TestGeneratePlan_Size(t *testing.T) {
	t.Parallel()

	for _, reps := range []int{1, 2, 5} {
		t.Run(fmt.Sprintf("repetitions=%d", reps), func(t *testing.T) {
			plan := GeneratePlan(testFactors(), reps, false, nil)
			assert.Len(t, plan, reps*2*3)
		})
	}
}

func TestGeneratePlan_Order(t *testing.T) {
	t.Parallel()

	plan := GeneratePlan(testFactors(), 1, false, nil)
	require.Len(t, plan, 6)

	// First declared factor varies slowest, last varies fastest.
	expected := []Variation{
		{"compiler": "a", "benchmark": "x"},
		{"compiler": "a", "benchmark": "y"},
		{"compiler": "a", "benchmark": "z"},
		{"compiler": "b", "benchmark": "x"},
		{"compiler": "b", "benchmark": "y"},
		{"compiler": "b", "benchmark": "z"},
	}
	for i, want := range expected {
		assert.Equal(t, want, plan[i].Variation, "position %d", i)
	}
}

func TestGeneratePlan_IndicesAndRepetitionBlocks(t *testing.T) {
	t.Parallel()

	plan := GeneratePlan(testFactors(), 2, false, nil)
	require.Len(t, plan, 12)

	for i, run := range plan {
		assert.Equal(t, i+1, run.Index, "indices are 1-based and contiguous")
	}
	// The full cross product is one repetition block, replicated whole.
	for i := 0; i < 6; i++ {
		assert.Equal(t, 1, plan[i].Repetition)
		assert.Equal(t, 2, plan[i+6].Repetition)
		assert.Equal(t, plan[i].Variation, plan[i+6].Variation)
	}
}

func TestGeneratePlan_ShufflePreservesMultiset(t *testing.T) {
	t.Parallel()

	const reps = 3
	shuffled := GeneratePlan(testFactors(), reps, true, rand.New(rand.NewSource(42)))
	require.Len(t, shuffled, reps*6)

	// Every variation still appears exactly `reps` times.
	counts := make(map[string]int)
	for _, run := range shuffled {
		counts[run.Variation["compiler"]+"/"+run.Variation["benchmark"]]++
	}
	require.Len(t, counts, 6)
	for key, n := range counts {
		assert.Equal(t, reps, n, "variation %s", key)
	}

	// Indices still follow execution order after the shuffle.
	for i, run := range shuffled {
		assert.Equal(t, i+1, run.Index)
	}
}

func TestGeneratePlan_ShuffleIsDeterministicUnderSeed(t *testing.T) {
	t.Parallel()

	a := GeneratePlan(testFactors(), 2, true, rand.New(rand.NewSource(7)))
	b := GeneratePlan(testFactors(), 2, true, rand.New(rand.NewSource(7)))
	assert.Equal(t, a, b)
}

func TestGeneratePlan_NoFactors(t *testing.T) {
	t.Parallel()

	plan := GeneratePlan(nil, 2, false, nil)
	require.Len(t, plan, 2)
	assert.Empty(t, plan[0].Variation)
}
