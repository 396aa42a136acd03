package dice

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountForBoard(t *testing.T) {
	assert.Equal(t, 1, CountForBoard(BoardPig, 0))
	assert.Equal(t, 6, CountForBoard(BoardGreed, 0))
	assert.Equal(t, 5, CountForBoard(BoardBalut, 0))
	assert.Equal(t, 3, CountForBoard(BoardCustom, 3))
	assert.Equal(t, 1, CountForBoard(BoardCustom, 0))
	assert.Equal(t, 6, CountForBoard(BoardCustom, 10))
	assert.Equal(t, 1, CountForBoard(Board("bogus"), 0))
}

func TestRollBounds(t *testing.T) {
	r := NewRoller(rand.New(rand.NewSource(7)))
	for i := 0; i < 200; i++ {
		for _, d := range r.Roll(6) {
			require.GreaterOrEqual(t, d, 1)
			require.LessOrEqual(t, d, 6)
		}
	}
}

func TestRerollPreservesHeld(t *testing.T) {
	r := NewRoller(rand.New(rand.NewSource(7)))
	prev := []int{6, 1, 4, 2, 5}
	held := map[int]struct{}{0: {}, 2: {}, 4: {}}

	for i := 0; i < 100; i++ {
		out := r.Reroll(prev, 5, held)
		require.Len(t, out, 5)
		assert.Equal(t, 6, out[0])
		assert.Equal(t, 4, out[2])
		assert.Equal(t, 5, out[4])
		for _, d := range out {
			require.GreaterOrEqual(t, d, 1)
			require.LessOrEqual(t, d, 6)
		}
	}
}

func TestRerollWithoutPrevRollsFresh(t *testing.T) {
	r := NewRoller(rand.New(rand.NewSource(7)))
	out := r.Reroll(nil, 6, map[int]struct{}{1: {}})
	require.Len(t, out, 6)
	for _, d := range out {
		assert.GreaterOrEqual(t, d, 1)
		assert.LessOrEqual(t, d, 6)
	}
}

func TestLockedRandConcurrentUse(t *testing.T) {
	rng := NewLockedRand(42)
	done := make(chan struct{})
	for g := 0; g < 8; g++ {
		go func() {
			defer func() { done <- struct{}{} }()
			r := NewRoller(rng)
			for i := 0; i < 500; i++ {
				for _, d := range r.Roll(6) {
					if d < 1 || d > 6 {
						t.Errorf("die out of range: %d", d)
						return
					}
				}
			}
		}()
	}
	for g := 0; g < 8; g++ {
		<-done
	}
}
