// internal/dice/dice.go
//
// Dice roll source shared by all game boards.
// Responsibilities:
//   - Uniform random die values 1-6 from an injected *rand.Rand.
//   - Per-board dice counts (Pig 1, Greed 6, Balut 5, custom variable).
//   - Hold-preserving rerolls: held positions keep their previous value.

package dice

import (
	"math/rand"
	"sync"
)

// Board identifies a game board for dice-count purposes.
type Board string

const (
	BoardPig    Board = "pig"
	BoardGreed  Board = "greed"
	BoardBalut  Board = "balut"
	BoardCustom Board = "custom"
)

// CountForBoard returns the number of dice a board rolls.
// customCount only applies to the custom board and is clamped to [1, 6].
func CountForBoard(board Board, customCount int) int {
	switch board {
	case BoardPig:
		return 1
	case BoardGreed:
		return 6
	case BoardBalut:
		return 5
	case BoardCustom:
		if customCount < 1 {
			return 1
		}
		if customCount > 6 {
			return 6
		}
		return customCount
	default:
		return 1
	}
}

// Roller produces dice rolls from an injected random source.
type Roller struct {
	rng *rand.Rand
}

// NewRoller constructs a Roller around rng.
func NewRoller(rng *rand.Rand) *Roller {
	return &Roller{rng: rng}
}

// Roll returns n uniform die values in [1, 6].
func (r *Roller) Roll(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = r.rng.Intn(6) + 1
	}
	return out
}

// lockedSource wraps a rand.Source64 with a mutex so the derived
// *rand.Rand is safe for concurrent HTTP handlers.
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source64
}

func (s *lockedSource) Int63() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Int63()
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}

func (s *lockedSource) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src.Seed(seed)
}

// NewLockedRand returns a seeded *rand.Rand backed by a mutex-guarded
// source, suitable for sharing across goroutines.
func NewLockedRand(seed int64) *rand.Rand {
	return rand.New(&lockedSource{src: rand.NewSource(seed).(rand.Source64)})
}

// Reroll rolls every position not in held, preserving held values from
// prev. Positions held without a previous value are rolled fresh.
func (r *Roller) Reroll(prev []int, n int, held map[int]struct{}) []int {
	out := make([]int, n)
	for i := range out {
		if _, ok := held[i]; ok && i < len(prev) {
			out[i] = prev[i]
			continue
		}
		out[i] = r.rng.Intn(6) + 1
	}
	return out
}
