package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mayor/kavi-server/internal/game"
)

func TestDeriveNoHistory(t *testing.T) {
	assert.Nil(t, Derive(Counters{}))
}

func TestDerivePlayStyle(t *testing.T) {
	tests := []struct {
		name     string
		rolls    int
		bankings int
		want     game.PlayStyle
	}{
		{"rare banking reads aggressive", 100, 10, game.StyleAggressive},
		{"frequent banking reads cautious", 100, 40, game.StyleCautious},
		{"middle band is balanced", 100, 20, game.StyleBalanced},
		{"boundary 15 percent is balanced", 100, 15, game.StyleBalanced},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pa := Derive(Counters{Rolls: tt.rolls, Bankings: tt.bankings, Games: 10, Wins: 5})
			require.NotNil(t, pa)
			assert.Equal(t, tt.want, pa.PlayStyle)
		})
	}
}

func TestDeriveWinRateShrinksTowardHalf(t *testing.T) {
	// One win in one game must not read as a sure winner.
	pa := Derive(Counters{Rolls: 10, Games: 1, Wins: 1})
	require.NotNil(t, pa)
	assert.InDelta(t, 0.6, pa.PredictedWinRate, 1e-9)

	// A long losing record does push the estimate down.
	pa = Derive(Counters{Rolls: 10, Games: 96, Wins: 8})
	require.NotNil(t, pa)
	assert.InDelta(t, 0.1, pa.PredictedWinRate, 1e-9)
}

func TestDeriveConsistency(t *testing.T) {
	// Identical banked scores: zero variance, perfect consistency.
	// Four bankings of 20 points each.
	pa := Derive(Counters{Rolls: 40, Bankings: 4, BankedSum: 80, BankedSqSum: 1600, Games: 4, Wins: 2})
	require.NotNil(t, pa)
	assert.InDelta(t, 1.0, pa.Consistency, 1e-9)

	// Wildly spread bankings (10 and 90) drop consistency well below.
	pa = Derive(Counters{Rolls: 40, Bankings: 2, BankedSum: 100, BankedSqSum: 8200, Games: 2, Wins: 1})
	require.NotNil(t, pa)
	assert.Less(t, pa.Consistency, 0.5)

	// A single banking cannot estimate spread; defaults to middle.
	pa = Derive(Counters{Rolls: 5, Bankings: 1, BankedSum: 20, BankedSqSum: 400, Games: 1, Wins: 0})
	require.NotNil(t, pa)
	assert.InDelta(t, 0.5, pa.Consistency, 1e-9)
}

func TestDeriveGamesOnly(t *testing.T) {
	// Games without tracked rolls still produce a snapshot.
	pa := Derive(Counters{Games: 8, Wins: 4})
	require.NotNil(t, pa)
	assert.Equal(t, game.StyleBalanced, pa.PlayStyle)
	assert.InDelta(t, 0.5, pa.PredictedWinRate, 1e-9)
}
