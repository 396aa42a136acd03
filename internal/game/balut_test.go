package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBalutState(current int) BalutState {
	return BalutState{
		PlayerScores: map[int]map[Category]int{
			HumanPlayer: {},
			AIPlayer:    {},
		},
		RollsLeft:     BalutMaxRolls,
		HeldDice:      map[int]struct{}{},
		CurrentRound:  1,
		MaxRounds:     len(Categories),
		CurrentPlayer: current,
	}
}

func TestBalutInitializeGame(t *testing.T) {
	m := NewBalutManager(nil, nil, testRand())
	st := m.InitializeGame()

	assert.Equal(t, BalutMaxRolls, st.RollsLeft)
	assert.Equal(t, 1, st.CurrentRound)
	assert.Equal(t, len(Categories), st.MaxRounds)
	assert.Empty(t, st.PlayerScores[HumanPlayer])
	assert.Empty(t, st.PlayerScores[AIPlayer])
	assert.False(t, st.GameOver)
}

func TestBalutHumanRollsDecrement(t *testing.T) {
	m := NewBalutManager(nil, nil, testRand())
	st := newBalutState(HumanPlayer)

	st = m.HandleTurn([]int{1, 2, 3, 4, 5}, st, idx(2, 3))
	assert.Equal(t, 2, st.RollsLeft)
	assert.Equal(t, idx(2, 3), st.HeldDice)

	st = m.HandleTurn([]int{1, 2, 3, 4, 5}, st, nil)
	st = m.HandleTurn([]int{1, 2, 3, 4, 5}, st, nil)
	assert.Equal(t, 0, st.RollsLeft)

	// A fourth roll is refused with a prompt to score.
	next := m.HandleTurn([]int{1, 2, 3, 4, 5}, st, nil)
	assert.Equal(t, 0, next.RollsLeft)
	assert.Contains(t, next.Message, "category")
}

func TestBalutScoreBeforeRollingRejected(t *testing.T) {
	m := NewBalutManager(nil, nil, testRand())
	st := newBalutState(HumanPlayer)

	next, err := m.ScoreCategory(st, []int{1, 2, 3, 4, 5}, CatOnes)
	require.ErrorIs(t, err, ErrNotRolled)
	assert.Equal(t, st, next)
}

func TestBalutScoreCategoryPassesTurn(t *testing.T) {
	m := NewBalutManager(nil, nil, testRand())
	st := newBalutState(HumanPlayer)
	st = m.HandleTurn([]int{5, 5, 5, 2, 3}, st, nil)

	next, err := m.ScoreCategory(st, []int{5, 5, 5, 2, 3}, CatFives)
	require.NoError(t, err)
	assert.Equal(t, 15, next.PlayerScores[HumanPlayer][CatFives])
	assert.Equal(t, AIPlayer, next.CurrentPlayer)
	assert.Equal(t, 1, next.CurrentRound, "the round wraps when play returns to the human")
	assert.Equal(t, BalutMaxRolls, next.RollsLeft)
	assert.Empty(t, next.HeldDice)
}

func TestBalutCategoryFirstWriteWins(t *testing.T) {
	m := NewBalutManager(nil, nil, testRand())
	st := newBalutState(HumanPlayer)
	st.RollsLeft = 1
	st.PlayerScores[HumanPlayer][CatFives] = 15

	next, err := m.ScoreCategory(st, []int{5, 5, 5, 5, 5}, CatFives)
	require.ErrorIs(t, err, ErrCategoryTaken)
	assert.Equal(t, 15, next.PlayerScores[HumanPlayer][CatFives], "the original score stands")
}

func TestBalutRoundAdvancesWhenAIScores(t *testing.T) {
	m := NewBalutManager(nil, nil, testRand())
	st := newBalutState(AIPlayer)
	st.CurrentRound = 3
	st.RollsLeft = 0

	next, err := m.ScoreCategory(st, []int{6, 6, 2, 3, 4}, CatSixes)
	require.NoError(t, err)
	assert.Equal(t, HumanPlayer, next.CurrentPlayer)
	assert.Equal(t, 4, next.CurrentRound)
}

func TestBalutZeroScoreStillClosesCategory(t *testing.T) {
	m := NewBalutManager(nil, nil, testRand())
	st := newBalutState(HumanPlayer)
	st.RollsLeft = 1

	next, err := m.ScoreCategory(st, []int{2, 2, 3, 4, 6}, CatFiveOfAKind)
	require.NoError(t, err)
	score, ok := next.PlayerScores[HumanPlayer][CatFiveOfAKind]
	assert.True(t, ok, "a zero entry still closes the category")
	assert.Equal(t, 0, score)
}

func TestBalutGameOverWhenSheetsComplete(t *testing.T) {
	m := NewBalutManager(nil, nil, testRand())
	st := newBalutState(AIPlayer)
	st.CurrentRound = len(Categories)
	st.RollsLeft = 0
	for _, c := range Categories {
		st.PlayerScores[HumanPlayer][c] = 5
		if c != CatChoice {
			st.PlayerScores[AIPlayer][c] = 5
		}
	}

	next, err := m.ScoreCategory(st, []int{6, 6, 6, 6, 6}, CatChoice)
	require.NoError(t, err)
	assert.True(t, next.GameOver)
	assert.Equal(t, 30, next.PlayerScores[AIPlayer][CatChoice])
}

func TestBalutTotalScore(t *testing.T) {
	st := newBalutState(HumanPlayer)
	st.PlayerScores[HumanPlayer][CatOnes] = 3
	st.PlayerScores[HumanPlayer][CatChoice] = 22
	assert.Equal(t, 25, st.TotalScore(HumanPlayer))
	assert.Equal(t, 0, st.TotalScore(AIPlayer))
}

func TestBalutAIHoldsScoringPattern(t *testing.T) {
	m := NewBalutManager(nil, nil, testRand())
	holds := m.DecideAIDiceHolds([]int{3, 3, 3, 5, 5})
	assert.Equal(t, idx(0, 1, 2, 3, 4), holds, "a full house is kept whole")

	holds = m.DecideAIDiceHolds([]int{6, 6, 6, 6, 1})
	assert.Equal(t, idx(0, 1, 2, 3), holds, "four of a kind keeps the quad")
}

func TestBalutAIChoosesFiveOfAKind(t *testing.T) {
	m := NewBalutManager(nil, nil, testRand())
	st := newBalutState(AIPlayer)

	// Skill 1.0 removes the randomization band, so the weights decide.
	got := m.ChooseAICategory([]int{4, 4, 4, 4, 4}, st, 1.0)
	assert.Equal(t, CatFiveOfAKind, got)
}

func TestBalutAIEndgameChoiceOnFatRoll(t *testing.T) {
	m := NewBalutManager(nil, nil, testRand())
	st := newBalutState(AIPlayer)
	st.CurrentRound = st.MaxRounds - 1

	got := m.ChooseAICategory([]int{6, 6, 6, 3, 5}, st, 1.0)
	assert.Equal(t, CatChoice, got, "a 26 sum takes Choice in the endgame")
}

func TestBalutAIFallsBackToChoiceWhenSheetFull(t *testing.T) {
	m := NewBalutManager(nil, nil, testRand())
	st := newBalutState(AIPlayer)
	for _, c := range Categories {
		st.PlayerScores[AIPlayer][c] = 1
	}
	got := m.ChooseAICategory([]int{1, 2, 3, 4, 5}, st, 1.0)
	assert.Equal(t, CatChoice, got)
}

func TestBalutAITurnScoresAfterFinalRoll(t *testing.T) {
	m := NewBalutManager(nil, nil, testRand())
	st := newBalutState(AIPlayer)
	st.RollsLeft = 0

	next := m.HandleTurn([]int{4, 4, 4, 4, 4}, st, nil)
	assert.Equal(t, HumanPlayer, next.CurrentPlayer)
	assert.NotEmpty(t, next.PlayerScores[AIPlayer])
}
