package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedAnalysis returns the same snapshot on every call.
type fixedAnalysis struct{ pa *PlayerAnalysis }

func (f *fixedAnalysis) PlayerAnalysis() *PlayerAnalysis { return f.pa }

// recordingTracker counts telemetry calls.
type recordingTracker struct {
	rolls     int
	decisions int
	bankings  []int
}

func (r *recordingTracker) TrackRoll()         { r.rolls++ }
func (r *recordingTracker) TrackDecision()     { r.decisions++ }
func (r *recordingTracker) TrackBanking(s int) { r.bankings = append(r.bankings, s) }

func testRand() *rand.Rand { return rand.New(rand.NewSource(1)) }

func newPigState(current int) PigState {
	return PigState{
		PlayerScores:  map[int]int{HumanPlayer: 0, AIPlayer: 0},
		CurrentPlayer: current,
	}
}

func TestPigInitializeGame(t *testing.T) {
	m := NewPigManager(nil, nil, testRand())
	st := m.InitializeGame()

	assert.Equal(t, 0, st.PlayerScores[HumanPlayer])
	assert.Equal(t, 0, st.PlayerScores[AIPlayer])
	assert.Equal(t, 0, st.TurnScore)
	assert.False(t, st.GameOver)
	assert.Contains(t, []int{HumanPlayer, AIPlayer}, st.CurrentPlayer)
}

func TestPigHumanAccumulatesAndBanks(t *testing.T) {
	m := NewPigManager(nil, nil, testRand())
	st := newPigState(HumanPlayer)

	st = m.HandleTurn(st, 5)
	assert.Equal(t, 5, st.TurnScore)
	assert.Equal(t, HumanPlayer, st.CurrentPlayer)

	st = m.HandleTurn(st, 6)
	assert.Equal(t, 11, st.TurnScore)

	st = m.BankScore(st)
	assert.Equal(t, 11, st.PlayerScores[HumanPlayer])
	assert.Equal(t, 0, st.TurnScore)
	assert.Equal(t, AIPlayer, st.CurrentPlayer)
	assert.False(t, st.GameOver)
}

func TestPigHumanBustLosesTurnScore(t *testing.T) {
	m := NewPigManager(nil, nil, testRand())
	st := newPigState(HumanPlayer)
	st.TurnScore = 17

	st = m.HandleTurn(st, PigBustValue)
	assert.Equal(t, 0, st.TurnScore)
	assert.Equal(t, AIPlayer, st.CurrentPlayer)
	assert.Equal(t, 0, st.PlayerScores[HumanPlayer])
}

func TestPigBankWinsAtTarget(t *testing.T) {
	m := NewPigManager(nil, nil, testRand())
	st := newPigState(HumanPlayer)
	st.PlayerScores[HumanPlayer] = 95
	st.TurnScore = 6

	st = m.BankScore(st)
	assert.True(t, st.GameOver)
	assert.Equal(t, 101, st.PlayerScores[HumanPlayer])
	// The turn still passes so the winner is the non-current player.
	assert.Equal(t, AIPlayer, st.CurrentPlayer)
}

func TestPigBankOnFinishedGameIsNoop(t *testing.T) {
	m := NewPigManager(nil, nil, testRand())
	st := newPigState(HumanPlayer)
	st.GameOver = true
	st.TurnScore = 9

	next := m.BankScore(st)
	assert.Equal(t, st, next)
}

func TestPigAIBanksWinningScore(t *testing.T) {
	m := NewPigManager(nil, nil, testRand())
	assert.True(t, m.ShouldAIBank(10, 95, 0))
}

func TestPigAIBankThresholdBalanced(t *testing.T) {
	// Balanced default: base 18, no situational shifts, jitter within
	// ±2. Scores well outside [16, 20] decide deterministically.
	m := NewPigManager(nil, nil, testRand())
	for i := 0; i < 50; i++ {
		assert.True(t, m.ShouldAIBank(25, 0, 0), "25 is above any jittered threshold")
		assert.False(t, m.ShouldAIBank(10, 0, 0), "10 is below any jittered threshold")
	}
}

func TestPigAIBankThresholdByStyle(t *testing.T) {
	cautious := &fixedAnalysis{&PlayerAnalysis{PlayStyle: StyleCautious, PredictedWinRate: 0.5, Consistency: 0.9}}
	aggressive := &fixedAnalysis{&PlayerAnalysis{PlayStyle: StyleAggressive, PredictedWinRate: 0.5, Consistency: 0.9}}

	// Cautious opponent: base 14, jitter within [13, 15].
	mc := NewPigManager(cautious, nil, testRand())
	// Aggressive opponent: base 22, jitter within [21, 23].
	ma := NewPigManager(aggressive, nil, testRand())
	for i := 0; i < 50; i++ {
		assert.True(t, mc.ShouldAIBank(16, 0, 0))
		assert.False(t, ma.ShouldAIBank(16, 0, 0))
	}
}

func TestPigAIBankLateGamePressure(t *testing.T) {
	// Opponent at 90 with a 90-point lead: threshold drops to the 12
	// floor, at most 14 after jitter.
	m := NewPigManager(nil, nil, testRand())
	for i := 0; i < 50; i++ {
		assert.True(t, m.ShouldAIBank(15, 0, 90))
	}
}

func TestPigAITurnBanksEventually(t *testing.T) {
	m := NewPigManager(nil, nil, testRand())
	st := newPigState(AIPlayer)

	// Feed non-bust rolls until the policy banks; the threshold ceiling
	// is 28 plus jitter so this is bounded.
	for i := 0; i < 20 && st.CurrentPlayer == AIPlayer; i++ {
		st = m.HandleTurn(st, 4)
	}
	require.Equal(t, HumanPlayer, st.CurrentPlayer)
	assert.Positive(t, st.PlayerScores[AIPlayer])
	assert.Equal(t, 0, st.TurnScore)
}

func TestPigAIBustPassesTurn(t *testing.T) {
	m := NewPigManager(nil, nil, testRand())
	st := newPigState(AIPlayer)
	st.TurnScore = 12

	st = m.HandleTurn(st, PigBustValue)
	assert.Equal(t, HumanPlayer, st.CurrentPlayer)
	assert.Equal(t, 0, st.TurnScore)
	assert.Equal(t, 0, st.PlayerScores[AIPlayer])
}

func TestPigTrackerReceivesTelemetry(t *testing.T) {
	tr := &recordingTracker{}
	m := NewPigManager(nil, tr, testRand())
	st := newPigState(AIPlayer)

	for i := 0; i < 20 && st.CurrentPlayer == AIPlayer; i++ {
		st = m.HandleTurn(st, 4)
	}
	assert.Positive(t, tr.rolls)
	assert.Positive(t, tr.decisions)
	require.NotEmpty(t, tr.bankings)
}

func TestPigStateImmutability(t *testing.T) {
	m := NewPigManager(nil, nil, testRand())
	st := newPigState(HumanPlayer)
	st.TurnScore = 10

	_ = m.BankScore(st)
	assert.Equal(t, 10, st.TurnScore, "input state must not change")
	assert.Equal(t, 0, st.PlayerScores[HumanPlayer])
}
