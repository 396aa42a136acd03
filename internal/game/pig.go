// internal/game/pig.go
//
// Manager for the Pig dice game.
// Two players alternate rolling a single die: non-bust rolls accumulate
// into a shared turn score, rolling a 1 forfeits the turn score, and
// banking moves the turn score into the player's total. First total at
// or above WinningScore wins.
//
// The AI banks via an adaptive threshold: opponent play style and
// predicted win rate set a base, the score situation adjusts it, and a
// small jitter keeps it from being exploitable. All randomness comes
// from the injected *rand.Rand.

package game

import (
	"fmt"
	"math"
	"math/rand"
)

const (
	// PigWinningScore is the banked total required to win.
	PigWinningScore = 100
	// PigBustValue forfeits the turn score and passes the turn.
	PigBustValue = 1

	pigMinThreshold = 12
	pigMaxThreshold = 28
)

// PigManager owns turn progression and the AI banking policy for Pig.
// It holds no game state; every method takes and returns state values.
type PigManager struct {
	analysis AnalysisProvider
	tracker  Tracker
	rng      *rand.Rand
}

// NewPigManager constructs a manager with injected collaborators.
// analysis and tracker may be nil.
func NewPigManager(analysis AnalysisProvider, tracker Tracker, rng *rand.Rand) *PigManager {
	return &PigManager{analysis: analysis, tracker: tracker, rng: rng}
}

// InitializeGame creates a fresh game with a 50/50 starting player.
func (m *PigManager) InitializeGame() PigState {
	starter := HumanPlayer
	msg := "You go first!"
	if m.rng.Intn(2) == 1 {
		starter = AIPlayer
		msg = "AI goes first!"
	}
	return PigState{
		PlayerScores:  map[int]int{HumanPlayer: 0, AIPlayer: 0},
		TurnScore:     0,
		CurrentPlayer: starter,
		Message:       msg,
	}
}

// HandleTurn applies a die roll for whichever player is active.
func (m *PigManager) HandleTurn(state PigState, die int) PigState {
	if state.GameOver {
		return state
	}
	if m.tracker != nil {
		m.tracker.TrackRoll()
	}
	if state.CurrentPlayer == AIPlayer {
		return m.handleAITurn(state, die)
	}
	return m.handlePlayerTurn(state, die)
}

// handlePlayerTurn accumulates or busts; the human banks explicitly.
func (m *PigManager) handlePlayerTurn(state PigState, die int) PigState {
	if die == PigBustValue {
		next := m.switchTurn(state)
		next.Message = "Rolled 1 - AI's turn!"
		return next
	}
	next := state
	next.PlayerScores = copyScores(state.PlayerScores)
	next.TurnScore = state.TurnScore + die
	next.Message = fmt.Sprintf("Rolled %d - turn score: %d", die, next.TurnScore)
	return next
}

// handleAITurn accumulates, then banks immediately when the policy says
// so; the AI never carries an unbanked turn score across the boundary.
func (m *PigManager) handleAITurn(state PigState, die int) PigState {
	if die == PigBustValue {
		next := m.switchTurn(state)
		next.Message = "AI rolled 1 - your turn!"
		return next
	}
	next := state
	next.PlayerScores = copyScores(state.PlayerScores)
	next.TurnScore = state.TurnScore + die
	next.Message = fmt.Sprintf("AI rolled %d - turn score: %d", die, next.TurnScore)
	if m.ShouldAIBank(next.TurnScore, next.PlayerScores[AIPlayer], next.PlayerScores[HumanPlayer]) {
		return m.BankScore(next)
	}
	return next
}

// BankScore adds the turn score to the active player's total, then
// either ends the game once the total reaches PigWinningScore or
// passes the turn.
func (m *PigManager) BankScore(state PigState) PigState {
	if state.GameOver {
		return state
	}
	scores := copyScores(state.PlayerScores)
	scores[state.CurrentPlayer] += state.TurnScore
	banked := state.TurnScore
	next := state
	next.PlayerScores = scores
	next.TurnScore = 0
	next.CurrentPlayer = opponentOf(state.CurrentPlayer)

	if scores[state.CurrentPlayer] >= PigWinningScore {
		next.GameOver = true
		if state.CurrentPlayer == AIPlayer {
			next.Message = fmt.Sprintf("AI wins with %d points!", scores[AIPlayer])
		} else {
			next.Message = fmt.Sprintf("You win with %d points!", scores[HumanPlayer])
		}
		return next
	}

	if state.CurrentPlayer == AIPlayer {
		next.Message = fmt.Sprintf("AI banks %d points. Your turn!", banked)
	} else {
		next.Message = fmt.Sprintf("Banked %d points. AI's turn!", banked)
	}
	return next
}

// ShouldAIBank decides whether the AI banks the current turn score.
// Always banks a winning score. Otherwise the minimum banking threshold
// starts from the opponent's modeled style and win rate, shifts with
// the score situation, clamps to [12, 28], and picks up a jitter of
// ±1 or ±2 depending on modeled consistency.
func (m *PigManager) ShouldAIBank(turnScore, aiTotal, playerTotal int) bool {
	if m.tracker != nil {
		m.tracker.TrackDecision()
	}
	if aiTotal+turnScore >= PigWinningScore {
		if m.tracker != nil {
			m.tracker.TrackBanking(turnScore)
		}
		return true
	}

	pa := m.playerAnalysis()
	var threshold int
	switch pa.PlayStyle {
	case StyleAggressive:
		threshold = 22
	case StyleCautious:
		threshold = 14
	default:
		threshold = 18
	}
	// A confident opponent calls for more caution.
	threshold += int(math.Round((pa.PredictedWinRate - 0.5) * 8))

	gap := aiTotal - playerTotal
	switch {
	case gap <= -30:
		threshold -= 4
	case gap >= 30:
		threshold += 2
	}
	if playerTotal >= 75 {
		threshold -= 3
	}
	if aiTotal >= 75 {
		threshold++
	}

	threshold = clampInt(threshold, pigMinThreshold, pigMaxThreshold)

	jitterSpan := 2
	if pa.Consistency > 0.7 {
		jitterSpan = 1
	}
	threshold += m.rng.Intn(2*jitterSpan+1) - jitterSpan

	if turnScore >= threshold {
		if m.tracker != nil {
			m.tracker.TrackBanking(turnScore)
		}
		return true
	}
	return false
}

// switchTurn resets the turn score and passes play to the other player.
func (m *PigManager) switchTurn(state PigState) PigState {
	next := state
	next.PlayerScores = copyScores(state.PlayerScores)
	next.TurnScore = 0
	next.CurrentPlayer = opponentOf(state.CurrentPlayer)
	return next
}

func (m *PigManager) playerAnalysis() PlayerAnalysis {
	if m.analysis != nil {
		if pa := m.analysis.PlayerAnalysis(); pa != nil {
			return *pa
		}
	}
	return defaultAnalysis()
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
