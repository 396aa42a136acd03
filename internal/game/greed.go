// internal/game/greed.go
//
// Manager for the Greed (10000) dice game.
// A turn accumulates score across multiple rolls: scoring dice lock in,
// held dice carry over, a roll with no scoring dice busts the turn, and
// "hot dice" (every die scoring) forces a full reroll of all six dice.
// Banking requires an opening turn of at least MinimumStartingScore;
// first banked total at or above GreedWinningScore wins.
//
// AI policy: hold scoring dice with a probability weighted by the
// opponent model and the turn score, bank via an adaptive threshold in
// [800, 2000]. Randomness comes from the injected *rand.Rand.

package game

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

const (
	// GreedWinningScore is the banked total required to win.
	GreedWinningScore = 10000
	// GreedMinimumStartingScore is the opening-bank minimum: the first
	// bank of a game must carry at least this many points.
	GreedMinimumStartingScore = 800

	greedMinThreshold = 800
	greedMaxThreshold = 2000
	greedHoldAllScore = 800
)

// GreedManager owns turn progression and the AI policy for Greed.
// It holds no game state; every method takes and returns state values.
type GreedManager struct {
	analysis AnalysisProvider
	tracker  Tracker
	rng      *rand.Rand
}

// NewGreedManager constructs a manager with injected collaborators.
// analysis and tracker may be nil.
func NewGreedManager(analysis AnalysisProvider, tracker Tracker, rng *rand.Rand) *GreedManager {
	return &GreedManager{analysis: analysis, tracker: tracker, rng: rng}
}

// InitializeGame creates a fresh game with a 50/50 starting player.
func (m *GreedManager) InitializeGame() GreedState {
	starter := HumanPlayer
	msg := "You go first!"
	if m.rng.Intn(2) == 1 {
		starter = AIPlayer
		msg = "AI goes first!"
	}
	return GreedState{
		PlayerScores:  map[int]int{HumanPlayer: 0, AIPlayer: 0},
		TurnScore:     0,
		HeldDice:      map[int]struct{}{},
		ScoringDice:   map[int]struct{}{},
		CanReroll:     true,
		LastRoll:      nil,
		CurrentPlayer: starter,
		Message:       msg,
	}
}

// HandleTurn applies a roll for whichever player is active. heldDice
// holds the indices the human chose to keep; it is ignored on AI turns.
func (m *GreedManager) HandleTurn(dice []int, state GreedState, heldDice map[int]struct{}) GreedState {
	if state.GameOver {
		return state
	}
	if m.tracker != nil {
		m.tracker.TrackRoll()
	}
	if state.CurrentPlayer == AIPlayer {
		return m.handleAITurn(dice, state)
	}
	return m.handlePlayerTurn(dice, state, heldDice)
}

func (m *GreedManager) handlePlayerTurn(dice []int, state GreedState, heldDice map[int]struct{}) GreedState {
	if !state.CanReroll {
		next := state
		next.Message = "You can't reroll now. Bank your score."
		return next
	}

	// All dice held: nothing to roll, the player must bank.
	if len(heldDice) == len(dice) {
		next := state
		next.HeldDice = copySet(heldDice)
		next.CanReroll = false
		next.Message = "All dice are held. Bank your score or risk losing it!"
		return next
	}

	// After hot dice every die must be rerolled; keeping any busts.
	if len(state.ScoringDice) == 0 && len(state.HeldDice) > 0 {
		return m.bustTurn(state, dice, "Reroll all dice after hot dice! You lose all points for this turn.")
	}

	available := availableIndices(len(dice), state.HeldDice, state.ScoringDice)
	if len(available) == 0 {
		next := state
		next.HeldDice = copySet(heldDice)
		next.CanReroll = false
		next.Message = "No dice available to roll. Bank your score!"
		return next
	}

	rolled := valuesAt(dice, available)
	score, scoring := CalculateGreedScore(rolled)
	if len(scoring) == 0 {
		return m.bustTurn(state, dice, "Bust! You lost all accumulated points for this turn.")
	}

	newTurnScore := state.TurnScore + score
	newScoring := remapIndices(scoring, available)
	allScoring := len(unionSets(state.ScoringDice, newScoring)) == len(dice)

	next := state
	next.TurnScore = newTurnScore
	next.LastRoll = append([]int(nil), dice...)
	if allScoring {
		// Hot dice: everything scores, everything rerolls.
		next.HeldDice = map[int]struct{}{}
		next.ScoringDice = map[int]struct{}{}
		next.CanReroll = true
		next.Message = fmt.Sprintf("Scored %d (turn score %d). Hot dice! Reroll all dice!", score, newTurnScore)
		return next
	}

	next.HeldDice = copySet(heldDice)
	next.ScoringDice = unionSets(state.ScoringDice, newScoring)
	if len(next.HeldDice) == len(dice) {
		next.CanReroll = false
		next.Message = fmt.Sprintf("Scored %d (turn score %d). All dice held. Bank your score!", score, newTurnScore)
	} else {
		next.CanReroll = true
		next.Message = fmt.Sprintf("Scored %d (turn score %d).", score, newTurnScore)
	}
	return next
}

func (m *GreedManager) handleAITurn(dice []int, state GreedState) GreedState {
	if !state.CanReroll {
		return m.BankScore(state)
	}
	available := availableIndices(len(dice), state.HeldDice, state.ScoringDice)
	if len(available) == 0 {
		return m.BankScore(state)
	}

	rolled := valuesAt(dice, available)
	score, scoring := CalculateGreedScore(rolled)
	if len(scoring) == 0 {
		next := m.bustTurn(state, dice, "AI busts! Lost all accumulated points. Your turn!")
		next.CanReroll = true
		next.CurrentPlayer = HumanPlayer
		return next
	}

	newTurnScore := state.TurnScore + score
	newScoring := remapIndices(scoring, available)
	allScoring := len(unionSets(state.ScoringDice, newScoring)) == len(dice)

	if m.ShouldAIBank(newTurnScore, state.PlayerScores[AIPlayer]) && !allScoring {
		banked := state
		banked.TurnScore = newTurnScore
		return m.BankScore(banked)
	}

	next := state
	next.TurnScore = newTurnScore
	next.LastRoll = append([]int(nil), dice...)
	next.CanReroll = true
	if allScoring {
		next.HeldDice = map[int]struct{}{}
		next.ScoringDice = map[int]struct{}{}
		next.Message = fmt.Sprintf("AI scored %d (turn score %d). Hot dice, rerolling everything!", score, newTurnScore)
	} else {
		next.HeldDice = m.decideAIDiceHolds(newScoring, newTurnScore)
		next.ScoringDice = unionSets(state.ScoringDice, newScoring)
		next.Message = fmt.Sprintf("AI scored %d (turn score %d) and rolls on.", score, newTurnScore)
	}
	return next
}

// ShouldAIBank decides whether the AI banks the accumulated turn score.
// A winning bank is always taken. Below the opening minimum with no
// banked points the AI must keep rolling. Otherwise the threshold
// starts from the opponent's modeled style, shifts with the game
// situation, clamps to [800, 2000] and picks up a ±100 jitter.
func (m *GreedManager) ShouldAIBank(turnScore, aiTotal int) bool {
	if m.tracker != nil {
		m.tracker.TrackDecision()
	}
	if aiTotal+turnScore >= GreedWinningScore {
		if m.tracker != nil {
			m.tracker.TrackBanking(turnScore)
		}
		return true
	}
	if turnScore < GreedMinimumStartingScore && aiTotal == 0 {
		return false
	}

	pa := m.playerAnalysis()
	var threshold int
	switch pa.PlayStyle {
	case StyleAggressive:
		threshold = 1200
	case StyleCautious:
		threshold = 900
	default:
		threshold = 1000
	}
	if aiTotal == 0 {
		threshold -= 200 // nothing on the board yet, risk more
	}
	if aiTotal >= 8000 {
		threshold -= 300 // close out the game
	}
	if turnScore >= 2000 {
		threshold += 500 // big score, lock it in
	}
	threshold = clampInt(threshold, greedMinThreshold, greedMaxThreshold)
	threshold += m.rng.Intn(201) - 100

	if turnScore >= threshold {
		if m.tracker != nil {
			m.tracker.TrackBanking(turnScore)
		}
		return true
	}
	return false
}

// BankScore moves the turn score into the active player's total. The
// very first bank of a game requires the opening minimum; otherwise the
// turn is simply forfeited. Transient fields reset and the turn passes.
func (m *GreedManager) BankScore(state GreedState) GreedState {
	if state.GameOver {
		return state
	}
	current := state.PlayerScores[state.CurrentPlayer]
	canBank := state.TurnScore >= GreedMinimumStartingScore || current > 0

	scores := copyScores(state.PlayerScores)
	if canBank {
		scores[state.CurrentPlayer] = current + state.TurnScore
	}

	next := state
	next.PlayerScores = scores
	next.TurnScore = 0
	next.HeldDice = map[int]struct{}{}
	next.ScoringDice = map[int]struct{}{}
	next.CanReroll = true
	next.CurrentPlayer = opponentOf(state.CurrentPlayer)
	next.GameOver = anyScoreAtLeast(scores, GreedWinningScore)

	switch {
	case next.GameOver && state.CurrentPlayer == AIPlayer:
		next.Message = fmt.Sprintf("AI wins with %d points!", scores[AIPlayer])
	case next.GameOver:
		next.Message = fmt.Sprintf("You win with %d points!", scores[HumanPlayer])
	case !canBank:
		next.Message = fmt.Sprintf("Need at least %d points to start banking.", GreedMinimumStartingScore)
	case state.CurrentPlayer == AIPlayer:
		next.Message = fmt.Sprintf("AI banks %d points. Your turn!", state.TurnScore)
	default:
		next.Message = fmt.Sprintf("Banked %d points. AI's turn!", state.TurnScore)
	}
	return next
}

// decideAIDiceHolds picks which scoring dice the AI keeps. A turn score
// at the hold-all level always keeps everything; below it the keep is a
// coin flip weighted by the opponent model and the turn score magnitude.
func (m *GreedManager) decideAIDiceHolds(scoring map[int]struct{}, turnScore int) map[int]struct{} {
	if turnScore >= greedHoldAllScore {
		return copySet(scoring)
	}
	var styleFactor float64
	switch m.playerAnalysis().PlayStyle {
	case StyleAggressive:
		styleFactor = 0.8
	case StyleCautious:
		styleFactor = 0.5
	default:
		styleFactor = 0.6
	}
	p := styleFactor * math.Min(float64(turnScore)/500.0, 2.0)
	if m.rng.Float64() < p {
		return copySet(scoring)
	}
	return map[int]struct{}{}
}

// bustTurn zeroes the turn score and clears transient roll state.
func (m *GreedManager) bustTurn(state GreedState, dice []int, msg string) GreedState {
	next := state
	next.TurnScore = 0
	next.HeldDice = map[int]struct{}{}
	next.ScoringDice = map[int]struct{}{}
	next.LastRoll = append([]int(nil), dice...)
	next.CanReroll = false
	next.Message = msg
	return next
}

func (m *GreedManager) playerAnalysis() PlayerAnalysis {
	if m.analysis != nil {
		if pa := m.analysis.PlayerAnalysis(); pa != nil {
			return *pa
		}
	}
	return defaultAnalysis()
}

// availableIndices lists roll indices that are neither held nor already
// scoring, in ascending order.
func availableIndices(n int, held, scoring map[int]struct{}) []int {
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if _, ok := held[i]; ok {
			continue
		}
		if _, ok := scoring[i]; ok {
			continue
		}
		out = append(out, i)
	}
	return out
}

// valuesAt projects dice values at the given indices.
func valuesAt(dice []int, idxs []int) []int {
	out := make([]int, len(idxs))
	for i, idx := range idxs {
		out[i] = dice[idx]
	}
	return out
}

// remapIndices maps indices into a projected sub-roll back to positions
// in the original roll.
func remapIndices(scoring map[int]struct{}, available []int) map[int]struct{} {
	sorted := append([]int(nil), available...)
	sort.Ints(sorted)
	out := make(map[int]struct{}, len(scoring))
	for i := range scoring {
		out[sorted[i]] = struct{}{}
	}
	return out
}

func anyScoreAtLeast(scores map[int]int, target int) bool {
	for _, v := range scores {
		if v >= target {
			return true
		}
	}
	return false
}
