// internal/game/types.go
//
// Core type definitions for the dice-game engines.
// Defines:
//   - Player sentinels (HumanPlayer / AIPlayer).
//   - PlayStyle + PlayerAnalysis: the opponent-model snapshot AI policies read.
//   - AnalysisProvider / Tracker: injected collaborators (read / write).
//   - Category: the closed Balut category enumeration.
//   - The immutable score-state records for Pig, Greed, Balut and Custom.

package game

import "errors"

// Player indices. Every AI-bearing game pits the human (index 0)
// against a single AI opponent with a fixed sentinel index.
const (
	HumanPlayer = 0
	AIPlayer    = 1
)

// PlayStyle classifies how the human opponent tends to play.
// The AI policies bias their thresholds on it.
type PlayStyle string

const (
	StyleAggressive PlayStyle = "aggressive"
	StyleBalanced   PlayStyle = "balanced"
	StyleCautious   PlayStyle = "cautious"
)

// PlayerAnalysis is a read-only snapshot of the modeled human player,
// produced by the surrounding statistics subsystem.
type PlayerAnalysis struct {
	PlayStyle        PlayStyle `json:"playStyle"`
	PredictedWinRate float64   `json:"predictedWinRate"`
	Consistency      float64   `json:"consistency"`
}

// AnalysisProvider exposes the current player-analysis snapshot.
// Implementations may return nil when no analysis exists yet; the
// engines then fall back to balanced defaults.
type AnalysisProvider interface {
	PlayerAnalysis() *PlayerAnalysis
}

// Tracker receives fire-and-forget turn telemetry from the engines.
// Nothing the engines do depends on the sink; a nil Tracker is valid.
type Tracker interface {
	TrackRoll()
	TrackDecision()
	TrackBanking(score int)
}

// defaultAnalysis is used when the provider is absent or has no data.
func defaultAnalysis() PlayerAnalysis {
	return PlayerAnalysis{PlayStyle: StyleBalanced, PredictedWinRate: 0.5, Consistency: 0.5}
}

// Category is a Balut scoring category. The set is closed; unknown
// strings score zero in the calculator.
type Category string

const (
	CatOnes          Category = "Ones"
	CatTwos          Category = "Twos"
	CatThrees        Category = "Threes"
	CatFours         Category = "Fours"
	CatFives         Category = "Fives"
	CatSixes         Category = "Sixes"
	CatFullHouse     Category = "Full House"
	CatFourOfAKind   Category = "Four of a Kind"
	CatSmallStraight Category = "Small Straight"
	CatLargeStraight Category = "Large Straight"
	CatFiveOfAKind   Category = "Five of a Kind"
	CatChoice        Category = "Choice"
)

// Categories is the canonical Balut category list, in score-sheet order.
// A Balut game lasts exactly len(Categories) rounds per player.
var Categories = []Category{
	CatOnes, CatTwos, CatThrees, CatFours, CatFives, CatSixes,
	CatFullHouse, CatFourOfAKind, CatSmallStraight, CatLargeStraight,
	CatFiveOfAKind, CatChoice,
}

// Engine policy rejections. These signal refused actions, not faults;
// callers get the unchanged state alongside the error.
var (
	ErrNotRolled     = errors.New("must roll before scoring a category")
	ErrCategoryTaken = errors.New("category already scored")
	ErrMaxPlayers    = errors.New("maximum number of players reached")
	ErrMinPlayers    = errors.New("minimum number of players reached")
)

// PigState holds the score state of a Pig game.
// States are immutable values: manager methods return a new state.
type PigState struct {
	PlayerScores  map[int]int `json:"playerScores"` // player index to banked total
	TurnScore     int         `json:"turnScore"`    // accumulator for the active turn
	CurrentPlayer int         `json:"currentPlayer"`
	Message       string      `json:"message"`
	GameOver      bool        `json:"gameOver"`
}

// GreedState holds the score state of a Greed (10000) game.
// HeldDice and ScoringDice are index sets into LastRoll.
type GreedState struct {
	PlayerScores  map[int]int      `json:"playerScores"`
	TurnScore     int              `json:"turnScore"`
	HeldDice      map[int]struct{} `json:"heldDice"`
	ScoringDice   map[int]struct{} `json:"scoringDice"`
	CanReroll     bool             `json:"canReroll"`
	LastRoll      []int            `json:"lastRoll"`
	CurrentPlayer int              `json:"currentPlayer"`
	Message       string           `json:"message"`
	GameOver      bool             `json:"gameOver"`
}

// BalutState holds the score state of a Balut game.
// PlayerScores maps player index to a category score sheet; an entry,
// once written, is never overwritten.
type BalutState struct {
	PlayerScores  map[int]map[Category]int `json:"playerScores"`
	RollsLeft     int                      `json:"rollsLeft"`
	HeldDice      map[int]struct{}         `json:"heldDice"`
	CurrentRound  int                      `json:"currentRound"`
	MaxRounds     int                      `json:"maxRounds"`
	CurrentPlayer int                      `json:"currentPlayer"`
	Message       string                   `json:"message"`
	GameOver      bool                     `json:"gameOver"`
}

// CustomState is the free-form scorekeeping ledger (no AI, 2-6 players).
type CustomState struct {
	GameID        string           `json:"gameId"`
	GameName      string           `json:"gameName"`
	DiceCount     int              `json:"diceCount"`
	PlayerNames   map[int]string   `json:"playerNames"`
	PlayerScores  map[int]int      `json:"playerScores"`
	ScoreHistory  map[int][]string `json:"scoreHistory"`
	PlayerCount   int              `json:"playerCount"`
	CurrentPlayer int              `json:"currentPlayer"`
	Message       string           `json:"message"`
	GameOver      bool             `json:"gameOver"`
}

// TotalScore sums a player's Balut score sheet.
func (s BalutState) TotalScore(player int) int {
	total := 0
	for _, v := range s.PlayerScores[player] {
		total += v
	}
	return total
}

// opponentOf flips between the two fixed player indices.
func opponentOf(player int) int {
	if player == HumanPlayer {
		return AIPlayer
	}
	return HumanPlayer
}

// indexSet builds a set of the indices [0, n).
func indexSet(n int) map[int]struct{} {
	s := make(map[int]struct{}, n)
	for i := 0; i < n; i++ {
		s[i] = struct{}{}
	}
	return s
}

// copySet returns a copy of an index set.
func copySet(s map[int]struct{}) map[int]struct{} {
	out := make(map[int]struct{}, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// unionSets merges index sets into a new set.
func unionSets(sets ...map[int]struct{}) map[int]struct{} {
	out := make(map[int]struct{})
	for _, s := range sets {
		for k := range s {
			out[k] = struct{}{}
		}
	}
	return out
}

// copyScores returns a copy of a player score map.
func copyScores(m map[int]int) map[int]int {
	out := make(map[int]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
