// internal/game/balut.go
//
// Manager for the Balut dice game.
// A category-draft state machine: each turn a player gets up to
// MaxRolls rolls of five dice (holding between rolls), then scores
// exactly one unused category. The game runs one round per category;
// it ends the moment any player's score sheet is complete.
//
// AI policy: holds follow the generic combination detector, falling
// back to probabilistic keeps of high faces and pairs; category choice
// weighs raw category scores by shape priority, dice-match counts and
// a skill-scaled randomization, then applies an endgame meta-strategy.
// Randomness comes from the injected *rand.Rand.

package game

import (
	"fmt"
	"math/rand"
	"sort"
)

const (
	// BalutMaxRolls is the number of rolls per turn.
	BalutMaxRolls = 3
	// BalutDiceCount is the number of dice in play.
	BalutDiceCount = 5
)

// BalutManager owns turn progression and the AI policy for Balut.
// It holds no game state; every method takes and returns state values.
type BalutManager struct {
	analysis AnalysisProvider
	tracker  Tracker
	rng      *rand.Rand
}

// NewBalutManager constructs a manager with injected collaborators.
// analysis and tracker may be nil.
func NewBalutManager(analysis AnalysisProvider, tracker Tracker, rng *rand.Rand) *BalutManager {
	return &BalutManager{analysis: analysis, tracker: tracker, rng: rng}
}

// InitializeGame creates a fresh game with a 50/50 starting player and
// empty score sheets.
func (m *BalutManager) InitializeGame() BalutState {
	starter := HumanPlayer
	msg := fmt.Sprintf("You go first! Round 1 of %d.", len(Categories))
	if m.rng.Intn(2) == 1 {
		starter = AIPlayer
		msg = fmt.Sprintf("AI goes first! Round 1 of %d.", len(Categories))
	}
	return BalutState{
		PlayerScores: map[int]map[Category]int{
			HumanPlayer: {},
			AIPlayer:    {},
		},
		RollsLeft:     BalutMaxRolls,
		HeldDice:      map[int]struct{}{},
		CurrentRound:  1,
		MaxRounds:     len(Categories),
		CurrentPlayer: starter,
		Message:       msg,
	}
}

// HandleTurn applies a roll for whichever player is active. heldDice
// holds the indices the human chose to keep; it is ignored on AI turns.
func (m *BalutManager) HandleTurn(dice []int, state BalutState, heldDice map[int]struct{}) BalutState {
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

func (m *BalutManager) handlePlayerTurn(dice []int, state BalutState, heldDice map[int]struct{}) BalutState {
	if state.RollsLeft <= 0 {
		next := state
		next.Message = "No rolls left. Please select a category."
		return next
	}
	next := state
	next.RollsLeft = state.RollsLeft - 1
	next.HeldDice = copySet(heldDice)
	if next.RollsLeft > 0 {
		next.Message = fmt.Sprintf("Rolled: %v. %d rolls left. Hold dice to keep them.", dice, next.RollsLeft)
	} else {
		next.Message = fmt.Sprintf("Rolled: %v. Last roll! Choose a category.", dice)
	}
	return next
}

func (m *BalutManager) handleAITurn(dice []int, state BalutState) BalutState {
	if state.RollsLeft <= 0 {
		category := m.ChooseAICategory(dice, state, 1.0)
		next, err := m.ScoreCategory(state, dice, category)
		if err != nil {
			return state
		}
		return next
	}
	holds := m.DecideAIDiceHolds(dice)
	next := state
	next.RollsLeft = state.RollsLeft - 1
	next.HeldDice = holds
	next.Message = fmt.Sprintf("AI rolled: %v, holding %d dice. %d rolls left.", dice, len(holds), next.RollsLeft)
	return next
}

// ScoreCategory writes the score for a named category onto the active
// player's sheet and passes the turn. It refuses to score before the
// human has rolled (ErrNotRolled) and never overwrites an existing
// category (ErrCategoryTaken); in both cases the state is returned
// unchanged alongside the error.
func (m *BalutManager) ScoreCategory(state BalutState, dice []int, category Category) (BalutState, error) {
	if state.GameOver {
		return state, nil
	}
	player := state.CurrentPlayer
	if player != AIPlayer && state.RollsLeft == BalutMaxRolls {
		return state, ErrNotRolled
	}
	if _, taken := state.PlayerScores[player][category]; taken {
		return state, ErrCategoryTaken
	}
	if m.tracker != nil {
		m.tracker.TrackDecision()
	}

	score := CalculateCategoryScore(dice, category)
	scores := copyCategoryScores(state.PlayerScores)
	if scores[player] == nil {
		scores[player] = map[Category]int{}
	}
	scores[player][category] = score
	if m.tracker != nil {
		m.tracker.TrackBanking(score)
	}

	nextPlayer := opponentOf(player)
	nextRound := state.CurrentRound
	if nextPlayer == HumanPlayer {
		nextRound++
	}

	next := state
	next.PlayerScores = scores
	next.CurrentPlayer = nextPlayer
	next.CurrentRound = nextRound
	next.RollsLeft = BalutMaxRolls
	next.HeldDice = map[int]struct{}{}
	next.GameOver = sheetComplete(scores)

	total := 0
	for _, v := range scores[player] {
		total += v
	}
	switch {
	case next.GameOver && player == AIPlayer:
		next.Message = fmt.Sprintf("AI finishes with %d points!", total)
	case next.GameOver:
		next.Message = fmt.Sprintf("You finish with %d points!", total)
	case player == AIPlayer:
		next.Message = fmt.Sprintf("AI scores %s: %d points. Your turn!", category, score)
	default:
		next.Message = fmt.Sprintf("%s: %d points. AI's turn!", category, score)
	}
	return next, nil
}

// DecideAIDiceHolds picks the dice the AI keeps between rolls. A
// detected scoring pattern is always kept; otherwise high faces and
// pairs are held probabilistically, biased by the opponent model.
func (m *BalutManager) DecideAIDiceHolds(dice []int) map[int]struct{} {
	if _, scoring := CalculateBalutScore(dice); len(scoring) > 0 {
		return scoring
	}

	var styleFactor float64
	switch m.playerAnalysis().PlayStyle {
	case StyleAggressive:
		styleFactor = 0.7
	case StyleCautious:
		styleFactor = 0.5
	default:
		styleFactor = 0.6
	}

	counts := make(map[int]int)
	for _, d := range dice {
		counts[d]++
	}
	holds := make(map[int]struct{})
	for i, d := range dice {
		var p float64
		switch {
		case d == 5 || d == 6:
			p = styleFactor
		case counts[d] >= 2:
			p = styleFactor
		default:
			p = styleFactor - 0.3
		}
		if m.rng.Float64() < p {
			holds[i] = struct{}{}
		}
	}
	return holds
}

// ChooseAICategory picks the category the AI scores with the current
// dice. Each unused category gets a weighted score (raw score times
// shape priority, number-match weight and skill-scaled noise), then a
// meta-strategy adjusts the pick for the endgame and the score gap.
// With nothing left it falls back to Choice.
func (m *BalutManager) ChooseAICategory(dice []int, state BalutState, skillLevel float64) Category {
	used := state.PlayerScores[AIPlayer]
	available := make([]Category, 0, len(Categories))
	for _, c := range Categories {
		if _, ok := used[c]; !ok {
			available = append(available, c)
		}
	}
	if len(available) == 0 {
		return CatChoice
	}

	diceSum := 0
	for _, d := range dice {
		diceSum += d
	}

	type weighted struct {
		category Category
		weight   float64
	}
	options := make([]weighted, 0, len(available))
	for _, c := range available {
		base := float64(CalculateCategoryScore(dice, c))
		w := base * m.categoryPriority(c, diceSum) * numberMatchWeight(dice, c)
		// Lower skill widens the noise band around each weight.
		w *= 1 + (m.rng.Float64()*2-1)*0.3*(1-skillLevel)
		options = append(options, weighted{category: c, weight: w})
	}
	sort.Slice(options, func(i, j int) bool { return options[i].weight > options[j].weight })

	// Endgame: in the last two rounds Choice is only worth taking on a
	// fat roll.
	if state.CurrentRound >= state.MaxRounds-1 {
		if diceSum >= 24 {
			for _, opt := range options {
				if opt.category == CatChoice {
					return CatChoice
				}
			}
		}
	}

	aiAhead := state.TotalScore(AIPlayer) > state.TotalScore(HumanPlayer)
	switch {
	case aiAhead && skillLevel > 0.7:
		return options[0].category
	case !aiAhead && skillLevel > 0.7:
		// Behind: gamble on the high-variance shapes among the top 3.
		top := options
		if len(top) > 3 {
			top = top[:3]
		}
		for _, opt := range top {
			if opt.category == CatFiveOfAKind || opt.category == CatLargeStraight {
				return opt.category
			}
		}
		return top[0].category
	default:
		if len(options) >= 2 && m.rng.Float64() >= 0.7 {
			return options[1].category
		}
		return options[0].category
	}
}

// categoryPriority is the fixed shape weight used by ChooseAICategory.
func (m *BalutManager) categoryPriority(c Category, diceSum int) float64 {
	switch c {
	case CatFiveOfAKind:
		return 2.0
	case CatLargeStraight:
		return 1.8
	case CatSmallStraight:
		return 1.6
	case CatFourOfAKind, CatFullHouse:
		return 1.5
	case CatChoice:
		switch {
		case diceSum >= 24:
			return 1.3
		case diceSum >= 20:
			return 1.0
		default:
			return 0.6
		}
	default:
		return 1.0
	}
}

// numberMatchWeight scales number categories by how many dice matched.
func numberMatchWeight(dice []int, c Category) float64 {
	face, ok := numberFace(c)
	if !ok {
		return 1.0
	}
	switch countFace(dice, face) {
	case 5:
		return 1.8
	case 4:
		return 1.5
	case 3:
		return 1.2
	case 2:
		return 0.9
	default:
		return 0.7
	}
}

// numberFace maps a number category to its die face.
func numberFace(c Category) (int, bool) {
	switch c {
	case CatOnes:
		return 1, true
	case CatTwos:
		return 2, true
	case CatThrees:
		return 3, true
	case CatFours:
		return 4, true
	case CatFives:
		return 5, true
	case CatSixes:
		return 6, true
	}
	return 0, false
}

func (m *BalutManager) playerAnalysis() PlayerAnalysis {
	if m.analysis != nil {
		if pa := m.analysis.PlayerAnalysis(); pa != nil {
			return *pa
		}
	}
	return defaultAnalysis()
}

// sheetComplete reports whether any player has scored every category.
func sheetComplete(scores map[int]map[Category]int) bool {
	for _, sheet := range scores {
		if len(sheet) == len(Categories) {
			return true
		}
	}
	return false
}

func copyCategoryScores(m map[int]map[Category]int) map[int]map[Category]int {
	out := make(map[int]map[Category]int, len(m))
	for player, sheet := range m {
		cp := make(map[Category]int, len(sheet))
		for c, v := range sheet {
			cp[c] = v
		}
		out[player] = cp
	}
	return out
}
