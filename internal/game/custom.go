// internal/game/custom.go
//
// Manager for the free-form custom scorekeeping game.
// No AI and no rules engine: 2-6 players, a configurable dice count,
// arbitrary score deltas and free-text notes appended to per-player
// history. Out-of-range dice counts are clamped; player-list bounds
// are enforced with explicit errors.

package game

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	// CustomMaxDice / CustomDefaultDice bound the configurable dice count.
	CustomMaxDice     = 6
	CustomDefaultDice = 6
	// CustomMinPlayers / CustomMaxPlayers bound the roster size.
	CustomMinPlayers = 2
	CustomMaxPlayers = 6
)

// CustomManager owns the custom-game ledger operations.
// It holds no game state; every method takes and returns state values.
type CustomManager struct{}

// NewCustomManager constructs a manager.
func NewCustomManager() *CustomManager {
	return &CustomManager{}
}

// InitializeGame creates a fresh ledger with the minimum roster.
// An empty gameID gets a random identifier.
func (m *CustomManager) InitializeGame(gameID string) CustomState {
	if gameID == "" {
		gameID = randomID()
	}
	names := make(map[int]string, CustomMinPlayers)
	scores := make(map[int]int, CustomMinPlayers)
	history := make(map[int][]string, CustomMinPlayers)
	for i := 0; i < CustomMinPlayers; i++ {
		names[i] = fmt.Sprintf("Player %d", i+1)
		scores[i] = 0
		history[i] = []string{}
	}
	return CustomState{
		GameID:       gameID,
		GameName:     "Custom Dice Game",
		DiceCount:    CustomDefaultDice,
		PlayerNames:  names,
		PlayerScores: scores,
		ScoreHistory: history,
		PlayerCount:  CustomMinPlayers,
		Message:      "Welcome to the custom dice scorer! Roll dice and save your scores.",
	}
}

// HandleTurn reports the roll total without touching scores; score
// entries are explicit via AddScore.
func (m *CustomManager) HandleTurn(state CustomState, dice []int) CustomState {
	total := 0
	for _, d := range dice {
		total += d
	}
	next := state
	next.Message = fmt.Sprintf("Rolled: %v. Total: %d", dice, total)
	return next
}

// AddPlayer appends a new player to the roster.
func (m *CustomManager) AddPlayer(state CustomState) (CustomState, error) {
	if state.PlayerCount >= CustomMaxPlayers {
		return state, ErrMaxPlayers
	}
	idx := state.PlayerCount
	next := state
	next.PlayerNames = copyNames(state.PlayerNames)
	next.PlayerScores = copyScores(state.PlayerScores)
	next.ScoreHistory = copyHistory(state.ScoreHistory)
	next.PlayerNames[idx] = fmt.Sprintf("Player %d", idx+1)
	next.PlayerScores[idx] = 0
	next.ScoreHistory[idx] = []string{}
	next.PlayerCount = idx + 1
	next.Message = fmt.Sprintf("Added Player %d", idx+1)
	return next, nil
}

// RemovePlayer drops the highest-indexed player from the roster.
func (m *CustomManager) RemovePlayer(state CustomState) (CustomState, error) {
	if state.PlayerCount <= CustomMinPlayers {
		return state, ErrMinPlayers
	}
	idx := state.PlayerCount - 1
	next := state
	next.PlayerNames = copyNames(state.PlayerNames)
	next.PlayerScores = copyScores(state.PlayerScores)
	next.ScoreHistory = copyHistory(state.ScoreHistory)
	delete(next.PlayerNames, idx)
	delete(next.PlayerScores, idx)
	delete(next.ScoreHistory, idx)
	next.PlayerCount = idx
	if next.CurrentPlayer >= idx {
		next.CurrentPlayer = 0
	}
	next.Message = fmt.Sprintf("Removed Player %d", idx+1)
	return next, nil
}

// RenamePlayer sets a player's display name.
func (m *CustomManager) RenamePlayer(state CustomState, player int, name string) CustomState {
	if player < 0 || player >= state.PlayerCount {
		next := state
		next.Message = "Invalid player index"
		return next
	}
	next := state
	next.PlayerNames = copyNames(state.PlayerNames)
	next.PlayerNames[player] = name
	next.Message = fmt.Sprintf("Updated player name to %s", name)
	return next
}

// AddScore applies a score delta and records it in the history log.
func (m *CustomManager) AddScore(state CustomState, player, score int) CustomState {
	if player < 0 || player >= state.PlayerCount {
		next := state
		next.Message = "Invalid player index"
		return next
	}
	next := state
	next.PlayerScores = copyScores(state.PlayerScores)
	next.ScoreHistory = copyHistory(state.ScoreHistory)
	next.PlayerScores[player] += score
	next.ScoreHistory[player] = append(next.ScoreHistory[player], fmt.Sprintf("Score: %d", score))
	next.Message = fmt.Sprintf("Added score %d for %s", score, state.PlayerNames[player])
	return next
}

// AddNote appends a free-text note to a player's history log.
func (m *CustomManager) AddNote(state CustomState, player int, note string) CustomState {
	if player < 0 || player >= state.PlayerCount {
		next := state
		next.Message = "Invalid player index"
		return next
	}
	next := state
	next.ScoreHistory = copyHistory(state.ScoreHistory)
	next.ScoreHistory[player] = append(next.ScoreHistory[player], note)
	next.Message = fmt.Sprintf("Added note for %s", state.PlayerNames[player])
	return next
}

// SetDiceCount clamps the requested count into [1, CustomMaxDice].
func (m *CustomManager) SetDiceCount(state CustomState, count int) CustomState {
	next := state
	next.DiceCount = clampInt(count, 1, CustomMaxDice)
	next.Message = fmt.Sprintf("Number of dice set to %d", next.DiceCount)
	return next
}

// SetGameName sets the display name of the game.
func (m *CustomManager) SetGameName(state CustomState, name string) CustomState {
	next := state
	next.GameName = name
	next.Message = fmt.Sprintf("Game name set to: %s", name)
	return next
}

// ResetScores returns the ledger to its initial state, keeping the ID.
func (m *CustomManager) ResetScores(state CustomState) CustomState {
	next := m.InitializeGame(state.GameID)
	next.Message = "Reset board!"
	return next
}

func copyNames(m map[int]string) map[int]string {
	out := make(map[int]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyHistory(m map[int][]string) map[int][]string {
	out := make(map[int][]string, len(m))
	for k, v := range m {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// randomID returns a compact 16-hex-char identifier.
func randomID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
