// internal/stats/stats.go
//
// Statistics subsystem backing the engines' collaborators.
// Responsibilities:
//   - Persist turn telemetry (rolls, decisions, bankings) and finished
//     game results to the game_stats table (best effort, non-fatal).
//   - Derive a game.PlayerAnalysis snapshot (play style, predicted win
//     rate, consistency) from the stored counters.
//   - Bump the users table win/streak counters, mirroring finished games.
//
// A Manager wraps the DB; ForUser binds it to one player and satisfies
// both game.AnalysisProvider and game.Tracker for that player's games.

package stats

import (
	"database/sql"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/mayor/kavi-server/internal/game"
)

// Manager provides per-user statistics views over the database.
type Manager struct {
	db *sql.DB
}

// NewManager constructs a Manager.
func NewManager(db *sql.DB) *Manager {
	return &Manager{db: db}
}

// ForUser binds the manager to a single player. The returned UserStats
// is what game managers receive as AnalysisProvider and Tracker.
func (m *Manager) ForUser(userID string) *UserStats {
	return &UserStats{db: m.db, userID: userID}
}

// UserStats is the per-player statistics view.
type UserStats struct {
	db     *sql.DB
	userID string
}

// Counters are the raw per-user aggregates stored in game_stats.
type Counters struct {
	Rolls       int
	Decisions   int
	Bankings    int
	BankedSum   float64
	BankedSqSum float64
	Games       int
	Wins        int
}

// PlayerAnalysis loads the player's counters and derives the snapshot.
// Returns nil when the player has no recorded history yet; the engines
// fall back to balanced defaults.
func (u *UserStats) PlayerAnalysis() *game.PlayerAnalysis {
	var c Counters
	err := u.db.QueryRow(`SELECT rolls, decisions, bankings, banked_sum, banked_sqsum, games, wins
	                      FROM game_stats WHERE user_id=?`, u.userID).
		Scan(&c.Rolls, &c.Decisions, &c.Bankings, &c.BankedSum, &c.BankedSqSum, &c.Games, &c.Wins)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Warn().Err(err).Str("user", u.userID).Msg("load game_stats")
		}
		return nil
	}
	return Derive(c)
}

// Derive classifies a player from raw counters.
//
//   - Play style comes from the banking ratio (bank events per roll):
//     frequent banking reads as cautious, rare banking as aggressive.
//   - Predicted win rate is wins/games shrunk toward 0.5 so a couple of
//     lucky games don't look like mastery.
//   - Consistency is the inverse coefficient of variation of banked
//     scores, clamped to [0, 1].
func Derive(c Counters) *game.PlayerAnalysis {
	if c.Games == 0 && c.Rolls == 0 {
		return nil
	}

	style := game.StyleBalanced
	if c.Rolls > 0 {
		ratio := float64(c.Bankings) / float64(c.Rolls)
		switch {
		case ratio < 0.15:
			style = game.StyleAggressive
		case ratio > 0.30:
			style = game.StyleCautious
		}
	}

	winRate := (float64(c.Wins) + 2) / (float64(c.Games) + 4)

	consistency := 0.5
	if c.Bankings > 1 && c.BankedSum > 0 {
		n := float64(c.Bankings)
		mean := c.BankedSum / n
		variance := c.BankedSqSum/n - mean*mean
		if variance < 0 {
			variance = 0
		}
		cv := math.Sqrt(variance) / mean
		consistency = clamp01(1 - cv)
	}

	return &game.PlayerAnalysis{
		PlayStyle:        style,
		PredictedWinRate: clamp01(winRate),
		Consistency:      consistency,
	}
}

// TrackRoll records a dice roll. Best effort; failures are logged.
func (u *UserStats) TrackRoll() {
	u.bump(`UPDATE game_stats SET rolls = rolls + 1 WHERE user_id=?`)
}

// TrackDecision records a bank-or-roll decision point.
func (u *UserStats) TrackDecision() {
	u.bump(`UPDATE game_stats SET decisions = decisions + 1 WHERE user_id=?`)
}

// TrackBanking records a banked score.
func (u *UserStats) TrackBanking(score int) {
	if err := u.ensureRow(); err != nil {
		log.Warn().Err(err).Str("user", u.userID).Msg("ensure game_stats row")
		return
	}
	_, err := u.db.Exec(`UPDATE game_stats
	                     SET bankings = bankings + 1,
	                         banked_sum = banked_sum + ?,
	                         banked_sqsum = banked_sqsum + ?
	                     WHERE user_id=?`, score, score*score, u.userID)
	if err != nil {
		log.Warn().Err(err).Str("user", u.userID).Msg("track banking")
	}
}

// RecordGameResult records a finished game for the player and bumps
// the users table counters inside one transaction.
func (u *UserStats) RecordGameResult(won bool) error {
	if err := u.ensureRow(); err != nil {
		return err
	}
	tx, err := u.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	winDelta := 0
	if won {
		winDelta = 1
	}
	if _, err := tx.Exec(`UPDATE game_stats SET games = games + 1, wins = wins + ? WHERE user_id=?`,
		winDelta, u.userID); err != nil {
		return err
	}

	// Mirror the counters users carry for the profile endpoint.
	var gp, wins, streak int
	row := tx.QueryRow(`SELECT games_played, wins, streak FROM users WHERE id=?`, u.userID)
	switch err := row.Scan(&gp, &wins, &streak); err {
	case nil:
		gp++
		if won {
			wins++
			streak++
		} else {
			streak = 0
		}
		if _, err := tx.Exec(`UPDATE users SET games_played=?, wins=?, streak=? WHERE id=?`,
			gp, wins, streak, u.userID); err != nil {
			return err
		}
	case sql.ErrNoRows:
		// Anonymous players have stats rows but no user row.
	default:
		return err
	}

	return tx.Commit()
}

// bump runs a single-counter update, inserting the row first if needed.
func (u *UserStats) bump(query string) {
	if err := u.ensureRow(); err != nil {
		log.Warn().Err(err).Str("user", u.userID).Msg("ensure game_stats row")
		return
	}
	if _, err := u.db.Exec(query, u.userID); err != nil {
		log.Warn().Err(err).Str("user", u.userID).Msg("bump game_stats")
	}
}

func (u *UserStats) ensureRow() error {
	_, err := u.db.Exec(`INSERT OR IGNORE INTO game_stats
	                     (user_id, rolls, decisions, bankings, banked_sum, banked_sqsum, games, wins)
	                     VALUES (?, 0, 0, 0, 0, 0, 0, 0)`, u.userID)
	return err
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
